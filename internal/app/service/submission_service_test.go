package service

import (
	"context"
	"errors"
	"testing"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
	"leetlab/internal/platform/judge"
	"leetlab/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submissionFixture struct {
	svc   *SubmissionService
	store *store
	subs  *fakeSubmissionRepo
	queue *fakeQueue
	judge *fakeJudge
	m     *metrics.Collector
}

func newSubmissionFixture() *submissionFixture {
	s := newStore()
	s.problems["p1"] = sampleProblem("p1")
	subs := &fakeSubmissionRepo{s: s}
	q := &fakeQueue{}
	j := &fakeJudge{status: judge.StatusAccepted}
	m := metrics.NewCollector(prometheus.NewRegistry())
	return &submissionFixture{
		svc:   NewSubmissionService(subs, fakeProblemRepo{s}, q, j, m),
		store: s,
		subs:  subs,
		queue: q,
		judge: j,
		m:     m,
	}
}

func TestSubmitQueuesPendingSubmission(t *testing.T) {
	f := newSubmissionFixture()

	sub, err := f.svc.Submit(context.Background(), "u1", "p1", SubmitRequest{Code: "def add(a, b): return a + b", Language: "py"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, sub.Status)
	assert.Equal(t, "python", sub.Language)
	assert.Equal(t, 3, sub.TestCasesTotal)

	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, sub.ID, f.queue.jobs[0].SubmissionID)
	assert.Contains(t, f.store.submissions, sub.ID)
	assert.Empty(t, f.judge.requests)
}

func TestSubmitWithoutDriverCreatesNothing(t *testing.T) {
	f := newSubmissionFixture()

	_, err := f.svc.Submit(context.Background(), "u1", "p1", SubmitRequest{Code: "class Solution {}", Language: "java"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrBadRequest)
	assert.Empty(t, f.store.submissions)
	assert.Empty(t, f.queue.jobs)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	f := newSubmissionFixture()

	_, err := f.svc.Submit(context.Background(), "u1", "p1", SubmitRequest{Language: "python"})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.svc.Submit(context.Background(), "u1", "p1", SubmitRequest{Code: "x", Language: "cobol"})
	assert.ErrorIs(t, err, common.ErrBadRequest)

	_, err = f.svc.Submit(context.Background(), "u1", "missing", SubmitRequest{Code: "x", Language: "python"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.Empty(t, f.store.submissions)
}

func TestSubmitEnqueueFailureMarksError(t *testing.T) {
	f := newSubmissionFixture()
	f.queue.err = errors.New("redis down")

	_, err := f.svc.Submit(context.Background(), "u1", "p1", SubmitRequest{Code: "x", Language: "python"})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)

	require.Len(t, f.store.submissions, 1)
	for _, sub := range f.store.submissions {
		assert.Equal(t, model.StatusError, sub.Status)
		assert.NotEmpty(t, sub.ErrorMessage)
	}
}

func TestEvaluateAcceptedMarksSolvedOnce(t *testing.T) {
	f := newSubmissionFixture()
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, "u1", "p1", SubmitRequest{Code: "x", Language: "python"})
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, "u1", "p1", SubmitRequest{Code: "y", Language: "python"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Evaluate(ctx, first.ID))
	require.NoError(t, f.svc.Evaluate(ctx, second.ID))

	got := f.store.submissions[first.ID]
	assert.Equal(t, model.StatusAccepted, got.Status)
	assert.Equal(t, 3, got.TestCasesPassed)
	assert.InDelta(t, 0.03, got.Runtime, 1e-9)
	assert.Equal(t, 1002, got.Memory)
	require.Len(t, got.TestResults, 3)
	assert.Equal(t, string(judge.StateJudged), got.TestResults[0].State)

	assert.Len(t, f.store.solved, 1)
	assert.Equal(t, first.ID, f.store.solved[[2]string{"u1", "p1"}])

	// hidden cases only
	require.Len(t, f.judge.requests, 2)
	assert.Equal(t, "10 5", f.judge.requests[0][0].Stdin)
	assert.Equal(t, float64(2), testutil.ToFloat64(f.m.SubmissionVerdicts.WithLabelValues("accepted")))
}

func TestEvaluateIncompleteIsNeverAccepted(t *testing.T) {
	f := newSubmissionFixture()
	f.judge.byStdin = map[string]judge.Result{"0 0": {State: judge.StateTimedOut}}

	sub, err := f.svc.Submit(context.Background(), "u1", "p1", SubmitRequest{Code: "x", Language: "python"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Evaluate(context.Background(), sub.ID))

	got := f.store.submissions[sub.ID]
	assert.Equal(t, model.StatusError, got.Status)
	assert.Equal(t, 2, got.TestCasesPassed)
	assert.Equal(t, 3, got.TestCasesTotal)
	assert.Equal(t, string(judge.StateTimedOut), got.TestResults[1].State)
	assert.Empty(t, f.store.solved)
}

func TestEvaluateWrongAnswer(t *testing.T) {
	f := newSubmissionFixture()
	f.judge.status = judge.StatusWrongAnswer

	sub, err := f.svc.Submit(context.Background(), "u1", "p1", SubmitRequest{Code: "x", Language: "python"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Evaluate(context.Background(), sub.ID))

	assert.Equal(t, model.StatusWrong, f.store.submissions[sub.ID].Status)
	assert.Empty(t, f.store.solved)
}

func TestEvaluateJudgeDownIsRetryable(t *testing.T) {
	f := newSubmissionFixture()
	f.judge.err = errors.New("dial tcp: refused")

	sub, err := f.svc.Submit(context.Background(), "u1", "p1", SubmitRequest{Code: "x", Language: "python"})
	require.NoError(t, err)

	err = f.svc.Evaluate(context.Background(), sub.ID)
	assert.ErrorIs(t, err, ErrJudgeUnavailable)
	assert.Equal(t, model.StatusPending, f.store.submissions[sub.ID].Status)

	require.NoError(t, f.svc.Fail(context.Background(), sub.ID, "gave up"))
	assert.Equal(t, model.StatusError, f.store.submissions[sub.ID].Status)
	assert.Equal(t, "gave up", f.store.submissions[sub.ID].ErrorMessage)
}

func TestEvaluateSkipsJudgedSubmission(t *testing.T) {
	f := newSubmissionFixture()
	f.store.submissions["s1"] = &model.Submission{ID: "s1", UserID: "u1", ProblemID: "p1", Status: model.StatusWrong}

	require.NoError(t, f.svc.Evaluate(context.Background(), "s1"))
	assert.Empty(t, f.judge.requests)
}

func TestRunUsesVisibleCasesWithoutPersisting(t *testing.T) {
	f := newSubmissionFixture()
	f.judge.byStdin = map[string]judge.Result{"2 2": {
		State: judge.StateJudged, Status: judge.Status{ID: judge.StatusCompilationError, Description: "Compilation Error"},
		CompileOutput: "SyntaxError",
	}}

	resp, err := f.svc.Run(context.Background(), "u1", "p1", RunRequest{Code: "def add(a, b) return", Language: "python"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "1 2", resp.Results[0].Input)
	assert.Equal(t, "3", resp.Results[0].ExpectedOutput)
	assert.Equal(t, "3", resp.Results[0].Stdout)
	assert.Equal(t, "SyntaxError", resp.Results[1].CompileOutput)
	assert.Equal(t, judge.VerdictError, resp.Status)
	assert.Equal(t, "SyntaxError", resp.ErrorMessage)
	assert.Empty(t, f.store.submissions)
}

func TestRunJudgeDown(t *testing.T) {
	f := newSubmissionFixture()
	f.judge.err = errors.New("boom")
	_, err := f.svc.Run(context.Background(), "u1", "p1", RunRequest{Code: "x", Language: "python"})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestGetSubmissionOwnerOnly(t *testing.T) {
	f := newSubmissionFixture()
	f.store.submissions["s1"] = &model.Submission{ID: "s1", UserID: "u1", ProblemID: "p1"}

	sub, err := f.svc.GetSubmission(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sub.ID)

	_, err = f.svc.GetSubmission(context.Background(), "u2", "s1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListAndStats(t *testing.T) {
	f := newSubmissionFixture()
	f.store.submissions["s1"] = &model.Submission{ID: "s1", UserID: "u1", ProblemID: "p1", Status: model.StatusAccepted}
	f.store.submissions["s2"] = &model.Submission{ID: "s2", UserID: "u1", ProblemID: "p2", Status: model.StatusWrong}
	f.store.submissions["s3"] = &model.Submission{ID: "s3", UserID: "u2", ProblemID: "p1", Status: model.StatusWrong}

	subs, err := f.svc.ListForUser(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "s1", subs[0].ID)

	stats, err := f.svc.Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSubmissions)
	assert.Equal(t, 1, stats.ByStatus["wrong"])
}
