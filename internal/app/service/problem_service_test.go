package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
	"leetlab/internal/platform/judge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func problemInput() ProblemInput {
	p := sampleProblem("")
	return ProblemInput{
		Title:             p.Title,
		Description:       p.Description,
		Difficulty:        p.Difficulty,
		Tags:              p.Tags,
		VisibleTestCases:  p.VisibleTestCases,
		HiddenTestCases:   p.HiddenTestCases,
		StartCode:         p.StartCode,
		ReferenceSolution: p.ReferenceSolution,
		DriverCode:        p.DriverCode,
	}
}

func newProblemService(j *fakeJudge) (*ProblemService, *store) {
	s := newStore()
	return NewProblemService(fakeProblemRepo{s}, j), s
}

func TestCreateProblemRunsReferenceOnVisibleCases(t *testing.T) {
	j := &fakeJudge{status: judge.StatusAccepted}
	svc, s := newProblemService(j)

	p, err := svc.CreateProblem(context.Background(), "admin-1", problemInput())
	require.NoError(t, err)
	assert.Equal(t, "add-two-numbers", p.Slug)
	require.NotNil(t, p.CreatedByID)
	assert.Equal(t, "admin-1", *p.CreatedByID)
	assert.Contains(t, s.problems, p.ID)

	require.Len(t, j.requests, 1)
	batch := j.requests[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "1 2", batch[0].Stdin)
	assert.Equal(t, "3", batch[0].ExpectedOutput)
	assert.Equal(t, 71, batch[0].LanguageID)
	assert.Contains(t, batch[0].SourceCode, "return a + b")
	assert.Contains(t, batch[0].SourceCode, "print(add(")
}

func TestCreateProblemRejectsFailingReference(t *testing.T) {
	tests := map[string]*fakeJudge{
		"wrong answer": {status: judge.StatusWrongAnswer},
		"timed out": {status: judge.StatusAccepted, byStdin: map[string]judge.Result{
			"2 2": {State: judge.StateTimedOut},
		}},
	}
	for name, j := range tests {
		t.Run(name, func(t *testing.T) {
			svc, s := newProblemService(j)
			_, err := svc.CreateProblem(context.Background(), "admin-1", problemInput())
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrBadRequest)
			assert.Contains(t, err.Error(), "reference solution failed")
			assert.Empty(t, s.problems)
		})
	}
}

func TestCreateProblemJudgeDown(t *testing.T) {
	svc, _ := newProblemService(&fakeJudge{err: errors.New("connection refused")})
	_, err := svc.CreateProblem(context.Background(), "admin-1", problemInput())
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestCreateProblemDeadlineIsUnavailable(t *testing.T) {
	j := &fakeJudge{status: judge.StatusTimeLimitExceeded}
	svc, _ := newProblemService(j)

	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	_, err := svc.CreateProblem(ctx, "admin-1", problemInput())

	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	assert.NotErrorIs(t, err, common.ErrBadRequest)
}

func TestCreateProblemValidation(t *testing.T) {
	tests := map[string]func(in *ProblemInput){
		"no hidden cases":   func(in *ProblemInput) { in.HiddenTestCases = nil },
		"no visible cases":  func(in *ProblemInput) { in.VisibleTestCases = []model.VisibleTestCase{} },
		"bad difficulty":    func(in *ProblemInput) { in.Difficulty = "impossible" },
		"unknown tag":       func(in *ProblemInput) { in.Tags = []string{"trees"} },
		"unknown language":  func(in *ProblemInput) { in.StartCode = []model.CodeSnippet{{Language: "cobol", Code: "x"}} },
		"missing driver":    func(in *ProblemInput) { in.DriverCode = []model.CodeSnippet{{Language: "java", Code: "x"}} },
		"blank title":       func(in *ProblemInput) { in.Title = "   " },
		"case missing data": func(in *ProblemInput) { in.HiddenTestCases = []model.HiddenTestCase{{Input: "1"}} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			j := &fakeJudge{status: judge.StatusAccepted}
			svc, s := newProblemService(j)
			in := problemInput()
			mutate(&in)
			_, err := svc.CreateProblem(context.Background(), "admin-1", in)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Empty(t, s.problems)
			assert.Empty(t, j.requests)
		})
	}
}

func TestCreateProblemUniqueSlug(t *testing.T) {
	svc, _ := newProblemService(&fakeJudge{status: judge.StatusAccepted})

	first, err := svc.CreateProblem(context.Background(), "a", problemInput())
	require.NoError(t, err)
	second, err := svc.CreateProblem(context.Background(), "a", problemInput())
	require.NoError(t, err)

	assert.Equal(t, "add-two-numbers", first.Slug)
	assert.Equal(t, "add-two-numbers-2", second.Slug)
}

func TestUpdateProblem(t *testing.T) {
	svc, s := newProblemService(&fakeJudge{status: judge.StatusAccepted})
	created, err := svc.CreateProblem(context.Background(), "a", problemInput())
	require.NoError(t, err)

	in := problemInput()
	in.Title = "Sum Of Two"
	in.Difficulty = model.DifficultyMedium
	updated, err := svc.UpdateProblem(context.Background(), created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "sum-of-two", updated.Slug)
	assert.Equal(t, model.DifficultyMedium, s.problems[created.ID].Difficulty)

	_, err = svc.UpdateProblem(context.Background(), "missing", in)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteProblem(t *testing.T) {
	svc, s := newProblemService(&fakeJudge{status: judge.StatusAccepted})
	s.problems["p1"] = sampleProblem("p1")

	require.NoError(t, svc.DeleteProblem(context.Background(), "p1"))
	assert.ErrorIs(t, svc.DeleteProblem(context.Background(), "p1"), common.ErrNotFound)
}

func TestGetProblemHidesAdminFields(t *testing.T) {
	svc, s := newProblemService(&fakeJudge{})
	s.problems["p1"] = sampleProblem("p1")

	got, err := svc.GetProblem(context.Background(), "p1", false)
	require.NoError(t, err)
	public, ok := got.(*model.PublicProblem)
	require.True(t, ok)
	assert.Equal(t, "Add Two Numbers", public.Title)
	assert.Len(t, public.VisibleTestCases, 2)
	assert.Len(t, public.StartCode, 1)

	got, err = svc.GetProblem(context.Background(), "p1", true)
	require.NoError(t, err)
	full, ok := got.(*model.Problem)
	require.True(t, ok)
	assert.Len(t, full.HiddenTestCases, 3)

	_, err = svc.GetProblem(context.Background(), "nope", false)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListProblemsRejectsUnknownFilters(t *testing.T) {
	svc, s := newProblemService(&fakeJudge{})
	s.problems["p1"] = sampleProblem("p1")

	page, err := svc.ListProblems(context.Background(), model.ProblemFilter{Difficulty: model.DifficultyEasy})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, model.DefaultPageSize, page.PageSize)

	_, err = svc.ListProblems(context.Background(), model.ProblemFilter{Difficulty: "extreme"})
	assert.ErrorIs(t, err, common.ErrBadRequest)
	_, err = svc.ListProblems(context.Background(), model.ProblemFilter{Tag: "trees"})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
