package service

import (
	"context"
	"fmt"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
	"leetlab/internal/domain/repository"
	"leetlab/internal/platform/judge"
	"leetlab/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// JobEnqueuer hands execution jobs to the background worker.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job model.ExecutionJob) error
}

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	queue          JobEnqueuer
	judge          Judge
	metrics        *metrics.Collector
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	problemRepo repository.ProblemRepository,
	queue JobEnqueuer,
	j Judge,
	m *metrics.Collector,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		problemRepo:    problemRepo,
		queue:          queue,
		judge:          j,
		metrics:        m,
	}
}

type SubmitRequest struct {
	Code     string `json:"code" validate:"required"`
	Language string `json:"language" validate:"required"`
}

type RunRequest = SubmitRequest

type RunResponse struct {
	judge.Verdict
	Results []model.RunCodeResult `json:"results"`
}

// Submit stores a pending submission and queues it for judging against the
// hidden cases. Nothing is stored when the request cannot be judged at all.
func (s *SubmissionService) Submit(ctx context.Context, userID, problemID string, req SubmitRequest) (*model.Submission, error) {
	problem, lang, _, err := s.prepare(ctx, problemID, req)
	if err != nil {
		return nil, err
	}

	sub := &model.Submission{
		ID:             uuid.NewString(),
		UserID:         userID,
		ProblemID:      problem.ID,
		Code:           req.Code,
		Language:       lang.Slug,
		Status:         model.StatusPending,
		TestCasesTotal: len(problem.HiddenTestCases),
	}
	if err := s.submissionRepo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	job := model.ExecutionJob{ID: uuid.NewString(), SubmissionID: sub.ID}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		log.Error().Err(err).Str("submission_id", sub.ID).Msg("failed to enqueue submission")
		sub.Status = model.StatusError
		sub.ErrorMessage = "submission could not be queued for judging"
		if serr := s.submissionRepo.SaveVerdict(ctx, sub); serr != nil {
			log.Error().Err(serr).Str("submission_id", sub.ID).Msg("failed to mark unqueued submission as error")
		}
		return nil, fmt.Errorf("failed to queue submission: %w", common.ErrServiceUnavailable)
	}

	log.Info().Str("submission_id", sub.ID).Str("job_id", job.ID).Msg("submission queued")
	return sub, nil
}

// Evaluate judges a pending submission and stores the verdict. It returns
// ErrJudgeUnavailable when the batch could not be submitted, so the caller
// may retry. Already judged submissions are left untouched.
func (s *SubmissionService) Evaluate(ctx context.Context, submissionID string) error {
	sub, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to load submission %s: %w", submissionID, err)
	}
	if sub.Status != model.StatusPending {
		log.Debug().Str("submission_id", sub.ID).Str("status", string(sub.Status)).Msg("submission already judged")
		return nil
	}

	problem, err := s.problemRepo.FindByID(ctx, sub.ProblemID)
	if err != nil {
		return fmt.Errorf("failed to load problem %s: %w", sub.ProblemID, err)
	}
	lang, ok := model.LookupLanguage(sub.Language)
	if !ok {
		return s.Fail(ctx, sub.ID, fmt.Sprintf("unsupported language %q", sub.Language))
	}
	driver, ok := problem.DriverFor(lang.Slug)
	if !ok {
		return s.Fail(ctx, sub.ID, fmt.Sprintf("problem has no driver code for %s", lang.Slug))
	}

	reqs := buildRequests(lang, judge.ComposeSource(sub.Code, driver.Code), hiddenCases(problem))
	results, err := s.judge.Execute(ctx, reqs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrJudgeUnavailable, err)
	}

	verdict := judge.Aggregate(results, len(reqs))
	sub.Status = model.SubmissionStatus(verdict.Status)
	sub.Runtime = verdict.Runtime
	sub.Memory = verdict.Memory
	sub.ErrorMessage = verdict.ErrorMessage
	sub.TestCasesPassed = verdict.Passed
	sub.TestCasesTotal = verdict.Total
	sub.TestResults = testCaseResults(results)

	if err := s.submissionRepo.SaveVerdict(ctx, sub); err != nil {
		return fmt.Errorf("failed to save verdict for %s: %w", sub.ID, err)
	}
	s.metrics.SubmissionVerdict(string(sub.Status))
	log.Info().Str("submission_id", sub.ID).Str("status", string(sub.Status)).
		Int("passed", sub.TestCasesPassed).Int("total", sub.TestCasesTotal).Msg("submission judged")
	return nil
}

// Fail marks a still-pending submission as errored with msg.
func (s *SubmissionService) Fail(ctx context.Context, submissionID, msg string) error {
	sub, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to load submission %s: %w", submissionID, err)
	}
	if sub.Status != model.StatusPending {
		return nil
	}
	sub.Status = model.StatusError
	sub.ErrorMessage = msg
	if err := s.submissionRepo.SaveVerdict(ctx, sub); err != nil {
		return fmt.Errorf("failed to save error for %s: %w", sub.ID, err)
	}
	s.metrics.SubmissionVerdict(string(sub.Status))
	return nil
}

// Run judges the code against the visible cases and returns every case's
// output. Nothing is stored.
func (s *SubmissionService) Run(ctx context.Context, userID, problemID string, req RunRequest) (*RunResponse, error) {
	problem, lang, driver, err := s.prepare(ctx, problemID, req)
	if err != nil {
		return nil, err
	}

	reqs := buildRequests(lang, judge.ComposeSource(req.Code, driver.Code), visibleCases(problem))
	results, err := s.judge.Execute(ctx, reqs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJudgeUnavailable, err)
	}

	resp := &RunResponse{
		Verdict: judge.Aggregate(results, len(reqs)),
		Results: make([]model.RunCodeResult, len(results)),
	}
	for i, r := range results {
		var tc model.VisibleTestCase
		if i < len(problem.VisibleTestCases) {
			tc = problem.VisibleTestCases[i]
		}
		resp.Results[i] = model.RunCodeResult{
			Input:          tc.Input,
			ExpectedOutput: tc.Output,
			Stdout:         r.Stdout,
			State:          string(r.State),
			StatusID:       r.Status.ID,
			Status:         r.Status.Description,
			Time:           r.Time,
			Memory:         r.Memory,
			CompileOutput:  r.CompileOutput,
			Stderr:         r.Stderr,
			Error:          r.Err,
		}
	}
	log.Debug().Str("user_id", userID).Str("problem_id", problemID).Str("status", resp.Status).Msg("code run")
	return resp, nil
}

// GetSubmission only returns the caller's own submissions; anything else
// looks missing.
func (s *SubmissionService) GetSubmission(ctx context.Context, userID, id string) (*model.Submission, error) {
	sub, err := s.submissionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find submission %s: %w", id, err)
	}
	if sub.UserID != userID {
		return nil, fmt.Errorf("submission %s: %w", id, common.ErrNotFound)
	}
	return sub, nil
}

func (s *SubmissionService) ListForUser(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	subs, err := s.submissionRepo.ListForUser(ctx, userID, problemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

func (s *SubmissionService) Stats(ctx context.Context, userID string) (*model.SubmissionStats, error) {
	stats, err := s.submissionRepo.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	return stats, nil
}

// prepare validates the request and resolves the problem, language and
// driver code it needs.
func (s *SubmissionService) prepare(ctx context.Context, problemID string, req SubmitRequest) (*model.Problem, model.Language, model.CodeSnippet, error) {
	if err := common.Validate(req); err != nil {
		return nil, model.Language{}, model.CodeSnippet{}, err
	}
	lang, ok := model.LookupLanguage(req.Language)
	if !ok {
		return nil, model.Language{}, model.CodeSnippet{},
			fmt.Errorf("unsupported language %q: %w", req.Language, common.ErrBadRequest)
	}
	problem, err := s.problemRepo.FindByID(ctx, problemID)
	if err != nil {
		if isNotFound(err) {
			return nil, model.Language{}, model.CodeSnippet{}, fmt.Errorf("problem %s: %w", problemID, common.ErrNotFound)
		}
		return nil, model.Language{}, model.CodeSnippet{}, fmt.Errorf("failed to load problem: %w", err)
	}
	driver, ok := problem.DriverFor(lang.Slug)
	if !ok {
		return nil, model.Language{}, model.CodeSnippet{},
			fmt.Errorf("problem has no driver code for %s: %w", lang.Slug, common.ErrBadRequest)
	}
	return problem, lang, driver, nil
}

func testCaseResults(results []judge.Result) []model.TestCaseResult {
	out := make([]model.TestCaseResult, len(results))
	for i, r := range results {
		out[i] = model.TestCaseResult{
			Index:    r.Index,
			State:    string(r.State),
			StatusID: r.Status.ID,
			Status:   r.Status.Description,
			Time:     r.Time,
			Memory:   r.Memory,
		}
	}
	return out
}
