package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
	"leetlab/internal/domain/repository"
	"leetlab/internal/platform/judge"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
)

const maxSlugAttempts = 50

type ProblemService struct {
	problemRepo repository.ProblemRepository
	judge       Judge
}

func NewProblemService(problemRepo repository.ProblemRepository, j Judge) *ProblemService {
	return &ProblemService{problemRepo: problemRepo, judge: j}
}

// ProblemInput is the full problem document accepted on create and update.
type ProblemInput struct {
	Title             string                  `json:"title" validate:"required,max=200"`
	Description       string                  `json:"description" validate:"required"`
	Difficulty        model.ProblemDifficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Tags              []string                `json:"tags" validate:"required,min=1,dive,required"`
	VisibleTestCases  []model.VisibleTestCase `json:"visible_test_cases" validate:"required,min=1,dive"`
	HiddenTestCases   []model.HiddenTestCase  `json:"hidden_test_cases" validate:"required,min=1,dive"`
	StartCode         []model.CodeSnippet     `json:"start_code" validate:"required,min=1,dive"`
	ReferenceSolution []model.CodeSnippet     `json:"reference_solution" validate:"required,min=1,dive"`
	DriverCode        []model.CodeSnippet     `json:"driver_code" validate:"required,min=1,dive"`
}

func (s *ProblemService) CreateProblem(ctx context.Context, creatorID string, in ProblemInput) (*model.Problem, error) {
	if err := validateProblemInput(&in); err != nil {
		return nil, err
	}

	problem := &model.Problem{ID: uuid.NewString()}
	applyProblemInput(problem, in)
	if creatorID != "" {
		problem.CreatedByID = &creatorID
	}

	if err := s.checkReferenceSolutions(ctx, problem); err != nil {
		return nil, err
	}

	var err error
	if problem.Slug, err = s.uniqueSlug(ctx, in.Title, ""); err != nil {
		return nil, err
	}
	if err := s.problemRepo.Create(ctx, problem); err != nil {
		return nil, fmt.Errorf("failed to create problem: %w", err)
	}
	log.Info().Str("problem_id", problem.ID).Str("slug", problem.Slug).Msg("problem created")
	return problem, nil
}

func (s *ProblemService) UpdateProblem(ctx context.Context, id string, in ProblemInput) (*model.Problem, error) {
	problem, err := s.problemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find problem %s: %w", id, err)
	}
	if err := validateProblemInput(&in); err != nil {
		return nil, err
	}

	titleChanged := problem.Title != in.Title
	applyProblemInput(problem, in)

	if err := s.checkReferenceSolutions(ctx, problem); err != nil {
		return nil, err
	}

	if titleChanged {
		if problem.Slug, err = s.uniqueSlug(ctx, in.Title, problem.ID); err != nil {
			return nil, err
		}
	}
	if err := s.problemRepo.Update(ctx, problem); err != nil {
		return nil, fmt.Errorf("failed to update problem: %w", err)
	}
	return problem, nil
}

func (s *ProblemService) DeleteProblem(ctx context.Context, id string) error {
	if err := s.problemRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete problem %s: %w", id, err)
	}
	log.Info().Str("problem_id", id).Msg("problem deleted")
	return nil
}

// GetProblem returns the whole document to admins and a *model.PublicProblem
// to everyone else.
func (s *ProblemService) GetProblem(ctx context.Context, id string, isAdmin bool) (any, error) {
	problem, err := s.problemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find problem %s: %w", id, err)
	}
	if isAdmin {
		return problem, nil
	}
	var public model.PublicProblem
	if err := copier.Copy(&public, problem); err != nil {
		return nil, fmt.Errorf("failed to build public problem: %w", err)
	}
	return &public, nil
}

func (s *ProblemService) ListProblems(ctx context.Context, filter model.ProblemFilter) (*model.ProblemPage, error) {
	filter = filter.Normalize()
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		return nil, fmt.Errorf("unknown difficulty %q: %w", filter.Difficulty, common.ErrBadRequest)
	}
	if filter.Tag != "" && !model.AllowedTags.Contains(filter.Tag) {
		return nil, fmt.Errorf("unknown tag %q: %w", filter.Tag, common.ErrBadRequest)
	}

	problems, total, err := s.problemRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	return &model.ProblemPage{Problems: problems, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (s *ProblemService) SolvedByUser(ctx context.Context, userID string) ([]model.ProblemSummary, error) {
	problems, err := s.problemRepo.SolvedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load solved problems: %w", err)
	}
	return problems, nil
}

// checkReferenceSolutions runs every reference solution, merged with its
// driver, against the visible cases. Anything short of accepted rejects
// the problem.
func (s *ProblemService) checkReferenceSolutions(ctx context.Context, p *model.Problem) error {
	for _, ref := range p.ReferenceSolution {
		lang, _ := model.LookupLanguage(ref.Language)
		driver, _ := p.DriverFor(lang.Slug)

		source := judge.ComposeSource(ref.Code, driver.Code)
		reqs := buildRequests(lang, source, visibleCases(p))
		results, err := s.judge.Execute(ctx, reqs)
		if err != nil {
			return fmt.Errorf("%w: checking %s reference solution: %v", ErrJudgeUnavailable, lang.Slug, err)
		}
		if cerr := ctx.Err(); cerr != nil {
			// Unfinished polls are the deadline's fault, not the solution's.
			return fmt.Errorf("%w: checking %s reference solution: %v", ErrJudgeUnavailable, lang.Slug, cerr)
		}

		verdict := judge.Aggregate(results, len(reqs))
		if verdict.Status != judge.VerdictAccepted {
			msg := fmt.Sprintf("reference solution failed for %s (%d/%d passed)", lang.Slug, verdict.Passed, verdict.Total)
			if verdict.ErrorMessage != "" {
				msg += ": " + verdict.ErrorMessage
			}
			return fmt.Errorf("%s: %w", msg, common.ErrBadRequest)
		}
	}
	return nil
}

func (s *ProblemService) uniqueSlug(ctx context.Context, title, excludeID string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "problem"
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts; i++ {
		exists, err := s.problemRepo.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return base + "-" + uuid.NewString()[:8], nil
}

// validateProblemInput checks struct tags, then the rules tags cannot
// express: known tags, supported languages, and a driver for every
// reference solution.
func validateProblemInput(in *ProblemInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if err := common.Validate(in); err != nil {
		return err
	}

	var fields []string
	for _, tag := range in.Tags {
		if !model.AllowedTags.Contains(tag) {
			fields = append(fields, fmt.Sprintf("tags: %q is not an allowed tag", tag))
		}
	}
	check := func(field string, snippets []model.CodeSnippet) {
		for _, sn := range snippets {
			if _, ok := model.LookupLanguage(sn.Language); !ok {
				fields = append(fields, fmt.Sprintf("%s: unsupported language %q", field, sn.Language))
			}
		}
	}
	check("start_code", in.StartCode)
	check("reference_solution", in.ReferenceSolution)
	check("driver_code", in.DriverCode)

	probe := model.Problem{DriverCode: in.DriverCode}
	for _, ref := range in.ReferenceSolution {
		if _, ok := probe.DriverFor(ref.Language); !ok {
			fields = append(fields, fmt.Sprintf("driver_code: missing for reference solution language %q", ref.Language))
		}
	}

	if len(fields) > 0 {
		return &common.ValidationError{Fields: fields}
	}
	return nil
}

func applyProblemInput(p *model.Problem, in ProblemInput) {
	p.Title = in.Title
	p.Description = in.Description
	p.Difficulty = in.Difficulty
	p.Tags = in.Tags
	p.VisibleTestCases = in.VisibleTestCases
	p.HiddenTestCases = in.HiddenTestCases
	p.StartCode = in.StartCode
	p.ReferenceSolution = in.ReferenceSolution
	p.DriverCode = in.DriverCode
}

// isNotFound is shared by the services that map missing rows.
func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
