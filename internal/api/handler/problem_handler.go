package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"leetlab/internal/api/middleware"
	"leetlab/internal/app/service"
	"leetlab/internal/common"
	"leetlab/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProblemService interface {
	CreateProblem(ctx context.Context, creatorID string, in service.ProblemInput) (*model.Problem, error)
	UpdateProblem(ctx context.Context, id string, in service.ProblemInput) (*model.Problem, error)
	DeleteProblem(ctx context.Context, id string) error
	GetProblem(ctx context.Context, id string, isAdmin bool) (any, error)
	ListProblems(ctx context.Context, filter model.ProblemFilter) (*model.ProblemPage, error)
}

type SubmissionLister interface {
	ListForUser(ctx context.Context, userID, problemID string) ([]model.Submission, error)
}

type ProblemHandler struct {
	problemService ProblemService
	submissions    SubmissionLister
}

func NewProblemHandler(ps ProblemService, submissions SubmissionLister) *ProblemHandler {
	return &ProblemHandler{problemService: ps, submissions: submissions}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Use(authn)
	r.Get("/", h.listProblems)
	r.Get("/{problemID}", h.getProblem)
	r.Get("/{problemID}/submissions", h.listProblemSubmissions)

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.createProblem)
		adminRouter.Put("/{problemID}", h.updateProblem)
		adminRouter.Delete("/{problemID}", h.deleteProblem)
	})
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.ProblemInput
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	problem, err := h.problemService.CreateProblem(r.Context(), userID, req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, problem)
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	problemID, err := uuidParam(r, "problemID")
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	var req service.ProblemInput
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	problem, err := h.problemService.UpdateProblem(r.Context(), problemID, req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	problemID, err := uuidParam(r, "problemID")
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	if err := h.problemService.DeleteProblem(r.Context(), problemID); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "problem deleted successfully")
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	filter := model.ProblemFilter{
		Difficulty: model.ProblemDifficulty(strings.ToLower(strings.TrimSpace(q.Get("difficulty")))),
		Tag:        strings.ToLower(strings.TrimSpace(q.Get("tag"))),
		Search:     strings.TrimSpace(q.Get("search")),
		Page:       page,
		PageSize:   pageSize,
	}

	result, err := h.problemService.ListProblems(r.Context(), filter)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

// getProblem hides hidden test cases and reference solutions from
// non-admins.
func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problemID, err := uuidParam(r, "problemID")
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	user, _ := middleware.GetUserFromContext(r.Context())

	problem, err := h.problemService.GetProblem(r.Context(), problemID, user.IsAdmin())
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) listProblemSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	problemID, err := uuidParam(r, "problemID")
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	subs, err := h.submissions.ListForUser(r.Context(), userID, problemID)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}
