package handler

import (
	"context"
	"net/http"

	"leetlab/internal/api/middleware"
	"leetlab/internal/app/service"
	"leetlab/internal/common"
	"leetlab/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type SubmissionService interface {
	Submit(ctx context.Context, userID, problemID string, req service.SubmitRequest) (*model.Submission, error)
	Run(ctx context.Context, userID, problemID string, req service.RunRequest) (*service.RunResponse, error)
	GetSubmission(ctx context.Context, userID, id string) (*model.Submission, error)
	ListForUser(ctx context.Context, userID, problemID string) ([]model.Submission, error)
}

type SubmissionHandler struct {
	submissionService SubmissionService
}

func NewSubmissionHandler(ss SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Use(authn) // All submission routes require auth
	r.Post("/submit/{problemID}", h.createSubmission)
	r.Post("/run/{problemID}", h.runCode)
	r.Get("/", h.listSubmissions)
	r.Get("/{submissionID}", h.getSubmission)
}

// createSubmission answers 202: the verdict is filled in by the worker and
// read back through getSubmission.
func (h *SubmissionHandler) createSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	problemID, err := uuidParam(r, "problemID")
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	var req service.SubmitRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	sub, err := h.submissionService.Submit(r.Context(), userID, problemID, req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, sub)
}

func (h *SubmissionHandler) runCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	problemID, err := uuidParam(r, "problemID")
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	var req service.RunRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	resp, err := h.submissionService.Run(r.Context(), userID, problemID, req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *SubmissionHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	problemID, err := optionalUUIDQuery(r, "problem_id")
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	subs, err := h.submissionService.ListForUser(r.Context(), userID, problemID)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	submissionID, err := uuidParam(r, "submissionID")
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	sub, err := h.submissionService.GetSubmission(r.Context(), userID, submissionID)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, sub)
}
