package handler

import (
	"context"
	"net/http"
	"time"

	"leetlab/internal/api/middleware"
	"leetlab/internal/app/service"
	"leetlab/internal/common"
	"leetlab/internal/common/security"
	"leetlab/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type AuthService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.AuthResponse, error)
	RegisterAdmin(ctx context.Context, req service.RegisterRequest) (*service.AuthResponse, error)
	Login(ctx context.Context, req service.LoginRequest) (*service.AuthResponse, error)
	Logout(ctx context.Context, token string, exp time.Time) error
	DeleteProfile(ctx context.Context, userID, token string, exp time.Time) error
}

type SolvedLister interface {
	SolvedByUser(ctx context.Context, userID string) ([]model.ProblemSummary, error)
}

type StatsProvider interface {
	Stats(ctx context.Context, userID string) (*model.SubmissionStats, error)
}

type AuthHandler struct {
	authService AuthService
	solved      SolvedLister
	stats       StatsProvider
}

func NewAuthHandler(authService AuthService, solved SolvedLister, stats StatsProvider) *AuthHandler {
	return &AuthHandler{authService: authService, solved: solved, stats: stats}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Post("/logout", h.logout)
		r.Get("/check", h.check)
		r.Delete("/profile", h.deleteProfile)
		r.Get("/solved", h.solvedProblems)
		r.Get("/stats", h.submissionStats)
		r.With(middleware.AdminOnly).Post("/admin/register", h.registerAdmin)
	})
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	http.SetCookie(w, security.SessionCookie(resp.Token))
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

// registerAdmin creates an account on behalf of an admin. The caller keeps
// their own session, so no cookie is set.
func (h *AuthHandler) registerAdmin(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}

	resp, err := h.authService.RegisterAdmin(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	resp.Token = ""
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := common.DecodeJSON(w, r, &req); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	http.SetCookie(w, security.SessionCookie(resp.Token))
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	token, exp := middleware.GetSessionFromContext(r.Context())
	if err := h.authService.Logout(r.Context(), token, exp); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	http.SetCookie(w, security.ExpiredSessionCookie())
	common.RespondWithMessage(w, http.StatusOK, "logged out successfully")
}

func (h *AuthHandler) check(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{
		"user":    user,
		"message": "valid user",
	})
}

func (h *AuthHandler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	token, exp := middleware.GetSessionFromContext(r.Context())
	if err := h.authService.DeleteProfile(r.Context(), userID, token, exp); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	http.SetCookie(w, security.ExpiredSessionCookie())
	common.RespondWithMessage(w, http.StatusOK, "profile deleted successfully")
}

func (h *AuthHandler) solvedProblems(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	problems, err := h.solved.SolvedByUser(r.Context(), userID)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *AuthHandler) submissionStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	stats, err := h.stats.Stats(r.Context(), userID)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}
