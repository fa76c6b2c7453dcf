package handler

import (
	"context"
	"net/http"
	"strconv"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type LeaderboardService interface {
	Top(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type LeaderboardHandler struct {
	leaderboard LeaderboardService
}

func NewLeaderboardHandler(ls LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: ls}
}

func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.top)
}

func (h *LeaderboardHandler) top(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.leaderboard.Top(r.Context(), limit)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, entries)
}

// ListLanguages serves the judge language registry.
func ListLanguages(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, model.Languages())
}
