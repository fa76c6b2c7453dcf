package service

import (
	"context"
	"fmt"

	"leetlab/internal/domain/model"
	"leetlab/internal/domain/repository"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

type LeaderboardService struct {
	userRepo repository.UserRepository
}

func NewLeaderboardService(userRepo repository.UserRepository) *LeaderboardService {
	return &LeaderboardService{userRepo: userRepo}
}

func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	switch {
	case limit <= 0:
		limit = defaultLeaderboardSize
	case limit > maxLeaderboardSize:
		limit = maxLeaderboardSize
	}
	entries, err := s.userRepo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return entries, nil
}
