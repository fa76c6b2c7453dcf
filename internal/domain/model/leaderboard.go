package model

type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"user_id"`
	FirstName      string `json:"first_name"`
	ProblemsSolved int    `json:"problems_solved"`
}
