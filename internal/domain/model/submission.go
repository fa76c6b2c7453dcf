package model

import "time"

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusAccepted SubmissionStatus = "accepted"
	StatusWrong    SubmissionStatus = "wrong"
	StatusError    SubmissionStatus = "error"
)

type Submission struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	ProblemID       string           `json:"problem_id"`
	Code            string           `json:"code"`
	Language        string           `json:"language"`
	Status          SubmissionStatus `json:"status"`
	Runtime         float64          `json:"runtime"` // seconds, summed over passed cases
	Memory          int              `json:"memory"`  // KB, max over passed cases
	ErrorMessage    string           `json:"error_message"`
	TestCasesPassed int              `json:"test_cases_passed"`
	TestCasesTotal  int              `json:"test_cases_total"`
	TestResults     []TestCaseResult `json:"test_results,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TestCaseResult is the stored per-case outcome. Outputs of hidden cases are
// deliberately not kept.
type TestCaseResult struct {
	Index    int     `json:"index"`
	State    string  `json:"state"` // judged, timed_out, fetch_failed
	StatusID int     `json:"status_id"`
	Status   string  `json:"status"`
	Time     float64 `json:"time"`
	Memory   int     `json:"memory"`
}

// RunCodeResult is returned by "run" against visible cases; nothing is stored.
type RunCodeResult struct {
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expected_output"`
	Stdout         string  `json:"stdout"`
	State          string  `json:"state"`
	StatusID       int     `json:"status_id"`
	Status         string  `json:"status"`
	Time           float64 `json:"time"`
	Memory         int     `json:"memory"`
	CompileOutput  string  `json:"compile_output,omitempty"`
	Stderr         string  `json:"stderr,omitempty"`
	Error          string  `json:"error,omitempty"`
}

type DailySubmissionCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

type SubmissionStats struct {
	TotalSubmissions   int                    `json:"total_submissions"`
	ByStatus           map[string]int         `json:"by_status"`
	SolvedTotal        int                    `json:"solved_total"`
	SolvedByDifficulty map[string]int         `json:"solved_by_difficulty"`
	Daily              []DailySubmissionCount `json:"daily"`
}
