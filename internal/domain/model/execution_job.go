package model

import (
	"time"
)

// ExecutionJob is the Redis queue envelope for judging one stored submission.
type ExecutionJob struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	Attempts     int       `json:"attempts"`
	LastError    string    `json:"last_error,omitempty"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}
