package judge

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Judge0 status ids.
const (
	StatusInQueue           = 1
	StatusProcessing        = 2
	StatusAccepted          = 3
	StatusWrongAnswer       = 4
	StatusTimeLimitExceeded = 5
	StatusCompilationError  = 6
	StatusInternalError     = 13
	StatusExecFormatError   = 14
)

type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Terminal reports whether the judge has finished with the token.
func (s Status) Terminal() bool {
	return s.ID > StatusProcessing
}

// State says how a token's polling ended.
type State string

const (
	StateJudged      State = "judged"
	StateTimedOut    State = "timed_out"    // reachable, never reached a terminal status
	StateFetchFailed State = "fetch_failed" // no status fetch ever succeeded
)

// Request is one test-case execution: plain text, encoded on the wire.
type Request struct {
	SourceCode     string
	LanguageID     int
	Stdin          string
	ExpectedOutput string
}

// Result is the decoded outcome for one token. Exactly one Result is produced
// per submitted Request, in order.
type Result struct {
	Index          int     `json:"index"`
	Token          string  `json:"token"`
	State          State   `json:"state"`
	Attempts       int     `json:"attempts"`
	Status         Status  `json:"status"`
	Stdin          string  `json:"stdin"`
	ExpectedOutput string  `json:"expected_output"`
	Stdout         string  `json:"stdout"`
	Stderr         string  `json:"stderr"`
	CompileOutput  string  `json:"compile_output"`
	Message        string  `json:"message"`
	Time           float64 `json:"time"`   // seconds
	Memory         int     `json:"memory"` // KB
	Err            string  `json:"error,omitempty"`
}

func (r Result) Accepted() bool {
	return r.State == StateJudged && r.Status.ID == StatusAccepted
}

type submissionPayload struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type batchRequest struct {
	Submissions []submissionPayload `json:"submissions"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type submissionResponse struct {
	Token          string    `json:"token"`
	SourceCode     *string   `json:"source_code"`
	Stdin          *string   `json:"stdin"`
	ExpectedOutput *string   `json:"expected_output"`
	Stdout         *string   `json:"stdout"`
	Stderr         *string   `json:"stderr"`
	CompileOutput  *string   `json:"compile_output"`
	Message        *string   `json:"message"`
	Time           flexFloat `json:"time"`
	Memory         flexFloat `json:"memory"`
	StatusID       int       `json:"status_id"`
	Status         *Status   `json:"status"`
}

func (s *submissionResponse) status() Status {
	if s.Status != nil && s.Status.ID != 0 {
		return *s.Status
	}
	return Status{ID: s.StatusID}
}

// flexFloat accepts numbers, numeric strings and null; Judge0 sends "time"
// as a string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}
