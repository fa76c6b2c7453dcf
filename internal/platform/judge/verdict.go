package judge

import (
	"fmt"
	"strings"
)

// Aggregate verdict values. They match the persisted submission statuses.
const (
	VerdictAccepted = "accepted"
	VerdictWrong    = "wrong"
	VerdictError    = "error"
)

// UserCodePlaceholder marks where driver code expects the user's solution.
const UserCodePlaceholder = "// User code here"

type Verdict struct {
	Status       string  `json:"status"`
	Passed       int     `json:"passed"`
	Total        int     `json:"total"`
	Runtime      float64 `json:"runtime"` // seconds, summed over passed cases
	Memory       int     `json:"memory"`  // KB, max over passed cases
	ErrorMessage string  `json:"error_message,omitempty"`
}

// Aggregate folds per-case results into one verdict. expected is the number
// of test cases submitted; a shorter or incomplete result list can never be
// accepted.
func Aggregate(results []Result, expected int) Verdict {
	v := Verdict{Total: expected}
	if expected <= 0 {
		v.Status = VerdictError
		v.ErrorMessage = "no test cases to judge"
		return v
	}

	var (
		wrong      bool
		errMsg     string
		errored    bool
		incomplete int
	)
	for i, r := range results {
		if i >= expected {
			break
		}
		if r.State != StateJudged {
			incomplete++
			continue
		}
		switch r.Status.ID {
		case StatusAccepted:
			v.Passed++
			v.Runtime += r.Time
			if r.Memory > v.Memory {
				v.Memory = r.Memory
			}
		case StatusWrongAnswer:
			wrong = true
		case StatusTimeLimitExceeded:
			wrong = true
			if errMsg == "" {
				errMsg = fmt.Sprintf("Time Limit Exceeded on test case %d", i+1)
			}
		default:
			if !errored {
				errored = true
				errMsg = failureMessage(r)
			}
		}
	}
	if len(results) < expected {
		incomplete += expected - len(results)
	}

	switch {
	case errored:
		v.Status = VerdictError
		v.ErrorMessage = errMsg
	case incomplete > 0:
		v.Status = VerdictError
		v.ErrorMessage = fmt.Sprintf("judge returned no verdict for %d of %d test cases", incomplete, expected)
	case wrong || v.Passed < expected:
		v.Status = VerdictWrong
		v.ErrorMessage = errMsg
	default:
		v.Status = VerdictAccepted
	}
	return v
}

func failureMessage(r Result) string {
	for _, s := range []string{r.CompileOutput, r.Stderr, r.Message, r.Status.Description} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return fmt.Sprintf("judge status %d", r.Status.ID)
}

// ComposeSource merges user code into the driver program.
func ComposeSource(userCode, driver string) string {
	if strings.Contains(driver, UserCodePlaceholder) {
		return strings.Replace(driver, UserCodePlaceholder, userCode, 1)
	}
	return userCode + "\n" + driver
}
