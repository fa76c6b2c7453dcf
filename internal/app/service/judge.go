package service

import (
	"context"
	"fmt"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
	"leetlab/internal/platform/judge"
)

// Judge runs an ordered batch of test cases on the remote judge.
// *judge.Client implements it.
type Judge interface {
	Execute(ctx context.Context, reqs []judge.Request) ([]judge.Result, error)
}

// ErrJudgeUnavailable means the batch never reached the judge, so no
// verdict exists yet.
var ErrJudgeUnavailable = fmt.Errorf("code judge unavailable: %w", common.ErrServiceUnavailable)

// buildRequests pairs one composed program with every (input, output) pair.
func buildRequests(lang model.Language, source string, cases [][2]string) []judge.Request {
	reqs := make([]judge.Request, len(cases))
	for i, c := range cases {
		reqs[i] = judge.Request{
			SourceCode:     source,
			LanguageID:     lang.JudgeID,
			Stdin:          c[0],
			ExpectedOutput: c[1],
		}
	}
	return reqs
}

func visibleCases(p *model.Problem) [][2]string {
	out := make([][2]string, len(p.VisibleTestCases))
	for i, tc := range p.VisibleTestCases {
		out[i] = [2]string{tc.Input, tc.Output}
	}
	return out
}

func hiddenCases(p *model.Problem) [][2]string {
	out := make([][2]string, len(p.HiddenTestCases))
	for i, tc := range p.HiddenTestCases {
		out[i] = [2]string{tc.Input, tc.Output}
	}
	return out
}
