package judge

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"leetlab/internal/platform/metrics"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyBatch  = errors.New("judge: empty batch")
	errNotFinished = errors.New("judge: submission not finished")
)

type Config struct {
	BaseURL      string
	APIKey       string
	APIHost      string
	PollAttempts int
	PollInterval time.Duration
	Timeout      time.Duration
}

// Client talks to a Judge0-compatible API: one batch submission, then
// sequential status polling per token.
type Client struct {
	http    *resty.Client
	cfg     Config
	metrics *metrics.Collector
}

func NewClient(cfg Config, m *metrics.Collector) *Client {
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetHeader("x-rapidapi-key", cfg.APIKey)
	}
	if cfg.APIHost != "" {
		httpClient.SetHeader("x-rapidapi-host", cfg.APIHost)
	}
	return &Client{http: httpClient, cfg: cfg, metrics: m}
}

// Execute submits reqs as one batch and polls every token in order. The
// returned slice always has len(reqs) entries; per-token failures are
// reported through Result.State, not as an error. If ctx ends before every
// token is polled the batch has no verdict and ctx's error is returned.
func (c *Client) Execute(ctx context.Context, reqs []Request) ([]Result, error) {
	tokens, err := c.SubmitBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(tokens))
	for i, token := range tokens {
		res := c.Poll(ctx, token)
		res.Index = i
		results = append(results, res)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("judge: polling %d tokens: %w", len(tokens), err)
	}
	return results, nil
}

// SubmitBatch base64-encodes every request and returns the judge tokens in
// request order.
func (c *Client) SubmitBatch(ctx context.Context, reqs []Request) ([]string, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}

	body := batchRequest{Submissions: make([]submissionPayload, len(reqs))}
	for i, r := range reqs {
		body.Submissions[i] = submissionPayload{
			SourceCode:     encode(r.SourceCode),
			LanguageID:     r.LanguageID,
			Stdin:          encode(r.Stdin),
			ExpectedOutput: encode(r.ExpectedOutput),
		}
	}

	var tokens []tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("base64_encoded", "true").
		SetBody(body).
		SetResult(&tokens).
		Post("/submissions/batch")
	if err != nil {
		c.metrics.JudgeRequest("submit_batch", "error")
		return nil, fmt.Errorf("judge: submit batch: %w", err)
	}
	if resp.IsError() {
		c.metrics.JudgeRequest("submit_batch", "error")
		return nil, fmt.Errorf("judge: submit batch: status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	if len(tokens) != len(reqs) {
		c.metrics.JudgeRequest("submit_batch", "error")
		return nil, fmt.Errorf("judge: submit batch: got %d tokens for %d submissions", len(tokens), len(reqs))
	}

	out := make([]string, len(tokens))
	for i, t := range tokens {
		if t.Token == "" {
			c.metrics.JudgeRequest("submit_batch", "error")
			return nil, fmt.Errorf("judge: submit batch: submission %d was rejected", i)
		}
		out[i] = t.Token
	}
	c.metrics.JudgeRequest("submit_batch", "ok")
	return out, nil
}

// Poll fetches the token's status up to PollAttempts times, PollInterval
// apart, stopping at the first terminal status.
func (c *Client) Poll(ctx context.Context, token string) Result {
	attempts := 0
	reachable := false
	var lastStatus Status
	var fetchErr error // from the latest attempt only

	op := func() (*submissionResponse, error) {
		attempts++
		sr, err := c.fetch(ctx, token)
		if err != nil {
			fetchErr = err
			return nil, err
		}
		fetchErr = nil
		reachable = true
		lastStatus = sr.status()
		if !lastStatus.Terminal() {
			return nil, errNotFinished
		}
		return sr, nil
	}

	sr, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.cfg.PollInterval)),
		backoff.WithMaxTries(uint(c.cfg.PollAttempts)),
	)

	var res Result
	switch {
	case err == nil:
		res = decodeResult(sr)
		res.State = StateJudged
	case fetchErr != nil:
		res = Result{State: StateFetchFailed, Status: lastStatus, Err: fetchErr.Error()}
	case reachable:
		res = Result{State: StateTimedOut, Status: lastStatus,
			Err: fmt.Sprintf("no final status after %d attempts", attempts)}
	default:
		res = Result{State: StateFetchFailed, Err: err.Error()}
	}
	res.Token = token
	res.Attempts = attempts

	if res.State != StateJudged {
		evt := log.Warn().Str("token", token).Str("state", string(res.State)).Int("attempts", attempts)
		if fetchErr != nil {
			evt = evt.Err(fetchErr)
		} else {
			evt = evt.Str("error", res.Err)
		}
		evt.Msg("judge token did not produce a verdict")
	}
	c.metrics.JudgeResult(string(res.State), attempts)
	return res
}

func (c *Client) fetch(ctx context.Context, token string) (*submissionResponse, error) {
	var out submissionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"base64_encoded": "true", "fields": "*"}).
		SetPathParam("token", token).
		SetResult(&out).
		Get("/submissions/{token}")
	if err != nil {
		c.metrics.JudgeRequest("poll", "error")
		return nil, fmt.Errorf("judge: fetch %s: %w", token, err)
	}
	if resp.IsError() {
		c.metrics.JudgeRequest("poll", "error")
		return nil, fmt.Errorf("judge: fetch %s: status %d", token, resp.StatusCode())
	}
	c.metrics.JudgeRequest("poll", "ok")
	return &out, nil
}

func decodeResult(sr *submissionResponse) Result {
	return Result{
		Status:         sr.status(),
		Stdin:          decode(sr.Stdin),
		ExpectedOutput: decode(sr.ExpectedOutput),
		Stdout:         decode(sr.Stdout),
		Stderr:         decode(sr.Stderr),
		CompileOutput:  decode(sr.CompileOutput),
		Message:        decode(sr.Message),
		Time:           float64(sr.Time),
		Memory:         int(sr.Memory),
	}
}

func encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// decode reverses Judge0's base64, which wraps lines every 60 characters.
// Undecodable values are returned as-is.
func decode(s *string) string {
	if s == nil || *s == "" {
		return ""
	}
	clean := strings.NewReplacer("\n", "", "\r", "").Replace(*s)
	b, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return *s
	}
	return string(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
