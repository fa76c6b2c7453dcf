package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "leetlab"

	operationLabel = "operation"
	outcomeLabel   = "outcome"
	stateLabel     = "state"
	verdictLabel   = "verdict"
)

// Collector groups the judge and submission metrics. A nil *Collector is a
// valid no-op collector.
type Collector struct {
	JudgeRequests      *prometheus.CounterVec
	JudgePollAttempts  prometheus.Histogram
	JudgeResults       *prometheus.CounterVec
	SubmissionVerdicts *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		JudgeRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "judge",
				Name:      "requests_total",
				Help:      "Requests sent to the external judge by operation and outcome",
			},
			[]string{operationLabel, outcomeLabel},
		),
		JudgePollAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "judge",
				Name:      "poll_attempts",
				Help:      "Status fetches needed per judge token",
				Buckets:   []float64{1, 2, 3, 5, 8, 10, 15, 20},
			},
		),
		JudgeResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "judge",
				Name:      "results_total",
				Help:      "Per-token judge outcomes (judged, timed_out, fetch_failed)",
			},
			[]string{stateLabel},
		),
		SubmissionVerdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "submission",
				Name:      "verdicts_total",
				Help:      "Final verdicts stored for submissions",
			},
			[]string{verdictLabel},
		),
	}
	reg.MustRegister(c.JudgeRequests, c.JudgePollAttempts, c.JudgeResults, c.SubmissionVerdicts)
	return c
}

func (c *Collector) JudgeRequest(operation, outcome string) {
	if c == nil {
		return
	}
	c.JudgeRequests.With(prometheus.Labels{operationLabel: operation, outcomeLabel: outcome}).Inc()
}

func (c *Collector) JudgeResult(state string, attempts int) {
	if c == nil {
		return
	}
	c.JudgeResults.With(prometheus.Labels{stateLabel: state}).Inc()
	c.JudgePollAttempts.Observe(float64(attempts))
}

func (c *Collector) SubmissionVerdict(verdict string) {
	if c == nil {
		return
	}
	c.SubmissionVerdicts.With(prometheus.Labels{verdictLabel: verdict}).Inc()
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
