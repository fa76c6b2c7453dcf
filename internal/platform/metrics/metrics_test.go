package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.JudgeRequest("submit_batch", "ok")
	c.JudgeRequest("submit_batch", "ok")
	c.JudgeResult("timed_out", 10)
	c.SubmissionVerdict("accepted")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.JudgeRequests.WithLabelValues("submit_batch", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.JudgeResults.WithLabelValues("timed_out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SubmissionVerdicts.WithLabelValues("accepted")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "leetlab_judge_requests_total")
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.JudgeRequest("poll", "error")
		c.JudgeResult("judged", 1)
		c.SubmissionVerdict("wrong")
	})
}
