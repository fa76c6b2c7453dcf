package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
	"leetlab/internal/platform/queue"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvaluator struct {
	mu        sync.Mutex
	err       error
	evaluated []string
	failed    map[string]string
	deadlines []time.Time
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.evaluated = append(f.evaluated, id)
	if d, ok := ctx.Deadline(); ok {
		f.deadlines = append(f.deadlines, d)
	}
	return f.err
}

func (f *fakeEvaluator) Fail(_ context.Context, id, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed == nil {
		f.failed = map[string]string{}
	}
	f.failed[id] = msg
	return nil
}

type fixture struct {
	mr   *miniredis.Miniredis
	q    *queue.JobQueue
	lock *queue.Lock
	eval *fakeEvaluator
	w    *ExecutionWorker
}

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q := queue.NewJobQueue(rdb, "jobs")
	lock := queue.NewLock(rdb, "judge_lock", time.Minute)
	eval := &fakeEvaluator{}
	w := NewExecutionWorker(q, lock, eval, maxAttempts)
	w.popTimeout = 100 * time.Millisecond
	w.retryDelay = time.Millisecond
	return &fixture{mr: mr, q: q, lock: lock, eval: eval, w: w}
}

func TestProcessNextEvaluatesAndReleasesLock(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.q.Enqueue(ctx, model.ExecutionJob{ID: "j1", SubmissionID: "s1"}))

	took, err := f.w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.True(t, took)
	assert.Equal(t, []string{"s1"}, f.eval.evaluated)
	assert.False(t, f.mr.Exists("judge_lock"))
}

func TestProcessNextEmptyQueue(t *testing.T) {
	f := newFixture(t, 3)
	took, err := f.w.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.False(t, took)
}

func TestBusyLockRequeuesWithoutAttempt(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	_, err := f.lock.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, f.q.Enqueue(ctx, model.ExecutionJob{ID: "j1", SubmissionID: "s1"}))

	_, err = f.w.ProcessNext(ctx)
	require.NoError(t, err)
	assert.Empty(t, f.eval.evaluated)

	job, err := f.q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, 0, job.Attempts)
}

func TestJudgeOutageRetriesThenFails(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	f.eval.err = fmt.Errorf("code judge unavailable: %w", common.ErrServiceUnavailable)
	require.NoError(t, f.q.Enqueue(ctx, model.ExecutionJob{ID: "j1", SubmissionID: "s1"}))

	_, err := f.w.ProcessNext(ctx)
	require.NoError(t, err)
	n, err := f.q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, f.eval.failed)

	_, err = f.w.ProcessNext(ctx)
	require.NoError(t, err)
	n, err = f.q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.Contains(t, f.eval.failed["s1"], "after 2 attempts")
	assert.Len(t, f.eval.evaluated, 2)
}

func TestMissingSubmissionIsDropped(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	f.eval.err = fmt.Errorf("failed to load submission: %w", common.ErrNotFound)
	require.NoError(t, f.q.Enqueue(ctx, model.ExecutionJob{ID: "j1", SubmissionID: "gone"}))

	_, err := f.w.ProcessNext(ctx)
	require.NoError(t, err)
	n, _ := f.q.Len(ctx)
	assert.Equal(t, int64(0), n)
	assert.Empty(t, f.eval.failed)
}

func TestStartStopsOnCancel(t *testing.T) {
	f := newFixture(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.q.Enqueue(ctx, model.ExecutionJob{ID: "j1", SubmissionID: "s1"}))

	done := make(chan error, 1)
	go func() { done <- f.w.Start(ctx) }()

	require.Eventually(t, func() bool {
		f.eval.mu.Lock()
		defer f.eval.mu.Unlock()
		return len(f.eval.evaluated) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestJudgingIsBoundedByLockTTL(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.q.Enqueue(ctx, model.ExecutionJob{ID: "j1", SubmissionID: "s1"}))

	start := time.Now()
	_, err := f.w.ProcessNext(ctx)
	require.NoError(t, err)

	require.Len(t, f.eval.deadlines, 1)
	assert.WithinDuration(t, start.Add(f.lock.TTL()), f.eval.deadlines[0], 5*time.Second)
}
