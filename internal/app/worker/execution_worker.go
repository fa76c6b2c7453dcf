package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leetlab/internal/common"
	"leetlab/internal/domain/model"
	"leetlab/internal/platform/queue"

	"github.com/rs/zerolog/log"
)

const (
	defaultPopTimeout = 5 * time.Second
	errorBackoff      = 2 * time.Second
	lockRetryDelay    = 500 * time.Millisecond
)

// Evaluator judges stored submissions. *service.SubmissionService
// implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, submissionID string) error
	Fail(ctx context.Context, submissionID, msg string) error
}

// ExecutionWorker drains the job queue, judging one submission at a time
// under the shared judge lock.
type ExecutionWorker struct {
	queue       *queue.JobQueue
	lock        *queue.Lock
	evaluator   Evaluator
	maxAttempts int
	popTimeout  time.Duration
	retryDelay  time.Duration
}

func NewExecutionWorker(q *queue.JobQueue, lock *queue.Lock, evaluator Evaluator, maxAttempts int) *ExecutionWorker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &ExecutionWorker{
		queue:       q,
		lock:        lock,
		evaluator:   evaluator,
		maxAttempts: maxAttempts,
		popTimeout:  defaultPopTimeout,
		retryDelay:  lockRetryDelay,
	}
}

// Start blocks until ctx is cancelled.
func (w *ExecutionWorker) Start(ctx context.Context) error {
	log.Info().Str("queue", w.queue.Name()).Msg("Execution worker started")
	for {
		if ctx.Err() != nil {
			log.Info().Msg("Execution worker stopping")
			return nil
		}
		if _, err := w.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Str("queue", w.queue.Name()).Msg("Failed to pop execution job")
			sleep(ctx, errorBackoff)
		}
	}
}

// ProcessNext waits up to the pop timeout for one job and handles it. It
// reports whether a job was taken off the queue.
func (w *ExecutionWorker) ProcessNext(ctx context.Context) (bool, error) {
	job, err := w.queue.Dequeue(ctx, w.popTimeout)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	log.Debug().Str("job_id", job.ID).Str("submission_id", job.SubmissionID).Int("attempts", job.Attempts).
		Msg("Worker picked up job")
	w.processJobWithLock(ctx, *job)
	return true, nil
}

func (w *ExecutionWorker) processJobWithLock(ctx context.Context, job model.ExecutionJob) {
	holder, err := w.lock.Acquire(ctx)
	if err != nil {
		if errors.Is(err, common.ErrJobLockFailed) {
			log.Info().Str("job_id", job.ID).Msg("Judge lock busy, re-queueing job")
		} else {
			log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to attempt lock acquisition")
		}
		w.requeue(ctx, job)
		sleep(ctx, w.retryDelay)
		return
	}

	defer func() {
		released, err := w.lock.Release(context.WithoutCancel(ctx), holder)
		switch {
		case err != nil:
			log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to release judge lock")
		case !released:
			log.Warn().Str("job_id", job.ID).Msg("Judge lock expired before release")
		}
	}()

	// Judging must finish while the lock is still ours; an overrun comes
	// back as a judge failure and is retried.
	jobCtx, cancel := context.WithTimeout(ctx, w.lock.TTL())
	defer cancel()
	w.handleJob(jobCtx, job)
}

func (w *ExecutionWorker) handleJob(ctx context.Context, job model.ExecutionJob) {
	err := w.evaluator.Evaluate(ctx, job.SubmissionID)
	if err == nil {
		return
	}
	if errors.Is(err, common.ErrNotFound) {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("Dropping job for missing submission or problem")
		return
	}

	job.Attempts++
	job.LastError = err.Error()
	if job.Attempts < w.maxAttempts {
		log.Warn().Err(err).Str("job_id", job.ID).Int("attempts", job.Attempts).Msg("Judging failed, will retry")
		w.requeue(ctx, job)
		return
	}

	log.Error().Err(err).Str("job_id", job.ID).Int("attempts", job.Attempts).Msg("Judging failed, giving up")
	msg := "judging failed, please resubmit later"
	if errors.Is(err, common.ErrServiceUnavailable) {
		msg = fmt.Sprintf("code judge unavailable after %d attempts", job.Attempts)
	}
	if ferr := w.evaluator.Fail(context.WithoutCancel(ctx), job.SubmissionID, msg); ferr != nil {
		log.Error().Err(ferr).Str("submission_id", job.SubmissionID).Msg("Failed to mark submission as error")
	}
}

func (w *ExecutionWorker) requeue(ctx context.Context, job model.ExecutionJob) {
	if err := w.queue.Requeue(context.WithoutCancel(ctx), job); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to re-queue job")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
