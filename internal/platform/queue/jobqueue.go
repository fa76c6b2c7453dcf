package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leetlab/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// JobQueue is a FIFO of execution jobs on a Redis list: LPUSH in, BRPOP out.
type JobQueue struct {
	rdb  *redis.Client
	name string
}

func NewJobQueue(rdb *redis.Client, name string) *JobQueue {
	return &JobQueue{rdb: rdb, name: name}
}

func (q *JobQueue) Name() string {
	return q.name
}

func (q *JobQueue) Enqueue(ctx context.Context, job model.ExecutionJob) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("push job %s to %s: %w", job.ID, q.name, err)
	}
	return nil
}

// Dequeue blocks for up to timeout. It returns (nil, nil) when nothing
// arrived in time.
func (q *JobQueue) Dequeue(ctx context.Context, timeout time.Duration) (*model.ExecutionJob, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("pop from %s: %w", q.name, err)
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return nil, nil
	}

	var job model.ExecutionJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job from %s: %w", q.name, err)
	}
	return &job, nil
}

// Requeue puts the job back at the end of the line.
func (q *JobQueue) Requeue(ctx context.Context, job model.ExecutionJob) error {
	job.EnqueuedAt = time.Now().UTC()
	return q.Enqueue(ctx, job)
}

func (q *JobQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
