// Package redisqueue is the durable Queue backend used in multi-node
// deployments: jobs are serialized as JSON and pushed/popped from a Redis
// list, so a crashed worker does not lose queued runs.
package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/orchestrator"
)

// Queue wraps a Redis list as a FIFO job queue.
type Queue struct {
	client *redis.Client
	key    string
}

// New constructs a Queue over client, using key as the list name.
func New(client *redis.Client, key string) *Queue {
	return &Queue{client: client, key: key}
}

// Push appends job to the tail of the list.
func (q *Queue) Push(ctx context.Context, job orchestrator.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return q.client.RPush(ctx, q.key, payload).Err()
}

// Pop blocks (up to Redis's own timeout handling via ctx) for the next job
// at the head of the list.
func (q *Queue) Pop(ctx context.Context) (orchestrator.Job, bool) {
	result, err := q.client.BLPop(ctx, 0, q.key).Result()
	if err != nil || len(result) < 2 {
		return orchestrator.Job{}, false
	}
	var job orchestrator.Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return orchestrator.Job{}, false
	}
	return job, true
}
