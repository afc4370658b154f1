package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SummaryQueue is a Redis list of session IDs waiting for summarization
type SummaryQueue struct {
	client *redis.Client
	key    string
}

// NewSummaryQueue creates a queue stored under key
func NewSummaryQueue(client *redis.Client, key string) *SummaryQueue {
	return &SummaryQueue{client: client, key: key}
}

// Enqueue pushes a session ID for the summary workers
func (q *SummaryQueue) Enqueue(ctx context.Context, sessionID string) error {
	return q.client.LPush(ctx, q.key, sessionID).Err()
}

// Dequeue blocks up to timeout for the next session ID.
// It returns "" and no error when the wait times out.
func (q *SummaryQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	// BRPOP returns [key, value]
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}
