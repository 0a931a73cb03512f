// internal/jobs/lock.go
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock serializes pipeline runs per dream. At-least-once delivery means the
// same dream can be handed to two workers; only the one holding the lease
// runs, the other drops its copy.
type Lock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLock(client *redis.Client, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Lock{client: client, ttl: ttl}
}

// Acquire takes the lease for a dream. Returns false when another worker
// already holds it.
func (l *Lock) Acquire(ctx context.Context, dreamID uuid.UUID) (bool, error) {
	return l.client.SetNX(ctx, l.key(dreamID), "1", l.ttl).Result()
}

// Release frees the lease once the run reaches a terminal state.
func (l *Lock) Release(ctx context.Context, dreamID uuid.UUID) {
	_ = l.client.Del(ctx, l.key(dreamID)).Err()
}

func (l *Lock) key(dreamID uuid.UUID) string {
	return "dreamweave:pipeline:lock:" + dreamID.String()
}
