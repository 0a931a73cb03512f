// internal/jobs/queue.go
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dreamweave/dreamweave-backend/internal/models"
)

// Job is one pipeline run request. It travels through the redis stream as
// flat field/value pairs.
type Job struct {
	DreamID   uuid.UUID
	DreamText string
	Model     models.ModelProfile
}

// Queue is a redis-streams job queue with a consumer group. Delivery is
// at-least-once: a consumer that dies mid-job leaves its message pending,
// and another consumer reclaims it after claimIdle.
type Queue struct {
	client    *redis.Client
	stream    string
	group     string
	block     time.Duration
	claimIdle time.Duration
	maxLen    int64
}

func NewQueue(client *redis.Client, stream, group string) *Queue {
	if group == "" {
		group = "pipeline"
	}
	return &Queue{
		client:    client,
		stream:    stream,
		group:     group,
		block:     5 * time.Second,
		claimIdle: 60 * time.Second,
		maxLen:    10000,
	}
}

// Enqueue appends a job to the stream.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	if job.DreamID == uuid.Nil {
		return fmt.Errorf("dream id required")
	}
	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"dream_id":   job.DreamID.String(),
			"dream_text": job.DreamText,
			"model":      string(job.Model),
		},
	}).Err()
}

// EnsureGroup creates the consumer group if it does not exist yet. The group
// starts at "0" so jobs enqueued before the workers come up are not lost.
func (q *Queue) EnsureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Read blocks for up to q.block waiting for new messages for the given
// consumer. A nil slice with nil error means the wait timed out.
func (q *Queue) Read(ctx context.Context, consumer string, count int64) ([]redis.XMessage, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: consumer,
		Streams:  []string{q.stream, ">"},
		Count:    count,
		Block:    q.block,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var msgs []redis.XMessage
	for _, s := range streams {
		msgs = append(msgs, s.Messages...)
	}
	return msgs, nil
}

// ClaimStale takes over messages another consumer left pending for longer
// than claimIdle.
func (q *Queue) ClaimStale(ctx context.Context, consumer string, count int64) ([]redis.XMessage, error) {
	msgs, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.claimIdle,
		Start:    "0-0",
		Count:    count,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// Ack acknowledges and deletes a processed message.
func (q *Queue) Ack(ctx context.Context, msgID string) {
	_ = q.client.XAck(ctx, q.stream, q.group, msgID).Err()
	_ = q.client.XDel(ctx, q.stream, msgID).Err()
}

// DecodeJob parses a stream message back into a Job.
func DecodeJob(msg redis.XMessage) (Job, error) {
	rawID, _ := msg.Values["dream_id"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return Job{}, fmt.Errorf("invalid dream_id %q: %w", rawID, err)
	}
	text, _ := msg.Values["dream_text"].(string)
	model, _ := msg.Values["model"].(string)
	return Job{
		DreamID:   id,
		DreamText: text,
		Model:     models.ModelProfile(model),
	}, nil
}
