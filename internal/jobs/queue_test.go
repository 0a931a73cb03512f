// internal/jobs/queue_test.go
package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamweave/dreamweave-backend/internal/models"
)

func newTestQueue(t *testing.T) (*Queue, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewQueue(client, "test:jobs", "pipeline"), client
}

func TestQueueRoundTrip(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	require.NoError(t, q.EnsureGroup(ctx))

	job := Job{
		DreamID:   uuid.New(),
		DreamText: "a dream about queues",
		Model:     models.ModelProfilePremium,
	}
	require.NoError(t, q.Enqueue(ctx, job))

	msgs, err := q.Read(ctx, "worker-0", 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	decoded, err := DecodeJob(msgs[0])
	require.NoError(t, err)
	assert.Equal(t, job.DreamID, decoded.DreamID)
	assert.Equal(t, job.DreamText, decoded.DreamText)
	assert.Equal(t, job.Model, decoded.Model)

	q.Ack(ctx, msgs[0].ID)
}

func TestEnqueueRequiresDreamID(t *testing.T) {
	q, _ := newTestQueue(t)
	assert.Error(t, q.Enqueue(context.Background(), Job{}))
}

func TestDecodeJobRejectsMalformedID(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	require.NoError(t, q.EnsureGroup(ctx))

	// Inject a message with a broken id directly.
	require.NoError(t, q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{"dream_id": "not-a-uuid"},
	}).Err())

	msgs, err := q.Read(ctx, "worker-0", 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	_, err = DecodeJob(msgs[0])
	assert.Error(t, err)
}

func TestLockSerializesRuns(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	lock := NewLock(client, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	ok, err := lock.Acquire(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second acquire for the same dream is refused.
	ok, err = lock.Acquire(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different dream is unaffected.
	ok, err = lock.Acquire(ctx, uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)

	lock.Release(ctx, id)
	ok, err = lock.Acquire(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPoolSkipsDuplicateJob(t *testing.T) {
	q, client := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.EnsureGroup(ctx))

	id := uuid.New()
	job := Job{DreamID: id, DreamText: "duplicate delivery", Model: models.ModelProfileStandard}
	require.NoError(t, q.Enqueue(ctx, job))
	require.NoError(t, q.Enqueue(ctx, job))

	lock := NewLock(client, time.Minute)
	runs := make(chan uuid.UUID, 2)
	release := make(chan struct{})

	runner := RunnerFunc(func(ctx context.Context, dreamID uuid.UUID, dreamText string, profile models.ModelProfile) {
		runs <- dreamID
		<-release
	})

	pool := NewPool(q, lock, runner, 2)
	go pool.Start(ctx)

	// First delivery starts running and holds the lock.
	select {
	case got := <-runs:
		assert.Equal(t, id, got)
	case <-time.After(5 * time.Second):
		t.Fatal("first job never started")
	}

	// The duplicate must be dropped, not run concurrently.
	select {
	case <-runs:
		t.Fatal("duplicate job ran while the first held the lock")
	case <-time.After(500 * time.Millisecond):
	}

	close(release)
	cancel()
}
