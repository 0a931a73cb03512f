// internal/jobs/worker.go
package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dreamweave/dreamweave-backend/internal/models"
)

// Runner executes one pipeline run to a terminal state. Implementations own
// their error handling; the worker only cares that the run finished.
type Runner interface {
	Run(ctx context.Context, dreamID uuid.UUID, dreamText string, profile models.ModelProfile)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, dreamID uuid.UUID, dreamText string, profile models.ModelProfile)

func (f RunnerFunc) Run(ctx context.Context, dreamID uuid.UUID, dreamText string, profile models.ModelProfile) {
	f(ctx, dreamID, dreamText, profile)
}

// Pool consumes pipeline jobs with a fixed number of workers.
type Pool struct {
	queue  *Queue
	lock   *Lock
	runner Runner
	count  int
}

func NewPool(queue *Queue, lock *Lock, runner Runner, count int) *Pool {
	if count <= 0 {
		count = 1
	}
	return &Pool{queue: queue, lock: lock, runner: runner, count: count}
}

// Start runs the worker loops until ctx is cancelled. It returns after all
// workers have drained their in-flight job.
func (p *Pool) Start(ctx context.Context) error {
	if err := p.queue.EnsureGroup(ctx); err != nil {
		return fmt.Errorf("consumer group: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.count; i++ {
		consumer := fmt.Sprintf("worker-%d", i)
		g.Go(func() error {
			p.consumeLoop(ctx, consumer)
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) consumeLoop(ctx context.Context, consumer string) {
	log := logrus.WithField("consumer", consumer)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if msgs, err := p.queue.ClaimStale(ctx, consumer, 1); err == nil {
			for _, msg := range msgs {
				p.handle(ctx, log, msg)
			}
		}

		msgs, err := p.queue.Read(ctx, consumer, 1)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("Job queue read failed")
			continue
		}
		for _, msg := range msgs {
			p.handle(ctx, log, msg)
		}
	}
}

func (p *Pool) handle(ctx context.Context, log *logrus.Entry, msg redis.XMessage) {
	job, err := DecodeJob(msg)
	if err != nil {
		log.WithError(err).Warn("Dropping malformed job")
		p.queue.Ack(ctx, msg.ID)
		return
	}

	acquired, err := p.lock.Acquire(ctx, job.DreamID)
	if err != nil {
		log.WithError(err).Error("Pipeline lock acquire failed")
		return // left pending, reclaimed later
	}
	if !acquired {
		log.WithField("dream_id", job.DreamID).Warn("Pipeline already running for dream, skipping duplicate")
		p.queue.Ack(ctx, msg.ID)
		return
	}
	defer p.lock.Release(ctx, job.DreamID)

	p.runner.Run(ctx, job.DreamID, job.DreamText, job.Model)
	p.queue.Ack(ctx, msg.ID)
}
