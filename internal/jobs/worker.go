package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-backoffice/internal/domain/queue"
	"auction-backoffice/internal/logging"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ErrPermanent wraps failures that must not be retried, such as a submission
// whose every image URL is dead.
var ErrPermanent = errors.New("permanent job failure")

// Handler executes one job type. MaxAttempts and Backoff drive the pool's
// retry policy; Failed runs once when a job is marked failed for good.
type Handler interface {
	Type() string
	MaxAttempts() int
	Backoff() time.Duration
	Handle(ctx context.Context, job *queue.Job) error
	Failed(ctx context.Context, job *queue.Job, cause error)
}

// Pool polls the jobs table and dispatches claimed jobs to registered
// handlers. Auctions process fully in parallel; ordering within one auction
// is enforced by the handlers (download enqueues extraction on success), not
// by the queue.
type Pool struct {
	db       *gorm.DB
	handlers map[string]Handler
	workers  int
	poll     time.Duration
}

func NewPool(db *gorm.DB, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		db:       db,
		handlers: make(map[string]Handler),
		workers:  workers,
		poll:     time.Second,
	}
}

func (p *Pool) Register(h Handler) {
	p.handlers[h.Type()] = h
}

// Run blocks until ctx is cancelled.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			return p.runWorker(ctx)
		})
	}
	return g.Wait()
}

func (p *Pool) runWorker(ctx context.Context) error {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		for {
			job, err := claim(p.db)
			if err != nil {
				logging.L().WithError(err).Error("Failed to claim job")
				break
			}
			if job == nil {
				break
			}
			p.execute(ctx, job)
		}
	}
}

// RunPending drains all currently runnable jobs once. Used by tests and
// one-shot tooling; the daemon path goes through Run.
func (p *Pool) RunPending(ctx context.Context) error {
	for {
		job, err := claim(p.db)
		if err != nil {
			return err
		}
		if job == nil {
			return nil
		}
		p.execute(ctx, job)
	}
}

func (p *Pool) execute(ctx context.Context, job *queue.Job) {
	log := logging.L().WithFields(logrus.Fields{
		"job_id":   job.ID,
		"job_type": job.Type,
		"attempt":  job.Attempts,
		"trace_id": uuid.NewString(),
	})

	handler, ok := p.handlers[job.Type]
	if !ok {
		log.Error("No handler registered for job type")
		p.finishFailed(ctx, job, nil, fmt.Errorf("no handler for job type %q", job.Type))
		return
	}

	err := handler.Handle(ctx, job)
	if err == nil {
		if dbErr := markDone(p.db, job); dbErr != nil {
			log.WithError(dbErr).Error("Failed to mark job done")
		}
		return
	}

	if errors.Is(err, ErrPermanent) || job.Attempts >= handler.MaxAttempts() {
		log.WithError(err).Error("Job failed permanently")
		p.finishFailed(ctx, job, handler, err)
		return
	}

	log.WithError(err).Warn("Job failed, scheduling retry")
	if dbErr := reschedule(p.db, job, handler.Backoff(), err); dbErr != nil {
		log.WithError(dbErr).Error("Failed to reschedule job")
	}
}

func (p *Pool) finishFailed(ctx context.Context, job *queue.Job, handler Handler, cause error) {
	if err := markFailed(p.db, job, cause); err != nil {
		logging.L().WithError(err).Error("Failed to mark job failed")
	}
	if handler != nil {
		handler.Failed(ctx, job, cause)
	}
}
