package ai

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"essaycoach/internal/domain/services"
	"essaycoach/internal/metrics"
)

// ErrQueueClosed is returned for requests submitted after Close
var ErrQueueClosed = errors.New("vision queue closed")

type visionJob struct {
	ctx    context.Context
	run    func(context.Context) (*services.ImageDescription, error)
	result chan visionResult
}

type visionResult struct {
	desc *services.ImageDescription
	err  error
}

// VisionQueue serializes vision requests through one worker in arrival
// order, starting them no closer together than the configured interval.
type VisionQueue struct {
	jobs    chan *visionJob
	limiter *rate.Limiter
	logger  *slog.Logger

	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewVisionQueue starts the worker; interval <= 0 disables spacing
func NewVisionQueue(interval time.Duration, logger *slog.Logger) *VisionQueue {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	q := &VisionQueue{
		jobs:    make(chan *visionJob),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go q.work()
	return q
}

// Do waits for its turn, runs fn and returns its result. A caller whose ctx
// ends while waiting leaves the queue without running fn.
func (q *VisionQueue) Do(ctx context.Context, fn func(context.Context) (*services.ImageDescription, error)) (*services.ImageDescription, error) {
	metrics.VisionQueued(1)
	defer metrics.VisionQueued(-1)

	job := &visionJob{ctx: ctx, run: fn, result: make(chan visionResult, 1)}
	select {
	case q.jobs <- job:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.quit:
		return nil, ErrQueueClosed
	}

	select {
	case res := <-job.result:
		return res.desc, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the worker after the running job, if any
func (q *VisionQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.quit)
	})
	<-q.done
}

func (q *VisionQueue) work() {
	defer close(q.done)
	for {
		select {
		case <-q.quit:
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *VisionQueue) run(job *visionJob) {
	if err := q.limiter.Wait(job.ctx); err != nil {
		job.result <- visionResult{err: err}
		return
	}
	start := time.Now()
	desc, err := job.run(job.ctx)
	q.logger.Debug("vision job finished", "elapsed", time.Since(start), "error", err)
	job.result <- visionResult{desc: desc, err: err}
}
