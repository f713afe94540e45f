// Package dispatch turns parsed capture requests into detached units of
// work. The browser holds a single tab, so the dispatcher admits exactly one
// capture at a time; everything queued behind it waits its turn. Results
// travel back through per-job completion callbacks, never shared state.
package dispatch

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gallodest/tweetframe/internal/capture"
)

// ErrClosed is returned by Submit after Close has begun.
var ErrClosed = errors.New("dispatcher is closed")

// Capturer runs one capture end to end. Implemented by capture.Pipeline.
type Capturer interface {
	Capture(ctx context.Context, req capture.Request) (capture.Result, error)
}

// Completion reports the outcome of one dispatched job.
type Completion struct {
	JobID   string
	Request capture.Request
	Result  capture.Result
	Err     error
}

// CompletionFunc receives a job's outcome. It runs on the job's goroutine,
// after the session slot has been released, so a slow callback never blocks
// the next capture.
type CompletionFunc func(Completion)

// Dispatcher serializes captures onto the shared browser session.
type Dispatcher struct {
	logger   *zap.Logger
	capturer Capturer

	// slot is the single admission token for the browser session. A plain
	// mutex rather than a queue: order among waiters is not guaranteed, and
	// doesn't need to be.
	slot sync.Mutex

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc
}

// NewDispatcher creates a dispatcher delegating to the given capturer.
func NewDispatcher(logger *zap.Logger, capturer Capturer) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		logger:   logger.With(zap.String("component", "dispatcher")),
		capturer: capturer,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Submit enqueues one request and returns its job ID immediately. The job
// runs on its own goroutine; done is invoked exactly once with the outcome.
func (d *Dispatcher) Submit(req capture.Request, done CompletionFunc) (string, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return "", ErrClosed
	}
	d.wg.Add(1)
	d.mu.Unlock()

	jobID := uuid.NewString()
	log := d.logger.With(zap.String("job_id", jobID), zap.String("tweet_id", req.Link.ID))
	log.Info("Job accepted", zap.String("url", req.Link.URL))

	go func() {
		defer d.wg.Done()

		d.slot.Lock()
		res, err := d.capturer.Capture(d.baseCtx, req)
		d.slot.Unlock()

		if err != nil {
			log.Warn("Job failed", zap.Error(err))
		} else {
			log.Info("Job finished")
		}

		if done != nil {
			done(Completion{JobID: jobID, Request: req, Result: res, Err: err})
		}
	}()

	return jobID, nil
}

// Close stops admission and waits for every in-flight job to finish. Safe to
// call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	already := d.closed
	d.closed = true
	d.mu.Unlock()
	if already {
		return
	}

	d.logger.Info("Dispatcher closing, draining jobs")
	d.wg.Wait()
	d.cancel()
	d.logger.Info("Dispatcher closed")
}
