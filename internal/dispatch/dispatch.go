// Package dispatch runs submitted work on one designated goroutine. Callers
// from any goroutine block until their work finishes or a hard timeout
// expires. A timeout abandons waiting only: work already started runs to
// completion.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/pinpatch/internal/ctxlog"
)

var (
	// ErrTimeout is returned when the result did not arrive in time.
	ErrTimeout = errors.New("dispatch timed out")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("dispatch queue closed")
)

// DefaultTimeout is used when New is given a non-positive timeout.
const DefaultTimeout = 30 * time.Second

type job struct {
	ctx  context.Context
	fn   func(context.Context)
	done chan struct{}
}

// Queue is a single-consumer work queue.
type Queue struct {
	jobs    chan job
	quit    chan struct{}
	timeout time.Duration

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New starts the queue's goroutine. size bounds how many submissions may
// wait for the goroutine at once.
func New(ctx context.Context, size int, timeout time.Duration) *Queue {
	if size < 1 {
		size = 1
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	q := &Queue{
		jobs:    make(chan job, size),
		quit:    make(chan struct{}),
		timeout: timeout,
	}
	q.wg.Add(1)
	go q.worker(ctx)
	return q
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Dispatch worker started.")

	for {
		select {
		case j := <-q.jobs:
			q.run(j)
		case <-q.quit:
			logger.Debug("Dispatch worker finished.")
			return
		}
	}
}

func (q *Queue) run(j job) {
	defer close(j.done)
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(j.ctx).Error("Dispatched work panicked.", "panic", r)
		}
	}()
	j.fn(j.ctx)
}

// Submit runs fn on the queue's goroutine and waits for it. The timeout
// covers both queueing and running.
func (q *Queue) Submit(ctx context.Context, fn func(context.Context)) error {
	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	j := job{ctx: ctx, fn: fn, done: make(chan struct{})}
	select {
	case <-q.quit:
		return ErrClosed
	default:
	}
	select {
	case q.jobs <- j:
	case <-q.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w after %s while queued", ErrTimeout, q.timeout)
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		ctxlog.FromContext(ctx).Warn("Abandoned waiting for dispatched work.", "timeout", q.timeout)
		return fmt.Errorf("%w after %s", ErrTimeout, q.timeout)
	}
}

// Do is Submit for work that produces a value. On error the zero value is
// returned and whatever fn eventually produces is discarded.
func Do[T any](ctx context.Context, q *Queue, fn func(context.Context) T) (T, error) {
	results := make(chan T, 1)
	err := q.Submit(ctx, func(ctx context.Context) {
		results <- fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	select {
	case out := <-results:
		return out, nil
	default:
		var zero T
		return zero, errors.New("dispatched work produced no result")
	}
}

// Close stops the goroutine after its current job. Pending submissions fail
// with ErrClosed or time out.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.quit) })
	q.wg.Wait()
}
