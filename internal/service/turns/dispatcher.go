// README: Per-conversation serial work queues; turns of one conversation run in order, conversations run in parallel.
package turns

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrClosed = errors.New("dispatcher closed")

// Job is one unit of work for a conversation.
type Job func(ctx context.Context)

// Dispatcher runs jobs one at a time per key. A worker goroutine exists only
// while its key has queued work.
type Dispatcher struct {
	ctx    context.Context
	mu     sync.Mutex
	queues map[uuid.UUID][]Job
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher runs every job with ctx, normally the server lifetime context.
func NewDispatcher(ctx context.Context) *Dispatcher {
	return &Dispatcher{ctx: ctx, queues: make(map[uuid.UUID][]Job)}
}

// Submit queues job behind earlier jobs for the same key.
func (d *Dispatcher) Submit(key uuid.UUID, job Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	pending, running := d.queues[key]
	d.queues[key] = append(pending, job)
	if !running {
		d.wg.Add(1)
		go d.drain(key)
	}
	return nil
}

func (d *Dispatcher) drain(key uuid.UUID) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		pending := d.queues[key]
		if len(pending) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		job := pending[0]
		d.queues[key] = pending[1:]
		d.mu.Unlock()

		job(d.ctx)
	}
}

// Closed reports whether Close has been called.
func (d *Dispatcher) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Pending reports queued (not yet started) jobs for key.
func (d *Dispatcher) Pending(key uuid.UUID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues[key])
}

// Close rejects new jobs and waits for queued ones to finish or ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
