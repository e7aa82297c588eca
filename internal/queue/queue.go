// Package queue implements the bounded main/retry task queues that sit
// between the discovery producer and the checker consumer.
//
// Grounded on original_source/src/channel.rs's PushbackReceiver (a Tokio mpsc
// channel plus a pre-reserved send permit used to push a task back
// without blocking the consumer) — Go's buffered channels already give a
// non-blocking TrySend via select+default, so the permit dance is
// unnecessary; the observable behavior (try-send succeeds iff the queue
// has a free slot) is preserved.
package queue

import (
	"context"
	"time"

	"github.com/kavanlabs/primewatch/internal/types"
)

// Pair holds the main and retry queues the discovery/checker loops share.
// Both have the same capacity B = 4*PrpResultsPerPage.
type Pair struct {
	Main  *Queue
	Retry *Queue
}

// NewPair builds a Pair with both queues at the given capacity.
func NewPair(capacity int) *Pair {
	return &Pair{
		Main:  New(capacity),
		Retry: New(capacity),
	}
}

// Queue is a bounded FIFO of tasks, safe for single-producer/single-consumer
// use plus pushback from the consumer into a (possibly different) Queue.
type Queue struct {
	ch chan *types.CheckTask
}

// New builds a Queue with the given capacity.
func New(capacity int) *Queue {
	return &Queue{ch: make(chan *types.CheckTask, capacity)}
}

// Send blocks until there is room for task, or ctx is done.
func (q *Queue) Send(ctx context.Context, task *types.CheckTask) error {
	select {
	case q.ch <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend attempts a non-blocking send, reporting whether it succeeded.
func (q *Queue) TrySend(task *types.CheckTask) bool {
	select {
	case q.ch <- task:
		return true
	default:
		return false
	}
}

// Recv blocks until a task is available or ctx is done.
func (q *Queue) Recv(ctx context.Context) (*types.CheckTask, error) {
	select {
	case task := <-q.ch:
		return task, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryRecv attempts a non-blocking receive.
func (q *Queue) TryRecv() (*types.CheckTask, bool) {
	select {
	case task := <-q.ch:
		return task, true
	default:
		return nil, false
	}
}

// Len reports the number of tasks currently queued.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap reports the queue's capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// ReserveSlots blocks the producer until at least n slots are free, by
// repeatedly checking length; used before a restart floods the main
// queue so the consumer has a chance to drain most of the previous batch.
func (q *Queue) ReserveSlots(ctx context.Context, n int) error {
	for q.Cap()-q.Len() < n {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
	return nil
}

// DrainNonBlocking opportunistically moves up to one task from src to
// dst, succeeding only if dst has a free slot right now. Used by
// discovery to keep retries from starving before each fresh enqueue.
func DrainNonBlocking(src, dst *Queue) (moved bool) {
	task, ok := src.TryRecv()
	if !ok {
		return false
	}
	if dst.TrySend(task) {
		return true
	}
	// dst was full: put it back in src rather than drop it.
	src.TrySend(task)
	return false
}

// DrainBlocking moves every task currently in src into dst, blocking on
// dst's capacity as needed, until src is empty (non-blockingly checked)
// or ctx is done.
func DrainBlocking(ctx context.Context, src, dst *Queue) error {
	for {
		task, ok := src.TryRecv()
		if !ok {
			return nil
		}
		if err := dst.Send(ctx, task); err != nil {
			return err
		}
	}
}
