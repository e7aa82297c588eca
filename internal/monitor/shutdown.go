// Package monitor broadcasts shutdown to every worker goroutine and
// periodically dumps goroutine stacks so stuck workers are diagnosable.
package monitor

import (
	"sync"
	"sync/atomic"
)

// Shutdown tracks whether the shutdown signal has been received and lets
// callers wait for it. Only ever signalled once, by Monitor.Run via trigger.
type Shutdown struct {
	isShutdown *atomic.Bool
	notify     chan struct{}
	once       *sync.Once
}

// NewShutdown creates a Shutdown and the channel backing it.
func NewShutdown() *Shutdown {
	return &Shutdown{
		isShutdown: &atomic.Bool{},
		notify:     make(chan struct{}),
		once:       &sync.Once{},
	}
}

// Clone returns a Shutdown that observes the same underlying signal.
func (s *Shutdown) Clone() *Shutdown {
	return &Shutdown{
		isShutdown: s.isShutdown,
		notify:     s.notify,
		once:       s.once,
	}
}

// trigger closes the notify channel exactly once and marks is_shutdown.
func (s *Shutdown) trigger() {
	s.once.Do(func() {
		s.isShutdown.Store(true)
		close(s.notify)
	})
}

// CheckForShutdown reports whether the shutdown signal has been received,
// without blocking.
func (s *Shutdown) CheckForShutdown() bool {
	if s.isShutdown.Load() {
		return true
	}
	select {
	case <-s.notify:
		s.isShutdown.Store(true)
		return true
	default:
		return false
	}
}

// Recv returns a channel that is closed once the shutdown signal has been
// received; it does not block itself.
func (s *Shutdown) Recv() <-chan struct{} {
	return s.notify
}

// Done reports whether shutdown has already fired, for a select default case.
func (s *Shutdown) Done() bool {
	return s.isShutdown.Load()
}
