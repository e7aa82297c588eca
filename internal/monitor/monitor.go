package monitor

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"
)

// Monitor installs OS signal handlers, periodically dumps goroutine stacks
// so a deadlock can be diagnosed, and triggers Shutdown on SIGINT/SIGTERM.
type Monitor struct {
	shutdown *Shutdown
	interval time.Duration
	logger   *slog.Logger
}

// New creates a Monitor and the Shutdown it will trigger.
func New(interval time.Duration, logger *slog.Logger) (*Shutdown, *Monitor) {
	sd := NewShutdown()
	return sd, &Monitor{
		shutdown: sd,
		interval: interval,
		logger:   logger.With("component", "monitor"),
	}
}

// Run installs signal handlers and blocks until SIGINT/SIGTERM, dumping
// goroutine stacks every interval while it waits. It triggers shutdown
// before returning, then keeps dumping stacks until ctx is done so a
// stuck shutdown sequence is still diagnosable.
func (m *Monitor) Run(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	m.logger.Info("signal handlers installed")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.dumpStacks()
		case sig := <-sigCh:
			m.logger.Warn("received signal, signaling tasks to exit", "signal", sig.String())
			m.shutdown.trigger()
			m.drainUntilDone(ctx, ticker)
			return
		case <-ctx.Done():
			return
		}
	}
}

// drainUntilDone keeps dumping stacks on the same cadence after shutdown has
// fired, until the context is cancelled (process is actually exiting).
func (m *Monitor) drainUntilDone(ctx context.Context, ticker *time.Ticker) {
	for {
		select {
		case <-ticker.C:
			m.dumpStacks()
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) dumpStacks() {
	buf := make([]byte, 1<<20)
	n := runtime.Stack(buf, true)
	m.logger.Info("goroutine stacks", "dump", string(buf[:n]))
}
