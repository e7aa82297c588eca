// Package ratelimit gates outbound requests to the factoring service
// against three independent budgets: a per-hour request quota, a bound
// on in-flight requests, and a global throttle the service itself can
// impose when it reports its CPU budget is exhausted.
package ratelimit

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter composes the per-hour token bucket, the concurrency gate, and
// the throttle gate behind a single Acquire call. Every HTTP caller —
// including retries and resource probes — must go through it.
type Limiter struct {
	bucket          *rate.Limiter
	requestsPerHour int
	concurrency     *semaphore.Weighted
	unblockedAt     atomic.Int64 // UnixNano; only ever advanced forward

	issuedThisWindow atomic.Int64
	windowStart      atomic.Int64 // UnixNano

	logger *slog.Logger
}

// New builds a Limiter for a per-hour quota of requestsPerHour tokens,
// initialized with only requestsPerHour-burnIn tokens so the first hour's
// issued total cannot exceed requestsPerHour, and a concurrency bound of
// maxConcurrent in-flight requests.
func New(requestsPerHour, burnIn, maxConcurrent int, logger *slog.Logger) *Limiter {
	perSecond := rate.Limit(float64(requestsPerHour) / 3600.0)
	bucket := rate.NewLimiter(perSecond, requestsPerHour)
	// Drain burnIn tokens immediately; bucket starts with requestsPerHour-burnIn.
	bucket.AllowN(time.Now(), burnIn)

	l := &Limiter{
		bucket:          bucket,
		requestsPerHour: requestsPerHour,
		concurrency:     semaphore.NewWeighted(int64(maxConcurrent)),
		logger:          logger.With("component", "ratelimit"),
	}
	now := time.Now()
	l.unblockedAt.Store(now.UnixNano())
	l.windowStart.Store(now.UnixNano())
	l.issuedThisWindow.Store(int64(burnIn))
	return l
}

// Acquire blocks until a rate token, a concurrency permit, and the
// throttle gate are all satisfied, in that order, then returns a release
// function the caller must invoke once the request completes.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.bucket.Wait(ctx); err != nil {
		return nil, err
	}
	l.recordIssued()
	if err := l.concurrency.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := l.waitForThrottle(ctx); err != nil {
		l.concurrency.Release(1)
		return nil, err
	}
	return func() { l.concurrency.Release(1) }, nil
}

func (l *Limiter) waitForThrottle(ctx context.Context) error {
	for {
		unblockAt := time.Unix(0, l.unblockedAt.Load())
		wait := time.Until(unblockAt)
		if wait <= 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// AdvanceThrottle sets the throttle gate's unblock instant forward to t,
// if t is later than the current value. The gate only ever moves forward.
func (l *Limiter) AdvanceThrottle(t time.Time) {
	next := t.UnixNano()
	for {
		cur := l.unblockedAt.Load()
		if next <= cur {
			return
		}
		if l.unblockedAt.CompareAndSwap(cur, next) {
			l.logger.Debug("throttle gate advanced", "unblocked_at", t)
			return
		}
	}
}

// recordIssued rolls the tracking window over once an hour has elapsed
// and counts the token just taken, so Remaining/Reconcile have a basis
// for comparison against the service's own accounting.
func (l *Limiter) recordIssued() {
	now := time.Now()
	start := time.Unix(0, l.windowStart.Load())
	if now.Sub(start) >= time.Hour {
		l.windowStart.Store(now.UnixNano())
		l.issuedThisWindow.Store(0)
	}
	l.issuedThisWindow.Add(1)
}

// Remaining reports this process's estimate of tokens still available
// this hour, for diagnostics and the reconciliation computation below.
func (l *Limiter) Remaining() int {
	remaining := l.requestsPerHour - int(l.issuedThisWindow.Load())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reconcile drains extra tokens from the local bucket when the service
// reports it has consumed requests faster than the local bucket believed
// (e.g. other clients share the id, or a retry bypassed the limiter).
// requestsUsed is the service's own count since its last reset.
func (l *Limiter) Reconcile(requestsUsed int) {
	serviceRemaining := l.requestsPerHour - requestsUsed
	excess := l.Remaining() - serviceRemaining
	if excess <= 0 {
		return
	}
	l.bucket.AllowN(time.Now(), excess)
	l.issuedThisWindow.Add(int64(excess))
	l.logger.Debug("drained excess tokens on reconciliation", "excess", excess)
}
