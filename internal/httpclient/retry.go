package httpclient

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/kavanlabs/primewatch/internal/monitor"
)

// RetryingGetAndDecode makes up to maxRetries attempts with a fixed delay
// between them. On exhaustion, it exits 0 if shutdown has been requested;
// otherwise it re-execs the current process image with its own argv,
// trusting a fresh process to recover from whatever wedged this one.
func (c *Client) RetryingGetAndDecode(ctx context.Context, url string, delay time.Duration, maxRetries int, shutdown *monitor.Shutdown) string {
	for i := 0; i < maxRetries; i++ {
		if body, ok := c.TryGetAndDecode(ctx, url); ok {
			return body
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ""
		}
	}

	if shutdown.CheckForShutdown() {
		c.logger.Error("retried too many times after shutdown was signaled; exiting", "url", url)
		c.exitFunc(0)
		return ""
	}

	c.logger.Error("retried too many times; restarting", "url", url)
	c.restartFunc()
	return "" // unreachable unless restartFunc was overridden for testing
}

// RetryingGetAndDecodeOr makes up to maxRetriesWithFallback attempts on
// url; on exhaustion it falls through to RetryingGetAndDecode on altURL
// (budgeted at maxRetries attempts) and reports that the alternate path
// was used.
func (c *Client) RetryingGetAndDecodeOr(ctx context.Context, url, altURL string, delay time.Duration, maxRetriesWithFallback, maxRetries int, shutdown *monitor.Shutdown) (body string, usedAlt bool) {
	for i := 0; i < maxRetriesWithFallback; i++ {
		if body, ok := c.TryGetAndDecode(ctx, url); ok {
			return body, false
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", false
		}
	}
	c.logger.Warn("giving up on primary url, falling back", "url", url, "alt_url", altURL)
	return c.RetryingGetAndDecode(ctx, altURL, delay, maxRetries, shutdown), true
}

// restartSelf re-execs the current process image with its own argv, the
// Go analogue of original_source/src/main.rs's
// Command::new(cmd).args(args).exec() restart path.
func (c *Client) restartSelf() {
	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}
	env := os.Environ()
	if err := syscall.Exec(self, os.Args, env); err != nil {
		panic("failed to restart: " + err.Error())
	}
}
