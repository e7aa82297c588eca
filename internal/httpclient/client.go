// Package httpclient implements the throttled HTTP client used to talk to
// the factoring service: all calls pass through the rate limiter, a short
// vs. long URL split (the service's PRP/U query strings can exceed common
// URL-length limits), and resource-limit aware throttling.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kavanlabs/primewatch/internal/ratelimit"
)

// exhaustedExitMessage is logged before exiting 0 when resource limits
// won't reset during this process's configured lifespan.
const exhaustedExitMessage = "resource limits reached and won't reset during this process's lifespan"

const (
	connectTimeout = 30 * time.Second
	e2eTimeout     = 60 * time.Second
)

// Client is the throttled HTTP client. Every outbound request passes
// through the shared Limiter before hitting the wire.
type Client struct {
	pooled         *http.Client
	longURL        *http.Client
	longMu         sync.Mutex // serializes the long-URL client, matching original_source/src/net.rs's single blocking curl handle for long URLs
	limiter        *ratelimit.Limiter
	referer        string
	maxShortURLLen int
	exitAt         *time.Time
	logger         *slog.Logger

	// exitFunc/restartFunc back the terminal actions in TryGetAndDecode's
	// resource-exhaustion path and RetryingGetAndDecode's retry-exhaustion
	// path. Overridable so tests can observe them without actually exiting
	// or re-execing the test binary.
	exitFunc    func(int)
	restartFunc func()
}

// New builds a Client. baseURL is sent as the Referer header on every
// request, matching the service's own expectations. exitAt, if non-nil,
// causes the process to exit 0 once a reported reset time would fall on
// or after it.
func New(baseURL string, maxShortURLLen int, limiter *ratelimit.Limiter, exitAt *time.Time, logger *slog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{},
	}

	pooled := &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   e2eTimeout,
	}

	// The long-URL client is a second http.Client, serialized by longMu
	// rather than pooled, matching original_source/src/net.rs's exclusive
	// curl handle for URLs that would be rejected by some intermediaries
	// if pooled alongside ordinary short requests.
	longURL := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
		Timeout: e2eTimeout,
	}

	c := &Client{
		pooled:         pooled,
		longURL:        longURL,
		limiter:        limiter,
		referer:        baseURL,
		maxShortURLLen: maxShortURLLen,
		exitAt:         exitAt,
		logger:         logger.With("component", "httpclient"),
		exitFunc:       os.Exit,
	}
	c.restartFunc = c.restartSelf
	return c, nil
}

// tryGetAndDecodeCore performs one GET attempt with no retry, routing
// long URLs through the serialized client. It returns ("", false) on any
// transport/decode failure or "502 Proxy Error" in the body.
func (c *Client) tryGetAndDecodeCore(ctx context.Context, url string) (string, bool) {
	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		c.logger.Debug("acquire failed", "url", url, "error", err)
		return "", false
	}
	defer release()

	var body string
	if len(url) > c.maxShortURLLen {
		body, err = c.getSerialized(ctx, url)
	} else {
		body, err = c.get(ctx, c.pooled, url)
	}
	if err != nil {
		c.logger.Error("error reading url", "url", url, "error", err)
		return "", false
	}
	if strings.Contains(body, "502 Proxy Error") {
		c.logger.Error("502 error from url", "url", url)
		return "", false
	}
	return body, true
}

func (c *Client) get(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Referer", c.referer)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("non-200 response", "url", url, "status", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Client) getSerialized(ctx context.Context, url string) (string, error) {
	c.longMu.Lock()
	defer c.longMu.Unlock()
	return c.get(ctx, c.longURL, url)
}

// TryGetAndDecode makes one attempt, honoring the global throttle gate
// before and after: if the response carries ResourceLimits, the gate is
// advanced to the reported reset instant and this call reports failure
// so the caller retries once the gate opens.
func (c *Client) TryGetAndDecode(ctx context.Context, url string) (string, bool) {
	body, ok := c.tryGetAndDecodeCore(ctx, url)
	if !ok {
		return "", false
	}
	if limits, ok := ParseResourceLimits(body); ok {
		c.limiter.AdvanceThrottle(limits.ResetsAt)
		if c.exitAt != nil && !limits.ResetsAt.Before(*c.exitAt) {
			c.logger.Error(exhaustedExitMessage)
			c.exitFunc(0)
		}
		c.logger.Warn("resource limits reached; throttling", "resets_at", limits.ResetsAt)
		return "", false
	}
	return body, true
}

// RequestsRemaining reports this process's estimate of per-hour request
// tokens still available, for external observability.
func (c *Client) RequestsRemaining() int {
	return c.limiter.Remaining()
}
