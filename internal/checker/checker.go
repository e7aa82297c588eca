// Package checker implements the consumer half of the task pipeline: it
// drains the main/retry queues, resolves each PRP or unknown-status
// number against the service, and feeds the adaptive CPU check that
// discovery's live-vs-dump-file switch depends on. Shaped as a single
// consumer worker loop: dequeue, dispatch, check shutdown, loop.
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/kavanlabs/primewatch/internal/cpubudget"
	"github.com/kavanlabs/primewatch/internal/dedup"
	"github.com/kavanlabs/primewatch/internal/httpclient"
	"github.com/kavanlabs/primewatch/internal/monitor"
	"github.com/kavanlabs/primewatch/internal/observability"
	"github.com/kavanlabs/primewatch/internal/queue"
	"github.com/kavanlabs/primewatch/internal/types"
)

var (
	certificatePattern = regexp.MustCompile(`Verified|Processing`)
	uStatusPattern     = regexp.MustCompile(`Assigned|already|Please wait|>CF?<|>P<|>PRP<|>FF<`)
)

// Limits is the subset of configuration the checker needs, passed
// explicitly rather than the whole config so this package stays testable
// in isolation.
type Limits struct {
	BaseURL                       string
	MaxCPUBudgetTenths            uint64
	MaxBasesBetweenResourceChecks uint64
	UnknownStatusCheckBackoff     time.Duration
	RetryDelay                    time.Duration
	MaxRetries                    int
}

// Checker is the consumer half of the task pipeline.
type Checker struct {
	client   *httpclient.Client
	queues   *queue.Pair
	filter   *dedup.Filter
	cpu      *cpubudget.Gauge
	shutdown *monitor.Shutdown
	limits   Limits
	logger   *slog.Logger
	metrics  *observability.Metrics

	gate  cpuGate
	sleep func(time.Duration)
}

// New builds a Checker. metrics may be nil, in which case nothing is published.
func New(client *httpclient.Client, queues *queue.Pair, filter *dedup.Filter, cpu *cpubudget.Gauge, shutdown *monitor.Shutdown, limits Limits, metrics *observability.Metrics, logger *slog.Logger) *Checker {
	return &Checker{
		client:   client,
		queues:   queues,
		filter:   filter,
		cpu:      cpu,
		shutdown: shutdown,
		limits:   limits,
		logger:   logger.With("component", "checker"),
		metrics:  metrics,
		gate:     cpuGate{basesBeforeNextCheck: limits.MaxBasesBetweenResourceChecks},
		sleep:    time.Sleep,
	}
}

// Run drains main, falling back to retry, until ctx is done or shutdown
// fires.
func (c *Checker) Run(ctx context.Context) {
	for {
		if c.shutdown.Done() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, ok := c.queues.Main.TryRecv()
		if !ok {
			task, ok = c.queues.Retry.TryRecv()
		}
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-c.shutdown.Recv():
				return
			case <-time.After(50 * time.Millisecond):
				continue
			}
		}

		c.process(ctx, task)

		if c.shutdown.CheckForShutdown() {
			return
		}
	}
}

func (c *Checker) process(ctx context.Context, task *types.CheckTask) {
	fp := task.Fingerprint()
	if present, err := c.filter.Query(fp); err != nil {
		c.logger.Warn("dedup query failed, treating as not present", "error", err)
	} else if present {
		if c.metrics != nil {
			c.metrics.DuplicateTasksTotal.Inc()
		}
		return
	}

	switch task.Kind {
	case types.KindPrp:
		c.processPrp(ctx, task, fp)
	case types.KindUnknown:
		c.processUnknown(ctx, task, fp)
	}
}

func (c *Checker) processPrp(ctx context.Context, task *types.CheckTask, fp types.Fingerprint) {
	c.filter.Insert(fp)

	task.EachBase(func(base int) bool {
		url := c.baseCheckURL(task.ID, base)
		body := c.client.RetryingGetAndDecode(ctx, url, c.limits.RetryDelay, c.limits.MaxRetries, c.shutdown)
		if body == "" {
			return false
		}
		if !containsNumberMarker(body) {
			c.logger.Warn("per-base response missing number marker", "id", task.ID, "base", base)
			return false
		}
		if c.metrics != nil {
			c.metrics.PrpBasesCheckedTotal.Inc()
		}

		c.cpuStep(ctx)

		if certificatePattern.MatchString(body) {
			c.logger.Info("no longer prp, certificate present", "id", task.ID)
			return false
		}
		if strings.Contains(body, "set to C") {
			c.logger.Info("ruled out by prp check", "id", task.ID)
			return false
		}
		if !strings.Contains(body, "PRP") {
			c.logger.Info("solved by n+-1 or factor", "id", task.ID)
			return false
		}
		return true
	})
}

func (c *Checker) processUnknown(ctx context.Context, task *types.CheckTask, fp types.Fingerprint) {
	c.cpuStep(ctx)

	now := time.Now()
	if now.Before(task.WaitUntil) {
		_ = c.queues.Retry.TrySend(task)
		return
	}

	body := c.client.RetryingGetAndDecode(ctx, c.assignmentURL(task.ID), c.limits.RetryDelay, c.limits.MaxRetries, c.shutdown)
	if body == "" {
		return
	}

	m := uStatusPattern.FindString(body)
	switch {
	case m == "":
		return
	case m == "Please wait":
		task.WaitUntil = now.Add(c.limits.UnknownStatusCheckBackoff)
		_ = c.queues.Retry.TrySend(task)
	default:
		c.filter.Insert(fp)
		if c.metrics != nil {
			c.metrics.UTasksAssignedTotal.Inc()
		}
	}
}

// cpuStep advances the adaptive CPU gate, probing the service's status
// page and publishing the reported CPU-tenths-spent figure when the
// per-worker counter reaches zero.
func (c *Checker) cpuStep(ctx context.Context) {
	c.gate.step(ctx, c.probeResourceLimits, c.publishCPUTenths, c.limits.MaxCPUBudgetTenths, c.limits.MaxBasesBetweenResourceChecks, c.sleep)
}

func (c *Checker) publishCPUTenths(tenths uint64) {
	c.cpu.Publish(tenths)
	if c.metrics != nil {
		c.metrics.CPUTenthsSpent.Set(float64(tenths))
	}
}

func (c *Checker) probeResourceLimits(ctx context.Context) (tenthsSpent, secondsToReset uint64, ok bool) {
	body := c.client.RetryingGetAndDecode(ctx, c.statusURL(), c.limits.RetryDelay, c.limits.MaxRetries, c.shutdown)
	if body == "" {
		return 0, 0, false
	}
	limits, ok := httpclient.ParseResourceLimits(body)
	if !ok {
		return 0, 0, false
	}
	remaining := time.Until(limits.ResetsAt)
	if remaining < 0 {
		remaining = 0
	}
	return limits.CPUTenthsSpent, uint64(remaining.Seconds()), true
}

func (c *Checker) baseCheckURL(id uint64, base int) string {
	return fmt.Sprintf("%s/index.php?id=%d&basetocheck=%d", c.limits.BaseURL, id, base)
}

func (c *Checker) assignmentURL(id uint64) string {
	return fmt.Sprintf("%s/index.php?id=%d&prp=Assign+to+worker", c.limits.BaseURL, id)
}

func (c *Checker) statusURL() string {
	return fmt.Sprintf("%s/status.php", c.limits.BaseURL)
}

func containsNumberMarker(body string) bool {
	return strings.Contains(body, ">number<")
}
