// Package discovery implements the PRP/U pagination producer: it walks
// the service's listing pages, builds CheckTasks for newly seen entries,
// and feeds them into the bounded main queue, applying the restart and
// live-vs-dump-file switch policy along the way. Shaped as a context-driven
// goroutine with structured logging and ticking backoff.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/kavanlabs/primewatch/internal/config"
	"github.com/kavanlabs/primewatch/internal/cpubudget"
	"github.com/kavanlabs/primewatch/internal/httpclient"
	"github.com/kavanlabs/primewatch/internal/monitor"
	"github.com/kavanlabs/primewatch/internal/observability"
	"github.com/kavanlabs/primewatch/internal/queue"
	"github.com/kavanlabs/primewatch/internal/types"
)

// Discovery is the producer half of the task pipeline.
type Discovery struct {
	cfg      *config.Config
	client   *httpclient.Client
	queues   *queue.Pair
	cpu      *cpubudget.Gauge
	shutdown *monitor.Shutdown
	dump     *DumpReader
	logger   *slog.Logger
	metrics  *observability.Metrics

	prpCursor, uCursor int
	state              RestartState
}

// New builds a Discovery producer. metrics may be nil, in which case
// nothing is published.
func New(cfg *config.Config, client *httpclient.Client, queues *queue.Pair, cpu *cpubudget.Gauge, shutdown *monitor.Shutdown, metrics *observability.Metrics, logger *slog.Logger) *Discovery {
	return &Discovery{
		cfg:      cfg,
		client:   client,
		queues:   queues,
		cpu:      cpu,
		shutdown: shutdown,
		dump:     NewDumpReader(cfg.Dump.Dir, cfg.Dump.FilePrefix, cfg.Dump.StartIndex),
		logger:   logger.With("component", "discovery"),
		metrics:  metrics,
		state:    RestartState{LastRestart: time.Now()},
	}
}

// Run drives the discovery loop until ctx is done or shutdown is
// signaled. Each iteration builds one page's worth of PRP tasks (or, if
// CPU pressure demands it, switches to dump-file ids instead of a live U
// page), opportunistically drains the retry queue, then blockingly drains
// whatever remains.
func (d *Discovery) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.shutdown.Recv():
			return
		default:
		}

		if ShouldRestart(d.prpCursor, d.uCursor, d.cfg.Service.MaxStartIndex, d.state, d.cfg.TaskBufferSize(), d.cfg.Limits.MinTimePerRestart, time.Now()) {
			d.restart(ctx)
		}

		d.publishGauges()

		n, err := d.discoverOnePage(ctx)
		if err != nil {
			d.logger.Warn("discovery page failed", "error", err)
		}
		d.state.ResultsSinceRestart += uint64(n)
	}
}

// enqueue opportunistically drains one retry task into main non-blockingly,
// sends task, then blockingly drains whatever remains in retry — applied
// around every individual enqueue, not once per page, so the retry queue
// never starves behind a whole page's worth of fresh tasks.
func (d *Discovery) enqueue(ctx context.Context, task *types.CheckTask) error {
	queue.DrainNonBlocking(d.queues.Retry, d.queues.Main)
	if err := d.queues.Main.Send(ctx, task); err != nil {
		return err
	}
	return queue.DrainBlocking(ctx, d.queues.Retry, d.queues.Main)
}

// restart resets the cursors and counters, first reserving
// MinCapacityAtRestart slots in main so the consumer has drained most of
// the previous batch before the new one floods in.
func (d *Discovery) restart(ctx context.Context) {
	if err := d.queues.Main.ReserveSlots(ctx, d.cfg.MinCapacityAtRestart()); err != nil {
		return
	}
	d.logger.Info("restarting discovery", "prp_cursor", d.prpCursor, "u_cursor", d.uCursor)
	d.prpCursor = 0
	d.uCursor = 0
	d.state = RestartState{LastRestart: time.Now()}
}

// discoverOnePage fetches one PRP listing page, and for every PRP id that
// yields a task, immediately follows up with one U-page-or-dump-file
// decision (matching the per-id cadence the search is driven at, rather
// than a single decision for the whole page). Returns the number of
// entries discovered.
func (d *Discovery) discoverOnePage(ctx context.Context) (int, error) {
	count := 0

	prpBody := d.client.RetryingGetAndDecode(ctx, d.prpListingURL(), d.cfg.Limits.RetryDelay, d.cfg.Limits.MaxRetries, d.shutdown)
	if prpBody == "" {
		return count, nil
	}
	ids := ParseListingIDs(prpBody)
	d.prpCursor += d.cfg.Service.PrpResultsPerPage

	for _, id := range ids {
		task, err := d.buildPrpTask(ctx, id)
		if err != nil {
			d.logger.Warn("building prp task failed", "id", id, "error", err)
			continue
		}
		if task == nil {
			continue // already resolved (no longer PRP, etc.)
		}
		d.state.BasesSinceRestart += uint64(task.BasesRemaining())
		if err := d.enqueue(ctx, task); err != nil {
			return count, err
		}
		count++

		n, err := d.discoverUnknownStatusNumber(ctx)
		count += n
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

// discoverUnknownStatusNumber performs the CPU-pressure switch between a
// live U-listing page and the on-disk dump file. Called once per
// successfully built PRP task, not once per page.
func (d *Discovery) discoverUnknownStatusNumber(ctx context.Context) (int, error) {
	if d.cpu.Tenths() >= d.cfg.Limits.CPUTenthsToThrottleUnknownSearch {
		return d.enqueueFromDump(ctx)
	}

	uBody := d.client.RetryingGetAndDecode(ctx, d.uListingURL(), d.cfg.Limits.RetryDelay, d.cfg.Limits.MaxRetries, d.shutdown)
	if uBody == "" {
		return 0, nil
	}
	d.uCursor += d.cfg.Service.UResultsPerPage

	ids := ParseListingIDs(uBody)
	count := 0
	for _, id := range ids {
		task := types.NewUnknownTask(id, time.Time{})
		if err := d.enqueue(ctx, task); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// enqueueFromDump reads one id from the on-disk dump file source instead
// of the live U listing, used when CPU pressure makes live searches too
// costly. Leaves uCursor untouched: no live U page was fetched, so there
// is nothing for it to advance past.
func (d *Discovery) enqueueFromDump(ctx context.Context) (int, error) {
	id, ok := d.dump.Next()
	if !ok {
		return 0, nil
	}
	task := types.NewUnknownTask(id, time.Time{})
	if err := d.enqueue(ctx, task); err != nil {
		return 0, err
	}
	return 1, nil
}

// buildPrpTask fetches id's entry page, parses its already-checked bases
// and digit size, and builds a CheckTask for whatever bases remain. A nil
// task with a nil error means the entry needs no further work right now.
// The primary fetch uses the minimal open=Prime&ct=Proof query (the form
// original_source/src/main.rs's CHECK_ID_URL_BASE composes entry URLs
// from); on repeated failure it falls back to the full entry page, which
// carries a superset of the same fields.
func (d *Discovery) buildPrpTask(ctx context.Context, id uint64) (*types.CheckTask, error) {
	body, _ := d.client.RetryingGetAndDecodeOr(ctx, d.entryURLPrimary(id), d.entryURL(id),
		d.cfg.Limits.RetryDelay, d.cfg.Limits.MaxRetriesWithFallback, d.cfg.Limits.MaxRetries, d.shutdown)
	if body == "" {
		return nil, fmt.Errorf("fetch entry %d aborted", id)
	}
	digits, ok := ParseDigitSize(body)
	if !ok || digits < d.cfg.Service.MinDigitsInPrp {
		return nil, nil
	}
	checked, _ := ParseBasesChecked(body)
	mask := BasesLeftMask(checked)
	if mask.Cmp(big.NewInt(0)) == 0 {
		return nil, nil
	}
	return types.NewPrpTask(id, mask, digits), nil
}

// publishGauges reports current queue depths and remaining request quota,
// a no-op when no metrics sink was configured.
func (d *Discovery) publishGauges() {
	if d.metrics == nil {
		return
	}
	d.metrics.QueueDepth.WithLabelValues("main").Set(float64(d.queues.Main.Len()))
	d.metrics.QueueDepth.WithLabelValues("retry").Set(float64(d.queues.Retry.Len()))
	d.metrics.RequestsRemaining.Set(float64(d.client.RequestsRemaining()))
}

func (d *Discovery) prpListingURL() string {
	return fmt.Sprintf("%s/listtype.php?t=1&mindig=%d&perpage=%d&start=%d",
		d.cfg.Service.BaseURL, d.cfg.Service.MinDigitsInPrp, d.cfg.Service.PrpResultsPerPage, d.prpCursor)
}

func (d *Discovery) uListingURL() string {
	return fmt.Sprintf("%s/listtype.php?t=2&mindig=%d&perpage=%d&start=%d",
		d.cfg.Service.BaseURL, d.cfg.Service.MinDigitsInU, d.cfg.Service.UResultsPerPage, d.uCursor)
}

func (d *Discovery) entryURL(id uint64) string {
	return fmt.Sprintf("%s/index.php?id=%d", d.cfg.Service.BaseURL, id)
}

// entryURLPrimary is the minimal entry-page query form, matching
// original_source/src/main.rs's CHECK_ID_URL_BASE.
func (d *Discovery) entryURLPrimary(id uint64) string {
	return fmt.Sprintf("%s/index.php?id=%d&open=Prime&ct=Proof", d.cfg.Service.BaseURL, id)
}
