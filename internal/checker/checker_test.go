package checker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kavanlabs/primewatch/internal/cpubudget"
	"github.com/kavanlabs/primewatch/internal/dedup"
	"github.com/kavanlabs/primewatch/internal/httpclient"
	"github.com/kavanlabs/primewatch/internal/monitor"
	"github.com/kavanlabs/primewatch/internal/queue"
	"github.com/kavanlabs/primewatch/internal/ratelimit"
	"github.com/kavanlabs/primewatch/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestChecker(t *testing.T, handler http.HandlerFunc) (*Checker, *queue.Pair) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	limiter := ratelimit.New(6000, 0, 8, discardLogger())
	client, err := httpclient.New(server.URL, 65534, limiter, nil, discardLogger())
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}

	queues := queue.NewPair(8)
	filter := dedup.New(64, 1e-3, time.Hour)
	limits := Limits{
		BaseURL:                       server.URL,
		MaxCPUBudgetTenths:            5900,
		MaxBasesBetweenResourceChecks: 127,
		UnknownStatusCheckBackoff:     30 * time.Second,
		RetryDelay:                    time.Millisecond,
		MaxRetries:                    3,
	}
	c := New(client, queues, filter, cpubudget.New(), monitor.NewShutdown(), limits, nil, discardLogger())
	c.gate.basesBeforeNextCheck = 1000 // keep the cpu probe out of these tests' way
	c.sleep = func(time.Duration) {}
	return c, queues
}

func TestProcessPrpTerminatesOnCertificate(t *testing.T) {
	var calls int
	c, _ := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, ">number<1234 Verified")
	})

	mask := new(big.Int)
	mask.SetBit(mask, 0, 1)
	mask.SetBit(mask, 1, 1)
	task := types.NewPrpTask(42, mask, 300)

	c.process(context.Background(), task)

	if calls != 1 {
		t.Fatalf("expected exactly one base request before stopping, got %d", calls)
	}
}

func TestProcessPrpStopsWhenSetToC(t *testing.T) {
	var calls int
	c, _ := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, ">number<1234 set to C")
	})

	mask := new(big.Int)
	mask.SetBit(mask, 0, 1)
	mask.SetBit(mask, 1, 1)
	task := types.NewPrpTask(7, mask, 300)
	c.process(context.Background(), task)

	if calls != 1 {
		t.Fatalf("expected exactly one base request before stopping, got %d", calls)
	}
}

func TestProcessPrpContinuesWhilePRPHolds(t *testing.T) {
	var calls int
	c, _ := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, ">number<1234 PRP")
	})

	mask := new(big.Int)
	mask.SetBit(mask, 0, 1)
	mask.SetBit(mask, 1, 1)
	mask.SetBit(mask, 2, 1)
	task := types.NewPrpTask(9, mask, 300)
	c.process(context.Background(), task)

	if calls != 3 {
		t.Fatalf("expected all three bases checked, got %d calls", calls)
	}
}

func TestProcessUnknownAssignedInsertsFingerprint(t *testing.T) {
	c, _ := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Assigned")
	})

	task := types.NewUnknownTask(100, time.Time{})
	fp := task.Fingerprint()

	c.process(context.Background(), task)

	present, err := c.filter.Query(fp)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !present {
		t.Fatal("expected fingerprint to be inserted after Assigned response")
	}
}

func TestProcessUnknownPleaseWaitReschedulesToRetry(t *testing.T) {
	c, queues := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Please wait")
	})

	task := types.NewUnknownTask(101, time.Time{})
	c.process(context.Background(), task)

	got, ok := queues.Retry.TryRecv()
	if !ok {
		t.Fatal("expected task pushed back into retry")
	}
	if got.ID != 101 {
		t.Fatalf("got id %d, want 101", got.ID)
	}
	if !got.WaitUntil.After(time.Now()) {
		t.Fatal("expected wait_until to be set in the future")
	}
}

func TestProcessUnknownRespectsWaitUntil(t *testing.T) {
	var calls int
	c, queues := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, "Assigned")
	})

	task := types.NewUnknownTask(102, time.Now().Add(time.Hour))
	c.process(context.Background(), task)

	if calls != 0 {
		t.Fatal("expected no assignment request before wait_until")
	}
	if _, ok := queues.Retry.TryRecv(); !ok {
		t.Fatal("expected task pushed back into retry")
	}
}

func TestProcessSkipsDuplicateFingerprint(t *testing.T) {
	var calls int
	c, _ := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, "Assigned")
	})

	task := types.NewUnknownTask(103, time.Time{})
	c.filter.Insert(task.Fingerprint())

	c.process(context.Background(), task)

	if calls != 0 {
		t.Fatal("expected duplicate task to be dropped before any request")
	}
}

func TestCPUGateStepRefillsAndPublishes(t *testing.T) {
	var g cpuGate
	var published uint64
	var slept []time.Duration

	probe := func(ctx context.Context) (uint64, uint64, bool) {
		return 1000, 600, true
	}
	publish := func(tenths uint64) { published = tenths }
	sleep := func(d time.Duration) { slept = append(slept, d) }

	g.step(context.Background(), probe, publish, 5900, 127, sleep)

	if published != 1000 {
		t.Fatalf("got published %d, want 1000", published)
	}
	// tenths_remaining = 4900, reserve = 60, remaining_minus_reserve = 4840
	// bases_remaining = min(484, 127) = 127
	if g.basesBeforeNextCheck != 127 {
		t.Fatalf("got counter %d, want 127", g.basesBeforeNextCheck)
	}
	if len(slept) != 1 {
		t.Fatalf("expected exactly the 10s settle sleep, got %v", slept)
	}
}

func TestCPUGateStepSleepsAndResetsWhenBasesRemainingLow(t *testing.T) {
	var g cpuGate
	probe := func(ctx context.Context) (uint64, uint64, bool) {
		return 5880, 100, true // tenths_remaining=20, reserve=10, minus_reserve=10, bases=1
	}
	var slept []time.Duration
	g.step(context.Background(), probe, func(uint64) {}, 5900, 127, func(d time.Duration) { slept = append(slept, d) })

	if g.basesBeforeNextCheck != 127 {
		t.Fatalf("expected reset to 127 after low-bases sleep, got %d", g.basesBeforeNextCheck)
	}
	if len(slept) != 2 {
		t.Fatalf("expected settle sleep + reset sleep, got %v", slept)
	}
}

func TestCPUGateStepResetsToOneOnProbeFailure(t *testing.T) {
	var g cpuGate
	probe := func(ctx context.Context) (uint64, uint64, bool) { return 0, 0, false }
	g.step(context.Background(), probe, func(uint64) {}, 5900, 127, func(time.Duration) {})

	if g.basesBeforeNextCheck != 1 {
		t.Fatalf("got counter %d, want 1", g.basesBeforeNextCheck)
	}
}

func TestCPUGateStepDecrementsWithoutProbing(t *testing.T) {
	g := cpuGate{basesBeforeNextCheck: 5}
	probed := false
	g.step(context.Background(), func(context.Context) (uint64, uint64, bool) {
		probed = true
		return 0, 0, true
	}, func(uint64) {}, 5900, 127, func(time.Duration) {})

	if probed {
		t.Fatal("expected no probe while the counter is still positive")
	}
	if g.basesBeforeNextCheck != 4 {
		t.Fatalf("got counter %d, want 4", g.basesBeforeNextCheck)
	}
}
