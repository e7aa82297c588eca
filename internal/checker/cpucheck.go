package checker

import (
	"context"
	"time"
)

// cpuGate implements the per-worker adaptive CPU check (§4.5 of the
// service's throttling policy): a decrementing counter of bases that may
// be checked before the next resource-limits probe, refilled by querying
// the status page and converting its reported budget into a base count.
type cpuGate struct {
	basesBeforeNextCheck uint64
}

// defaultCPUProbeBackoff is the counter value set after a failed probe, so
// the very next base probes again.
const defaultCPUProbeBackoff = 1

// step decrements the counter, running a resource-limits probe (and
// possibly sleeping) once it reaches zero. Every dependency the probe
// needs is passed in rather than held on Checker, so this stays testable
// without a live HTTP client.
func (g *cpuGate) step(ctx context.Context, probe func(ctx context.Context) (tenthsSpent uint64, secondsToReset uint64, ok bool), publish func(tenths uint64), maxCPUBudgetTenths, maxBasesBetweenChecks uint64, sleep func(time.Duration)) {
	if g.basesBeforeNextCheck > 0 {
		g.basesBeforeNextCheck--
		return
	}

	sleep(10 * time.Second)

	spent, secondsToReset, ok := probe(ctx)
	if !ok {
		g.basesBeforeNextCheck = defaultCPUProbeBackoff
		return
	}
	publish(spent)

	var tenthsRemaining uint64
	if maxCPUBudgetTenths > spent {
		tenthsRemaining = maxCPUBudgetTenths - spent
	}
	reserve := secondsToReset / 10
	var tenthsRemainingMinusReserve uint64
	if tenthsRemaining > reserve {
		tenthsRemainingMinusReserve = tenthsRemaining - reserve
	}

	basesRemaining := tenthsRemainingMinusReserve / 10
	if basesRemaining > maxBasesBetweenChecks {
		basesRemaining = maxBasesBetweenChecks
	}

	if basesRemaining < 8 {
		sleep(time.Duration(secondsToReset) * time.Second)
		g.basesBeforeNextCheck = maxBasesBetweenChecks
		publish(0)
		return
	}
	g.basesBeforeNextCheck = basesRemaining
}
