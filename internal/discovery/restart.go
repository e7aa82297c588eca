package discovery

import (
	"math"
	"time"
)

// RestartState tracks the counters the restart policy evaluates, reset to
// zero (with LastRestart bumped to now) every time a restart happens.
type RestartState struct {
	ResultsSinceRestart uint64
	BasesSinceRestart   uint64
	LastRestart         time.Time
}

// ShouldRestart reports whether discovery should reset its PRP/U cursors
// to 0, per the restart condition: either cursor has run past maxStart,
// or a full buffer's worth of results have been seen, BasesSinceRestart
// has reached isqrt(ResultsSinceRestart * 254²), and at least
// minTimePerRestart has elapsed since the last restart.
func ShouldRestart(prpCursor, uCursor, maxStart int, state RestartState, bufferSize int, minTimePerRestart time.Duration, now time.Time) bool {
	if prpCursor > maxStart || uCursor > maxStart {
		return true
	}
	if state.ResultsSinceRestart < uint64(bufferSize) {
		return false
	}
	threshold := isqrtUint64(state.ResultsSinceRestart * 254 * 254)
	if state.BasesSinceRestart < threshold {
		return false
	}
	return !now.Before(state.LastRestart.Add(minTimePerRestart))
}

// isqrtUint64 returns floor(sqrt(n)), computed via floating point and
// corrected by probing the neighborhood to guard against float rounding.
func isqrtUint64(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	r := uint64(math.Sqrt(float64(n)))
	for r > 0 && r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
