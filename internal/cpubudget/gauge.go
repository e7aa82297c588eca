// Package cpubudget holds the single process-global figure the adaptive
// CPU check publishes and the discovery loop consumes: the last reported
// cpu_tenths_spent, used to decide whether live U search is affordable or
// discovery should fall back to a dump file.
package cpubudget

import "sync/atomic"

// Gauge is a shared, lock-free published CPU-tenths-spent figure.
type Gauge struct {
	tenths atomic.Uint64
}

// New returns a Gauge starting at zero (no CPU pressure observed yet).
func New() *Gauge {
	return &Gauge{}
}

// Publish records the latest cpu_tenths_spent figure.
func (g *Gauge) Publish(tenths uint64) {
	g.tenths.Store(tenths)
}

// Clear resets the published figure to zero, done after a resource-limits
// sleep-and-reset cycle.
func (g *Gauge) Clear() {
	g.tenths.Store(0)
}

// Tenths returns the last published figure.
func (g *Gauge) Tenths() uint64 {
	return g.tenths.Load()
}
