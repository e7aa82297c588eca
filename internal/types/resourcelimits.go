package types

import "time"

// ResourceLimits is the service's self-reported CPU/quota accounting for the
// current billing cycle, parsed from its status page.
type ResourceLimits struct {
	CPUTenthsSpent uint64
	ResetsAt       time.Time
}
