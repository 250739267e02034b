// Package health scores business health from the two most recent aggregate
// periods. Everything here is pure: no I/O, no clock.
package health

import "time"

// Status is a signal or overall health status.
type Status string

const (
	StatusGreen   Status = "GREEN"
	StatusYellow  Status = "YELLOW"
	StatusRed     Status = "RED"
	StatusUnknown Status = "UNKNOWN"
)

// score maps a signal status to its numeric value in the weighted average.
func (s Status) score() int {
	switch s {
	case StatusGreen:
		return 2
	case StatusYellow:
		return 1
	default:
		return 0
	}
}

// Signal names, in evaluation order.
const (
	SignalRevenue    = "Revenue"
	SignalLeads      = "Leads"
	SignalShowRate   = "Show Rate"
	SignalRefundRate = "Refund Rate"
)

// Signal weights before renormalization.
const (
	WeightRevenue    = 40
	WeightLeads      = 30
	WeightShowRate   = 15
	WeightRefundRate = 15
)

// RevenueSnapshot is the slice of a revenue bucket the scorer reads.
type RevenueSnapshot struct {
	NetRevenue  int64
	ChargeCount int64
	RefundCount int64
}

// CRMSnapshot is the slice of a CRM bucket the scorer reads.
type CRMSnapshot struct {
	NewLeads           int64
	AppointmentsBooked int64
	ShowRate           float64
}

// MetricPeriod holds whatever metric families exist for one period. Either side may
// be nil when that provider is not connected or has no bucket yet.
type MetricPeriod struct {
	Revenue *RevenueSnapshot
	CRM     *CRMSnapshot
}

func (p *MetricPeriod) empty() bool {
	return p == nil || (p.Revenue == nil && p.CRM == nil)
}

// Signal is one evaluated health indicator.
type Signal struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Weight int    `json:"weight"`
	Reason string `json:"reason"`
}

// Result is the outcome of ComputeHealthScore. PeriodType and ComputedAt are left
// for the caller to stamp.
type Result struct {
	Status         Status    `json:"status"`
	Score          *float64  `json:"score,omitempty"`
	Reasons        []string  `json:"reasons"`
	Recommendation string    `json:"recommendation"`
	Signals        []Signal  `json:"signals"`
	PeriodType     string    `json:"period_type,omitempty"`
	ComputedAt     time.Time `json:"computed_at"`
}
