package health

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	minAppointmentsForShowRate = 3
	minChargesForRefundRate    = 5
)

var hundred = decimal.NewFromInt(100)

// trendPercent returns (current - previous) / previous * 100. previous must be > 0.
func trendPercent(current, previous int64) decimal.Decimal {
	return decimal.NewFromInt(current - previous).Mul(hundred).Div(decimal.NewFromInt(previous))
}

func signedPercent(d decimal.Decimal) string {
	s := d.Round(0).String()
	if !d.IsNegative() {
		return "+" + s
	}
	return s
}

func revenueSignal(current, previous *MetricPeriod) *Signal {
	if current.Revenue == nil || previous.Revenue == nil {
		return nil
	}
	cur, prev := current.Revenue.NetRevenue, previous.Revenue.NetRevenue
	if cur == 0 && prev == 0 {
		return nil
	}

	s := &Signal{Name: SignalRevenue, Weight: WeightRevenue}
	switch {
	case prev <= 0 && cur > 0:
		s.Status, s.Reason = StatusGreen, "Revenue generated after quiet period"
	case cur <= 0:
		s.Status, s.Reason = StatusRed, "No revenue this period"
	default:
		trend := trendPercent(cur, prev)
		switch {
		case trend.GreaterThanOrEqual(decimal.NewFromInt(-5)):
			s.Status, s.Reason = StatusGreen, "Revenue stable or growing"
		case trend.GreaterThanOrEqual(decimal.NewFromInt(-20)):
			s.Status = StatusYellow
			s.Reason = fmt.Sprintf("Revenue down %s%%", trend.Abs().Round(0).String())
		default:
			s.Status = StatusRed
			s.Reason = fmt.Sprintf("Revenue declining significantly (%s%%)", signedPercent(trend))
		}
	}
	return s
}

func leadsSignal(current, previous *MetricPeriod) *Signal {
	if current.CRM == nil || previous.CRM == nil {
		return nil
	}
	cur, prev := current.CRM.NewLeads, previous.CRM.NewLeads
	if cur == 0 && prev == 0 {
		return nil
	}

	s := &Signal{Name: SignalLeads, Weight: WeightLeads}
	switch {
	case prev == 0:
		s.Status, s.Reason = StatusGreen, "New leads generated"
	case cur == 0:
		s.Status, s.Reason = StatusRed, "No new leads this period"
	default:
		trend := trendPercent(cur, prev)
		switch {
		case trend.GreaterThanOrEqual(decimal.NewFromInt(-10)):
			s.Status, s.Reason = StatusGreen, "Lead generation healthy"
		case trend.GreaterThanOrEqual(decimal.NewFromInt(-40)):
			s.Status = StatusYellow
			s.Reason = fmt.Sprintf("Leads down %s%%", trend.Abs().Round(0).String())
		default:
			s.Status = StatusRed
			s.Reason = fmt.Sprintf("Lead generation declining (%s%%)", signedPercent(trend))
		}
	}
	return s
}

func showRateSignal(current *MetricPeriod) *Signal {
	if current.CRM == nil || current.CRM.AppointmentsBooked < minAppointmentsForShowRate {
		return nil
	}

	rate := current.CRM.ShowRate
	pct := int(math.Round(rate * 100))

	s := &Signal{Name: SignalShowRate, Weight: WeightShowRate}
	switch {
	case rate >= 0.7:
		s.Status, s.Reason = StatusGreen, fmt.Sprintf("Show rate healthy at %d%%", pct)
	case rate >= 0.5:
		s.Status, s.Reason = StatusYellow, fmt.Sprintf("Show rate at %d%% (target 70%%+)", pct)
	default:
		s.Status, s.Reason = StatusRed, fmt.Sprintf("Show rate low at %d%% (target 70%%+)", pct)
	}
	return s
}

func refundRateSignal(current *MetricPeriod) *Signal {
	if current.Revenue == nil || current.Revenue.ChargeCount < minChargesForRefundRate {
		return nil
	}

	refunds, charges := current.Revenue.RefundCount, current.Revenue.ChargeCount
	pct := decimal.NewFromInt(refunds).Mul(hundred).Div(decimal.NewFromInt(charges)).StringFixed(1)

	s := &Signal{Name: SignalRefundRate, Weight: WeightRefundRate}
	switch {
	case refunds*100 < 5*charges:
		s.Status, s.Reason = StatusGreen, fmt.Sprintf("Refund rate low at %s%%", pct)
	case refunds*100 < 15*charges:
		s.Status, s.Reason = StatusYellow, fmt.Sprintf("Refund rate at %s%% (elevated)", pct)
	default:
		s.Status, s.Reason = StatusRed, fmt.Sprintf("Refund rate high at %s%% (concerning)", pct)
	}
	return s
}
