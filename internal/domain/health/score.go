package health

const (
	recommendationNoData    = "Connect Stripe or GoHighLevel to start tracking your business health."
	recommendationNoHistory = "Not enough history yet. Check back next week."
	recommendationNoSignals = "Connect an integration to get started."
	recommendationAllGood   = "Things look good. Stay consistent and keep nurturing your pipeline."
	recommendationGeneric   = "Monitor your key metrics and take action where needed."
	reasonAllHealthy        = "All metrics healthy"
	maxReasons              = 2
)

type signalKey struct {
	name   string
	status Status
}

var recommendations = map[signalKey]string{
	{SignalRevenue, StatusRed}:       "Review your pricing or client retention. A 30-day revenue recovery plan may help.",
	{SignalRevenue, StatusYellow}:    "Keep an eye on revenue this week. Make sure your pipeline is healthy.",
	{SignalLeads, StatusRed}:         "Lead generation needs attention. Consider outreach or referral campaigns this week.",
	{SignalLeads, StatusYellow}:      "Leads are slowing. Review your top-of-funnel activities.",
	{SignalShowRate, StatusRed}:      "Too many no-shows. Try sending reminders 24 hours before appointments.",
	{SignalShowRate, StatusYellow}:   "Show rate could improve. Follow up with unconfirmed bookings.",
	{SignalRefundRate, StatusRed}:    "High refunds need investigation. Review recent client complaints.",
	{SignalRefundRate, StatusYellow}: "Refund rate is slightly elevated. Check if a specific service is underperforming.",
}

func unknown(recommendation string) Result {
	return Result{
		Status:         StatusUnknown,
		Reasons:        []string{},
		Recommendation: recommendation,
		Signals:        []Signal{},
	}
}

// ComputeHealthScore evaluates the Revenue, Leads, Show Rate and Refund Rate signals
// for current against previous and combines them into one status.
//
// Signal weights are renormalized over the signals that apply. The weighted average
// of GREEN=2, YELLOW=1, RED=0 gives GREEN at 1.6 and above, YELLOW at 0.8 and above,
// RED otherwise. The recommendation follows the worst signal; on ties the earlier
// signal in evaluation order wins.
func ComputeHealthScore(current, previous *MetricPeriod) Result {
	if current.empty() {
		return unknown(recommendationNoData)
	}
	if previous.empty() {
		return unknown(recommendationNoHistory)
	}

	var signals []Signal
	for _, s := range []*Signal{
		revenueSignal(current, previous),
		leadsSignal(current, previous),
		showRateSignal(current),
		refundRateSignal(current),
	} {
		if s != nil {
			signals = append(signals, *s)
		}
	}
	if len(signals) == 0 {
		return unknown(recommendationNoSignals)
	}

	weighted, totalWeight := 0, 0
	for _, s := range signals {
		weighted += s.Status.score() * s.Weight
		totalWeight += s.Weight
	}
	score := float64(weighted) / float64(totalWeight)

	// Thresholds compared as integers: weighted/total >= 1.6 <=> 10*weighted >= 16*total.
	status := StatusRed
	switch {
	case 10*weighted >= 16*totalWeight:
		status = StatusGreen
	case 10*weighted >= 8*totalWeight:
		status = StatusYellow
	}

	return Result{
		Status:         status,
		Score:          &score,
		Reasons:        reasons(signals),
		Recommendation: recommendation(status, signals),
		Signals:        signals,
	}
}

func reasons(signals []Signal) []string {
	out := make([]string, 0, maxReasons)
	for _, s := range signals {
		if s.Status == StatusGreen {
			continue
		}
		out = append(out, s.Reason)
		if len(out) == maxReasons {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, reasonAllHealthy)
	}
	return out
}

func recommendation(status Status, signals []Signal) string {
	if status == StatusGreen {
		return recommendationAllGood
	}

	worst := signals[0]
	for _, s := range signals[1:] {
		if s.Status.score() < worst.Status.score() {
			worst = s
		}
	}

	if msg, ok := recommendations[signalKey{worst.Name, worst.Status}]; ok {
		return msg
	}
	return recommendationGeneric
}
