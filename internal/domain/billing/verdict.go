package billing

import "strconv"

// Verdict is the recent-cost answer for a pair of UTC days.
type Verdict struct {
	Today        Date
	Yesterday    Date
	TodayUsage   UsageResult
	PrevUsage    UsageResult
	CostObserved bool
}

// NewVerdict combines two per-day results. CostObserved is true iff their contributions sum above zero.
// Contributions are never negative, so the sum is positive iff either one is.
func NewVerdict(today Date, todayUsage, yesterdayUsage UsageResult) Verdict {
	return Verdict{
		Today:        today,
		Yesterday:    today.Prev(),
		TodayUsage:   todayUsage,
		PrevUsage:    yesterdayUsage,
		CostObserved: todayUsage.Contribution() > 0 || yesterdayUsage.Contribution() > 0,
	}
}

// Label is the verdict as a metric label value.
func (v Verdict) Label() string {
	return strconv.FormatBool(v.CostObserved)
}

func formatCents(c int64) string {
	return strconv.FormatInt(c, 10) + "c"
}
