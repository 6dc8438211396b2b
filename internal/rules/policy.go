package rules

// Policy holds the product constants applied by the evaluators. These are
// tuned heuristics, not derived statistics; override individual fields
// through configuration when experimenting.
type Policy struct {
	// Budget threshold crossings, in percent of the monthly budget.
	WarnPercent     float64
	CriticalPercent float64

	// Anomaly detection: a transaction is anomalous when its amount is
	// strictly greater than AnomalyMultiplier times the trailing average,
	// computed over at least AnomalyMinSamples prior transactions.
	AnomalyMultiplier   float64
	AnomalyMinSamples   int
	AnomalyLookbackDays int

	// Streak counting. The daily budget limit is the total budget divided
	// by WeeklyDivisor or MonthlyDivisor depending on the budget period.
	StreakMilestones   []int
	StreakLookbackDays int
	WeeklyDivisor      float64
	MonthlyDivisor     float64

	// Health score heuristics carried in notification metadata.
	PositiveHealthScore int
	NegativeHealthScore int
	StreakHealthBase    int
	StreakHealthPerDay  int
	MaxHealthScore      int
}

// DefaultPolicy returns the product defaults.
func DefaultPolicy() Policy {
	return Policy{
		WarnPercent:         80,
		CriticalPercent:     100,
		AnomalyMultiplier:   3.0,
		AnomalyMinSamples:   3,
		AnomalyLookbackDays: 30,
		StreakMilestones:    []int{3, 7, 14, 30},
		StreakLookbackDays:  30,
		WeeklyDivisor:       7,
		MonthlyDivisor:      30,
		PositiveHealthScore: 98,
		NegativeHealthScore: 85,
		StreakHealthBase:    70,
		StreakHealthPerDay:  2,
		MaxHealthScore:      100,
	}
}

// IsMilestone reports whether days is exactly one of the streak milestones.
func (p Policy) IsMilestone(days int) bool {
	for _, m := range p.StreakMilestones {
		if days == m {
			return true
		}
	}
	return false
}

// StreakHealthScore computes the health score for a streak milestone,
// capped at MaxHealthScore.
func (p Policy) StreakHealthScore(milestone int) int {
	score := p.StreakHealthBase + milestone*p.StreakHealthPerDay
	if score > p.MaxHealthScore {
		score = p.MaxHealthScore
	}
	return score
}
