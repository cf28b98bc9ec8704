package engagement

import "time"

// OccurrenceCounts tracks successful executions per rule for one visitor.
type OccurrenceCounts map[string]int

// ExecutionTimes tracks the most recent execution per rule for one visitor.
type ExecutionTimes map[string]time.Time

// ThrottleGuard decides whether a rule may fire for a visitor given that
// visitor's execution history. It is a pure decision function with an
// injectable clock so cooldown behavior is testable without waiting.
type ThrottleGuard struct {
	now func() time.Time
}

// NewThrottleGuard creates a throttle guard. A nil clock defaults to time.Now.
func NewThrottleGuard(now func() time.Time) *ThrottleGuard {
	if now == nil {
		now = time.Now
	}
	return &ThrottleGuard{now: now}
}

// CanExecute applies the occurrence-cap and cooldown gates independently;
// either one denying is sufficient to deny. No side effects.
func (g *ThrottleGuard) CanExecute(rule *ScoringRule, counts OccurrenceCounts, lastExec ExecutionTimes) bool {
	if rule == nil {
		return false
	}

	if rule.MaxOccurrences > 0 && counts[rule.ID] >= rule.MaxOccurrences {
		return false
	}

	if rule.CooldownMinutes > 0 {
		if last, ok := lastExec[rule.ID]; ok {
			cooldown := time.Duration(rule.CooldownMinutes) * time.Minute
			if g.now().Before(last.Add(cooldown)) {
				return false
			}
		}
	}

	return true
}
