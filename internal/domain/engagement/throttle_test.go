package engagement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottleGuardAllowsUnthrottledRule(t *testing.T) {
	guard := NewThrottleGuard(nil)
	rule := &ScoringRule{ID: "page-view", Points: 1, IsActive: true}

	counts := OccurrenceCounts{"page-view": 500}
	assert.True(t, guard.CanExecute(rule, counts, ExecutionTimes{}))
}

func TestThrottleGuardOccurrenceCap(t *testing.T) {
	guard := NewThrottleGuard(nil)
	rule := &ScoringRule{ID: "quickscan-start", Points: 10, MaxOccurrences: 1, IsActive: true}

	assert.True(t, guard.CanExecute(rule, OccurrenceCounts{}, ExecutionTimes{}))
	assert.False(t, guard.CanExecute(rule, OccurrenceCounts{"quickscan-start": 1}, ExecutionTimes{}))
	assert.False(t, guard.CanExecute(rule, OccurrenceCounts{"quickscan-start": 3}, ExecutionTimes{}))
}

func TestThrottleGuardCooldown(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	guard := NewThrottleGuard(func() time.Time { return now })
	rule := &ScoringRule{ID: "form-submit", Points: 30, CooldownMinutes: 60, IsActive: true}

	lastExec := ExecutionTimes{"form-submit": now.Add(-30 * time.Minute)}
	assert.False(t, guard.CanExecute(rule, OccurrenceCounts{}, lastExec), "inside cooldown window")

	lastExec["form-submit"] = now.Add(-61 * time.Minute)
	assert.True(t, guard.CanExecute(rule, OccurrenceCounts{}, lastExec), "cooldown elapsed")
}

func TestThrottleGuardCooldownBoundary(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	guard := NewThrottleGuard(func() time.Time { return now })
	rule := &ScoringRule{ID: "file-download", Points: 10, CooldownMinutes: 60, IsActive: true}

	// Exactly at expiry the rule may fire again.
	lastExec := ExecutionTimes{"file-download": now.Add(-60 * time.Minute)}
	assert.True(t, guard.CanExecute(rule, OccurrenceCounts{}, lastExec))
}

func TestThrottleGuardBothGates(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	guard := NewThrottleGuard(func() time.Time { return now })
	rule := &ScoringRule{ID: "form-submit", Points: 30, MaxOccurrences: 3, CooldownMinutes: 60, IsActive: true}

	// Cooldown elapsed but cap reached: still denied.
	counts := OccurrenceCounts{"form-submit": 3}
	lastExec := ExecutionTimes{"form-submit": now.Add(-2 * time.Hour)}
	assert.False(t, guard.CanExecute(rule, counts, lastExec))

	// Under cap but inside cooldown: denied.
	counts["form-submit"] = 1
	lastExec["form-submit"] = now.Add(-5 * time.Minute)
	assert.False(t, guard.CanExecute(rule, counts, lastExec))
}

func TestThrottleGuardNilRule(t *testing.T) {
	guard := NewThrottleGuard(nil)
	assert.False(t, guard.CanExecute(nil, OccurrenceCounts{}, ExecutionTimes{}))
}
