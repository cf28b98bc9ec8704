package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helderdigital/engage-go/internal/domain/engagement"
	"github.com/helderdigital/engage-go/internal/domain/experiments"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/performance"
	"github.com/helderdigital/engage-go/internal/infrastructure/persistence/state"
)

func newAnalyticsFixture(t *testing.T) (*LeadAnalyticsService, *ScoringService, *ExperimentService) {
	t.Helper()

	store := state.NewMemoryStateStore()
	sink := &recordingSink{}
	logger := logging.NewTestLogger()
	perf := performance.NewTracker(nil)

	scoring := NewScoringService(engagement.NewRuleCatalog(), store, sink, nil, logger, perf, ScoringOptions{})
	exps := NewExperimentService(experiments.NewCatalog(), store, sink, logger, perf,
		ExperimentOptions{Rand: rand.New(rand.NewSource(11))})

	return NewLeadAnalyticsService(scoring, exps, logger, perf), scoring, exps
}

func TestDashboardAggregation(t *testing.T) {
	analytics, scoring, exps := newAnalyticsFixture(t)

	scoring.ProcessActivity("v1", engagement.TriggerEmailCapture, nil)     // 20: low
	scoring.ProcessActivity("v2", engagement.TriggerPageView, nil)         // 1: very_low
	scoring.ProcessActivity("v3", engagement.TriggerQuickScanStart, nil)   // 10
	scoring.ProcessActivity("v3", engagement.TriggerQuickScanComplete, nil) // 35: low

	require.NotNil(t, exps.AssignVariant("v1", experiments.QuickScanExperimentID))
	exps.RecordConversion("v1", experiments.QuickScanExperimentID, nil)

	dashboard := analytics.Dashboard()

	assert.Equal(t, 3, dashboard.TotalLeads)
	assert.Equal(t, 1, dashboard.TierBreakdown["very_low"])
	assert.Equal(t, 2, dashboard.TierBreakdown["low"])
	assert.Equal(t, 0, dashboard.HighValueCount)

	assert.Equal(t, 1, dashboard.RuleFireCounts["email-capture"])
	assert.Equal(t, 1, dashboard.RuleFireCounts["quickscan-start"])
	assert.Equal(t, 1, dashboard.RuleFireCounts["quickscan-complete"])

	require.Len(t, dashboard.Experiments, 1)
	summary := dashboard.Experiments[0]
	assert.Equal(t, experiments.QuickScanExperimentID, summary.ExperimentID)

	totalAssignments := 0
	for variantID, counts := range summary.Variants {
		totalAssignments += counts.Assignments
		if counts.Conversions > 0 {
			assert.Equal(t, float64(1), summary.ConversionRates[variantID])
		}
	}
	assert.Equal(t, 1, totalAssignments)
}

func TestDashboardEmptyState(t *testing.T) {
	analytics, _, _ := newAnalyticsFixture(t)

	dashboard := analytics.Dashboard()
	assert.Equal(t, 0, dashboard.TotalLeads)
	assert.Empty(t, dashboard.RuleFireCounts)
	require.Len(t, dashboard.Experiments, 1, "seeded experiments appear with zero counts")
	assert.Empty(t, dashboard.Experiments[0].Variants)
}
