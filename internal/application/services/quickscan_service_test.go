package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helderdigital/engage-go/internal/domain/engagement"
	"github.com/helderdigital/engage-go/internal/domain/events"
	"github.com/helderdigital/engage-go/internal/domain/experiments"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/performance"
	"github.com/helderdigital/engage-go/internal/infrastructure/persistence/state"
)

type quickScanFixture struct {
	service     *QuickScanService
	scoring     *ScoringService
	experiments *ExperimentService
	sink        *recordingSink
}

func newQuickScanFixture(t *testing.T) *quickScanFixture {
	t.Helper()

	store := state.NewMemoryStateStore()
	sink := &recordingSink{}
	logger := logging.NewTestLogger()
	perf := performance.NewTracker(nil)

	scoring := NewScoringService(engagement.NewRuleCatalog(), store, sink, nil, logger, perf, ScoringOptions{})
	exps := NewExperimentService(experiments.NewCatalog(), store, sink, logger, perf,
		ExperimentOptions{Rand: rand.New(rand.NewSource(3))})

	return &quickScanFixture{
		service:     NewQuickScanService(scoring, exps, logger),
		scoring:     scoring,
		experiments: exps,
		sink:        sink,
	}
}

func TestGetConfigAssignsOnFirstContact(t *testing.T) {
	f := newQuickScanFixture(t)

	config := f.service.GetConfig("v1")
	require.NotNil(t, config)
	assert.False(t, config.Fallback)
	assert.NotEmpty(t, config.VariantID)
	assert.Contains(t, config.Config, "style")

	// Subsequent fetches resolve the same variant.
	again := f.service.GetConfig("v1")
	assert.Equal(t, config.VariantID, again.VariantID)
}

func TestGetConfigFallsBackWhenPaused(t *testing.T) {
	f := newQuickScanFixture(t)
	require.True(t, f.experiments.SetExperimentActive(experiments.QuickScanExperimentID, false))

	config := f.service.GetConfig("v1")
	assert.True(t, config.Fallback)
	assert.Empty(t, config.VariantID)
	assert.Equal(t, "standard", config.Config["style"])
}

func TestFunnelMilestonesScoreAndConvert(t *testing.T) {
	f := newQuickScanFixture(t)
	f.service.GetConfig("v1")

	f.service.RecordStart("v1", nil)
	for i := 0; i < 5; i++ {
		f.service.RecordProgress("v1", nil)
	}
	result := f.service.RecordComplete("v1", nil)

	assert.Equal(t, 45, result.Profile.TotalScore)
	assert.Equal(t, engagement.EngagementMedium, result.Profile.EngagementLevel)

	assignment := f.experiments.GetAssignment("v1", experiments.QuickScanExperimentID)
	require.NotNil(t, assignment)

	recorded := f.sink.byType(events.TypeConversionRecorded)
	require.Len(t, recorded, 1)
	assert.Equal(t, assignment.VariantID, recorded[0].Metadata["variantId"])
	assert.Equal(t, 100.0, recorded[0].Metadata["value"])

	counts := f.experiments.CountsByVariant(experiments.QuickScanExperimentID)
	assert.Equal(t, 1, counts[assignment.VariantID].Conversions)
}

func TestCompleteWithoutAssignmentScoresOnly(t *testing.T) {
	f := newQuickScanFixture(t)

	// Visitor never fetched a config, so no assignment exists.
	result := f.service.RecordComplete("v1", nil)

	assert.Equal(t, 25, result.Profile.TotalScore)
	assert.Empty(t, f.sink.byType(events.TypeConversionRecorded))
}
