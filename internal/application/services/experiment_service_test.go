package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helderdigital/engage-go/internal/domain/events"
	"github.com/helderdigital/engage-go/internal/domain/experiments"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/performance"
	"github.com/helderdigital/engage-go/internal/infrastructure/persistence/state"
)

type experimentFixture struct {
	service *ExperimentService
	store   *state.MemoryStateStore
	sink    *recordingSink
}

func newExperimentFixture(t *testing.T, seed int64) *experimentFixture {
	t.Helper()

	store := state.NewMemoryStateStore()
	sink := &recordingSink{}
	service := NewExperimentService(
		experiments.NewCatalog(), store, sink,
		logging.NewTestLogger(), performance.NewTracker(nil),
		ExperimentOptions{Rand: rand.New(rand.NewSource(seed))})

	return &experimentFixture{service: service, store: store, sink: sink}
}

func TestAssignVariantIsSticky(t *testing.T) {
	f := newExperimentFixture(t, 1)

	first := f.service.AssignVariant("v1", experiments.QuickScanExperimentID)
	require.NotNil(t, first)

	for i := 0; i < 10; i++ {
		again := f.service.AssignVariant("v1", experiments.QuickScanExperimentID)
		require.NotNil(t, again)
		assert.Equal(t, first.ID, again.ID)
	}

	// Exactly one assignment event despite repeated resolution.
	assert.Len(t, f.sink.byType(events.TypeVariantAssigned), 1)
}

func TestAssignVariantUnknownExperiment(t *testing.T) {
	f := newExperimentFixture(t, 1)

	assert.Nil(t, f.service.AssignVariant("v1", "missing"))
	assert.Empty(t, f.sink.byType(events.TypeVariantAssigned))
}

func TestAssignVariantInactiveExperiment(t *testing.T) {
	f := newExperimentFixture(t, 1)
	require.True(t, f.service.SetExperimentActive(experiments.QuickScanExperimentID, false))

	assert.Nil(t, f.service.AssignVariant("v1", experiments.QuickScanExperimentID),
		"paused experiment must not assign")
}

func TestDeactivationSuspendsExistingAssignment(t *testing.T) {
	f := newExperimentFixture(t, 1)

	first := f.service.AssignVariant("v1", experiments.QuickScanExperimentID)
	require.NotNil(t, first)

	require.True(t, f.service.SetExperimentActive(experiments.QuickScanExperimentID, false))

	assert.Nil(t, f.service.AssignVariant("v1", experiments.QuickScanExperimentID),
		"a paused experiment serves nothing, assigned or not")
	require.NotNil(t, f.service.GetAssignment("v1", experiments.QuickScanExperimentID),
		"the stored assignment is kept")

	require.True(t, f.service.SetExperimentActive(experiments.QuickScanExperimentID, true))

	again := f.service.AssignVariant("v1", experiments.QuickScanExperimentID)
	require.NotNil(t, again)
	assert.Equal(t, first.ID, again.ID, "reactivation honors the original assignment")
	assert.Len(t, f.sink.byType(events.TypeVariantAssigned), 1)
}

func TestSeededAssignmentReproducibility(t *testing.T) {
	run := func() []string {
		f := newExperimentFixture(t, 99)
		var picks []string
		for i := 0; i < 50; i++ {
			variant := f.service.AssignVariant(string(rune('A'+i)), experiments.QuickScanExperimentID)
			require.NotNil(t, variant)
			picks = append(picks, variant.ID)
		}
		return picks
	}

	assert.Equal(t, run(), run())
}

func TestGetVariantConfig(t *testing.T) {
	f := newExperimentFixture(t, 1)

	config := f.service.GetVariantConfig(experiments.QuickScanExperimentID, "variant_a")
	require.NotNil(t, config)
	assert.Equal(t, "enhanced", config["style"])

	assert.Nil(t, f.service.GetVariantConfig(experiments.QuickScanExperimentID, "missing"))
	assert.Nil(t, f.service.GetVariantConfig("missing", "variant_a"))

	// A pure lookup never assigns.
	assert.Nil(t, f.service.GetAssignment("v1", experiments.QuickScanExperimentID))
}

func TestGetAssignedConfigAssignsOnFirstCall(t *testing.T) {
	f := newExperimentFixture(t, 1)

	config, variantID, ok := f.service.GetAssignedConfig("v1", experiments.QuickScanExperimentID)
	require.True(t, ok)
	assert.NotEmpty(t, variantID)
	assert.Contains(t, config, "style")

	again, sameID, ok := f.service.GetAssignedConfig("v1", experiments.QuickScanExperimentID)
	require.True(t, ok)
	assert.Equal(t, variantID, sameID)
	assert.Equal(t, config["style"], again["style"])

	// The returned map is a copy.
	again["style"] = "mutated"
	fresh, _, _ := f.service.GetAssignedConfig("v1", experiments.QuickScanExperimentID)
	assert.NotEqual(t, "mutated", fresh["style"])
}

func TestGetAssignedConfigEmptyWhenInactiveOrUnknown(t *testing.T) {
	f := newExperimentFixture(t, 1)

	config, variantID, ok := f.service.GetAssignedConfig("v1", "missing")
	assert.False(t, ok)
	assert.Empty(t, variantID)
	require.NotNil(t, config, "callers merge the result without nil guards")
	assert.Empty(t, config)

	require.True(t, f.service.SetExperimentActive(experiments.QuickScanExperimentID, false))
	config, _, ok = f.service.GetAssignedConfig("v1", experiments.QuickScanExperimentID)
	assert.False(t, ok)
	require.NotNil(t, config)
	assert.Empty(t, config)
}

func TestConversionRequiresAssignment(t *testing.T) {
	f := newExperimentFixture(t, 1)

	assert.False(t, f.service.RecordConversion("v1", experiments.QuickScanExperimentID, nil))
	assert.Empty(t, f.sink.byType(events.TypeConversionRecorded))

	require.NotNil(t, f.service.AssignVariant("v1", experiments.QuickScanExperimentID))

	assert.True(t, f.service.RecordConversion("v1", experiments.QuickScanExperimentID, nil))
	assert.Len(t, f.sink.byType(events.TypeConversionRecorded), 1)
}

func TestConversionsAreObservational(t *testing.T) {
	f := newExperimentFixture(t, 1)

	variant := f.service.AssignVariant("v1", experiments.QuickScanExperimentID)
	require.NotNil(t, variant)
	before := f.service.GetAssignment("v1", experiments.QuickScanExperimentID)
	require.NotNil(t, before)

	value := 80.0
	assert.True(t, f.service.RecordConversion("v1", experiments.QuickScanExperimentID, &value))
	assert.True(t, f.service.RecordConversion("v1", experiments.QuickScanExperimentID, nil))

	// The assignment record is untouched and every call emitted.
	assert.Equal(t, before, f.service.GetAssignment("v1", experiments.QuickScanExperimentID))
	recorded := f.sink.byType(events.TypeConversionRecorded)
	require.Len(t, recorded, 2)

	assert.Equal(t, variant.ID, recorded[0].Metadata["variantId"])
	assert.Equal(t, 80.0, recorded[0].Metadata["value"])
	assert.NotContains(t, recorded[1].Metadata, "value")

	counts := f.service.CountsByVariant(experiments.QuickScanExperimentID)
	assert.Equal(t, 2, counts[variant.ID].Conversions)
}

func TestAssignmentsSurviveReload(t *testing.T) {
	f := newExperimentFixture(t, 5)

	first := f.service.AssignVariant("v1", experiments.QuickScanExperimentID)
	require.NotNil(t, first)
	require.True(t, f.service.RecordConversion("v1", experiments.QuickScanExperimentID, nil))

	reloaded := NewExperimentService(
		experiments.NewCatalog(), f.store, f.sink,
		logging.NewTestLogger(), performance.NewTracker(nil),
		ExperimentOptions{Rand: rand.New(rand.NewSource(123))})

	assignment := reloaded.GetAssignment("v1", experiments.QuickScanExperimentID)
	require.NotNil(t, assignment)
	assert.Equal(t, first.ID, assignment.VariantID)

	variant := reloaded.AssignVariant("v1", experiments.QuickScanExperimentID)
	require.NotNil(t, variant)
	assert.Equal(t, first.ID, variant.ID, "stickiness survives restart regardless of RNG")

	counts := reloaded.CountsByVariant(experiments.QuickScanExperimentID)
	assert.Equal(t, 1, counts[first.ID].Conversions, "conversion tallies survive restart")
}

func TestCountsByVariant(t *testing.T) {
	f := newExperimentFixture(t, 7)

	for i := 0; i < 30; i++ {
		visitorID := string(rune('a' + i))
		require.NotNil(t, f.service.AssignVariant(visitorID, experiments.QuickScanExperimentID))
		if i%3 == 0 {
			f.service.RecordConversion(visitorID, experiments.QuickScanExperimentID, nil)
		}
	}

	counts := f.service.CountsByVariant(experiments.QuickScanExperimentID)

	totalAssignments, totalConversions := 0, 0
	for _, c := range counts {
		totalAssignments += c.Assignments
		totalConversions += c.Conversions
	}
	assert.Equal(t, 30, totalAssignments)
	assert.Equal(t, 10, totalConversions)
}

func TestExperimentOutsideWindow(t *testing.T) {
	store := state.NewMemoryStateStore()
	catalog := experiments.NewCatalog()
	ended := time.Now().Add(-time.Hour)
	catalog.Register(&experiments.Experiment{
		ID:        "past",
		Name:      "Ended experiment",
		IsActive:  true,
		StartDate: time.Now().Add(-48 * time.Hour),
		EndDate:   &ended,
		Variants:  []experiments.Variant{{ID: "a", Weight: 100}},
	})

	service := NewExperimentService(catalog, store, &recordingSink{},
		logging.NewTestLogger(), performance.NewTracker(nil), ExperimentOptions{})

	assert.Nil(t, service.AssignVariant("v1", "past"), "ended experiments must not assign")
}
