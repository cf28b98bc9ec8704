package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helderdigital/engage-go/internal/domain/events"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/persistence/state"
)

func TestGetOrCreateMintsULID(t *testing.T) {
	sink := &recordingSink{}
	service := NewVisitorService(state.NewMemoryStateStore(), sink, logging.NewTestLogger())

	visitorID, created := service.GetOrCreate("")
	assert.True(t, created)
	assert.Len(t, visitorID, 26, "ULIDs are 26 characters")
	assert.True(t, service.Known(visitorID))
	assert.Len(t, sink.byType(events.TypeVisitorCreated), 1)
}

func TestGetOrCreateAdoptsClientHeldID(t *testing.T) {
	service := NewVisitorService(state.NewMemoryStateStore(), &recordingSink{}, logging.NewTestLogger())

	// The client kept its id but the server lost the registry.
	visitorID, created := service.GetOrCreate("01J5ZX3V9K7Q2M4N6P8R0T1W3Y")
	assert.True(t, created)
	assert.Equal(t, "01J5ZX3V9K7Q2M4N6P8R0T1W3Y", visitorID)

	_, createdAgain := service.GetOrCreate("01J5ZX3V9K7Q2M4N6P8R0T1W3Y")
	assert.False(t, createdAgain)
	assert.Equal(t, 1, service.Count())
}

func TestVisitorRegistrySurvivesReload(t *testing.T) {
	store := state.NewMemoryStateStore()
	service := NewVisitorService(store, &recordingSink{}, logging.NewTestLogger())

	visitorID, _ := service.GetOrCreate("")

	reloaded := NewVisitorService(store, &recordingSink{}, logging.NewTestLogger())
	assert.True(t, reloaded.Known(visitorID))
	assert.Equal(t, 1, reloaded.Count())
}

func TestCorruptedRegistryRecoversEmpty(t *testing.T) {
	store := state.NewMemoryStateStore()
	require.NoError(t, store.Save(state.KeyVisitors, []int{1, 2, 3}))

	service := NewVisitorService(store, &recordingSink{}, logging.NewTestLogger())
	assert.Equal(t, 0, service.Count())

	_, created := service.GetOrCreate("")
	assert.True(t, created)
}
