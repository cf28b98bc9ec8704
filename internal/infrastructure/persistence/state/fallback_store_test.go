package state

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
)

// failingStore errors on demand to simulate a lost database.
type failingStore struct {
	inner *MemoryStateStore
	fail  bool
}

func (s *failingStore) Load(key string) (json.RawMessage, bool, error) {
	if s.fail {
		return nil, false, errors.New("database is locked")
	}
	return s.inner.Load(key)
}

func (s *failingStore) Save(key string, value any) error {
	if s.fail {
		return errors.New("database is locked")
	}
	return s.inner.Save(key, value)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStateStore()

	_, found, err := store.Load(KeyProfiles)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(KeyProfiles, map[string]int{"v1": 45}))

	raw, found, err := store.Load(KeyProfiles)
	require.NoError(t, err)
	require.True(t, found)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 45, decoded["v1"])
}

func TestFallbackStorePassesThroughWhileHealthy(t *testing.T) {
	primary := &failingStore{inner: NewMemoryStateStore()}
	store := NewFallbackStore(primary, logging.NewTestLogger())

	require.NoError(t, store.Save(KeyRules, map[string]bool{"page-view": true}))
	assert.False(t, store.Degraded())

	raw, found, err := store.Load(KeyRules)
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotEmpty(t, raw)
}

func TestFallbackStoreDegradesOnSaveFailure(t *testing.T) {
	primary := &failingStore{inner: NewMemoryStateStore()}
	store := NewFallbackStore(primary, logging.NewTestLogger())

	primary.fail = true
	require.NoError(t, store.Save(KeyProfiles, map[string]int{"v1": 10}), "primary failure must not surface")
	assert.True(t, store.Degraded())

	// The write survived in memory.
	raw, found, err := store.Load(KeyProfiles)
	require.NoError(t, err)
	require.True(t, found)

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 10, decoded["v1"])
}

func TestFallbackStoreDegradesOnLoadFailure(t *testing.T) {
	primary := &failingStore{inner: NewMemoryStateStore()}
	store := NewFallbackStore(primary, logging.NewTestLogger())

	primary.fail = true
	raw, found, err := store.Load(KeyAssignments)
	require.NoError(t, err, "primary failure must not surface")
	assert.False(t, found)
	assert.Nil(t, raw)
	assert.True(t, store.Degraded())
}

func TestFallbackStoreStaysDegraded(t *testing.T) {
	primary := &failingStore{inner: NewMemoryStateStore()}
	store := NewFallbackStore(primary, logging.NewTestLogger())

	primary.fail = true
	_, _, _ = store.Load(KeyVisitors)
	require.True(t, store.Degraded())

	// Primary recovers, but the store keeps serving from memory: writes no
	// longer reach it.
	primary.fail = false
	require.NoError(t, store.Save(KeyVisitors, map[string]string{"v1": "x"}))

	_, found, err := primary.inner.Load(KeyVisitors)
	require.NoError(t, err)
	assert.False(t, found, "degraded store must not write through")

	_, found, err = store.Load(KeyVisitors)
	require.NoError(t, err)
	assert.True(t, found)
}
