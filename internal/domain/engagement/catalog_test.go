package engagement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededCatalog() *RuleCatalog {
	catalog := NewRuleCatalog()
	for _, rule := range DefaultRules() {
		catalog.Register(rule)
	}
	return catalog
}

func TestRegisterIsIdempotent(t *testing.T) {
	catalog := seededCatalog()
	before := len(catalog.List())

	// An operator deactivates a rule, then the default set is re-seeded.
	require.True(t, catalog.SetActive("page-view", false))
	for _, rule := range DefaultRules() {
		catalog.Register(rule)
	}

	assert.Len(t, catalog.List(), before, "re-seeding must not duplicate")
	rule := catalog.Get("page-view")
	require.NotNil(t, rule)
	assert.False(t, rule.IsActive, "re-seeding must not reset operator toggles")
}

func TestActiveByTrigger(t *testing.T) {
	catalog := seededCatalog()

	rules := catalog.ActiveByTrigger(TriggerQuickScanStart)
	require.Len(t, rules, 1)
	assert.Equal(t, "quickscan-start", rules[0].ID)

	assert.Empty(t, catalog.ActiveByTrigger("unknown_trigger"))

	catalog.SetActive("quickscan-start", false)
	assert.Empty(t, catalog.ActiveByTrigger(TriggerQuickScanStart))
}

func TestSetActiveUnknownRule(t *testing.T) {
	catalog := seededCatalog()
	assert.False(t, catalog.SetActive("no-such-rule", true))
}

func TestGetReturnsClone(t *testing.T) {
	catalog := seededCatalog()

	rule := catalog.Get("page-view")
	require.NotNil(t, rule)
	rule.Points = 999

	assert.Equal(t, 1, catalog.Get("page-view").Points, "mutating a returned rule must not touch the catalog")
}

func TestRestoreActivation(t *testing.T) {
	catalog := seededCatalog()

	unknown := catalog.RestoreActivation(map[string]bool{
		"page-view":    false,
		"retired-rule": true,
	})

	assert.Equal(t, []string{"retired-rule"}, unknown)
	assert.False(t, catalog.Get("page-view").IsActive)
}

func TestActivationFlagsRoundTrip(t *testing.T) {
	catalog := seededCatalog()
	catalog.SetActive("form-submit", false)

	flags := catalog.ActivationFlags()

	restored := seededCatalog()
	restored.RestoreActivation(flags)
	assert.False(t, restored.Get("form-submit").IsActive)
	assert.True(t, restored.Get("page-view").IsActive)
}
