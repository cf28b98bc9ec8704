package experiments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededCatalog() *Catalog {
	catalog := NewCatalog()
	for _, exp := range DefaultExperiments() {
		catalog.Register(exp)
	}
	return catalog
}

func TestRegisterIsIdempotent(t *testing.T) {
	catalog := seededCatalog()
	require.True(t, catalog.SetActive(QuickScanExperimentID, false))

	for _, exp := range DefaultExperiments() {
		catalog.Register(exp)
	}

	assert.Len(t, catalog.List(), 1)
	assert.False(t, catalog.Get(QuickScanExperimentID).IsActive, "re-seeding must not reset operator toggles")
}

func TestGetReturnsClone(t *testing.T) {
	catalog := seededCatalog()

	exp := catalog.Get(QuickScanExperimentID)
	require.NotNil(t, exp)
	exp.Variants[0].Weight = 999

	assert.Equal(t, float64(50), catalog.Get(QuickScanExperimentID).Variants[0].Weight)
}

func TestDefaultQuickScanExperiment(t *testing.T) {
	catalog := seededCatalog()

	exp := catalog.Get(QuickScanExperimentID)
	require.NotNil(t, exp)
	require.Len(t, exp.Variants, 2)
	assert.Equal(t, float64(100), exp.TotalWeight())
	assert.Equal(t, "quick_scan_complete", exp.ConversionGoal)

	control := exp.Variant("control")
	require.NotNil(t, control)
	assert.Equal(t, "standard", control.Config["style"])

	variantA := exp.Variant("variant_a")
	require.NotNil(t, variantA)
	assert.Equal(t, "enhanced", variantA.Config["style"])
	assert.Nil(t, exp.Variant("missing"))
}

func TestRestoreActivationUnknownExperiment(t *testing.T) {
	catalog := seededCatalog()

	unknown := catalog.RestoreActivation(map[string]bool{"retired": true})
	assert.Equal(t, []string{"retired"}, unknown)
}
