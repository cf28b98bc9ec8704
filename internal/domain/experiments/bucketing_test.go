package experiments

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weightedExperiment(weights ...float64) *Experiment {
	exp := &Experiment{ID: "exp", IsActive: true, StartDate: time.Now()}
	for i, w := range weights {
		exp.Variants = append(exp.Variants, Variant{ID: string(rune('a' + i)), Weight: w})
	}
	return exp
}

func TestPickVariantWalksCatalogOrder(t *testing.T) {
	exp := weightedExperiment(50, 50)

	assert.Equal(t, "a", PickVariant(exp, 0).ID)
	assert.Equal(t, "a", PickVariant(exp, 49.99).ID)
	assert.Equal(t, "b", PickVariant(exp, 50).ID)
	assert.Equal(t, "b", PickVariant(exp, 99.99).ID)
}

func TestPickVariantSkipsZeroWeight(t *testing.T) {
	exp := weightedExperiment(0, 100)

	assert.Equal(t, "b", PickVariant(exp, 0).ID)
	assert.Equal(t, "b", PickVariant(exp, 99).ID)
}

func TestPickVariantNoPositiveWeight(t *testing.T) {
	assert.Nil(t, PickVariant(weightedExperiment(0, 0), 0))
	assert.Nil(t, PickVariant(nil, 0))
}

func TestPickVariantDrawAtTotalWeight(t *testing.T) {
	// A draw equal to the total weight must still land on a variant.
	exp := weightedExperiment(50, 50)
	variant := PickVariant(exp, exp.TotalWeight())
	require.NotNil(t, variant)
	assert.Equal(t, "b", variant.ID)
}

func TestPickVariantDistribution(t *testing.T) {
	exp := weightedExperiment(50, 50)
	rng := rand.New(rand.NewSource(42))

	counts := make(map[string]int)
	const draws = 10000
	for i := 0; i < draws; i++ {
		variant := PickVariant(exp, rng.Float64()*exp.TotalWeight())
		require.NotNil(t, variant)
		counts[variant.ID]++
	}

	// 50/50 split within 3 percentage points over 10k draws.
	assert.InDelta(t, draws/2, counts["a"], 300)
	assert.InDelta(t, draws/2, counts["b"], 300)
}

func TestPickVariantSeededReproducibility(t *testing.T) {
	exp := weightedExperiment(30, 70)

	run := func() []string {
		rng := rand.New(rand.NewSource(7))
		var picks []string
		for i := 0; i < 100; i++ {
			picks = append(picks, PickVariant(exp, rng.Float64()*exp.TotalWeight()).ID)
		}
		return picks
	}

	assert.Equal(t, run(), run())
}
