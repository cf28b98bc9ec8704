package experiments

// PickVariant performs weighted random selection over an experiment's
// variants: the draw is a uniform number in [0, totalWeight) and the walk
// accumulates weights in catalog order, returning the first variant whose
// cumulative weight exceeds the draw. Preserving the walk order keeps
// assignment reproducible under a seeded RNG.
//
// draw must come from rand.Float64()*TotalWeight() or equivalent. Returns nil
// when the experiment has no positive weight to distribute.
func PickVariant(exp *Experiment, draw float64) *Variant {
	if exp == nil || exp.TotalWeight() <= 0 {
		return nil
	}

	var cumulative float64
	for i := range exp.Variants {
		cumulative += exp.Variants[i].Weight
		if draw < cumulative {
			return &exp.Variants[i]
		}
	}

	// Floating point edge: a draw equal to the total weight lands past the
	// last positive-weight variant. Walk back to it.
	for i := len(exp.Variants) - 1; i >= 0; i-- {
		if exp.Variants[i].Weight > 0 {
			return &exp.Variants[i]
		}
	}
	return nil
}
