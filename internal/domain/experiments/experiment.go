// Package experiments defines the A/B experimentation domain: experiments,
// weighted variants, and sticky visitor assignment.
package experiments

import "time"

// Variant is one arm of an experiment. Config is an open map of UI knobs the
// engine stores and returns verbatim, never interprets.
type Variant struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Weight float64        `json:"weight"`
	Config map[string]any `json:"config"`
}

// Experiment is a named set of weighted variants with an activity window.
// Invariant: the sum of variant weights is positive while the experiment is
// active.
type Experiment struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Variants       []Variant  `json:"variants"`
	IsActive       bool       `json:"isActive"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate,omitempty"`
	ConversionGoal string     `json:"conversionGoal"`
}

// TotalWeight returns the sum of variant weights.
func (e *Experiment) TotalWeight() float64 {
	var total float64
	for _, v := range e.Variants {
		total += v.Weight
	}
	return total
}

// Variant returns the variant with the given id, or nil.
func (e *Experiment) Variant(id string) *Variant {
	for i := range e.Variants {
		if e.Variants[i].ID == id {
			return &e.Variants[i]
		}
	}
	return nil
}

// QuickScanExperimentID is the experiment consumed by the progressive
// disclosure quiz flow.
const QuickScanExperimentID = "quickscan_variants"

// DefaultExperiments returns the seeded experiment catalog.
func DefaultExperiments() []*Experiment {
	return []*Experiment{
		{
			ID:             QuickScanExperimentID,
			Name:           "QuickScan presentation variants",
			IsActive:       true,
			StartDate:      time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC),
			ConversionGoal: "quick_scan_complete",
			Variants: []Variant{
				{
					ID:     "control",
					Name:   "Control",
					Weight: 50,
					Config: map[string]any{
						"style":              "standard",
						"progressIndicator":  "dots",
						"questionLayout":     "single",
						"ctaText":            "Volgende",
						"showCategoryLabels": false,
					},
				},
				{
					ID:     "variant_a",
					Name:   "Enhanced flow",
					Weight: 50,
					Config: map[string]any{
						"style":              "enhanced",
						"progressIndicator":  "bar",
						"questionLayout":     "grouped",
						"ctaText":            "Ga door",
						"showCategoryLabels": true,
					},
				},
			},
		},
	}
}
