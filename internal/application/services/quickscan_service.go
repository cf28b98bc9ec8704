package services

import (
	"github.com/helderdigital/engage-go/internal/domain/engagement"
	"github.com/helderdigital/engage-go/internal/domain/experiments"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
)

// defaultQuickScanConfig is the presentation served when no variant can be
// assigned (experiment paused, outside its window, or weightless). It matches
// the control arm so a paused experiment is invisible to visitors.
func defaultQuickScanConfig() map[string]any {
	return map[string]any{
		"style":              "standard",
		"progressIndicator":  "dots",
		"questionLayout":     "single",
		"ctaText":            "Volgende",
		"showCategoryLabels": false,
	}
}

// QuickScanConfig is the resolved presentation for one visitor's quiz flow.
// The client caches it for the page lifetime; the assignment behind it is
// sticky, so re-fetching always yields the same variant.
type QuickScanConfig struct {
	VariantID string         `json:"variantId"`
	Config    map[string]any `json:"config"`
	Fallback  bool           `json:"fallback"`
}

// QuickScanService orchestrates the progressive quiz funnel: it resolves the
// presentation variant for a visitor and routes funnel milestones into both
// engines (scoring triggers plus the conversion on completion).
type QuickScanService struct {
	scoring     *ScoringService
	experiments *ExperimentService
	logger      *logging.ChanneledLogger
}

// NewQuickScanService creates the quiz funnel orchestrator.
func NewQuickScanService(scoring *ScoringService, exps *ExperimentService, logger *logging.ChanneledLogger) *QuickScanService {
	return &QuickScanService{scoring: scoring, experiments: exps, logger: logger}
}

// GetConfig resolves the visitor's quiz presentation, assigning a variant on
// first contact. Falls back to the standard presentation when assignment is
// impossible.
func (s *QuickScanService) GetConfig(visitorID string) *QuickScanConfig {
	variant := s.experiments.AssignVariant(visitorID, experiments.QuickScanExperimentID)
	if variant == nil {
		return &QuickScanConfig{Config: defaultQuickScanConfig(), Fallback: true}
	}

	config := make(map[string]any, len(variant.Config))
	for k, v := range variant.Config {
		config[k] = v
	}
	return &QuickScanConfig{VariantID: variant.ID, Config: config}
}

// RecordStart processes the quiz-start milestone.
func (s *QuickScanService) RecordStart(visitorID string, metadata map[string]any) *ActivityResult {
	return s.scoring.ProcessActivity(visitorID, engagement.TriggerQuickScanStart, metadata)
}

// RecordProgress processes one answered question.
func (s *QuickScanService) RecordProgress(visitorID string, metadata map[string]any) *ActivityResult {
	return s.scoring.ProcessActivity(visitorID, engagement.TriggerQuickScanProgress, metadata)
}

// RecordComplete processes the completion milestone: the scoring trigger plus
// the experiment conversion, when the visitor holds an assignment. A finished
// quiz converts at 100 percent completion.
func (s *QuickScanService) RecordComplete(visitorID string, metadata map[string]any) *ActivityResult {
	result := s.scoring.ProcessActivity(visitorID, engagement.TriggerQuickScanComplete, metadata)
	completion := 100.0
	s.experiments.RecordConversion(visitorID, experiments.QuickScanExperimentID, &completion)
	return result
}
