package services

import (
	"time"

	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/performance"
)

// ExperimentSummary aggregates one experiment for the dashboard.
type ExperimentSummary struct {
	ExperimentID    string                   `json:"experimentId"`
	Name            string                   `json:"name"`
	IsActive        bool                     `json:"isActive"`
	Variants        map[string]VariantCounts `json:"variants"`
	ConversionRates map[string]float64       `json:"conversionRates"`
}

// LeadDashboard is the aggregate payload for the back-office dashboard.
type LeadDashboard struct {
	GeneratedAt    time.Time           `json:"generatedAt"`
	TotalLeads     int                 `json:"totalLeads"`
	HighValueCount int                 `json:"highValueCount"`
	TierBreakdown  map[string]int      `json:"tierBreakdown"`
	RuleFireCounts map[string]int      `json:"ruleFireCounts"`
	Experiments    []ExperimentSummary `json:"experiments"`
}

// LeadAnalyticsService aggregates both engines' state into dashboard
// summaries. All aggregation is computed on demand from profile and
// assignment snapshots; nothing here holds state of its own.
type LeadAnalyticsService struct {
	scoring     *ScoringService
	experiments *ExperimentService
	logger      *logging.ChanneledLogger
	perf        *performance.Tracker
}

// NewLeadAnalyticsService creates the analytics aggregator.
func NewLeadAnalyticsService(scoring *ScoringService, exps *ExperimentService, logger *logging.ChanneledLogger, perf *performance.Tracker) *LeadAnalyticsService {
	return &LeadAnalyticsService{scoring: scoring, experiments: exps, logger: logger, perf: perf}
}

// Dashboard computes the full back-office summary.
func (s *LeadAnalyticsService) Dashboard() *LeadDashboard {
	marker := s.perf.StartOperation("analytics:dashboard", "")
	defer s.perf.CompleteOperation(marker)
	start := time.Now()

	dashboard := &LeadDashboard{
		GeneratedAt:    time.Now().UTC(),
		TierBreakdown:  s.TierBreakdown(),
		RuleFireCounts: s.RuleFireCounts(),
		Experiments:    s.ExperimentSummaries(),
	}
	for _, count := range dashboard.TierBreakdown {
		dashboard.TotalLeads += count
	}
	for _, profile := range s.scoring.AllProfiles() {
		if profile.HasTag(HighValueTag) {
			dashboard.HighValueCount++
		}
	}

	s.logger.Analytics().Debug("Dashboard computed",
		"leads", dashboard.TotalLeads, "duration", time.Since(start))
	return dashboard
}

// TierBreakdown counts profiles per engagement tier.
func (s *LeadAnalyticsService) TierBreakdown() map[string]int {
	marker := s.perf.StartOperation("analytics:tier_breakdown", "")
	defer s.perf.CompleteOperation(marker)

	breakdown := make(map[string]int)
	for _, profile := range s.scoring.AllProfiles() {
		breakdown[string(profile.EngagementLevel)]++
	}
	return breakdown
}

// RuleFireCounts tallies successful executions per rule across all visitors.
func (s *LeadAnalyticsService) RuleFireCounts() map[string]int {
	marker := s.perf.StartOperation("analytics:rule_fire_counts", "")
	defer s.perf.CompleteOperation(marker)

	counts := make(map[string]int)
	for _, profile := range s.scoring.AllProfiles() {
		for _, activity := range profile.Activities {
			counts[activity.RuleID]++
		}
	}
	return counts
}

// ExperimentSummaries aggregates assignments and conversions per experiment.
func (s *LeadAnalyticsService) ExperimentSummaries() []ExperimentSummary {
	marker := s.perf.StartOperation("analytics:experiment_summary", "")
	defer s.perf.CompleteOperation(marker)

	var summaries []ExperimentSummary
	for _, exp := range s.experiments.ListExperiments() {
		counts := s.experiments.CountsByVariant(exp.ID)
		rates := make(map[string]float64, len(counts))
		for variantID, c := range counts {
			if c.Assignments > 0 {
				rates[variantID] = float64(c.Conversions) / float64(c.Assignments)
			}
		}
		summaries = append(summaries, ExperimentSummary{
			ExperimentID:    exp.ID,
			Name:            exp.Name,
			IsActive:        exp.IsActive,
			Variants:        counts,
			ConversionRates: rates,
		})
	}
	return summaries
}

// DashboardStats satisfies the live feed's stats provider.
func (s *LeadAnalyticsService) DashboardStats() any {
	return s.Dashboard()
}
