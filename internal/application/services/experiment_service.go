package services

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/helderdigital/engage-go/internal/domain/events"
	"github.com/helderdigital/engage-go/internal/domain/experiments"
	"github.com/helderdigital/engage-go/internal/infrastructure/messaging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/performance"
	"github.com/helderdigital/engage-go/internal/infrastructure/persistence/state"
	"github.com/helderdigital/engage-go/internal/infrastructure/security"
)

// Assignment binds one visitor to one variant of one experiment. Assignments
// are sticky: once made they never change for the life of the stored state.
// Conversions are tracked separately; recording one never touches this record.
type Assignment struct {
	VisitorID    string    `json:"visitorId"`
	ExperimentID string    `json:"experimentId"`
	VariantID    string    `json:"variantId"`
	AssignedAt   time.Time `json:"assignedAt"`
}

// ExperimentOptions configures the experimentation engine. Rand and Clock are
// injectable for reproducible tests; nil values use the global defaults.
type ExperimentOptions struct {
	Rand  *rand.Rand
	Clock func() time.Time
}

// ExperimentService is the A/B experimentation engine: weighted sticky variant
// assignment, variant config resolution, and conversion tracking.
type ExperimentService struct {
	catalog *experiments.Catalog
	store   state.Store
	sink    messaging.EventSink
	logger  *logging.ChanneledLogger
	perf    *performance.Tracker
	now     func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	mu          sync.RWMutex
	assignments map[string]map[string]*Assignment // visitorId -> experimentId
	conversions map[string]map[string]int         // experimentId -> variantId -> count
	locks       *visitorLocks
}

// NewExperimentService creates the experimentation engine, seeds the default
// experiment catalog, and restores persisted assignments.
func NewExperimentService(
	catalog *experiments.Catalog,
	store state.Store,
	sink messaging.EventSink,
	logger *logging.ChanneledLogger,
	perf *performance.Tracker,
	opts ExperimentOptions,
) *ExperimentService {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &ExperimentService{
		catalog:     catalog,
		store:       store,
		sink:        sink,
		logger:      logger,
		perf:        perf,
		now:         clock,
		rng:         rng,
		assignments: make(map[string]map[string]*Assignment),
		conversions: make(map[string]map[string]int),
		locks:       newVisitorLocks(),
	}

	for _, exp := range experiments.DefaultExperiments() {
		catalog.Register(exp)
	}
	s.load()
	return s
}

func (s *ExperimentService) load() {
	start := time.Now()

	if raw, found, err := s.store.Load(state.KeyExperiments); err == nil && found {
		var flags map[string]bool
		if err := json.Unmarshal(raw, &flags); err != nil {
			s.logger.Experiments().Warn("Discarding corrupted experiment activation state", "error", err.Error())
		} else if unknown := s.catalog.RestoreActivation(flags); len(unknown) > 0 {
			s.logger.Experiments().Warn("Persisted activation flags reference unknown experiments", "experimentIds", unknown)
		}
	}

	var assignments map[string]map[string]*Assignment
	if raw, found, err := s.store.Load(state.KeyAssignments); err == nil && found {
		if err := json.Unmarshal(raw, &assignments); err != nil {
			s.logger.Experiments().Warn("Discarding corrupted variant assignments", "error", err.Error())
			assignments = nil
		}
	}
	if assignments == nil {
		assignments = make(map[string]map[string]*Assignment)
	}

	var conversions map[string]map[string]int
	if raw, found, err := s.store.Load(state.KeyConversions); err == nil && found {
		if err := json.Unmarshal(raw, &conversions); err != nil {
			s.logger.Experiments().Warn("Discarding corrupted conversion tallies", "error", err.Error())
			conversions = nil
		}
	}
	if conversions == nil {
		conversions = make(map[string]map[string]int)
	}

	s.mu.Lock()
	s.assignments = assignments
	s.conversions = conversions
	s.mu.Unlock()

	s.logger.Experiments().Debug("Experiment state restored",
		"visitors", len(assignments), "duration", time.Since(start))
}

// Reload discards in-memory assignment state and restores it from the store.
func (s *ExperimentService) Reload() {
	s.load()
}

// isRunning reports whether an experiment serves variants now.
func (s *ExperimentService) isRunning(exp *experiments.Experiment, now time.Time) bool {
	if exp == nil || !exp.IsActive {
		return false
	}
	if now.Before(exp.StartDate) {
		return false
	}
	if exp.EndDate != nil && now.After(*exp.EndDate) {
		return false
	}
	return true
}

// AssignVariant resolves the visitor's variant for an experiment. Unknown and
// inactive experiments resolve to nil before any assignment lookup, so a
// paused experiment serves nothing even to previously assigned visitors; the
// stored assignment is kept and honored again on reactivation. A missing
// assignment draws a fresh weighted variant. Nil means the caller falls back
// to its default presentation.
func (s *ExperimentService) AssignVariant(visitorID, experimentID string) *experiments.Variant {
	marker := s.perf.StartOperation("experiments:assign_variant", visitorID)
	defer s.perf.CompleteOperation(marker)
	marker.AddMetadata("experimentId", experimentID)

	now := s.now()

	exp := s.catalog.Get(experimentID)
	if exp == nil {
		s.logger.Experiments().Debug("Variant requested for unknown experiment", "experimentId", experimentID)
		return nil
	}
	if !s.isRunning(exp, now) {
		return nil
	}

	unlock := s.locks.Lock(visitorID)
	defer unlock()

	s.mu.RLock()
	existing := s.assignments[visitorID][experimentID]
	s.mu.RUnlock()

	if existing != nil {
		if variant := exp.Variant(existing.VariantID); variant != nil {
			return variant
		}
		// The assigned variant was removed from the catalog. Drop the stale
		// assignment and fall through to a fresh draw.
		s.logger.Experiments().Warn("Dropping assignment to removed variant",
			"visitorId", visitorID, "experimentId", experimentID, "variantId", existing.VariantID)
		s.mu.Lock()
		delete(s.assignments[visitorID], experimentID)
		s.mu.Unlock()
	}

	s.rngMu.Lock()
	draw := s.rng.Float64() * exp.TotalWeight()
	s.rngMu.Unlock()

	variant := experiments.PickVariant(exp, draw)
	if variant == nil {
		s.logger.Experiments().Warn("Experiment has no positive-weight variants", "experimentId", experimentID)
		return nil
	}

	assignment := &Assignment{
		VisitorID:    visitorID,
		ExperimentID: experimentID,
		VariantID:    variant.ID,
		AssignedAt:   now,
	}

	s.mu.Lock()
	if s.assignments[visitorID] == nil {
		s.assignments[visitorID] = make(map[string]*Assignment)
	}
	s.assignments[visitorID][experimentID] = assignment
	s.mu.Unlock()

	s.persistAssignments()
	s.sink.Emit(events.TrackingEvent{
		ID:        security.GenerateULID(),
		Type:      events.TypeVariantAssigned,
		VisitorID: visitorID,
		Timestamp: now,
		Metadata: map[string]any{
			"experimentId": experimentID,
			"variantId":    variant.ID,
		},
	})
	s.logger.Experiments().Debug("Variant assigned",
		"visitorId", visitorID, "experimentId", experimentID, "variantId", variant.ID)
	return variant
}

// GetAssignment returns the visitor's assignment for an experiment, or nil.
func (s *ExperimentService) GetAssignment(visitorID, experimentID string) *Assignment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assignment := s.assignments[visitorID][experimentID]
	if assignment == nil {
		return nil
	}
	clone := *assignment
	return &clone
}

// GetVariantConfig returns a copy of one variant's config map. Pure catalog
// lookup, nil for unknown experiment or variant ids.
func (s *ExperimentService) GetVariantConfig(experimentID, variantID string) map[string]any {
	exp := s.catalog.Get(experimentID)
	if exp == nil {
		return nil
	}
	variant := exp.Variant(variantID)
	if variant == nil {
		return nil
	}

	config := make(map[string]any, len(variant.Config))
	for k, v := range variant.Config {
		config[k] = v
	}
	return config
}

// GetAssignedConfig resolves the visitor's variant (assigning one on first
// contact) and returns a copy of its config map. Always returns a non-nil
// map: empty, with ok=false, when the experiment is inactive or unknown, so
// UI callers can merge it over their defaults without guards.
func (s *ExperimentService) GetAssignedConfig(visitorID, experimentID string) (map[string]any, string, bool) {
	variant := s.AssignVariant(visitorID, experimentID)
	if variant == nil {
		return map[string]any{}, "", false
	}

	config := make(map[string]any, len(variant.Config))
	for k, v := range variant.Config {
		config[k] = v
	}
	return config, variant.ID, true
}

// RecordConversion emits a conversion tracking event tagged with the
// visitor's assigned variant and an optional numeric value (a completion
// percentage, an order total). Conversions are observational: the assignment
// is never mutated, and every call with an assignment emits. Without an
// assignment nothing is recorded and false is returned.
func (s *ExperimentService) RecordConversion(visitorID, experimentID string, value *float64) bool {
	marker := s.perf.StartOperation("experiments:conversion", visitorID)
	defer s.perf.CompleteOperation(marker)

	unlock := s.locks.Lock(visitorID)
	defer unlock()

	now := s.now()

	s.mu.Lock()
	assignment := s.assignments[visitorID][experimentID]
	if assignment == nil {
		s.mu.Unlock()
		return false
	}
	variantID := assignment.VariantID
	if s.conversions[experimentID] == nil {
		s.conversions[experimentID] = make(map[string]int)
	}
	s.conversions[experimentID][variantID]++
	s.mu.Unlock()

	s.persistConversions()

	metadata := map[string]any{
		"experimentId": experimentID,
		"variantId":    variantID,
	}
	if value != nil {
		metadata["value"] = *value
	}
	s.sink.Emit(events.TrackingEvent{
		ID:        security.GenerateULID(),
		Type:      events.TypeConversionRecorded,
		VisitorID: visitorID,
		Timestamp: now,
		Metadata:  metadata,
	})
	s.logger.Experiments().Debug("Conversion recorded",
		"visitorId", visitorID, "experimentId", experimentID, "variantId", variantID)
	return true
}

// ListExperiments returns the experiment catalog in registration order.
func (s *ExperimentService) ListExperiments() []*experiments.Experiment {
	return s.catalog.List()
}

// GetExperiment returns one experiment, or nil for unknown ids.
func (s *ExperimentService) GetExperiment(experimentID string) *experiments.Experiment {
	return s.catalog.Get(experimentID)
}

// SetExperimentActive toggles an experiment and persists the activation
// flags. Existing assignments are unaffected. Returns false for unknown ids.
func (s *ExperimentService) SetExperimentActive(experimentID string, active bool) bool {
	if !s.catalog.SetActive(experimentID, active) {
		return false
	}
	if err := s.store.Save(state.KeyExperiments, s.catalog.ActivationFlags()); err != nil {
		s.logger.Experiments().Error("Failed to persist experiment activation flags", "error", err.Error())
	}
	s.logger.Experiments().Info("Experiment activation changed", "experimentId", experimentID, "active", active)
	return true
}

// VariantCounts aggregates assignments and conversions per variant.
type VariantCounts struct {
	Assignments int `json:"assignments"`
	Conversions int `json:"conversions"`
}

// CountsByVariant returns assignment and conversion tallies for an
// experiment. Conversions count events, not visitors, so a variant may tally
// more conversions than assignments.
func (s *ExperimentService) CountsByVariant(experimentID string) map[string]VariantCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]VariantCounts)
	for _, byExperiment := range s.assignments {
		assignment, ok := byExperiment[experimentID]
		if !ok {
			continue
		}
		c := counts[assignment.VariantID]
		c.Assignments++
		counts[assignment.VariantID] = c
	}
	for variantID, converted := range s.conversions[experimentID] {
		c := counts[variantID]
		c.Conversions = converted
		counts[variantID] = c
	}
	return counts
}

func (s *ExperimentService) persistAssignments() {
	s.mu.RLock()
	snapshot := make(map[string]map[string]*Assignment, len(s.assignments))
	for visitorID, byExperiment := range s.assignments {
		inner := make(map[string]*Assignment, len(byExperiment))
		for experimentID, assignment := range byExperiment {
			clone := *assignment
			inner[experimentID] = &clone
		}
		snapshot[visitorID] = inner
	}
	s.mu.RUnlock()

	if err := s.store.Save(state.KeyAssignments, snapshot); err != nil {
		s.logger.Experiments().Error("Failed to persist variant assignments", "error", err.Error())
	}
}

func (s *ExperimentService) persistConversions() {
	s.mu.RLock()
	snapshot := make(map[string]map[string]int, len(s.conversions))
	for experimentID, byVariant := range s.conversions {
		inner := make(map[string]int, len(byVariant))
		for variantID, count := range byVariant {
			inner[variantID] = count
		}
		snapshot[experimentID] = inner
	}
	s.mu.RUnlock()

	if err := s.store.Save(state.KeyConversions, snapshot); err != nil {
		s.logger.Experiments().Error("Failed to persist conversion tallies", "error", err.Error())
	}
}
