package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/helderdigital/engage-go/internal/domain/engagement"
	"github.com/helderdigital/engage-go/internal/domain/events"
	"github.com/helderdigital/engage-go/internal/infrastructure/email"
	"github.com/helderdigital/engage-go/internal/infrastructure/messaging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/logging"
	"github.com/helderdigital/engage-go/internal/infrastructure/observability/performance"
	"github.com/helderdigital/engage-go/internal/infrastructure/persistence/state"
	"github.com/helderdigital/engage-go/internal/infrastructure/security"
)

// HighValueTag marks a profile that has crossed the high-value threshold.
// The tag gates the alert email so a visitor only triggers it once.
const HighValueTag = "high-value"

// ScoringOptions configures the scoring engine. Zero values fall back to
// sensible defaults; Clock and AlertRecipient are optional.
type ScoringOptions struct {
	MaxScore           int
	HighValueThreshold int
	AlertRecipient     string
	Clock              func() time.Time
}

// ScoringService is the lead scoring engine. It evaluates site activities
// against the rule catalog, applies throttle policy per visitor, maintains
// lead profiles, and persists state after every mutation.
//
// Concurrency: a keyed mutex serializes mutations per visitor; the state maps
// are additionally guarded for cross-visitor reads (queries, analytics).
type ScoringService struct {
	catalog *engagement.RuleCatalog
	guard   *engagement.ThrottleGuard
	store   state.Store
	sink    messaging.EventSink
	email   email.Service
	logger  *logging.ChanneledLogger
	perf    *performance.Tracker
	opts    ScoringOptions
	now     func() time.Time

	mu          sync.RWMutex
	profiles    map[string]*engagement.LeadProfile
	occurrences map[string]engagement.OccurrenceCounts
	executions  map[string]engagement.ExecutionTimes
	locks       *visitorLocks
}

// NewScoringService creates the scoring engine, seeds the default rule
// catalog, and restores persisted state. emailSvc may be nil when no alert
// delivery is configured.
func NewScoringService(
	catalog *engagement.RuleCatalog,
	store state.Store,
	sink messaging.EventSink,
	emailSvc email.Service,
	logger *logging.ChanneledLogger,
	perf *performance.Tracker,
	opts ScoringOptions,
) *ScoringService {
	if opts.MaxScore <= 0 {
		opts.MaxScore = 100
	}
	if opts.HighValueThreshold <= 0 {
		opts.HighValueThreshold = 70
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &ScoringService{
		catalog:     catalog,
		guard:       engagement.NewThrottleGuard(clock),
		store:       store,
		sink:        sink,
		email:       emailSvc,
		logger:      logger,
		perf:        perf,
		opts:        opts,
		now:         clock,
		profiles:    make(map[string]*engagement.LeadProfile),
		occurrences: make(map[string]engagement.OccurrenceCounts),
		executions:  make(map[string]engagement.ExecutionTimes),
		locks:       newVisitorLocks(),
	}

	for _, rule := range engagement.DefaultRules() {
		catalog.Register(rule)
	}
	s.load()
	return s
}

// load restores rule activation flags and lead profiles, then rebuilds the
// throttle counters from the activity logs. The append-only activity log is
// the single source of truth; persisted counter snapshots are written for
// inspection but never trusted on load, so the two can never disagree.
func (s *ScoringService) load() {
	start := time.Now()

	if raw, found, err := s.store.Load(state.KeyRules); err == nil && found {
		var flags map[string]bool
		if err := json.Unmarshal(raw, &flags); err != nil {
			s.logger.Scoring().Warn("Discarding corrupted rule activation state", "error", err.Error())
		} else if unknown := s.catalog.RestoreActivation(flags); len(unknown) > 0 {
			s.logger.Scoring().Warn("Persisted activation flags reference unknown rules", "ruleIds", unknown)
		}
	}

	var profiles map[string]*engagement.LeadProfile
	if raw, found, err := s.store.Load(state.KeyProfiles); err == nil && found {
		if err := json.Unmarshal(raw, &profiles); err != nil {
			s.logger.Scoring().Warn("Discarding corrupted lead profiles", "error", err.Error())
			profiles = nil
		}
	}
	if profiles == nil {
		profiles = make(map[string]*engagement.LeadProfile)
	}

	occurrences := make(map[string]engagement.OccurrenceCounts, len(profiles))
	executions := make(map[string]engagement.ExecutionTimes, len(profiles))
	for visitorID, profile := range profiles {
		counts := make(engagement.OccurrenceCounts)
		lastExec := make(engagement.ExecutionTimes)
		for _, activity := range profile.Activities {
			counts[activity.RuleID]++
			if activity.Timestamp.After(lastExec[activity.RuleID]) {
				lastExec[activity.RuleID] = activity.Timestamp
			}
		}
		occurrences[visitorID] = counts
		executions[visitorID] = lastExec

		// The stored tier carries no independent state; rederive it in case
		// the thresholds moved between releases.
		profile.EngagementLevel = engagement.LevelForScore(profile.TotalScore)
	}

	s.mu.Lock()
	s.profiles = profiles
	s.occurrences = occurrences
	s.executions = executions
	s.mu.Unlock()

	s.logger.Scoring().Debug("Scoring state restored",
		"profiles", len(profiles), "duration", time.Since(start))
}

// Reload discards in-memory scoring state and restores it from the store.
func (s *ScoringService) Reload() {
	s.load()
}

// ActivityResult reports what a processed activity changed.
type ActivityResult struct {
	Profile    *engagement.LeadProfile `json:"profile"`
	FiredRules []string                `json:"firedRules"`
}

// ProcessActivity evaluates one site activity for a visitor. Every active
// rule matching the trigger is evaluated independently against the throttle
// guard; rules that pass record an activity, apply their points, and update
// the throttle state. Unmatched triggers are a silent no-op.
func (s *ScoringService) ProcessActivity(visitorID, trigger string, metadata map[string]any) *ActivityResult {
	marker := s.perf.StartOperation("scoring:process_activity", visitorID)
	defer s.perf.CompleteOperation(marker)
	marker.AddMetadata("trigger", trigger)

	unlock := s.locks.Lock(visitorID)
	defer unlock()

	now := s.now()
	rules := s.catalog.ActiveByTrigger(trigger)

	s.mu.Lock()
	profile, exists := s.profiles[visitorID]
	if !exists {
		profile = &engagement.LeadProfile{
			VisitorID:       visitorID,
			EngagementLevel: engagement.EngagementVeryLow,
			FirstActivity:   now,
			LastActivity:    now,
		}
		s.profiles[visitorID] = profile
		s.occurrences[visitorID] = make(engagement.OccurrenceCounts)
		s.executions[visitorID] = make(engagement.ExecutionTimes)
	}
	counts := s.occurrences[visitorID]
	lastExec := s.executions[visitorID]

	var fired []string
	var emitted []events.TrackingEvent
	var alert *email.LeadAlert

	for _, rule := range rules {
		if !s.guard.CanExecute(rule, counts, lastExec) {
			s.logger.Scoring().Debug("Rule throttled",
				"visitorId", visitorID, "ruleId", rule.ID, "trigger", trigger)
			continue
		}

		activity := engagement.LeadActivity{
			ID:        security.GenerateULID(),
			VisitorID: visitorID,
			RuleID:    rule.ID,
			Points:    rule.Points,
			Timestamp: now,
			Metadata:  metadata,
		}
		profile.Activities = append(profile.Activities, activity)
		counts[rule.ID]++
		lastExec[rule.ID] = now

		previousScore := profile.TotalScore
		previousLevel := profile.EngagementLevel
		profile.ApplyPoints(rule.Points, s.opts.MaxScore)
		profile.LastActivity = now
		fired = append(fired, rule.ID)

		emitted = append(emitted, events.TrackingEvent{
			ID:        activity.ID,
			Type:      events.TypeRuleExecuted,
			VisitorID: visitorID,
			Timestamp: now,
			Metadata: map[string]any{
				"ruleId":     rule.ID,
				"trigger":    trigger,
				"points":     rule.Points,
				"totalScore": profile.TotalScore,
			},
		})
		if profile.EngagementLevel != previousLevel {
			emitted = append(emitted, events.TrackingEvent{
				ID:        security.GenerateULID(),
				Type:      events.TypeProfileTierChanged,
				VisitorID: visitorID,
				Timestamp: now,
				Metadata: map[string]any{
					"from": string(previousLevel),
					"to":   string(profile.EngagementLevel),
				},
			})
		}

		if previousScore < s.opts.HighValueThreshold &&
			profile.TotalScore >= s.opts.HighValueThreshold &&
			!profile.HasTag(HighValueTag) {
			profile.AddTag(HighValueTag)
			emitted = append(emitted, events.TrackingEvent{
				ID:        security.GenerateULID(),
				Type:      events.TypeHighValueLead,
				VisitorID: visitorID,
				Timestamp: now,
				Metadata:  map[string]any{"score": profile.TotalScore},
			})
			alert = &email.LeadAlert{
				VisitorID:       visitorID,
				Score:           profile.TotalScore,
				EngagementLevel: string(profile.EngagementLevel),
				LastTrigger:     trigger,
				ActivityCount:   len(profile.Activities),
			}
		}
	}

	result := &ActivityResult{Profile: cloneProfile(profile), FiredRules: fired}
	s.mu.Unlock()

	if len(fired) > 0 {
		s.persistState()
	}
	for _, event := range emitted {
		s.sink.Emit(event)
	}
	if alert != nil {
		s.sendHighValueAlert(*alert)
	}

	s.logger.Scoring().Debug("Activity processed",
		"visitorId", visitorID, "trigger", trigger,
		"firedRules", len(fired), "score", result.Profile.TotalScore)
	return result
}

// sendHighValueAlert delivers the alert email without blocking the caller.
func (s *ScoringService) sendHighValueAlert(alert email.LeadAlert) {
	if s.email == nil || s.opts.AlertRecipient == "" {
		return
	}
	go func() {
		if err := s.email.SendHighValueLeadAlert(s.opts.AlertRecipient, alert); err != nil {
			s.logger.Email().Error("Failed to send high-value lead alert",
				"error", err.Error(), "visitorId", alert.VisitorID)
			return
		}
		s.logger.Email().Info("High-value lead alert sent",
			"visitorId", alert.VisitorID, "score", alert.Score)
	}()
}

// GetProfile returns a copy of the visitor's profile, or nil when the visitor
// has no recorded activity.
func (s *ScoringService) GetProfile(visitorID string) *engagement.LeadProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[visitorID]
	if !ok {
		return nil
	}
	return cloneProfile(profile)
}

// GetScore returns the visitor's total score, zero for unknown visitors.
func (s *ScoringService) GetScore(visitorID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if profile, ok := s.profiles[visitorID]; ok {
		return profile.TotalScore
	}
	return 0
}

// GetEngagementLevel returns the visitor's tier, very_low for unknown visitors.
func (s *ScoringService) GetEngagementLevel(visitorID string) engagement.EngagementLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if profile, ok := s.profiles[visitorID]; ok {
		return profile.EngagementLevel
	}
	return engagement.EngagementVeryLow
}

// GetActivities returns the visitor's activity log, newest last.
func (s *ScoringService) GetActivities(visitorID string) []engagement.LeadActivity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[visitorID]
	if !ok {
		return nil
	}
	out := make([]engagement.LeadActivity, len(profile.Activities))
	copy(out, profile.Activities)
	return out
}

// AllProfiles returns copies of every lead profile for analytics aggregation.
func (s *ScoringService) AllProfiles() []*engagement.LeadProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*engagement.LeadProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		out = append(out, cloneProfile(profile))
	}
	return out
}

// GetHighValueProfiles returns copies of every profile whose total score
// meets the given floor, for the sales-facing lead list.
func (s *ScoringService) GetHighValueProfiles(minScore int) []*engagement.LeadProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*engagement.LeadProfile, 0)
	for _, profile := range s.profiles {
		if profile.TotalScore >= minScore {
			out = append(out, cloneProfile(profile))
		}
	}
	return out
}

// ResetScore clears a visitor's score, activity log, and throttle state. The
// profile itself survives with its identity and timestamps. Returns false for
// unknown visitors.
func (s *ScoringService) ResetScore(visitorID string) bool {
	marker := s.perf.StartOperation("scoring:reset", visitorID)
	defer s.perf.CompleteOperation(marker)

	unlock := s.locks.Lock(visitorID)
	defer unlock()

	now := s.now()

	s.mu.Lock()
	profile, ok := s.profiles[visitorID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	profile.TotalScore = 0
	profile.EngagementLevel = engagement.EngagementVeryLow
	profile.Activities = nil
	// Dropping the tag lets a re-engaged visitor trigger a fresh alert.
	tags := profile.Tags[:0]
	for _, tag := range profile.Tags {
		if tag != HighValueTag {
			tags = append(tags, tag)
		}
	}
	profile.Tags = tags
	s.occurrences[visitorID] = make(engagement.OccurrenceCounts)
	s.executions[visitorID] = make(engagement.ExecutionTimes)
	s.mu.Unlock()

	s.persistState()
	s.sink.Emit(events.TrackingEvent{
		ID:        security.GenerateULID(),
		Type:      events.TypeScoreReset,
		VisitorID: visitorID,
		Timestamp: now,
	})
	s.logger.Scoring().Info("Lead score reset", "visitorId", visitorID)
	return true
}

// ListRules returns the full rule catalog in registration order.
func (s *ScoringService) ListRules() []*engagement.ScoringRule {
	return s.catalog.List()
}

// SetRuleActive toggles a rule and persists the activation flags. Returns
// false for unknown rule ids.
func (s *ScoringService) SetRuleActive(ruleID string, active bool) bool {
	if !s.catalog.SetActive(ruleID, active) {
		return false
	}
	if err := s.store.Save(state.KeyRules, s.catalog.ActivationFlags()); err != nil {
		s.logger.Scoring().Error("Failed to persist rule activation flags", "error", err.Error())
	}
	s.logger.Scoring().Info("Rule activation changed", "ruleId", ruleID, "active", active)
	return true
}

// persistState writes profiles plus the derived counter snapshots. The
// snapshots are diagnostic copies; load() always rebuilds from the logs.
func (s *ScoringService) persistState() {
	start := time.Now()

	s.mu.RLock()
	profiles := make(map[string]*engagement.LeadProfile, len(s.profiles))
	for id, profile := range s.profiles {
		profiles[id] = cloneProfile(profile)
	}
	occurrences := make(map[string]engagement.OccurrenceCounts, len(s.occurrences))
	for id, counts := range s.occurrences {
		clone := make(engagement.OccurrenceCounts, len(counts))
		for ruleID, n := range counts {
			clone[ruleID] = n
		}
		occurrences[id] = clone
	}
	executions := make(map[string]engagement.ExecutionTimes, len(s.executions))
	for id, lastExec := range s.executions {
		clone := make(engagement.ExecutionTimes, len(lastExec))
		for ruleID, t := range lastExec {
			clone[ruleID] = t
		}
		executions[id] = clone
	}
	s.mu.RUnlock()

	if err := s.store.Save(state.KeyProfiles, profiles); err != nil {
		s.logger.Scoring().Error("Failed to persist lead profiles", "error", err.Error())
	}
	if err := s.store.Save(state.KeyRuleOccurrences, occurrences); err != nil {
		s.logger.Scoring().Error("Failed to persist occurrence counts", "error", err.Error())
	}
	if err := s.store.Save(state.KeyRuleExecutions, executions); err != nil {
		s.logger.Scoring().Error("Failed to persist execution times", "error", err.Error())
	}

	s.logger.Scoring().Debug("Scoring state persisted",
		"profiles", len(profiles), "duration", time.Since(start))
}

func cloneProfile(p *engagement.LeadProfile) *engagement.LeadProfile {
	clone := *p
	clone.Activities = make([]engagement.LeadActivity, len(p.Activities))
	copy(clone.Activities, p.Activities)
	clone.Tags = make([]string, len(p.Tags))
	copy(clone.Tags, p.Tags)
	return &clone
}
