package engagement

import "time"

// EngagementLevel is the coarse tier derived from a profile's total score.
type EngagementLevel string

const (
	EngagementVeryLow  EngagementLevel = "very_low"
	EngagementLow      EngagementLevel = "low"
	EngagementMedium   EngagementLevel = "medium"
	EngagementHigh     EngagementLevel = "high"
	EngagementVeryHigh EngagementLevel = "very_high"
)

// LevelForScore derives the engagement tier from a total score using the
// fixed thresholds. The stored tier on a profile must always equal this
// derivation; it carries no independent state.
func LevelForScore(score int) EngagementLevel {
	switch {
	case score >= 80:
		return EngagementVeryHigh
	case score >= 60:
		return EngagementHigh
	case score >= 40:
		return EngagementMedium
	case score >= 20:
		return EngagementLow
	default:
		return EngagementVeryLow
	}
}

// LeadActivity is an append-only record of a single successful rule execution.
// Activities are never mutated or deleted.
type LeadActivity struct {
	ID        string         `json:"id"`
	VisitorID string         `json:"visitorId"`
	RuleID    string         `json:"ruleId"`
	Points    int            `json:"points"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// LeadProfile is the per-visitor scoring state. One per visitor, created on
// first activity, never deleted by the engine itself.
type LeadProfile struct {
	VisitorID       string          `json:"visitorId"`
	TotalScore      int             `json:"totalScore"`
	EngagementLevel EngagementLevel `json:"engagementLevel"`
	FirstActivity   time.Time       `json:"firstActivity"`
	LastActivity    time.Time       `json:"lastActivity"`
	Activities      []LeadActivity  `json:"activities"`
	Tags            []string        `json:"tags,omitempty"`
	CustomFields    map[string]any  `json:"customFields,omitempty"`
}

// AddTag adds a tag if not already present.
func (p *LeadProfile) AddTag(tag string) {
	for _, t := range p.Tags {
		if t == tag {
			return
		}
	}
	p.Tags = append(p.Tags, tag)
}

// HasTag reports whether the profile carries the given tag.
func (p *LeadProfile) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ApplyPoints adds a point delta to the total score, clamping the result to
// [0, maxScore], and recomputes the engagement tier.
func (p *LeadProfile) ApplyPoints(points, maxScore int) {
	p.TotalScore += points
	if p.TotalScore < 0 {
		p.TotalScore = 0
	}
	if maxScore > 0 && p.TotalScore > maxScore {
		p.TotalScore = maxScore
	}
	p.EngagementLevel = LevelForScore(p.TotalScore)
}
