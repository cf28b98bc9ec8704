// Package events provides tracking event types
package events

import "time"

// Tracking event types emitted by the engines.
const (
	TypeRuleExecuted       = "rule_executed"
	TypeVariantAssigned    = "variant_assigned"
	TypeConversionRecorded = "conversion_recorded"
	TypeHighValueLead      = "high_value_lead"
	TypeVisitorCreated     = "visitor_created"
	TypeScoreReset         = "score_reset"
	TypeProfileTierChanged = "profile_tier_changed"
)

// TrackingEvent is the observability record both engines emit to the event sink.
// Metadata is an open key-value bag; the engine never interprets its contents.
type TrackingEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	VisitorID string         `json:"visitorId"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
