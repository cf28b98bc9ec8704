// Package state provides the persistent key-value store both engines share:
// JSON documents under fixed namespaced keys, with an in-memory fallback when
// the backing store is unavailable.
package state

import "encoding/json"

// Namespaced keys for the engine's persisted records.
const (
	KeyRules           = "engage:rules"
	KeyProfiles        = "engage:profiles"
	KeyRuleOccurrences = "engage:rule_occurrences"
	KeyRuleExecutions  = "engage:rule_executions"
	KeyExperiments     = "engage:experiments"
	KeyAssignments     = "engage:assignments"
	KeyConversions     = "engage:conversions"
	KeyVisitors        = "engage:visitors"
)

// Store is the persistence abstraction both engines use. Load returns the raw
// JSON document for a key, or found=false when the key has never been
// written. Save marshals and persists a JSON-serializable value.
type Store interface {
	Load(key string) (raw json.RawMessage, found bool, err error)
	Save(key string, value any) error
}
