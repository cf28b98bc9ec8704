package engagement

import "sync"

// RuleCatalog holds the registered scoring rules. It is read-mostly global
// state: evaluations take the read lock, the rare administrative
// activate/deactivate operations take the write lock so no reader observes a
// half-updated rule.
type RuleCatalog struct {
	rules map[string]*ScoringRule
	order []string
	mu    sync.RWMutex
}

// NewRuleCatalog creates an empty rule catalog.
func NewRuleCatalog() *RuleCatalog {
	return &RuleCatalog{rules: make(map[string]*ScoringRule)}
}

// Register adds a rule to the catalog. Registering an already-known id is a
// no-op, which makes seeding the default catalog idempotent: re-initializing
// never duplicates entries or resets an operator's activation toggles.
func (c *RuleCatalog) Register(rule *ScoringRule) {
	if rule == nil || rule.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.rules[rule.ID]; exists {
		return
	}
	clone := *rule
	c.rules[rule.ID] = &clone
	c.order = append(c.order, rule.ID)
}

// Get returns the rule with the given id, or nil.
func (c *RuleCatalog) Get(id string) *ScoringRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rule, ok := c.rules[id]
	if !ok {
		return nil
	}
	clone := *rule
	return &clone
}

// List returns all rules in registration order.
func (c *RuleCatalog) List() []*ScoringRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*ScoringRule, 0, len(c.order))
	for _, id := range c.order {
		clone := *c.rules[id]
		out = append(out, &clone)
	}
	return out
}

// ListActive returns the active rules in registration order.
func (c *RuleCatalog) ListActive() []*ScoringRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*ScoringRule, 0, len(c.order))
	for _, id := range c.order {
		if rule := c.rules[id]; rule.IsActive {
			clone := *rule
			out = append(out, &clone)
		}
	}
	return out
}

// ActiveByTrigger returns all active rules whose trigger matches. Zero, one,
// or many rules may match the same trigger.
func (c *RuleCatalog) ActiveByTrigger(trigger string) []*ScoringRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*ScoringRule
	for _, id := range c.order {
		if rule := c.rules[id]; rule.IsActive && rule.Trigger == trigger {
			clone := *rule
			out = append(out, &clone)
		}
	}
	return out
}

// SetActive toggles a rule's active flag. Returns false if the id is unknown.
// Takes effect for all subsequent evaluations; already-recorded activities
// are unaffected.
func (c *RuleCatalog) SetActive(id string, active bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	rule, ok := c.rules[id]
	if !ok {
		return false
	}
	rule.IsActive = active
	return true
}

// RestoreActivation applies persisted activation flags onto the catalog,
// skipping ids the catalog no longer knows.
func (c *RuleCatalog) RestoreActivation(flags map[string]bool) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var unknown []string
	for id, active := range flags {
		rule, ok := c.rules[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		rule.IsActive = active
	}
	return unknown
}

// ActivationFlags snapshots the current activation state for persistence.
func (c *RuleCatalog) ActivationFlags() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	flags := make(map[string]bool, len(c.rules))
	for id, rule := range c.rules {
		flags[id] = rule.IsActive
	}
	return flags
}
