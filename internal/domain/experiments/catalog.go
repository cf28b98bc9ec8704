package experiments

import "sync"

// Catalog holds the registered experiments. Read-mostly; administrative
// toggles take the write lock so readers never observe a half-updated
// experiment.
type Catalog struct {
	experiments map[string]*Experiment
	order       []string
	mu          sync.RWMutex
}

// NewCatalog creates an empty experiment catalog.
func NewCatalog() *Catalog {
	return &Catalog{experiments: make(map[string]*Experiment)}
}

// Register adds an experiment. Registering a known id is a no-op so seeding
// is idempotent and never resets operator toggles.
func (c *Catalog) Register(exp *Experiment) {
	if exp == nil || exp.ID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.experiments[exp.ID]; exists {
		return
	}
	clone := cloneExperiment(exp)
	c.experiments[exp.ID] = clone
	c.order = append(c.order, exp.ID)
}

// Get returns the experiment with the given id, or nil.
func (c *Catalog) Get(id string) *Experiment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	exp, ok := c.experiments[id]
	if !ok {
		return nil
	}
	return cloneExperiment(exp)
}

// List returns all experiments in registration order.
func (c *Catalog) List() []*Experiment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Experiment, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cloneExperiment(c.experiments[id]))
	}
	return out
}

// SetActive toggles an experiment's active flag. Returns false for unknown
// ids. Existing assignments are unaffected.
func (c *Catalog) SetActive(id string, active bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp, ok := c.experiments[id]
	if !ok {
		return false
	}
	exp.IsActive = active
	return true
}

// RestoreActivation applies persisted activation flags, returning ids the
// catalog no longer knows.
func (c *Catalog) RestoreActivation(flags map[string]bool) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var unknown []string
	for id, active := range flags {
		exp, ok := c.experiments[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		exp.IsActive = active
	}
	return unknown
}

// ActivationFlags snapshots the current activation state for persistence.
func (c *Catalog) ActivationFlags() map[string]bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	flags := make(map[string]bool, len(c.experiments))
	for id, exp := range c.experiments {
		flags[id] = exp.IsActive
	}
	return flags
}

func cloneExperiment(exp *Experiment) *Experiment {
	clone := *exp
	clone.Variants = make([]Variant, len(exp.Variants))
	copy(clone.Variants, exp.Variants)
	return &clone
}
