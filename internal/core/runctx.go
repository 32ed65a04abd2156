package core

import (
	"maps"
	"sort"
	"sync"
)

// RunContext is the mutable key/value state shared by the actions of one
// workflow execution. It is safe for concurrent use.
type RunContext struct {
	mu     sync.RWMutex
	values map[string]any
	writes map[string]any // non-nil only on forks
}

// NewRunContext creates a run context seeded with a copy of initial.
func NewRunContext(initial map[string]any) *RunContext {
	values := make(map[string]any, len(initial))
	maps.Copy(values, initial)
	return &RunContext{values: values}
}

// Get returns the value stored under key.
func (c *RunContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (c *RunContext) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores value under key.
func (c *RunContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	if c.writes != nil {
		c.writes[key] = value
	}
}

// Delete removes key.
func (c *RunContext) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	if c.writes != nil {
		c.writes[key] = deleted{}
	}
}

// Len returns the number of keys.
func (c *RunContext) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Keys returns the keys in sorted order.
func (c *RunContext) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the current values.
func (c *RunContext) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}

// Fork returns an isolated copy of c that records its own writes. Writes to
// the fork are invisible to c until Merge is called.
func (c *RunContext) Fork() *RunContext {
	return &RunContext{
		values: c.Snapshot(),
		writes: make(map[string]any),
	}
}

// Merge applies the writes recorded by fork to c.
func (c *RunContext) Merge(fork *RunContext) {
	fork.mu.RLock()
	writes := maps.Clone(fork.writes)
	fork.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range writes {
		if _, ok := v.(deleted); ok {
			delete(c.values, k)
			continue
		}
		c.values[k] = v
	}
}

// deleted marks a key removed inside a fork.
type deleted struct{}
