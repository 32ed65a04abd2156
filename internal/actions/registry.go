// Package actions provides named, parameterised task actions that workflow
// definitions refer to by name.
package actions

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/suggest"
)

// Factory builds an action from its definition parameters. Parameter errors
// are reported when the action is built, not when it runs.
type Factory func(params map[string]any) (core.Action, error)

type entry struct {
	description string
	factory     Factory
}

// Registry maps action names to factories.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Default returns a registry holding the built-in actions.
func Default() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// Register adds or replaces an action factory.
func (r *Registry) Register(name, description string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{description: description, factory: factory}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Names returns the registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the description of an action.
func (r *Registry) Describe(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.description, ok
}

// Build creates the action registered under name.
func (r *Registry) Build(name string, params map[string]any) (core.Action, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, core.ErrValidation(core.CodeUnknownAction,
			fmt.Sprintf("unknown action %q%s", name, suggest.Hint(name, r.Names()))).
			WithDetail("action", name)
	}
	if params == nil {
		params = map[string]any{}
	}
	action, err := e.factory(params)
	if err != nil {
		return nil, core.ErrValidation(core.CodeInvalidParams,
			fmt.Sprintf("action %s: %v", name, err)).WithCause(err)
	}
	return action, nil
}
