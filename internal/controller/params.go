package controller

import (
	"fmt"
	"sync"
)

// Parameters is the declare-then-set parameter store backing a controller
// instance. OnInit declares each parameter with its default; the manager
// overlays configured values before OnConfigure reads them.
type Parameters struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewParameters creates an empty parameter store.
func NewParameters() *Parameters {
	return &Parameters{values: make(map[string]interface{})}
}

// Declare registers a parameter with its default value. Declaring the same
// name twice is an error, surfaced through the init callback.
func (p *Parameters) Declare(name string, def interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.values[name]; exists {
		return fmt.Errorf("%w: %s", ErrRedeclaredParameter, name)
	}
	p.values[name] = def
	return nil
}

// Set overrides a declared parameter's value.
func (p *Parameters) Set(name string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.values[name]; !exists {
		return fmt.Errorf("%w: %s", ErrUndeclaredParameter, name)
	}
	p.values[name] = value
	return nil
}

// String returns a string parameter, or "" when unset or of another type.
func (p *Parameters) String(name string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, _ := p.values[name].(string)
	return s
}

// StringSlice returns a string-list parameter, or nil when unset or of
// another type.
func (p *Parameters) StringSlice(name string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, _ := p.values[name].([]string)
	return s
}
