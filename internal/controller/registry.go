package controller

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs a controller instance under the given name.
type Factory func(name string) Controller

var factories = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{m: make(map[string]Factory)}

// Register adds a controller factory under a type identifier. Controller
// packages call this from init so the manager can instantiate them by the
// type name found in configuration. A duplicate registration panics, as it
// is a programming error visible at startup.
func Register(typeID string, f Factory) {
	factories.mu.Lock()
	defer factories.mu.Unlock()

	if _, exists := factories.m[typeID]; exists {
		panic(fmt.Sprintf("controller: duplicate registration for %q", typeID))
	}
	factories.m[typeID] = f
}

// New instantiates a controller of the given registered type.
func New(typeID, name string) (Controller, error) {
	factories.mu.RLock()
	f, ok := factories.m[typeID]
	factories.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeID)
	}
	return f(name), nil
}

// Types returns the sorted registered type identifiers.
func Types() []string {
	factories.mu.RLock()
	defer factories.mu.RUnlock()

	types := make([]string, 0, len(factories.m))
	for typeID := range factories.m {
		types = append(types, typeID)
	}
	sort.Strings(types)
	return types
}
