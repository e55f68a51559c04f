package hwif

import (
	"fmt"
	"sort"
	"sync"
)

// CommandInterface is a single named writable scalar command slot exposed
// by the hardware layer.
type CommandInterface interface {
	// Name returns the fully qualified slot name, e.g. "tool0/linear_x".
	Name() string

	// SetValue writes the commanded scalar. It must be non-blocking and
	// must not fail; faults are the hardware layer's concern, not the
	// control cycle's.
	SetValue(v float64)

	// Value returns the last commanded scalar.
	Value() float64
}

// Registry holds the hardware slot inventory and tracks per-controller
// claims so two controllers cannot write the same slot.
type Registry struct {
	mu     sync.RWMutex
	slots  map[string]CommandInterface
	claims map[string]string // slot name -> claiming controller
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		slots:  make(map[string]CommandInterface),
		claims: make(map[string]string),
	}
}

// Register adds a slot to the inventory.
func (r *Registry) Register(ci CommandInterface) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := ci.Name()
	if _, exists := r.slots[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateInterface, name)
	}
	r.slots[name] = ci
	return nil
}

// Claim resolves the ordered slot names for a controller and marks them
// claimed. All-or-nothing: on any failure no slot is claimed.
func (r *Registry) Claim(controller string, names []string) ([]CommandInterface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resolved := make([]CommandInterface, 0, len(names))
	for _, name := range names {
		ci, exists := r.slots[name]
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownInterface, name)
		}
		if owner, claimed := r.claims[name]; claimed && owner != controller {
			return nil, fmt.Errorf("%w: %s held by %s", ErrInterfaceClaimed, name, owner)
		}
		resolved = append(resolved, ci)
	}

	for _, name := range names {
		r.claims[name] = controller
	}
	return resolved, nil
}

// Release drops every claim held by a controller.
func (r *Registry) Release(controller string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, owner := range r.claims {
		if owner == controller {
			delete(r.claims, name)
		}
	}
}

// Names returns the sorted slot inventory, for diagnostics and the API.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.slots))
	for name := range r.slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
