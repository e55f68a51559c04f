// Package fake provides an in-memory actuator bank implementing the
// hardware command interface for tests and the loopback rig.
package fake

import (
	"math"
	"sync/atomic"

	"github.com/arm-control/acc/internal/hwif"
)

// Actuator is a named scalar command slot backed by an atomic cell. It
// additionally counts writes so tests can assert that a cycle performed no
// writes at all, not merely that values are unchanged.
type Actuator struct {
	name   string
	bits   atomic.Uint64
	writes atomic.Uint64
}

var _ hwif.CommandInterface = (*Actuator)(nil)

// NewActuator creates an actuator with value 0.
func NewActuator(name string) *Actuator {
	return &Actuator{name: name}
}

// Name returns the fully qualified slot name.
func (a *Actuator) Name() string { return a.name }

// SetValue stores the commanded scalar.
func (a *Actuator) SetValue(v float64) {
	a.bits.Store(math.Float64bits(v))
	a.writes.Add(1)
}

// Value returns the last commanded scalar.
func (a *Actuator) Value() float64 {
	return math.Float64frombits(a.bits.Load())
}

// Writes returns how many times SetValue has been called.
func (a *Actuator) Writes() uint64 {
	return a.writes.Load()
}

// Bank is an ordered set of actuators registered as a unit.
type Bank struct {
	actuators []*Actuator
}

// NewBank creates one actuator per name, in order.
func NewBank(names ...string) *Bank {
	b := &Bank{actuators: make([]*Actuator, 0, len(names))}
	for _, name := range names {
		b.actuators = append(b.actuators, NewActuator(name))
	}
	return b
}

// RegisterAll adds every actuator in the bank to the registry.
func (b *Bank) RegisterAll(reg *hwif.Registry) error {
	for _, a := range b.actuators {
		if err := reg.Register(a); err != nil {
			return err
		}
	}
	return nil
}

// Actuators returns the bank contents in registration order.
func (b *Bank) Actuators() []*Actuator {
	return b.actuators
}

// Values returns the current commanded values in registration order.
func (b *Bank) Values() []float64 {
	values := make([]float64, len(b.actuators))
	for i, a := range b.actuators {
		values[i] = a.Value()
	}
	return values
}
