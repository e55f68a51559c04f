package controller

import (
	"time"

	"github.com/arm-control/acc/internal/hwif"
	"github.com/arm-control/acc/internal/msg"
)

// CallbackReturn is the tri-state outcome of a lifecycle callback.
type CallbackReturn int

const (
	CallbackSuccess CallbackReturn = iota
	CallbackFailure
	CallbackError
)

// String returns the outcome name.
func (r CallbackReturn) String() string {
	switch r {
	case CallbackSuccess:
		return "SUCCESS"
	case CallbackFailure:
		return "FAILURE"
	default:
		return "ERROR"
	}
}

// ReturnType is the outcome of one update cycle.
type ReturnType int

const (
	ReturnOK ReturnType = iota
	ReturnError
)

// String returns the outcome name.
func (r ReturnType) String() string {
	if r == ReturnOK {
		return "OK"
	}
	return "ERROR"
}

// Transport is the subscription surface a controller binds its inbound
// command channels to at configuration time.
type Transport interface {
	SubscribeTwist(topic string, handler func(msg.TwistStamped)) error
	SubscribeGripper(topic string, handler func(msg.GripperVelocity)) error
}

// Controller is the lifecycle contract the manager drives. Callbacks run
// in the manager's goroutine; only Update is invoked from the periodic
// loop, and it must stay free of blocking, allocation, and I/O.
type Controller interface {
	// Name returns the instance name the controller was loaded under.
	Name() string

	// OnInit declares the controller's parameters. A declaration failure
	// is fatal; the controller never reaches a configured state.
	OnInit(params *Parameters) CallbackReturn

	// OnConfigure reads parameters, computes the command interface
	// binding, and registers the inbound command subscriptions.
	OnConfigure(transport Transport) CallbackReturn

	// CommandInterfaceNames returns the ordered fully qualified slot
	// names the controller writes each cycle. Valid after OnConfigure.
	CommandInterfaceNames() []string

	// AssignCommandInterfaces hands the controller the slots the manager
	// claimed for it, in CommandInterfaceNames order.
	AssignCommandInterfaces(ifaces []hwif.CommandInterface)

	// ReleaseCommandInterfaces drops the assigned slots on cleanup.
	ReleaseCommandInterfaces()

	// OnActivate and OnDeactivate bracket the active state.
	OnActivate() CallbackReturn
	OnDeactivate() CallbackReturn

	// Update runs one control cycle at instant now.
	Update(now time.Time, period time.Duration) ReturnType
}
