package controller

import (
	"log"
	"time"

	"github.com/arm-control/acc/internal/hwif"
	"github.com/arm-control/acc/internal/msg"
	"github.com/arm-control/acc/internal/rtbuf"
	"github.com/arm-control/acc/internal/throttle"
)

// TwistControllerType is the plugin identifier for the twist relay.
const TwistControllerType = "acc/TwistController"

// DefaultStalenessThreshold is the maximum age of a twist command before
// the cycle fails safe to zero velocity on the twist axes.
const DefaultStalenessThreshold = 400 * time.Millisecond

// expectedInterfaceCount is the slot layout the update cycle writes:
// six twist axes plus the gripper.
const expectedInterfaceCount = 7

// Slot layout, fixed by the interface binding order.
const (
	slotLinearX = iota
	slotLinearY
	slotLinearZ
	slotAngularX
	slotAngularY
	slotAngularZ
	slotGripper
)

// interfaceCountLogWindow bounds error log emission when the slot count
// check fails on every cycle.
const interfaceCountLogWindow = 1000 * time.Millisecond

func init() {
	Register(TwistControllerType, func(name string) Controller {
		return NewTwistController(name)
	})
}

// TwistController relays the latest buffered twist and gripper velocity
// commands to seven hardware command slots once per control period,
// zeroing the twist axes when the command is stale.
//
// Absence policy is asymmetric, matching the upstream controller: when no
// twist command has ever arrived the outputs hold their previous values,
// while the gripper slot is zeroed on every fresh cycle without a gripper
// command. Staleness zeroes the twist axes only and leaves the gripper
// slot untouched.
type TwistController struct {
	name   string
	logger *log.Logger

	params *Parameters

	// Interface binding, computed once at configure time.
	jointName      string
	interfaceNames []string
	fullNames      []string

	// Slots assigned by the manager after a successful claim. The count
	// is re-validated every cycle because a specialized variant may alter
	// the binding after construction.
	cmdIfaces []hwif.CommandInterface

	twistBuf   rtbuf.Buffer[msg.TwistStamped]
	gripperBuf rtbuf.Buffer[msg.GripperVelocity]

	staleness time.Duration
	countGate *throttle.Gate
}

var _ Controller = (*TwistController)(nil)

// NewTwistController creates a twist controller instance.
func NewTwistController(name string) *TwistController {
	return &TwistController{
		name:      name,
		logger:    log.Default(),
		staleness: DefaultStalenessThreshold,
		countGate: throttle.NewGate(interfaceCountLogWindow),
	}
}

// SetLogger replaces the controller's logger.
func (c *TwistController) SetLogger(logger *log.Logger) {
	c.logger = logger
}

// SetStalenessThreshold overrides the staleness interlock threshold.
// Non-positive values keep the default.
func (c *TwistController) SetStalenessThreshold(d time.Duration) {
	if d > 0 {
		c.staleness = d
	}
}

// StalenessThreshold returns the active staleness threshold.
func (c *TwistController) StalenessThreshold() time.Duration {
	return c.staleness
}

// SetInterfaceNames pre-populates the interface suffixes. Specialized
// variants call this before OnConfigure runs; the pre-populated list wins
// over the interface_names parameter.
func (c *TwistController) SetInterfaceNames(names []string) {
	c.interfaceNames = append([]string(nil), names...)
}

// Name returns the instance name.
func (c *TwistController) Name() string { return c.name }

// OnInit declares the joint and interface_names parameters.
func (c *TwistController) OnInit(params *Parameters) CallbackReturn {
	c.params = params

	if err := params.Declare("joint", ""); err != nil {
		c.logger.Printf("%s: init failed: %v", c.name, err)
		return CallbackError
	}
	if err := params.Declare("interface_names", []string{}); err != nil {
		c.logger.Printf("%s: init failed: %v", c.name, err)
		return CallbackError
	}

	return CallbackSuccess
}

// OnConfigure reads parameters, binds the command interface names, and
// registers the twist and gripper velocity subscriptions.
func (c *TwistController) OnConfigure(transport Transport) CallbackReturn {
	c.jointName = c.params.String("joint")
	if c.jointName == "" {
		c.logger.Printf("%s: %v: 'joint' parameter was empty", c.name, ErrEmptyJoint)
		return CallbackError
	}

	// Specialized variants set the suffixes before configure runs.
	if len(c.interfaceNames) == 0 {
		c.interfaceNames = c.params.StringSlice("interface_names")
	}
	if len(c.interfaceNames) == 0 {
		c.logger.Printf("%s: %v: 'interface_names' parameter was empty", c.name, ErrEmptyInterfaceNames)
		return CallbackError
	}

	c.fullNames = make([]string, 0, len(c.interfaceNames))
	for _, suffix := range c.interfaceNames {
		c.fullNames = append(c.fullNames, c.jointName+"/"+suffix)
	}

	// Each delivery performs exactly one buffer write.
	if err := transport.SubscribeTwist(c.name+"/commands", func(m msg.TwistStamped) {
		c.twistBuf.Write(m)
	}); err != nil {
		c.logger.Printf("%s: subscribe commands: %v", c.name, err)
		return CallbackError
	}
	if err := transport.SubscribeGripper(c.name+"/gripper_vel", func(m msg.GripperVelocity) {
		c.gripperBuf.Write(m)
	}); err != nil {
		c.logger.Printf("%s: subscribe gripper_vel: %v", c.name, err)
		return CallbackError
	}

	c.logger.Printf("%s: configure successful", c.name)
	return CallbackSuccess
}

// CommandInterfaceNames returns the fully qualified slot names in binding
// order.
func (c *TwistController) CommandInterfaceNames() []string {
	return append([]string(nil), c.fullNames...)
}

// AssignCommandInterfaces hands over the claimed slots.
func (c *TwistController) AssignCommandInterfaces(ifaces []hwif.CommandInterface) {
	c.cmdIfaces = ifaces
}

// ReleaseCommandInterfaces drops the assigned slots.
func (c *TwistController) ReleaseCommandInterfaces() {
	c.cmdIfaces = nil
}

// OnActivate clears both command buffers so a command received while
// inactive is not replayed on the first cycle.
func (c *TwistController) OnActivate() CallbackReturn {
	c.twistBuf.Clear()
	c.gripperBuf.Clear()
	return CallbackSuccess
}

// OnDeactivate clears both command buffers.
func (c *TwistController) OnDeactivate() CallbackReturn {
	c.twistBuf.Clear()
	c.gripperBuf.Clear()
	return CallbackSuccess
}

// Update runs one control cycle. The body is bounded-time scalar work:
// two buffer reads, a count check, and at most seven slot writes.
func (c *TwistController) Update(now time.Time, _ time.Duration) ReturnType {
	twist, haveTwist := c.twistBuf.Read()
	gripper, haveGripper := c.gripperBuf.Read()

	// No twist command received yet: hold the previous outputs.
	if !haveTwist {
		return ReturnOK
	}

	// Re-checked every cycle, not just at bind time: a specialized
	// variant may have altered the slot list after construction.
	if len(c.cmdIfaces) != expectedInterfaceCount {
		if c.countGate.Allow(now) {
			c.logger.Printf("%s: twist controller needs %d command interfaces, has %d",
				c.name, expectedInterfaceCount, len(c.cmdIfaces))
		}
		return ReturnError
	}

	// Staleness interlock: zero the twist axes and stop. The gripper
	// slot is deliberately untouched in this branch.
	if now.Sub(twist.Stamp) > c.staleness {
		for i := slotLinearX; i <= slotAngularZ; i++ {
			c.cmdIfaces[i].SetValue(0)
		}
		return ReturnOK
	}

	c.cmdIfaces[slotLinearX].SetValue(twist.Twist.Linear.X)
	c.cmdIfaces[slotLinearY].SetValue(twist.Twist.Linear.Y)
	c.cmdIfaces[slotLinearZ].SetValue(twist.Twist.Linear.Z)
	c.cmdIfaces[slotAngularX].SetValue(twist.Twist.Angular.X)
	c.cmdIfaces[slotAngularY].SetValue(twist.Twist.Angular.Y)
	c.cmdIfaces[slotAngularZ].SetValue(twist.Twist.Angular.Z)

	if !haveGripper {
		c.cmdIfaces[slotGripper].SetValue(0)
	} else {
		c.cmdIfaces[slotGripper].SetValue(gripper.Value)
	}

	return ReturnOK
}
