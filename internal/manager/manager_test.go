package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arm-control/acc/internal/bus"
	"github.com/arm-control/acc/internal/controller"
	"github.com/arm-control/acc/internal/hwif"
	"github.com/arm-control/acc/internal/hwif/fake"
	"github.com/arm-control/acc/internal/msg"
)

var twistSuffixes = []string{
	"linear_x", "linear_y", "linear_z",
	"angular_x", "angular_y", "angular_z",
	"gripper_velocity",
}

func fullNames(joint string) []string {
	names := make([]string, 0, len(twistSuffixes))
	for _, s := range twistSuffixes {
		names = append(names, joint+"/"+s)
	}
	return names
}

type harness struct {
	mgr  *Manager
	bus  *bus.Bus
	bank *fake.Bank
}

func newHarness(t *testing.T, period time.Duration) *harness {
	t.Helper()

	bank := fake.NewBank(fullNames("tool0")...)
	reg := hwif.NewRegistry()
	if err := bank.RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}

	b := bus.New()
	return &harness{
		mgr:  New(reg, b, period),
		bus:  b,
		bank: bank,
	}
}

func loadConfigured(t *testing.T, h *harness, name string) {
	t.Helper()

	ctx := context.Background()
	params := controller.NewParameters()
	if err := h.mgr.Load(ctx, controller.TwistControllerType, name, params); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := params.Set("joint", "tool0"); err != nil {
		t.Fatalf("Set joint: %v", err)
	}
	if err := params.Set("interface_names", twistSuffixes); err != nil {
		t.Fatalf("Set interface_names: %v", err)
	}
	if err := h.mgr.Configure(ctx, name); err != nil {
		t.Fatalf("Configure: %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	ctx := context.Background()

	loadConfigured(t, h, "arm")

	if st, _ := h.mgr.StateOf("arm"); st != StateInactive {
		t.Fatalf("after configure, state = %s, want inactive", st)
	}
	if err := h.mgr.Activate(ctx, "arm"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if st, _ := h.mgr.StateOf("arm"); st != StateActive {
		t.Fatalf("after activate, state = %s, want active", st)
	}
	if err := h.mgr.Deactivate(ctx, "arm"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if err := h.mgr.Finalize(ctx, "arm"); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if st, _ := h.mgr.StateOf("arm"); st != StateFinalized {
		t.Fatalf("after finalize, state = %s, want finalized", st)
	}
}

func TestInvalidTransitions(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	ctx := context.Background()

	params := controller.NewParameters()
	if err := h.mgr.Load(ctx, controller.TwistControllerType, "arm", params); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Activate before configure.
	if err := h.mgr.Activate(ctx, "arm"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Activate unconfigured: err = %v, want ErrInvalidTransition", err)
	}
	// Deactivate before activate.
	if err := h.mgr.Deactivate(ctx, "arm"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Deactivate unconfigured: err = %v, want ErrInvalidTransition", err)
	}
	// Unknown controller.
	if err := h.mgr.Activate(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Activate ghost: err = %v, want ErrNotFound", err)
	}
	// Duplicate load.
	if err := h.mgr.Load(ctx, controller.TwistControllerType, "arm", controller.NewParameters()); !errors.Is(err, ErrAlreadyLoaded) {
		t.Fatalf("duplicate Load: err = %v, want ErrAlreadyLoaded", err)
	}
}

func TestConfigureFailureLeavesUnconfigured(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	ctx := context.Background()

	// Joint left empty, so on_configure must fail.
	params := controller.NewParameters()
	if err := h.mgr.Load(ctx, controller.TwistControllerType, "arm", params); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := h.mgr.Configure(ctx, "arm"); !errors.Is(err, ErrCallbackFailed) {
		t.Fatalf("Configure: err = %v, want ErrCallbackFailed", err)
	}
	if st, _ := h.mgr.StateOf("arm"); st != StateUnconfigured {
		t.Fatalf("state = %s, want unconfigured", st)
	}
}

func TestConfigureClaimConflict(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	ctx := context.Background()

	loadConfigured(t, h, "arm")

	// Second controller bound to the same joint cannot claim the slots.
	params := controller.NewParameters()
	if err := h.mgr.Load(ctx, controller.TwistControllerType, "arm2", params); err != nil {
		t.Fatalf("Load arm2: %v", err)
	}
	if err := params.Set("joint", "tool0"); err != nil {
		t.Fatalf("Set joint: %v", err)
	}
	if err := params.Set("interface_names", twistSuffixes); err != nil {
		t.Fatalf("Set interface_names: %v", err)
	}
	if err := h.mgr.Configure(ctx, "arm2"); err == nil {
		t.Fatal("Configure arm2 succeeded, want claim conflict")
	}
	if st, _ := h.mgr.StateOf("arm2"); st != StateUnconfigured {
		t.Fatalf("arm2 state = %s, want unconfigured", st)
	}
}

func TestFinalizeReleasesClaims(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	ctx := context.Background()

	loadConfigured(t, h, "arm")
	if err := h.mgr.Finalize(ctx, "arm"); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	// A fresh controller can now claim the same slots.
	loadConfigured(t, h, "arm2")
}

func TestUpdateLoopDrivesActuators(t *testing.T) {
	h := newHarness(t, 2*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loadConfigured(t, h, "arm")
	if err := h.mgr.Activate(ctx, "arm"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := h.mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.mgr.Stop()

	cmd := msg.TwistStamped{
		Stamp: time.Now(),
		Twist: msg.Twist{
			Linear:  msg.Vector3{X: 0.5, Y: -0.25, Z: 0.125},
			Angular: msg.Vector3{Z: 1.5},
		},
	}
	deadline := time.Now().Add(2 * time.Second)
	want := []float64{0.5, -0.25, 0.125, 0, 0, 1.5, 0}
	for {
		// Re-stamp each attempt so the command never crosses the
		// staleness interlock while we poll.
		cmd.Stamp = time.Now()
		if err := h.bus.PublishTwist("arm/commands", cmd); err != nil {
			t.Fatalf("PublishTwist: %v", err)
		}
		got := h.bank.Values()
		if equalFloats(got, want) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("actuator values = %v, want %v", got, want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartTwiceFails(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.mgr.Stop()

	if err := h.mgr.Start(ctx); err == nil {
		t.Fatal("second Start succeeded, want error")
	}
}

func TestListReportsLoadOrder(t *testing.T) {
	h := newHarness(t, 10*time.Millisecond)
	ctx := context.Background()

	loadConfigured(t, h, "arm")
	if err := h.mgr.Load(ctx, controller.TwistControllerType, "aux", controller.NewParameters()); err != nil {
		t.Fatalf("Load aux: %v", err)
	}

	items := h.mgr.List()
	if len(items) != 2 {
		t.Fatalf("List returned %d items, want 2", len(items))
	}
	if items[0].Name != "arm" || items[1].Name != "aux" {
		t.Fatalf("List order = [%s %s], want [arm aux]", items[0].Name, items[1].Name)
	}
	if items[0].State != "inactive" {
		t.Fatalf("arm state = %s, want inactive", items[0].State)
	}
	if items[1].State != "unconfigured" {
		t.Fatalf("aux state = %s, want unconfigured", items[1].State)
	}
	if len(items[0].CommandInterfaces) != 7 {
		t.Fatalf("arm claims %d interfaces, want 7", len(items[0].CommandInterfaces))
	}
}

func equalFloats(got, want []float64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
