package manager

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arm-control/acc/internal/controller"
	"github.com/arm-control/acc/internal/hwif"
	"github.com/arm-control/acc/internal/telemetry"
	"github.com/arm-control/acc/internal/throttle"
)

// State is the lifecycle position of a managed controller.
type State int

const (
	StateUnconfigured State = iota
	StateInactive
	StateActive
	StateFinalized
)

// String returns the lifecycle state label used in API responses and events.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// AuditLogger interface for writing audit records.
type AuditLogger interface {
	LogAction(ctx context.Context, action string, controller string, result string, latency time.Duration)
}

// ControllerInfo is the response shape for controller listings.
type ControllerInfo struct {
	Name              string   `json:"name"`
	Type              string   `json:"type"`
	State             string   `json:"state"`
	CommandInterfaces []string `json:"commandInterfaces,omitempty"`
	UpdateErrors      uint64   `json:"updateErrors"`
}

// managed pairs a controller instance with its lifecycle bookkeeping.
type managed struct {
	ctrl         controller.Controller
	typeID       string
	state        State
	claimed      []string
	updateErrors atomic.Uint64
}

// Manager owns controller instances, their lifecycle transitions, and the
// periodic update loop.
type Manager struct {
	mu          sync.RWMutex
	controllers map[string]*managed
	order       []string

	hw        *hwif.Registry
	transport controller.Transport
	period    time.Duration

	// Telemetry hub for event publishing
	telemetryHub *telemetry.Hub

	// Audit logger for lifecycle actions
	auditLogger AuditLogger

	logger    *log.Logger
	faultGate *throttle.Gate

	running atomic.Bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// faultLogWindow rate-limits fault telemetry from the update loop.
const faultLogWindow = 1000 * time.Millisecond

// New creates a manager over the given hardware registry and transport.
// period is the interval of the update loop.
func New(hw *hwif.Registry, transport controller.Transport, period time.Duration) *Manager {
	return &Manager{
		controllers: make(map[string]*managed),
		hw:          hw,
		transport:   transport,
		period:      period,
		faultGate:   throttle.NewGate(faultLogWindow),
		stop:        make(chan struct{}),
	}
}

// SetTelemetryHub wires the telemetry hub used for lifecycle and fault events.
func (m *Manager) SetTelemetryHub(hub *telemetry.Hub) {
	m.telemetryHub = hub
}

// SetAuditLogger wires the audit logger for lifecycle actions.
func (m *Manager) SetAuditLogger(logger AuditLogger) {
	m.auditLogger = logger
}

// SetLogger overrides the destination for update-loop diagnostics.
func (m *Manager) SetLogger(logger *log.Logger) {
	m.logger = logger
}

// Load instantiates a controller of the given registered type, runs its init
// callback, and stores it in the unconfigured state.
func (m *Manager) Load(ctx context.Context, typeID, name string, params *controller.Parameters) error {
	start := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.controllers[name]; exists {
		m.logAudit(ctx, "loadController", name, "ALREADY_LOADED", time.Since(start))
		return fmt.Errorf("%w: %s", ErrAlreadyLoaded, name)
	}

	ctrl, err := controller.New(typeID, name)
	if err != nil {
		m.logAudit(ctx, "loadController", name, "UNKNOWN_TYPE", time.Since(start))
		return err
	}

	if ret := ctrl.OnInit(params); ret != controller.CallbackSuccess {
		m.logAudit(ctx, "loadController", name, "ERROR", time.Since(start))
		return fmt.Errorf("%w: %s on_init returned %s", ErrCallbackFailed, name, ret)
	}

	m.controllers[name] = &managed{ctrl: ctrl, typeID: typeID, state: StateUnconfigured}
	m.order = append(m.order, name)

	m.logAudit(ctx, "loadController", name, "SUCCESS", time.Since(start))
	return nil
}

// Configure runs the configure callback, claims the controller's command
// interfaces, and moves it to the inactive state. A failed claim leaves the
// controller unconfigured with nothing held.
func (m *Manager) Configure(ctx context.Context, name string) error {
	start := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	mc, err := m.lookup(name)
	if err != nil {
		m.logAudit(ctx, "configureController", name, "NOT_FOUND", time.Since(start))
		return err
	}
	if mc.state != StateUnconfigured {
		m.logAudit(ctx, "configureController", name, "INVALID_TRANSITION", time.Since(start))
		return fmt.Errorf("%w: %s is %s, want unconfigured", ErrInvalidTransition, name, mc.state)
	}

	if ret := mc.ctrl.OnConfigure(m.transport); ret != controller.CallbackSuccess {
		m.logAudit(ctx, "configureController", name, "ERROR", time.Since(start))
		return fmt.Errorf("%w: %s on_configure returned %s", ErrCallbackFailed, name, ret)
	}

	// Claim the full interface set atomically before handing slots over.
	names := mc.ctrl.CommandInterfaceNames()
	slots, err := m.hw.Claim(name, names)
	if err != nil {
		m.logAudit(ctx, "configureController", name, "CLAIM_FAILED", time.Since(start))
		return err
	}
	mc.ctrl.AssignCommandInterfaces(slots)
	mc.claimed = names
	mc.state = StateInactive

	m.logAudit(ctx, "configureController", name, "SUCCESS", time.Since(start))
	m.publishStateChanged(name, StateInactive)
	return nil
}

// Activate moves an inactive controller into the update loop.
func (m *Manager) Activate(ctx context.Context, name string) error {
	start := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	mc, err := m.lookup(name)
	if err != nil {
		m.logAudit(ctx, "activateController", name, "NOT_FOUND", time.Since(start))
		return err
	}
	if mc.state != StateInactive {
		m.logAudit(ctx, "activateController", name, "INVALID_TRANSITION", time.Since(start))
		return fmt.Errorf("%w: %s is %s, want inactive", ErrInvalidTransition, name, mc.state)
	}

	if ret := mc.ctrl.OnActivate(); ret != controller.CallbackSuccess {
		m.logAudit(ctx, "activateController", name, "ERROR", time.Since(start))
		return fmt.Errorf("%w: %s on_activate returned %s", ErrCallbackFailed, name, ret)
	}
	mc.state = StateActive

	m.logAudit(ctx, "activateController", name, "SUCCESS", time.Since(start))
	m.publishStateChanged(name, StateActive)
	return nil
}

// Deactivate removes an active controller from the update loop.
func (m *Manager) Deactivate(ctx context.Context, name string) error {
	start := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	mc, err := m.lookup(name)
	if err != nil {
		m.logAudit(ctx, "deactivateController", name, "NOT_FOUND", time.Since(start))
		return err
	}
	if mc.state != StateActive {
		m.logAudit(ctx, "deactivateController", name, "INVALID_TRANSITION", time.Since(start))
		return fmt.Errorf("%w: %s is %s, want active", ErrInvalidTransition, name, mc.state)
	}

	if ret := mc.ctrl.OnDeactivate(); ret != controller.CallbackSuccess {
		m.logAudit(ctx, "deactivateController", name, "ERROR", time.Since(start))
		return fmt.Errorf("%w: %s on_deactivate returned %s", ErrCallbackFailed, name, ret)
	}
	mc.state = StateInactive

	m.logAudit(ctx, "deactivateController", name, "SUCCESS", time.Since(start))
	m.publishStateChanged(name, StateInactive)
	return nil
}

// Finalize releases an inactive controller's command interfaces and retires
// it. A finalized controller keeps its name reserved and cannot be restarted.
func (m *Manager) Finalize(ctx context.Context, name string) error {
	start := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	mc, err := m.lookup(name)
	if err != nil {
		m.logAudit(ctx, "finalizeController", name, "NOT_FOUND", time.Since(start))
		return err
	}
	if mc.state != StateInactive && mc.state != StateUnconfigured {
		m.logAudit(ctx, "finalizeController", name, "INVALID_TRANSITION", time.Since(start))
		return fmt.Errorf("%w: %s is %s, want inactive or unconfigured", ErrInvalidTransition, name, mc.state)
	}

	if len(mc.claimed) > 0 {
		mc.ctrl.ReleaseCommandInterfaces()
		m.hw.Release(name)
		mc.claimed = nil
	}
	if u, ok := m.transport.(interface{ UnsubscribeAll(prefix string) }); ok {
		u.UnsubscribeAll(name)
	}
	mc.state = StateFinalized

	m.logAudit(ctx, "finalizeController", name, "SUCCESS", time.Since(start))
	m.publishStateChanged(name, StateFinalized)
	return nil
}

// Controller returns the loaded controller instance, for applying
// type-specific settings between load and configure.
func (m *Manager) Controller(name string) (controller.Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mc, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	return mc.ctrl, nil
}

// StateOf reports the lifecycle state of a loaded controller.
func (m *Manager) StateOf(name string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mc, err := m.lookup(name)
	if err != nil {
		return StateUnconfigured, err
	}
	return mc.state, nil
}

// List returns info for all loaded controllers in load order.
func (m *Manager) List() []ControllerInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]ControllerInfo, 0, len(m.order))
	for _, name := range m.order {
		mc := m.controllers[name]
		info := ControllerInfo{
			Name:         name,
			Type:         mc.typeID,
			State:        mc.state.String(),
			UpdateErrors: mc.updateErrors.Load(),
		}
		if len(mc.claimed) > 0 {
			info.CommandInterfaces = append([]string(nil), mc.claimed...)
			sort.Strings(info.CommandInterfaces)
		}
		items = append(items, info)
	}
	return items
}

// Start launches the periodic update loop. It returns an error if the loop
// is already running.
func (m *Manager) Start(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return fmt.Errorf("update loop already running")
	}

	ticker := time.NewTicker(m.period)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case now := <-ticker.C:
				m.updateAll(now)
			}
		}
	}()
	return nil
}

// Stop terminates the update loop and waits for it to drain.
func (m *Manager) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	close(m.stop)
	m.wg.Wait()
}

// updateAll runs one cycle over every active controller.
func (m *Manager) updateAll(now time.Time) {
	m.mu.RLock()
	active := make([]*managed, 0, len(m.order))
	names := make([]string, 0, len(m.order))
	for _, name := range m.order {
		if mc := m.controllers[name]; mc.state == StateActive {
			active = append(active, mc)
			names = append(names, name)
		}
	}
	m.mu.RUnlock()

	for i, mc := range active {
		if ret := mc.ctrl.Update(now, m.period); ret == controller.ReturnError {
			mc.updateErrors.Add(1)
			if m.faultGate.Allow(now) {
				m.logf("update error from controller %s", names[i])
				m.publishFault(names[i], "controller update returned error")
			}
		}
	}
}

// lookup requires m.mu held.
func (m *Manager) lookup(name string) (*managed, error) {
	mc, ok := m.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return mc, nil
}

func (m *Manager) logAudit(ctx context.Context, action, controllerName, result string, latency time.Duration) {
	if m.auditLogger != nil {
		m.auditLogger.LogAction(ctx, action, controllerName, result, latency)
	}
}

func (m *Manager) publishStateChanged(name string, state State) {
	if m.telemetryHub == nil {
		return
	}
	_ = m.telemetryHub.PublishController(name, telemetry.Event{
		Type: "stateChanged",
		Data: map[string]interface{}{
			"state": state.String(),
		},
	})
}

func (m *Manager) publishFault(name, message string) {
	if m.telemetryHub == nil {
		return
	}
	_ = m.telemetryHub.PublishController(name, telemetry.Event{
		Type: "fault",
		Data: map[string]interface{}{
			"code":    "UPDATE_ERROR",
			"message": message,
		},
	})
}

func (m *Manager) logf(format string, args ...interface{}) {
	if m.logger != nil {
		m.logger.Printf(format, args...)
	}
}
