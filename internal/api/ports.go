// Ports (interfaces) for API server dependencies.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/arm-control/acc/internal/bus"
	"github.com/arm-control/acc/internal/manager"
	"github.com/arm-control/acc/internal/msg"
	"github.com/arm-control/acc/internal/telemetry"
)

// ManagerPort defines the minimal interface the API needs from the
// controller manager.
type ManagerPort interface {
	List() []manager.ControllerInfo
	Activate(ctx context.Context, name string) error
	Deactivate(ctx context.Context, name string) error
	StateOf(name string) (manager.State, error)
}

// CommandPort defines the ingress side of the message bus.
type CommandPort interface {
	PublishTwist(topic string, m msg.TwistStamped) error
	PublishGripper(topic string, m msg.GripperVelocity) error
}

// TelemetryPort defines the minimal interface the API needs from the
// telemetry hub.
type TelemetryPort interface {
	Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// AuditPort defines the audit sink for command ingress.
type AuditPort interface {
	LogCommand(ctx context.Context, action, controller string, params map[string]interface{}, err error, latency time.Duration)
}

// Compile-time assertions for port conformance
var _ ManagerPort = (*manager.Manager)(nil)
var _ CommandPort = (*bus.Bus)(nil)
var _ TelemetryPort = (*telemetry.Hub)(nil)
