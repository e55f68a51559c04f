package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/arm-control/acc/internal/auth"
	"github.com/arm-control/acc/internal/msg"
)

// RegisterRoutes registers all v1 endpoints.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	apiV1 := "/api/v1"

	// Health endpoint (no auth required)
	mux.HandleFunc(apiV1+"/health", s.handleHealth)

	// If no auth middleware, register routes without protection
	if s.authMiddleware == nil {
		mux.HandleFunc(apiV1+"/capabilities", s.handleCapabilities)
		mux.HandleFunc(apiV1+"/controllers", s.handleControllers)
		mux.HandleFunc(apiV1+"/controllers/", s.handleControllerEndpoints)
		mux.HandleFunc(apiV1+"/telemetry", s.handleTelemetry)
		return
	}

	// Capabilities and inventory (viewer access)
	mux.HandleFunc(apiV1+"/capabilities", s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeRead)(s.handleCapabilities)))
	mux.HandleFunc(apiV1+"/controllers", s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeRead)(s.handleControllers)))

	// Controller-specific endpoints (commands, lifecycle)
	mux.HandleFunc(apiV1+"/controllers/", s.handleControllerEndpoints)

	// Telemetry endpoint (viewer access)
	mux.HandleFunc(apiV1+"/telemetry", s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(auth.ScopeTelemetry)(s.handleTelemetry)))
}

// handleCapabilities handles GET /capabilities
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	capabilities := map[string]interface{}{
		"telemetry": []string{"sse"},
		"commands":  []string{"http-json"},
		"version":   "1.0.0",
	}

	WriteSuccess(w, capabilities)
}

// handleControllers handles GET /controllers
func (s *Server) handleControllers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	if s.manager == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Controller manager not available", nil)
		return
	}

	WriteSuccess(w, map[string]interface{}{"items": s.manager.List()})
}

// handleControllerEndpoints routes all controller-specific endpoints based
// on the path suffix, applying the scope each operation needs.
func (s *Server) handleControllerEndpoints(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	name := extractControllerName(path)
	if name == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			"Controller name is required", nil)
		return
	}

	var handler http.HandlerFunc
	var scope string
	switch {
	case strings.HasSuffix(path, "/commands"):
		handler, scope = s.withName(name, s.handleCommands), auth.ScopeControl
	case strings.HasSuffix(path, "/gripper_vel"):
		handler, scope = s.withName(name, s.handleGripperVel), auth.ScopeControl
	case strings.HasSuffix(path, "/activate"):
		handler, scope = s.withName(name, s.handleActivate), auth.ScopeControl
	case strings.HasSuffix(path, "/deactivate"):
		handler, scope = s.withName(name, s.handleDeactivate), auth.ScopeControl
	default:
		handler, scope = s.withName(name, s.handleControllerByName), auth.ScopeRead
	}

	if s.authMiddleware != nil {
		handler = s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(scope)(handler))
	}
	handler(w, r)
}

// withName adapts a named handler to http.HandlerFunc.
func (s *Server) withName(name string, h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r, name)
	}
}

// handleControllerByName handles GET /controllers/{name}
func (s *Server) handleControllerByName(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	if s.manager == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Controller manager not available", nil)
		return
	}

	for _, info := range s.manager.List() {
		if info.Name == name {
			WriteSuccess(w, info)
			return
		}
	}
	WriteError(w, http.StatusNotFound, "NOT_FOUND", "Controller not found", nil)
}

// handleCommands handles POST /controllers/{name}/commands
func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request, name string) {
	start := time.Now()

	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	// Parse request body (strict JSON)
	var command msg.TwistStamped
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&command); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON or unknown fields", nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Trailing data after JSON object", nil)
		return
	}

	// An omitted stamp means "now": the sender considers the command
	// fresh at arrival.
	if command.Stamp.IsZero() {
		command.Stamp = time.Now()
	}

	if s.commands == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Command bus not available", nil)
		return
	}

	err := s.commands.PublishTwist(name+"/commands", command)
	s.logCommand(r, "sendTwist", name, map[string]interface{}{
		"linear":  command.Twist.Linear,
		"angular": command.Twist.Angular,
	}, err, time.Since(start))
	if err != nil {
		WriteManagerError(w, err)
		return
	}

	WriteSuccess(w, map[string]interface{}{"accepted": true, "stamp": command.Stamp})
}

// handleGripperVel handles POST /controllers/{name}/gripper_vel
func (s *Server) handleGripperVel(w http.ResponseWriter, r *http.Request, name string) {
	start := time.Now()

	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	// Parse request body (strict JSON)
	var command msg.GripperVelocity
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&command); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON or unknown fields", nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Trailing data after JSON object", nil)
		return
	}

	if s.commands == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Command bus not available", nil)
		return
	}

	err := s.commands.PublishGripper(name+"/gripper_vel", command)
	s.logCommand(r, "sendGripperVel", name, map[string]interface{}{
		"value": command.Value,
	}, err, time.Since(start))
	if err != nil {
		WriteManagerError(w, err)
		return
	}

	WriteSuccess(w, map[string]interface{}{"accepted": true})
}

// handleActivate handles POST /controllers/{name}/activate
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	if s.manager == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Controller manager not available", nil)
		return
	}

	if err := s.manager.Activate(r.Context(), name); err != nil {
		WriteManagerError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"name": name, "state": "active"})
}

// handleDeactivate handles POST /controllers/{name}/deactivate
func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	if s.manager == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Controller manager not available", nil)
		return
	}

	if err := s.manager.Deactivate(r.Context(), name); err != nil {
		WriteManagerError(w, err)
		return
	}

	WriteSuccess(w, map[string]string{"name": name, "state": "inactive"})
}

// handleTelemetry handles GET /telemetry (SSE)
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	if s.telemetryHub == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Telemetry service not available", nil)
		return
	}

	if err := s.telemetryHub.Subscribe(r.Context(), w, r); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL",
			"Failed to subscribe to telemetry stream", nil)
		return
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	uptime := 0.0
	if !s.startTime.IsZero() {
		uptime = time.Since(s.startTime).Seconds()
	}

	subsystems := s.checkSubsystemHealth()

	overallStatus := "ok"
	if !subsystems["manager"] || !subsystems["commands"] || !subsystems["telemetry"] {
		overallStatus = "degraded"
	}

	health := map[string]interface{}{
		"status":     overallStatus,
		"uptimeSec":  uptime,
		"version":    "1.0.0",
		"subsystems": subsystems,
	}

	if overallStatus == "ok" {
		WriteSuccess(w, health)
	} else {
		WriteError(w, http.StatusServiceUnavailable, "SERVICE_DEGRADED",
			"One or more subsystems are unavailable", health)
	}
}

// checkSubsystemHealth checks the health of all subsystems.
func (s *Server) checkSubsystemHealth() map[string]bool {
	return map[string]bool{
		"manager":   s.manager != nil,
		"commands":  s.commands != nil,
		"telemetry": s.telemetryHub != nil,
		"auth":      true, // optional, always considered healthy
	}
}

// logCommand records a command ingress in the audit trail.
func (s *Server) logCommand(r *http.Request, action, controllerName string, params map[string]interface{}, err error, latency time.Duration) {
	if s.auditLogger != nil {
		s.auditLogger.LogCommand(r.Context(), action, controllerName, params, err, latency)
	}
}

// extractControllerName extracts the controller name from a URL path.
// Handles paths like /api/v1/controllers/{name}/commands.
func extractControllerName(path string) string {
	prefix := "/api/v1/controllers/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}

	remaining := path[len(prefix):]
	parts := strings.Split(remaining, "/")
	if len(parts) == 0 {
		return ""
	}

	return parts[0]
}
