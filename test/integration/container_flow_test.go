//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arm-control/acc/internal/api"
	"github.com/arm-control/acc/internal/bus"
	"github.com/arm-control/acc/internal/config"
	"github.com/arm-control/acc/internal/controller"
	"github.com/arm-control/acc/internal/hwif"
	"github.com/arm-control/acc/internal/hwif/fake"
	"github.com/arm-control/acc/internal/manager"
	"github.com/arm-control/acc/internal/telemetry"
)

// rig wires the full container stack against fake actuators.
type rig struct {
	mgr  *manager.Manager
	bank *fake.Bank
	mux  *http.ServeMux
	hub  *telemetry.Hub
}

func newRig(t *testing.T) *rig {
	t.Helper()

	cfg := config.LoadBaseline()

	bank := fake.NewBank(cfg.Hardware.Interfaces...)
	registry := hwif.NewRegistry()
	if err := bank.RegisterAll(registry); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}

	commandBus := bus.New()
	hub := telemetry.NewHub(cfg.Telemetry)
	t.Cleanup(hub.Stop)

	mgr := manager.New(registry, commandBus, 2*time.Millisecond)
	mgr.SetTelemetryHub(hub)

	ctx := context.Background()
	for _, cc := range cfg.Controllers {
		params := controller.NewParameters()
		if err := mgr.Load(ctx, cc.Type, cc.Name, params); err != nil {
			t.Fatalf("Load %s: %v", cc.Name, err)
		}
		if err := params.Set("joint", cc.Joint); err != nil {
			t.Fatalf("Set joint: %v", err)
		}
		if err := params.Set("interface_names", cc.InterfaceNames); err != nil {
			t.Fatalf("Set interface_names: %v", err)
		}
		if err := mgr.Configure(ctx, cc.Name); err != nil {
			t.Fatalf("Configure %s: %v", cc.Name, err)
		}
		if err := mgr.Activate(ctx, cc.Name); err != nil {
			t.Fatalf("Activate %s: %v", cc.Name, err)
		}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := mgr.Start(loopCtx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	server := api.NewServer(mgr, commandBus, hub, 5*time.Second, 5*time.Second, 5*time.Second)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	return &rig{mgr: mgr, bank: bank, mux: mux, hub: hub}
}

// TestCommandToActuatorFlow drives a twist command through the HTTP ingress,
// the bus, and the update loop down to the fake actuators.
func TestCommandToActuatorFlow(t *testing.T) {
	r := newRig(t)

	want := []float64{0.5, -0.25, 0.125, 0, 0, 1.5, 0.7}
	deadline := time.Now().Add(2 * time.Second)
	for {
		stamp := time.Now().UTC().Format(time.RFC3339Nano)
		body := fmt.Sprintf(`{"stamp":%q,"twist":{"linear":{"x":0.5,"y":-0.25,"z":0.125},"angular":{"x":0,"y":0,"z":1.5}}}`, stamp)
		rec := httptest.NewRecorder()
		r.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/controllers/arm/commands", bytes.NewBufferString(body)))
		if rec.Code != http.StatusOK {
			t.Fatalf("commands status = %d (body %s)", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/controllers/arm/gripper_vel", bytes.NewBufferString(`{"value":0.7}`)))
		if rec.Code != http.StatusOK {
			t.Fatalf("gripper_vel status = %d (body %s)", rec.Code, rec.Body.String())
		}

		if got := r.bank.Values(); equalFloats(got, want) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("actuator values = %v, want %v", r.bank.Values(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

// TestStaleCommandZeroesTwistAxes verifies the staleness interlock end to
// end: an old stamp zeroes the six twist axes while the gripper slot holds.
func TestStaleCommandZeroesTwistAxes(t *testing.T) {
	r := newRig(t)

	stamp := time.Now().Add(-time.Second).UTC().Format(time.RFC3339Nano)
	body := fmt.Sprintf(`{"stamp":%q,"twist":{"linear":{"x":0.5},"angular":{"z":1.5}}}`, stamp)
	rec := httptest.NewRecorder()
	r.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/controllers/arm/commands", bytes.NewBufferString(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("commands status = %d", rec.Code)
	}

	// Give the update loop a few cycles to process the stale command.
	deadline := time.Now().Add(2 * time.Second)
	for {
		writes := r.bank.Actuators()[0].Writes()
		if writes > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("update loop never processed the command")
		}
		time.Sleep(time.Millisecond)
	}

	want := []float64{0, 0, 0, 0, 0, 0, 0}
	if got := r.bank.Values(); !equalFloats(got, want) {
		t.Fatalf("actuator values = %v, want all zero", got)
	}
}

// TestLifecycleOverHTTP deactivates and reactivates the controller through
// the API and checks the inventory state.
func TestLifecycleOverHTTP(t *testing.T) {
	r := newRig(t)

	rec := httptest.NewRecorder()
	r.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/controllers/arm/deactivate", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate status = %d", rec.Code)
	}
	if st, _ := r.mgr.StateOf("arm"); st != manager.StateInactive {
		t.Fatalf("state = %s, want inactive", st)
	}

	// Deactivating again is an invalid transition.
	rec = httptest.NewRecorder()
	r.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/controllers/arm/deactivate", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("second deactivate status = %d, want 409", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/controllers/arm/activate", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("activate status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/controllers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("controllers status = %d", rec.Code)
	}
	var resp struct {
		Data struct {
			Items []manager.ControllerInfo `json:"items"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Items) != 1 || resp.Data.Items[0].State != "active" {
		t.Fatalf("inventory = %+v, want single active controller", resp.Data.Items)
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
