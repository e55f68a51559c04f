// Package main implements the Arm Control Container entry point.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arm-control/acc/internal/api"
	"github.com/arm-control/acc/internal/audit"
	"github.com/arm-control/acc/internal/auth"
	"github.com/arm-control/acc/internal/bus"
	"github.com/arm-control/acc/internal/config"
	"github.com/arm-control/acc/internal/controller"
	"github.com/arm-control/acc/internal/hwif"
	"github.com/arm-control/acc/internal/hwif/fake"
	"github.com/arm-control/acc/internal/manager"
	"github.com/arm-control/acc/internal/telemetry"
)

const Version = "1.0.0"

func main() {
	log.Printf("Starting Arm Control Container v%s", Version)

	// Step 1: Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully")

	// Step 2: Initialize telemetry hub
	telemetryHub := telemetry.NewHub(cfg.Telemetry)
	log.Println("Telemetry hub initialized")

	// Step 3: Initialize audit logger
	auditLogger, err := audit.NewLogger(cfg.Log.Dir, audit.Options{
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}
	log.Println("Audit logger initialized")

	// Step 4: Register the hardware command interfaces
	registry := hwif.NewRegistry()
	bank := fake.NewBank(cfg.Hardware.Interfaces...)
	if err := bank.RegisterAll(registry); err != nil {
		log.Fatalf("Failed to register command interfaces: %v", err)
	}
	log.Printf("Registered %d command interfaces", len(cfg.Hardware.Interfaces))

	// Step 5: Create the message bus and controller manager
	commandBus := bus.New()
	mgr := manager.New(registry, commandBus, cfg.Update.Period())
	mgr.SetTelemetryHub(telemetryHub)
	mgr.SetAuditLogger(auditLogger)

	// Step 6: Load, configure, and activate the configured controllers
	ctx := context.Background()
	for _, cc := range cfg.Controllers {
		if err := bootstrapController(ctx, mgr, cc); err != nil {
			log.Fatalf("Failed to bring up controller %s: %v", cc.Name, err)
		}
		log.Printf("Controller %s (%s) active", cc.Name, cc.Type)
	}

	// Step 7: Start the update loop
	loopCtx, loopCancel := context.WithCancel(context.Background())
	defer loopCancel()
	if err := mgr.Start(loopCtx); err != nil {
		log.Fatalf("Failed to start update loop: %v", err)
	}
	log.Printf("Update loop running at %d Hz", cfg.Update.RateHz)

	// Step 8: Create API server
	server := api.NewServer(mgr, commandBus, telemetryHub,
		time.Duration(cfg.Server.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.Server.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.Server.IdleTimeoutSec)*time.Second)
	server.SetAuditLogger(auditLogger)

	if cfg.Auth.Enabled {
		verifier, err := auth.NewVerifier(auth.VerifierConfig{
			Algorithm:    cfg.Auth.Algorithm,
			SecretKey:    cfg.Auth.SecretKey,
			PublicKeyPEM: cfg.Auth.PublicKeyPEM,
		})
		if err != nil {
			log.Fatalf("Failed to initialize auth verifier: %v", err)
		}
		server.SetAuthMiddleware(auth.NewMiddleware(verifier))
		log.Println("Authentication enabled")
	}

	// Step 9: Start HTTP server
	log.Printf("Starting HTTP server on %s", cfg.Server.Addr)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.Server.Addr); err != nil {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	log.Printf("Arm Control Container started successfully")
	log.Printf("Health endpoint: http://localhost%s/api/v1/health", cfg.Server.Addr)

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mgr.Stop()
	log.Println("Update loop stopped")

	telemetryHub.Stop()
	log.Println("Telemetry hub stopped")

	if err := auditLogger.Close(); err != nil {
		log.Printf("Error closing audit logger: %v", err)
	}
	log.Println("Audit logger closed")

	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping HTTP server: %v", err)
	} else {
		log.Println("HTTP server stopped gracefully")
	}

	log.Println("Arm Control Container shutdown complete")
}

// bootstrapController walks one controller through load, configure, and
// activate from its configuration block.
func bootstrapController(ctx context.Context, mgr *manager.Manager, cc config.ControllerConfig) error {
	params := controller.NewParameters()
	if err := mgr.Load(ctx, cc.Type, cc.Name, params); err != nil {
		return err
	}
	if err := params.Set("joint", cc.Joint); err != nil {
		return err
	}
	if err := params.Set("interface_names", cc.InterfaceNames); err != nil {
		return err
	}

	// Apply type-specific overrides before configure runs.
	if d := cc.StalenessThreshold(); d > 0 {
		ctrl, err := mgr.Controller(cc.Name)
		if err != nil {
			return err
		}
		if tc, ok := ctrl.(*controller.TwistController); ok {
			tc.SetStalenessThreshold(d)
		}
	}

	if err := mgr.Configure(ctx, cc.Name); err != nil {
		return err
	}
	return mgr.Activate(ctx, cc.Name)
}
