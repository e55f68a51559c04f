package config

import "fmt"

// Validate checks the merged configuration for internal consistency.
func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if cfg.Server.ReadTimeoutSec <= 0 || cfg.Server.WriteTimeoutSec <= 0 || cfg.Server.IdleTimeoutSec <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}

	if cfg.Update.RateHz <= 0 {
		return fmt.Errorf("update.rateHz must be positive, got %d", cfg.Update.RateHz)
	}

	if cfg.Auth.Enabled {
		switch cfg.Auth.Algorithm {
		case "HS256":
			if cfg.Auth.SecretKey == "" {
				return fmt.Errorf("auth.secretKey required for HS256")
			}
		case "RS256":
			if cfg.Auth.PublicKeyPEM == "" {
				return fmt.Errorf("auth.publicKeyPem required for RS256")
			}
		default:
			return fmt.Errorf("auth.algorithm must be HS256 or RS256, got %q", cfg.Auth.Algorithm)
		}
	}

	if cfg.Telemetry.EventBufferSize <= 0 {
		return fmt.Errorf("telemetry.eventBufferSize must be positive, got %d", cfg.Telemetry.EventBufferSize)
	}
	if cfg.Telemetry.HeartbeatIntervalSec <= 0 {
		return fmt.Errorf("telemetry.heartbeatIntervalSec must be positive, got %d", cfg.Telemetry.HeartbeatIntervalSec)
	}

	if len(cfg.Hardware.Interfaces) == 0 {
		return fmt.Errorf("hardware.interfaces must not be empty")
	}
	seen := make(map[string]bool, len(cfg.Hardware.Interfaces))
	for _, name := range cfg.Hardware.Interfaces {
		if name == "" {
			return fmt.Errorf("hardware.interfaces contains an empty name")
		}
		if seen[name] {
			return fmt.Errorf("hardware.interfaces contains duplicate %q", name)
		}
		seen[name] = true
	}

	names := make(map[string]bool, len(cfg.Controllers))
	for i, ctrl := range cfg.Controllers {
		if ctrl.Name == "" {
			return fmt.Errorf("controllers[%d].name must not be empty", i)
		}
		if names[ctrl.Name] {
			return fmt.Errorf("duplicate controller name %q", ctrl.Name)
		}
		names[ctrl.Name] = true

		if ctrl.Type == "" {
			return fmt.Errorf("controllers[%d].type must not be empty", i)
		}
		if ctrl.Joint == "" {
			return fmt.Errorf("controllers[%d].joint must not be empty", i)
		}
		if len(ctrl.InterfaceNames) == 0 {
			return fmt.Errorf("controllers[%d].interfaceNames must not be empty", i)
		}
		if ctrl.StalenessThresholdMs < 0 {
			return fmt.Errorf("controllers[%d].stalenessThresholdMs must not be negative", i)
		}
	}

	return nil
}
