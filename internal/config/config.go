package config

import "time"

// Config is the container configuration.
type Config struct {
	Server      ServerConfig       `yaml:"server"`
	Auth        AuthConfig         `yaml:"auth"`
	Log         LogConfig          `yaml:"log"`
	Update      UpdateConfig       `yaml:"update"`
	Telemetry   TelemetryConfig    `yaml:"telemetry"`
	Hardware    HardwareConfig     `yaml:"hardware"`
	Controllers []ControllerConfig `yaml:"controllers"`
}

// ServerConfig holds the HTTP ingress settings.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"readTimeoutSec"`
	WriteTimeoutSec int    `yaml:"writeTimeoutSec"`
	IdleTimeoutSec  int    `yaml:"idleTimeoutSec"`
}

// AuthConfig holds bearer token verification settings. With Enabled false
// the API runs open, for bench rigs and tests.
type AuthConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Algorithm    string `yaml:"algorithm"` // "HS256" or "RS256"
	SecretKey    string `yaml:"secretKey"`
	PublicKeyPEM string `yaml:"publicKeyPem"`
}

// LogConfig holds audit log rotation settings.
type LogConfig struct {
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// UpdateConfig holds the periodic update loop settings.
type UpdateConfig struct {
	RateHz int `yaml:"rateHz"`
}

// Period returns the control period derived from the update rate.
func (u UpdateConfig) Period() time.Duration {
	if u.RateHz <= 0 {
		return 0
	}
	return time.Second / time.Duration(u.RateHz)
}

// TelemetryConfig holds the SSE hub settings.
type TelemetryConfig struct {
	EventBufferSize      int `yaml:"eventBufferSize"`
	HeartbeatIntervalSec int `yaml:"heartbeatIntervalSec"`
	HeartbeatJitterSec   int `yaml:"heartbeatJitterSec"`
}

// HeartbeatInterval returns the heartbeat cadence.
func (t TelemetryConfig) HeartbeatInterval() time.Duration {
	return time.Duration(t.HeartbeatIntervalSec) * time.Second
}

// HeartbeatJitter returns the heartbeat jitter.
func (t TelemetryConfig) HeartbeatJitter() time.Duration {
	return time.Duration(t.HeartbeatJitterSec) * time.Second
}

// HardwareConfig describes the slot inventory the hardware layer exposes.
type HardwareConfig struct {
	Interfaces []string `yaml:"interfaces"`
}

// ControllerConfig describes one controller instance to load.
type ControllerConfig struct {
	Name                 string   `yaml:"name"`
	Type                 string   `yaml:"type"`
	Joint                string   `yaml:"joint"`
	InterfaceNames       []string `yaml:"interfaceNames"`
	StalenessThresholdMs int      `yaml:"stalenessThresholdMs"`
}

// StalenessThreshold returns the configured staleness threshold, zero when
// the controller should keep its default.
func (c ControllerConfig) StalenessThreshold() time.Duration {
	if c.StalenessThresholdMs <= 0 {
		return 0
	}
	return time.Duration(c.StalenessThresholdMs) * time.Millisecond
}

// defaultSuffixes is the canonical seven-slot layout: six twist axes plus
// the gripper.
var defaultSuffixes = []string{
	"linear_x", "linear_y", "linear_z",
	"angular_x", "angular_y", "angular_z",
	"gripper_velocity",
}

// LoadBaseline returns the built-in defaults: one twist controller on
// joint tool0 with the canonical slot layout, 100 Hz update loop, open
// API on :8000.
func LoadBaseline() *Config {
	interfaces := make([]string, 0, len(defaultSuffixes))
	for _, suffix := range defaultSuffixes {
		interfaces = append(interfaces, "tool0/"+suffix)
	}

	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeoutSec:  30,
			WriteTimeoutSec: 30,
			IdleTimeoutSec:  120,
		},
		Auth: AuthConfig{
			Enabled:   false,
			Algorithm: "HS256",
		},
		Log: LogConfig{
			Dir:        "logs",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Update: UpdateConfig{
			RateHz: 100,
		},
		Telemetry: TelemetryConfig{
			EventBufferSize:      50,
			HeartbeatIntervalSec: 15,
			HeartbeatJitterSec:   2,
		},
		Hardware: HardwareConfig{
			Interfaces: interfaces,
		},
		Controllers: []ControllerConfig{
			{
				Name:           "arm",
				Type:           "acc/TwistController",
				Joint:          "tool0",
				InterfaceNames: append([]string(nil), defaultSuffixes...),
			},
		},
	}
}
