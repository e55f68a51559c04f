// Package config loads the Arm Control Container configuration.
//
// Precedence: built-in baseline, then ACC_* environment overrides, then an
// optional config.yaml. The merged result is validated before use; a
// configuration that fails validation keeps the container from starting.
package config
