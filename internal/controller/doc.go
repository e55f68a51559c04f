// Package controller implements the realtime twist command relay and the
// lifecycle contract controllers share with the manager.
//
// A controller moves through the host lifecycle (init, configure,
// activate, update cycles, deactivate) and is driven entirely from
// outside: the manager sequences the transitions and invokes Update once
// per control period. The twist controller's update cycle reads the
// latest buffered commands, applies the staleness interlock, and writes
// the seven hardware command slots (six twist axes plus gripper).
//
// Controllers register a factory under a type identifier so the manager
// can instantiate them by name from configuration.
package controller
