// Package audit writes the append-only action log for the Arm Control
// Container: one JSON line per command ingress or lifecycle transition,
// with actor, outcome, and latency. Files rotate via lumberjack so a
// long-running container cannot fill its log volume.
package audit
