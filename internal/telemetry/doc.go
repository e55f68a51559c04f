// Package telemetry distributes container events to SSE clients: lifecycle
// state changes, cycle faults, and heartbeats. Events are buffered per
// controller in a bounded ring so a reconnecting client can resume from
// its Last-Event-ID.
package telemetry
