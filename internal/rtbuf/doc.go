// Package rtbuf provides the single-slot realtime command buffer used to
// hand the latest inbound command from the message-arrival context to the
// periodic update context.
//
// The buffer holds at most one value. Writes replace the previous value,
// reads return a snapshot of the most recently completed write, and both
// operations are wait-free: a reader never observes a torn write and never
// waits for a writer. Multiple writes between two reads collapse to the
// latest value; there is no queue and no history.
package rtbuf
