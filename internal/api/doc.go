// Package api exposes the HTTP control surface: controller inventory and
// lifecycle, command ingress onto the message bus, and the SSE telemetry
// stream. All responses use a unified JSON envelope.
package api
