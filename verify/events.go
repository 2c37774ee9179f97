package verify

import "time"

// CompletedTopic is the event bus topic a successful verification publishes
// on. Subscribers receive an AuditEvent.
const CompletedTopic = "verify.completed"

// AuditEvent describes one completed verification for audit subscribers.
type AuditEvent struct {
	// EventID uniquely identifies the event for dedup in downstream sinks.
	EventID string

	DisplayName string
	ExternalID  string
	// Email is empty when the provider didn't share one.
	Email string

	// BoundPrincipal is set when the consumed token was pinned to a
	// principal.
	BoundPrincipal string

	// SourceAddr is the client address the callback arrived from.
	SourceAddr string

	Timestamp time.Time
}
