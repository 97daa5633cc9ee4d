// internal/models/audit.go
package models

// RejectionAudit is the traceability record written before any hard delete
// of an application. A delete without a persisted audit entry is not
// allowed.
type RejectionAudit struct {
	ID            string       `json:"id"`
	ApplicationID string       `json:"applicationId"`
	EventID       string       `json:"eventId"`
	ActorID       string       `json:"actorId"`
	Action        string       `json:"action"` // "rejected" or "cancelled"
	Reason        string       `json:"reason,omitempty"`
	Snapshot      *Application `json:"snapshot,omitempty"`
	Timestamp     string       `json:"timestamp"`
}
