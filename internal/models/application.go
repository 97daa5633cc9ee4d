// internal/models/application.go
package models

// ApplicationStatus is the remote-store status of a provider's application
// to an event. An application leaves Pending exactly once; there is no
// transition back.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

// Terminal reports whether the status is an end state.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Application is a provider's request to work a contractor's event.
// Owned by the record store; mutated only through the lifecycle
// orchestrators. Rejection is a hard delete in the remote store, not a
// status write.
type Application struct {
	ID              string            `json:"id"`
	EventID         string            `json:"eventId"`
	ProviderID      string            `json:"providerId"`
	Message         string            `json:"message"`
	ServiceCategory string            `json:"serviceCategory,omitempty"`
	Status          ApplicationStatus `json:"status"`
	CreatedAt       string            `json:"createdAt"`
}
