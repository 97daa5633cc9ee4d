// internal/models/event.go
package models

// EventStatus is the publication state of a contractor's event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventClosed    EventStatus = "closed"
)

// ServiceRequest is one requested service slot on an event. FilledCount
// never exceeds Count except under racing approvals of the same category;
// the increment is a best-effort read-modify-write, not atomic.
type ServiceRequest struct {
	Category    string `json:"category"`
	Count       int    `json:"count"`
	FilledCount int    `json:"filledCount"`
}

// Event is a contractor's listing providers apply to.
type Event struct {
	ID              string           `json:"id"`
	ContractorID    string           `json:"contractorId"`
	Title           string           `json:"title"`
	Status          EventStatus      `json:"status"`
	ServiceRequests []ServiceRequest `json:"serviceRequests"`
	CreatedAt       string           `json:"createdAt"`
}

// RequestFor returns the service request matching category, or nil.
func (e *Event) RequestFor(category string) *ServiceRequest {
	for i := range e.ServiceRequests {
		if e.ServiceRequests[i].Category == category {
			return &e.ServiceRequests[i]
		}
	}
	return nil
}
