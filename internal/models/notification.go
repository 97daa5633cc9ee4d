// internal/models/notification.go
package models

// NotificationKind is the closed set of lifecycle notifications. Dispatch
// switches exhaustively on it; there is no free-form type string.
type NotificationKind string

const (
	NotifyApplicationSubmitted NotificationKind = "application_submitted"
	NotifyApplicationApproved  NotificationKind = "application_approved"
	NotifyApplicationRejected  NotificationKind = "application_rejected"
	NotifyApplicationCancelled NotificationKind = "application_cancelled"
)

// Notification is the send contract toward the dispatcher. Delivery
// mechanics live behind it; callers only see a best-effort boolean.
type Notification struct {
	RecipientID string           `json:"recipientId"`
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	Link        string           `json:"link,omitempty"`
	Channel     string           `json:"channel"` // "email" or "sms"
}
