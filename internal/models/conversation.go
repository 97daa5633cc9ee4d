// internal/models/conversation.go
package models

// Conversation links a contractor and a provider once an application is
// accepted. At most one should exist per participant pair; approval reuses
// an existing one instead of creating a duplicate.
type Conversation struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
	CreatedAt    string   `json:"createdAt"`
}

// HasParticipant reports whether userID is a member of the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
