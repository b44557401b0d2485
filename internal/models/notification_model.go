package models

// Notification kinds.
const (
	NotificationFriendRequest  = "friend_request"
	NotificationFriendAccepted = "friend_accepted"
	NotificationComment        = "comment"
	NotificationChallengeEnded = "challenge_ended"
)

// Notification is a push message addressed to one or more users.
type Notification struct {
	Kind         string            `json:"kind"`
	SenderID     string            `json:"senderId,omitempty"`
	RecipientIDs []string          `json:"recipientIds"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Data         map[string]string `json:"data,omitempty"`
}
