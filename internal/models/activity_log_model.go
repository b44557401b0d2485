package models

import "time"

// Activity actions recorded in the activity log.
const (
	ActionUserCreate      = "USER_CREATE"
	ActionChallengeCreate = "CHALLENGE_CREATE"
	ActionCommentAdd      = "COMMENT_ADD"
	ActionFriendRequest   = "FRIEND_REQUEST"
	ActionFriendAccept    = "FRIEND_ACCEPT"
	ActionFriendReject    = "FRIEND_REJECT"
	ActionGroupCreate     = "GROUP_CREATE"
	ActionGroupJoin       = "GROUP_JOIN"
)

// ActivityLog is an audit trail event.
type ActivityLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID     string                 `json:"userId" firestore:"userId"`
	Action     string                 `json:"action" firestore:"action"`
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"` // USER, CHALLENGE, GROUP, COMMENT
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
