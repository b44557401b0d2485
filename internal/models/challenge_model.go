package models

import (
	"time"

	"google.golang.org/genproto/googleapis/type/latlng"
)

// HomeGroupID is the pseudo group used by posts made from the home screen.
const HomeGroupID = "home"

// Challenge is a post in the `challenges` collection.
type Challenge struct {
	ID                   string         `json:"challenge_id" firestore:"-"`
	Caption              string         `json:"caption" firestore:"caption"`
	UID                  string         `json:"uid" firestore:"uid"`
	ImageID              string         `json:"image_id,omitempty" firestore:"image_id,omitempty"`
	Date                 time.Time      `json:"date" firestore:"date"`
	Likes                []string       `json:"likes" firestore:"likes"`
	Location             *latlng.LatLng `json:"location,omitempty" firestore:"location"`
	GroupID              string         `json:"group_id,omitempty" firestore:"group_id,omitempty"`
	ChallengeDescription string         `json:"challenge_description,omitempty" firestore:"challenge_description,omitempty"`
}

// HasLocation reports whether the post carries a geographic point.
func (c *Challenge) HasLocation() bool {
	return c.Location != nil
}

// BelongsToGroup reports whether groupID names a real group rather than the home feed.
func BelongsToGroup(groupID string) bool {
	return groupID != "" && groupID != HomeGroupID
}

// Comment is a document in the `comments` collection.
type Comment struct {
	ID          string    `json:"comment_id" firestore:"-"`
	CommentText string    `json:"comment_text" firestore:"comment_text"`
	UserName    string    `json:"user_name" firestore:"user_name"`
	UID         string    `json:"uid" firestore:"uid"`
	CreatedAt   time.Time `json:"created_at" firestore:"created_at"`
	PostID      string    `json:"post_id" firestore:"post_id"`
}

// ChallengeDescription names the current challenge period.
// Field names are capitalised in Firestore.
type ChallengeDescription struct {
	Title       string    `json:"title" firestore:"Title"`
	Description string    `json:"description" firestore:"Description"`
	EndDate     time.Time `json:"endDate" firestore:"Date"`
}

// Countdown is the time left in a challenge period.
type Countdown struct {
	Days     int64 `json:"days"`
	Hours    int64 `json:"hours"`
	Minutes  int64 `json:"minutes"`
	Seconds  int64 `json:"seconds"`
	Finished bool  `json:"finished"`
}
