package models

import "time"

// GuestName is the display name carried by the shared guest account.
const GuestName = "Guest"

// User represents a user document in the `users` collection.
// The document ID is the Firebase Auth UID and is mirrored in UID.
type User struct {
	UID                  string    `json:"uid" firestore:"uid"`
	Name                 string    `json:"name" firestore:"name"`
	Email                string    `json:"email" firestore:"email"`
	Phone                string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Address              string    `json:"address,omitempty" firestore:"address,omitempty"`
	ImageID              string    `json:"image_id,omitempty" firestore:"image_id,omitempty"`
	CreatedAt            time.Time `json:"createdAt" firestore:"createdAt"`
	Groups               []string  `json:"groups,omitempty" firestore:"groups,omitempty"`
	Friends              []string  `json:"friends,omitempty" firestore:"friends,omitempty"`
	UserRequestedFriends []string  `json:"userRequestedFriends,omitempty" firestore:"userRequestedFriends,omitempty"`
	FriendsRequestedUser []string  `json:"friendsRequestedUser,omitempty" firestore:"friendsRequestedUser,omitempty"`
	ExpoPushToken        string    `json:"expoPushToken,omitempty" firestore:"expoPushToken,omitempty"`
}

// IsGuest reports whether u is the shared guest account.
func (u *User) IsGuest() bool {
	return u != nil && u.Name == GuestName
}

// HasFriend reports whether id is in the user's friend list.
func (u *User) HasFriend(id string) bool {
	return containsID(u.Friends, id)
}

// HasRequested reports whether the user sent a pending friend request to id.
func (u *User) HasRequested(id string) bool {
	return containsID(u.UserRequestedFriends, id)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// RemoveID returns ids without any occurrence of id. The input slice is not modified.
func RemoveID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
