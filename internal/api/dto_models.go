package api

import (
	"time"

	"strive-backend-go/internal/models"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is used for operations with nothing else to return.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NameResponse is returned by GET /users/:uid/name.
type NameResponse struct {
	Name string `json:"name"`
}

// PictureResponse carries an image id and its download URL.
type PictureResponse struct {
	ImageID string `json:"image_id,omitempty"`
	URL     string `json:"url"`
}

// LikesResponse is returned by the like endpoints.
type LikesResponse struct {
	Likes []string `json:"likes"`
}

// ImageResponse is returned after an upload.
type ImageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// PublicUser is the view of a user shown to anyone but that user. Contact
// details and the push token stay private; GET /users/me returns them to
// the owner.
type PublicUser struct {
	UID                  string    `json:"uid"`
	Name                 string    `json:"name"`
	ImageID              string    `json:"image_id,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	Groups               []string  `json:"groups,omitempty"`
	Friends              []string  `json:"friends,omitempty"`
	UserRequestedFriends []string  `json:"userRequestedFriends,omitempty"`
	FriendsRequestedUser []string  `json:"friendsRequestedUser,omitempty"`
}

func toPublicUser(u *models.User) PublicUser {
	return PublicUser{
		UID:                  u.UID,
		Name:                 u.Name,
		ImageID:              u.ImageID,
		CreatedAt:            u.CreatedAt,
		Groups:               u.Groups,
		Friends:              u.Friends,
		UserRequestedFriends: u.UserRequestedFriends,
		FriendsRequestedUser: u.FriendsRequestedUser,
	}
}

func toPublicUsers(users []*models.User) []PublicUser {
	out := make([]PublicUser, 0, len(users))
	for _, u := range users {
		if u != nil {
			out = append(out, toPublicUser(u))
		}
	}
	return out
}
