package models

import "time"

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Surname  string `json:"surname" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignInRequest is the body of POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PasswordResetRequest is the body of POST /auth/password-reset.
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// Session is returned after a successful password sign-in.
type Session struct {
	UID          string `json:"uid"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName,omitempty"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"` // seconds
}

// SetNameRequest is the body of PUT /users/me/name.
type SetNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// SetPictureRequest is the body of PUT /users/me/picture.
// Either ImageID (an already uploaded image) or ImageURL (fetched and stored) must be set.
type SetPictureRequest struct {
	ImageID  string `json:"image_id,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// PushTokenRequest is the body of PUT /users/me/push-token.
type PushTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// Point is a latitude/longitude pair sent by clients.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CreateChallengeRequest is the body of POST /challenges.
type CreateChallengeRequest struct {
	Caption  string     `json:"caption"`
	ImageID  string     `json:"image_id,omitempty"`
	Location *Point     `json:"location,omitempty"`
	GroupID  string     `json:"group_id,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
}

// UpdateLikesRequest is the body of PUT /challenges/:id/likes.
type UpdateLikesRequest struct {
	Likes []string `json:"likes"`
}

// AddCommentRequest is the body of POST /challenges/:id/comments.
type AddCommentRequest struct {
	Text string `json:"comment_text" binding:"required"`
}

// CreateGroupRequest is the body of POST /groups.
type CreateGroupRequest struct {
	Name           string   `json:"name" binding:"required"`
	ChallengeTitle string   `json:"challengeTitle" binding:"required"`
	Members        []string `json:"members,omitempty"`
	Location       *Point   `json:"location,omitempty"`
	Radius         float64  `json:"radius,omitempty"`
}

// UploadFromURLRequest is the body of POST /images/from-url.
type UploadFromURLRequest struct {
	URL string `json:"url" binding:"required"`
}
