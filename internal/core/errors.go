package core

import "errors"

var (
	ErrUserNotFound                 = errors.New("user not found")
	ErrChallengeNotFound            = errors.New("challenge not found")
	ErrGroupNotFound                = errors.New("group not found")
	ErrChallengeDescriptionNotFound = errors.New("challenge description not found")
	ErrInvalidEmail                 = errors.New("invalid email address")
	ErrPasswordTooShort             = errors.New("password must be at least 8 characters")
	ErrMissingName                  = errors.New("name and surname are required")
	ErrEmailInUse                   = errors.New("email address is already in use")
	ErrInvalidCredentials           = errors.New("invalid email or password")
	ErrCannotFriendSelf             = errors.New("cannot send a friend request to oneself")
	ErrNoPendingRequest             = errors.New("no pending friend request from this user")
	ErrForeignLike                  = errors.New("only your own like can be changed")
	ErrInvalidInput                 = errors.New("invalid input")
	ErrImageRequired                = errors.New("an image id or image url is required")
	ErrImageNotFound                = errors.New("image not found")
	ErrIdentityUnavailable          = errors.New("password sign-in is not configured")
	ErrImageTooLarge                = errors.New("image is too large")
)
