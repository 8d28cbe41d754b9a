package services

import "errors"

var (
	// ErrUserNotFound is returned when the upstream has no such user.
	ErrUserNotFound = errors.New("user not found")

	// ErrUpstream is returned for any other upstream lookup failure.
	ErrUpstream = errors.New("something went wrong")

	// ErrAvatarNotFound is returned when the user has no avatar URL.
	ErrAvatarNotFound = errors.New("avatar not found")
)
