package models

import "errors"

// Domain-level sentinel errors for business logic
// These errors should not contain HTTP-specific information

var (
	// ErrInvalidArgument indicates a missing or malformed required field,
	// or an illegal identity such as a user calling themselves
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSessionNotFound indicates that a session with the given ID does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrUserNotFound indicates that a user with the given ID is not registered
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidState indicates that the operation is not legal in the
	// session's current status, e.g. answering a call twice
	ErrInvalidState = errors.New("operation not allowed in current call state")
)
