package service

import "errors"

// Expected operation outcomes. Handlers map these to HTTP statuses;
// anything else is an internal failure.
var (
	// ErrUnauthorized means no user matches the presented credential
	ErrUnauthorized = errors.New("invalid api key")
	// ErrNotFound means a referenced entity does not exist
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the actor has no rights over the entity
	ErrForbidden = errors.New("not allowed")
	// ErrDuplicate means the action was already recorded
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidAction means the request is semantically nonsensical
	ErrInvalidAction = errors.New("invalid action")
)
