package domain

import "errors"

// Upstream errors
var (
	ErrNotAuthenticated     = errors.New("server not authenticated against upstream")
	ErrUpstreamUnauthorized = errors.New("upstream rejected session credentials")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrLoginFailed          = errors.New("upstream login failed")
	ErrSessionNotPersisted  = errors.New("no persisted upstream session")
)

// Gateway errors
var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrRecordNotFound    = errors.New("record not found")
	ErrHomeworkNotFound  = errors.New("homework not found")
	ErrNotAuthor         = errors.New("not the author of this homework")
	ErrMissingGradeClass = errors.New("user has no grade class")
	ErrTooManyFiles      = errors.New("too many files attached")
)
