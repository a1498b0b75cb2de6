package model

import "errors"

var (
	// ErrIntegrity means a content item does not have exactly one owner, or a
	// brand or club was loaded without its accountable person.
	ErrIntegrity = errors.New("content owner integrity violated")

	// ErrConflict is returned when an edge already exists or would point at its own follower.
	ErrConflict = errors.New("relation already exists")

	ErrPermissionDenied = errors.New("permission denied")
)
