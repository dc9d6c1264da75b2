// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Domain failures. Commands report these in their outcome rather than returning them.
var (
	// ErrNotFound indicates the requested or referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyDeleted indicates a mutation targeted a soft-deleted entity.
	ErrAlreadyDeleted = errors.New("already deleted")

	// ErrStaleConcurrencyToken indicates the caller edited an older version than the one stored.
	ErrStaleConcurrencyToken = errors.New("stale concurrency token")

	// ErrMissingConcurrencyToken indicates the stored entity has been updated but the caller sent no token.
	ErrMissingConcurrencyToken = errors.New("missing concurrency token")

	// ErrNotPermitted indicates the caller is not logged in, on the wrong team, or lacks a right.
	ErrNotPermitted = errors.New("not permitted")

	// ErrValidationFailed indicates a domain rule rejected the payload.
	ErrValidationFailed = errors.New("validation failed")

	// ErrDependencyFailed indicates a sub-command failed and the whole update was abandoned.
	ErrDependencyFailed = errors.New("dependency failed")
)

// Transport failures.
var (
	// ErrUnauthorized indicates a missing, malformed or expired access token.
	ErrUnauthorized = errors.New("unauthorized")
)

// Programming errors. These are returned as Go errors and are fatal for the request.
var (
	// ErrNotBound indicates Apply was called before Bind.
	ErrNotBound = errors.New("command applied before data was bound")

	// ErrUnknownKind indicates no command is registered for the requested kind.
	ErrUnknownKind = errors.New("unknown command kind")

	// ErrWrongType indicates a payload or entity of an unexpected type was handed to a command.
	ErrWrongType = errors.New("unexpected type")
)
