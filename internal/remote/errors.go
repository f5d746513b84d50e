package remote

import "errors"

var (
	// ErrBadRequest marks a request the remote rejected as malformed.
	ErrBadRequest = errors.New("remote rejected request")

	// ErrUnauthorized marks failed authentication. Fails a pass fast.
	ErrUnauthorized = errors.New("remote authorization failed")

	// ErrForbidden marks a permission failure on a valid credential.
	ErrForbidden = errors.New("remote access forbidden")

	// ErrNotFound marks a missing remote object. An absent index or
	// archive is a normal state for callers to interpret, not a fault.
	ErrNotFound = errors.New("remote object not found")

	// ErrConflict marks an HTTP 409. For archive uploads it means "maybe
	// already uploaded" and is resolved by a read-back, never by a blind
	// overwrite.
	ErrConflict = errors.New("remote object conflict")

	// ErrUnavailable marks transport failures, timeouts and 5xx
	// responses. It is the only error class the retry policy retries.
	ErrUnavailable = errors.New("remote unavailable")
)
