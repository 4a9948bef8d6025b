package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Authentication errors
	ErrUnauthenticated    = errors.New("no credentials presented")
	ErrInvalidToken       = errors.New("invalid authentication token")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrBanned marks an attempt from a banned source IP. Internal only:
	// clients see the same generic failure as ErrInvalidCredentials.
	ErrBanned = errors.New("source ip is banned")

	// ErrStoreUnavailable means the ban or credential store could not be
	// reached. Login fails closed on this error.
	ErrStoreUnavailable = errors.New("store unavailable")
)
