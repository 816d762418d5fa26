package shared

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation on create or update.
	ErrConflict = errors.New("already exists")
	// ErrForbidden indicates the caller is authenticated but lacks privilege.
	ErrForbidden = errors.New("not enough permissions")
	// ErrUnauthenticated indicates a missing, invalid or expired token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
)
