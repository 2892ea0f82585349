package leave

import "errors"

var (
	// ErrValidation marks caller-fault request-shape failures; the wrapped
	// message carries the human-readable reason.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientBalance is distinct from validation: it depends on live
	// ledger state, not on the request shape.
	ErrInsufficientBalance = errors.New("insufficient leave balance")

	// ErrConflict signals a status transition raced by another one; the caller
	// must refresh and retry manually.
	ErrConflict = errors.New("request is no longer in the expected state")

	ErrForbidden = errors.New("not allowed to act on this request")
	ErrNotFound  = errors.New("leave request not found")
)
