package errors

import "errors"

var (
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidCorrection = errors.New("invalid correction")
	// ErrExtractionFailed means a required field (order date) could not be
	// extracted and the receipt has to be entered manually.
	ErrExtractionFailed  = errors.New("extraction failed: order date missing")
	ErrStaleTransition   = errors.New("stale notification transition")
	ErrLeaseNotAcquired  = errors.New("lease not acquired")
	ErrNotifierTransient = errors.New("notifier transient failure")
	ErrNotifierPermanent = errors.New("notifier permanent failure")
)
