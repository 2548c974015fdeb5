package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrRateLimited        = errors.New("rate limited")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrMalformedRecord    = errors.New("malformed record")
	ErrNothingToReconcile = errors.New("no orders or positions to reconcile")
	ErrLockHeld           = errors.New("lock already held")
	ErrSigningFailed      = errors.New("signing failed")
)
