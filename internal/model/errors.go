package model

import "errors"

// Error kinds. Every error leaving a service wraps exactly one of these so the
// HTTP boundary can map it with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrPersistence        = errors.New("persistence error")
)
