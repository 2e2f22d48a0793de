package usecase

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrNotNegotiable   = errors.New("product is not negotiable")
	ErrSessionNotFound = errors.New("negotiation session not found")
)
