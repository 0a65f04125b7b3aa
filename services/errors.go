package services

import "errors"

// Sentinel errors returned by the services. Controllers map them to HTTP
// statuses with errors.Is; anything else is an internal error.
var (
	ErrInvalidPlan       = errors.New("invalid plan")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConflict          = errors.New("conflict")
	ErrGateway           = errors.New("payment gateway error")
	ErrUnauthorized      = errors.New("unauthorized")
)
