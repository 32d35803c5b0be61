package domain

import "errors"

var (
	ErrSpaceNotFound       = errors.New("space not found")
	ErrSpaceInactive       = errors.New("space inactive")
	ErrInvalidInterval     = errors.New("invalid interval")
	ErrIntervalTooShort    = errors.New("interval too short")
	ErrHorizonExceeded     = errors.New("booking horizon exceeded")
	ErrIntervalConflict    = errors.New("interval conflicts with an existing reservation")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrInvalidTransition   = errors.New("invalid reservation state transition")
	ErrHoldExpired         = errors.New("hold expired")
	ErrPaymentMismatch     = errors.New("payment session mismatch")
	ErrCancelWindowClosed  = errors.New("cancellation window closed")
	ErrSessionNotFound     = errors.New("payment session not found")
	ErrEventNotFound       = errors.New("payment event not found")
	ErrSessionExists       = errors.New("open payment session already exists")
	ErrNoApplicableTier    = errors.New("no applicable pricing tier")
	ErrOwnerRequired       = errors.New("owner id required")
	ErrInvalidID           = errors.New("invalid id")
)
