package domain

import "errors"

var (
	ErrRecordNotFound        = errors.New("record not found")
	ErrShowNotFound          = errors.New("show not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrSeatConflict          = errors.New("seat(s) are already locked or booked")
	ErrSeatInvalid           = errors.New("seat(s) are invalid for this show")
	ErrLockMissing           = errors.New("seat(s) are not locked by this session")
	ErrBookingExpired        = errors.New("booking has expired")
	ErrBookingCancelled      = errors.New("booking has been cancelled")
	ErrCannotCancelConfirmed = errors.New("confirmed bookings cannot be cancelled")
	ErrInvalidTransition     = errors.New("booking is not in a valid state for this transition")
	ErrCodeGeneration        = errors.New("could not generate a unique booking code")
)
