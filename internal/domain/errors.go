package domain

import "errors"

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrRecordNotFound    = errors.New("record not found")
	ErrEditConflict      = errors.New("edit conflict")

	ErrNoSeatsSelected = errors.New("no seats selected")
	ErrSeatUnknown     = errors.New("seat is not part of this theater layout")
	ErrSeatUnavailable = errors.New("seat is already booked or blocked")
	ErrSeatConflict    = errors.New("seats were taken by another booking, please select again")
	ErrSeatHeld        = errors.New("seat is currently held by another visitor")

	ErrPriceMismatch = errors.New("total price does not match the current price schedule")

	ErrInvalidStatusTransition = errors.New("invalid booking status transition")
	ErrBookingNotEditable      = errors.New("only pending bookings can be changed")
)
