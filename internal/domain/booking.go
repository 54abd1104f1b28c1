package domain

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "Pending"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}

	return false
}

// CanTransitionTo reports whether a status change is allowed. Cancelled is
// terminal; a transition to the current status is permitted so that
// retried requests stay idempotent.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s == next {
		return true
	}

	switch s {
	case BookingPending:
		return next == BookingConfirmed || next == BookingCancelled
	case BookingConfirmed:
		return next == BookingCancelled
	default:
		return false
	}
}

// Booking is one reservation of seats on a screening. The movie, theater
// and showtime fields are copied from the screening at commit time, so
// later screening edits never rewrite booking history.
type Booking struct {
	ID             int
	Reference      string
	UserID         int
	ScreeningID    int
	MovieTitle     string
	TheaterName    string
	StartsAt       time.Time
	Seats          []string
	TotalPrice     decimal.Decimal
	Status         BookingStatus
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// ScreeningVersion is the seat-map version produced by the reserve
	// commit, usable as a commit token.
	ScreeningVersion int
	Version          int
}

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewReference generates a short booking reference such as "BKG7NQ2FD".
// Uniqueness is not assumed: the repository retries on a collision.
func NewReference() string {
	suffix := make([]byte, 6)
	rand.Read(suffix)

	for i := range suffix {
		suffix[i] = referenceAlphabet[int(suffix[i])%len(referenceAlphabet)]
	}

	return "BKG" + string(suffix)
}

type BookingRepository interface {
	// Reserve atomically creates the booking and moves its seats from
	// available to booked on the screening. Overlapping concurrent
	// reservations yield ErrSeatConflict with no partial state. On success
	// the booking's ID, timestamps and ScreeningVersion are populated.
	Reserve(ctx context.Context, booking *Booking) error

	GetByReference(ctx context.Context, reference string) (*Booking, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Booking, error)
	GetAll(ctx context.Context, pagination Pagination) ([]*Booking, *Metadata, error)
	GetByUserId(ctx context.Context, userId int, pagination Pagination) ([]*Booking, *Metadata, error)

	// UpdateStatus applies a status transition. Moving to Cancelled returns
	// the booking's seats to the screening's available pool in the same
	// transaction.
	UpdateStatus(ctx context.Context, reference string, status BookingStatus) (*Booking, error)

	// UpdateSeats swaps a pending booking's seat selection. The old seats
	// go back to the pool and the new ones are validated and committed in
	// one transaction, with the price requoted from the schedule.
	UpdateSeats(ctx context.Context, reference string, seats []string) (*Booking, error)

	Delete(ctx context.Context, reference string) error

	// CancelStalePending cancels bookings that stayed Pending beyond the
	// confirmation window and frees their seats. It returns the cancelled
	// bookings so the caller can notify observers.
	CancelStalePending(ctx context.Context, olderThan time.Time) ([]*Booking, error)
}
