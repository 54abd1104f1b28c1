package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReference(t *testing.T) {
	pattern := regexp.MustCompile(`^BKG[A-HJ-NP-Z2-9]{6}$`)

	seen := make(map[string]bool)
	for range 100 {
		ref := NewReference()

		assert.Regexp(t, pattern, ref)
		seen[ref] = true
	}

	// 100 draws from a 32^6 space colliding would point at a broken generator.
	assert.Greater(t, len(seen), 95)
}

func TestBookingStatusTransitions(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingPending, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCancelled, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCancelled, BookingCancelled, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestBookingStatusValid(t *testing.T) {
	assert.True(t, BookingPending.Valid())
	assert.True(t, BookingConfirmed.Valid())
	assert.True(t, BookingCancelled.Valid())
	assert.False(t, BookingStatus("Paid").Valid())
}
