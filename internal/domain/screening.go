package domain

import (
	"context"
	"time"
)

// Screening is one scheduled showing of a movie in a theater hall. Its
// seat map is mutated only through ScreeningRepository commits; historical
// bookings keep their own denormalized copy of the display fields.
type Screening struct {
	ID          int
	MovieID     int
	MovieTitle  string
	TheaterID   int
	TheaterName string
	StartsAt    time.Time
	Price       PriceSchedule
	SeatMap     SeatMap
	Version     int
}

type ScreeningFilters struct {
	Pagination
	TheaterID int
	MovieID   int
	Date      *time.Time
}

type Theater struct {
	ID          int
	Name        string
	Location    string
	SeatRows    []string
	SeatsPerRow int
	PremiumRows []string
}

// Layout expands the theater configuration into the full set of seat
// codes, row by row.
func (t Theater) Layout() []string {
	codes := make([]string, 0, len(t.SeatRows)*t.SeatsPerRow)

	for _, row := range t.SeatRows {
		for n := 1; n <= t.SeatsPerRow; n++ {
			codes = append(codes, seatCode(row, n))
		}
	}

	return codes
}

func seatCode(row string, n int) string {
	const digits = "0123456789"

	if n < 10 {
		return row + digits[n:n+1]
	}

	return row + digits[n/10:n/10+1] + digits[n%10:n%10+1]
}

type ScreeningRepository interface {
	GetAll(ctx context.Context, filters ScreeningFilters) ([]*Screening, *Metadata, error)
	GetById(ctx context.Context, id int) (*Screening, error)
	Create(ctx context.Context, screening *Screening) error

	// UpdateSeatState moves seats between the blocked and available pools.
	// The update is version-checked: a stale version yields ErrEditConflict,
	// and replaying an already applied request is a no-op.
	UpdateSeatState(ctx context.Context, id, version int, block, unblock []string) (*Screening, error)
}

type TheaterRepository interface {
	GetById(ctx context.Context, id int) (*Theater, error)
	GetAll(ctx context.Context) ([]*Theater, error)
}
