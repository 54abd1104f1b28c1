package domain

import (
	"fmt"
	"unicode"

	"github.com/shopspring/decimal"
)

// SeatMap holds the seat state of a single screening. Booked and Blocked
// are always subsets of All, and disjoint from each other; the screening
// repository enforces this at every commit.
type SeatMap struct {
	All     []string
	Booked  []string
	Blocked []string
}

// Validate checks a requested seat selection against the current map.
// It is read-only: a passing selection can still lose the race to another
// booker and must be re-checked under lock at commit time.
func (m SeatMap) Validate(requested []string) error {
	if len(requested) == 0 {
		return ErrNoSeatsSelected
	}

	seen := make(map[string]bool, len(requested))
	valid := toSet(m.All)
	unavailable := toSet(m.Booked)
	for _, code := range m.Blocked {
		unavailable[code] = true
	}

	for _, code := range requested {
		if seen[code] {
			return fmt.Errorf("%w: %s requested twice", ErrSeatUnknown, code)
		}
		seen[code] = true

		if !valid[code] {
			return fmt.Errorf("%w: %s", ErrSeatUnknown, code)
		}

		if unavailable[code] {
			return fmt.Errorf("%w: %s", ErrSeatUnavailable, code)
		}
	}

	return nil
}

func (m SeatMap) Available(code string) bool {
	if !toSet(m.All)[code] {
		return false
	}

	return !toSet(m.Booked)[code] && !toSet(m.Blocked)[code]
}

func (m SeatMap) SeatsLeft() int {
	return len(m.All) - len(m.Booked) - len(m.Blocked)
}

func toSet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, code := range codes {
		set[code] = true
	}

	return set
}

type SeatTier string

const (
	TierStandard SeatTier = "standard"
	TierPremium  SeatTier = "premium"
)

// PriceSchedule prices the seats of one screening. PremiumRows comes from
// the theater configuration; every other row is standard.
type PriceSchedule struct {
	Standard    decimal.Decimal
	Premium     decimal.Decimal
	PremiumRows []string
}

// Tier classifies a seat code by its row prefix, e.g. "D12" is row "D".
func (p PriceSchedule) Tier(code string) SeatTier {
	row := SeatRow(code)

	for _, premium := range p.PremiumRows {
		if row == premium {
			return TierPremium
		}
	}

	return TierStandard
}

func (p PriceSchedule) SeatPrice(code string) decimal.Decimal {
	if p.Tier(code) == TierPremium {
		return p.Premium
	}

	return p.Standard
}

// Quote returns the total price of a seat selection, the sum of each
// seat's tier price.
func (p PriceSchedule) Quote(seats []string) decimal.Decimal {
	total := decimal.Zero

	for _, code := range seats {
		total = total.Add(p.SeatPrice(code))
	}

	return total
}

// SeatRow extracts the leading letters of a seat code.
func SeatRow(code string) string {
	for i, ch := range code {
		if unicode.IsDigit(ch) {
			return code[:i]
		}
	}

	return code
}
