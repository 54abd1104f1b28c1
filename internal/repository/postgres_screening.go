package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cinebook/cinema-booking-system/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresScreeningRepository struct {
	db *pgxpool.Pool
}

func NewPostgresScreeningRepository(db *pgxpool.Pool) *PostgresScreeningRepository {
	return &PostgresScreeningRepository{
		db: db,
	}
}

func (p *PostgresScreeningRepository) GetAll(
	ctx context.Context,
	filters domain.ScreeningFilters) ([]*domain.Screening, *domain.Metadata, error) {

	query := `
		SELECT count(*) OVER(),
			s.id, s.movie_id, m.title, s.theater_id, t.name, s.starts_at,
			s.standard_price, s.premium_price,
			s.seats, s.booked_seats, s.blocked_seats, t.premium_rows, s.version
		FROM screenings s
		JOIN movies m ON s.movie_id = m.id
		JOIN theaters t ON s.theater_id = t.id
		WHERE ($1 = 0 OR s.theater_id = $1)
			AND ($2 = 0 OR s.movie_id = $2)
			AND ($3::date IS NULL OR s.starts_at::date = $3::date)
		ORDER BY s.starts_at
		LIMIT $4 OFFSET $5
	`

	rows, err := p.db.Query(ctx, query,
		filters.TheaterID,
		filters.MovieID,
		filters.Date,
		filters.Limit(),
		filters.Offset(),
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	screenings := make([]*domain.Screening, 0)
	totalRecords := 0

	for rows.Next() {
		var screening domain.Screening
		var standardPrice, premiumPrice pgtype.Numeric

		err := rows.Scan(
			&totalRecords,
			&screening.ID,
			&screening.MovieID,
			&screening.MovieTitle,
			&screening.TheaterID,
			&screening.TheaterName,
			&screening.StartsAt,
			&standardPrice,
			&premiumPrice,
			&screening.SeatMap.All,
			&screening.SeatMap.Booked,
			&screening.SeatMap.Blocked,
			&screening.Price.PremiumRows,
			&screening.Version,
		)
		if err != nil {
			return nil, nil, err
		}

		screening.Price.Standard = numericToDecimal(standardPrice)
		screening.Price.Premium = numericToDecimal(premiumPrice)
		screenings = append(screenings, &screening)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, filters.Page, filters.PageSize)

	return screenings, metadata, nil
}

func (p *PostgresScreeningRepository) GetById(ctx context.Context, id int) (*domain.Screening, error) {
	query := `
		SELECT s.id, s.movie_id, m.title, s.theater_id, t.name, s.starts_at,
			s.standard_price, s.premium_price,
			s.seats, s.booked_seats, s.blocked_seats, t.premium_rows, s.version
		FROM screenings s
		JOIN movies m ON s.movie_id = m.id
		JOIN theaters t ON s.theater_id = t.id
		WHERE s.id = $1
	`

	return scanScreening(p.db.QueryRow(ctx, query, id))
}

func scanScreening(row pgx.Row) (*domain.Screening, error) {
	var screening domain.Screening
	var standardPrice, premiumPrice pgtype.Numeric

	err := row.Scan(
		&screening.ID,
		&screening.MovieID,
		&screening.MovieTitle,
		&screening.TheaterID,
		&screening.TheaterName,
		&screening.StartsAt,
		&standardPrice,
		&premiumPrice,
		&screening.SeatMap.All,
		&screening.SeatMap.Booked,
		&screening.SeatMap.Blocked,
		&screening.Price.PremiumRows,
		&screening.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	screening.Price.Standard = numericToDecimal(standardPrice)
	screening.Price.Premium = numericToDecimal(premiumPrice)

	return &screening, nil
}

func (p *PostgresScreeningRepository) Create(ctx context.Context, screening *domain.Screening) error {
	query := `
		INSERT INTO screenings
			(movie_id, theater_id, starts_at, standard_price, premium_price, seats)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version
	`

	return p.db.QueryRow(ctx, query,
		screening.MovieID,
		screening.TheaterID,
		screening.StartsAt,
		decimalToNumeric(screening.Price.Standard),
		decimalToNumeric(screening.Price.Premium),
		screening.SeatMap.All,
	).Scan(&screening.ID, &screening.Version)
}

// UpdateSeatState applies a block/unblock change under the screening's row
// lock. A request carrying the version the change itself produced is
// recognized as a replay and returns the current state unchanged.
func (p *PostgresScreeningRepository) UpdateSeatState(
	ctx context.Context,
	id, version int,
	block, unblock []string) (*domain.Screening, error) {

	var updated *domain.Screening

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			SELECT s.id, s.movie_id, m.title, s.theater_id, t.name, s.starts_at,
				s.standard_price, s.premium_price,
				s.seats, s.booked_seats, s.blocked_seats, t.premium_rows, s.version
			FROM screenings s
			JOIN movies m ON s.movie_id = m.id
			JOIN theaters t ON s.theater_id = t.id
			WHERE s.id = $1
			FOR UPDATE OF s
		`

		screening, err := scanScreening(tx.QueryRow(ctx, query, id))
		if err != nil {
			return err
		}

		if screening.Version != version {
			if screening.Version == version+1 && seatStateApplied(screening.SeatMap, block, unblock) {
				updated = screening
				return nil
			}

			return domain.ErrEditConflict
		}

		blocked, err := nextBlockedSet(screening.SeatMap, block, unblock)
		if err != nil {
			return err
		}

		query = `
			UPDATE screenings
			SET blocked_seats = $2::text[], version = version + 1
			WHERE id = $1
			RETURNING version
		`

		err = tx.QueryRow(ctx, query, id, blocked).Scan(&screening.Version)
		if err != nil {
			return err
		}

		screening.SeatMap.Blocked = blocked
		updated = screening

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func seatStateApplied(m domain.SeatMap, block, unblock []string) bool {
	blocked := make(map[string]bool, len(m.Blocked))
	for _, code := range m.Blocked {
		blocked[code] = true
	}

	for _, code := range block {
		if !blocked[code] {
			return false
		}
	}

	for _, code := range unblock {
		if blocked[code] {
			return false
		}
	}

	return true
}

func nextBlockedSet(m domain.SeatMap, block, unblock []string) ([]string, error) {
	valid := make(map[string]bool, len(m.All))
	for _, code := range m.All {
		valid[code] = true
	}

	booked := make(map[string]bool, len(m.Booked))
	for _, code := range m.Booked {
		booked[code] = true
	}

	blocked := make(map[string]bool, len(m.Blocked))
	for _, code := range m.Blocked {
		blocked[code] = true
	}

	for _, code := range block {
		if !valid[code] {
			return nil, fmt.Errorf("%w: %s", domain.ErrSeatUnknown, code)
		}

		if booked[code] {
			return nil, fmt.Errorf("%w: %s", domain.ErrSeatUnavailable, code)
		}

		blocked[code] = true
	}

	for _, code := range unblock {
		delete(blocked, code)
	}

	// Preserve layout order so the stored set stays stable.
	next := make([]string, 0, len(blocked))
	for _, code := range m.All {
		if blocked[code] {
			next = append(next, code)
		}
	}

	return next, nil
}
