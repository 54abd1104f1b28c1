package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cinebook/cinema-booking-system/internal/domain"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const referenceRetries = 3

type PostgresBookingRepository struct {
	db *pgxpool.Pool
}

func NewPostgresBookingRepository(db *pgxpool.Pool) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db: db,
	}
}

// Reserve runs the validate-then-commit sequence as one transaction: it
// locks the screening row, re-validates the requested seats against the
// current map, inserts the booking and appends the seats to the booked
// set. Either everything commits or nothing does.
func (p *PostgresBookingRepository) Reserve(ctx context.Context, booking *domain.Booking) error {
	var lastErr error

	for attempt := 0; attempt < referenceRetries; attempt++ {
		if booking.Reference == "" || attempt > 0 {
			booking.Reference = domain.NewReference()
		}

		err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
			return p.reserve(ctx, tx, booking)
		})
		if err == nil {
			return nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case "bookings_reference_key":
				// Reference collision, regenerate and retry.
				lastErr = err
				continue
			case "bookings_idempotency_key_key":
				// Lost a race against a replay of the same request; the
				// committed booking is the result.
				existing, getErr := p.GetByIdempotencyKey(ctx, booking.IdempotencyKey)
				if getErr != nil {
					return getErr
				}

				*booking = *existing
				return nil
			}
		}

		return err
	}

	return fmt.Errorf("could not generate a unique booking reference: %w", lastErr)
}

func (p *PostgresBookingRepository) reserve(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	query := `
		SELECT s.seats, s.booked_seats, s.blocked_seats, s.starts_at,
			s.standard_price, s.premium_price, m.title, t.name, t.premium_rows
		FROM screenings s
		JOIN movies m ON s.movie_id = m.id
		JOIN theaters t ON s.theater_id = t.id
		WHERE s.id = $1
		FOR UPDATE OF s
	`

	var (
		seatMap       domain.SeatMap
		standardPrice pgtype.Numeric
		premiumPrice  pgtype.Numeric
		premiumRows   []string
	)

	err := tx.QueryRow(ctx, query, booking.ScreeningID).Scan(
		&seatMap.All,
		&seatMap.Booked,
		&seatMap.Blocked,
		&booking.StartsAt,
		&standardPrice,
		&premiumPrice,
		&booking.MovieTitle,
		&booking.TheaterName,
		&premiumRows,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRecordNotFound
		}

		return err
	}

	// A replay of an already committed request must see the original
	// outcome, not a seat conflict against its own seats. The screening
	// lock serializes concurrent twins, so once it is held a committed
	// duplicate is visible here.
	if booking.IdempotencyKey != "" {
		existing, getErr := scanBooking(tx.QueryRow(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE idempotency_key = $1`,
			booking.IdempotencyKey,
		))
		if getErr == nil {
			*booking = *existing
			return nil
		}
		if !errors.Is(getErr, domain.ErrRecordNotFound) {
			return getErr
		}
	}

	err = seatMap.Validate(booking.Seats)
	if err != nil {
		if errors.Is(err, domain.ErrSeatUnavailable) {
			// Taken between the caller's read and this commit.
			return fmt.Errorf("%w (%v)", domain.ErrSeatConflict, err)
		}

		return err
	}

	schedule := domain.PriceSchedule{
		Standard:    numericToDecimal(standardPrice),
		Premium:     numericToDecimal(premiumPrice),
		PremiumRows: premiumRows,
	}

	if !schedule.Quote(booking.Seats).Equal(booking.TotalPrice) {
		return domain.ErrPriceMismatch
	}

	booking.Status = domain.BookingPending

	query = `
		INSERT INTO bookings
			(reference, user_id, screening_id, movie_title, theater_name,
			 starts_at, seats, total_price, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
		RETURNING id, created_at, updated_at, version
	`

	err = tx.QueryRow(ctx, query,
		booking.Reference,
		booking.UserID,
		booking.ScreeningID,
		booking.MovieTitle,
		booking.TheaterName,
		booking.StartsAt,
		booking.Seats,
		decimalToNumeric(booking.TotalPrice),
		booking.Status,
		booking.IdempotencyKey,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt, &booking.Version)
	if err != nil {
		return err
	}

	query = `
		UPDATE screenings
		SET booked_seats = booked_seats || $2::text[], version = version + 1
		WHERE id = $1
		RETURNING version
	`

	return tx.QueryRow(ctx, query, booking.ScreeningID, booking.Seats).Scan(&booking.ScreeningVersion)
}

const bookingColumns = `
	id, reference, user_id, screening_id, movie_title, theater_name,
	starts_at, seats, total_price, status, COALESCE(idempotency_key, ''),
	created_at, updated_at, version
`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var booking domain.Booking
	var totalPrice pgtype.Numeric

	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.UserID,
		&booking.ScreeningID,
		&booking.MovieTitle,
		&booking.TheaterName,
		&booking.StartsAt,
		&booking.Seats,
		&totalPrice,
		&booking.Status,
		&booking.IdempotencyKey,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	booking.TotalPrice = numericToDecimal(totalPrice)

	return &booking, nil
}

func (p *PostgresBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`

	return scanBooking(p.db.QueryRow(ctx, query, reference))
}

func (p *PostgresBookingRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE idempotency_key = $1`

	return scanBooking(p.db.QueryRow(ctx, query, key))
}

func (p *PostgresBookingRepository) GetAll(
	ctx context.Context,
	pagination domain.Pagination) ([]*domain.Booking, *domain.Metadata, error) {

	query := `
		SELECT count(*) OVER(), ` + bookingColumns + `
		FROM bookings
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	return p.queryBookings(ctx, query, pagination, pagination.Limit(), pagination.Offset())
}

func (p *PostgresBookingRepository) GetByUserId(
	ctx context.Context,
	userId int,
	pagination domain.Pagination) ([]*domain.Booking, *domain.Metadata, error) {

	query := `
		SELECT count(*) OVER(), ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	return p.queryBookings(ctx, query, pagination, userId, pagination.Limit(), pagination.Offset())
}

func (p *PostgresBookingRepository) queryBookings(
	ctx context.Context,
	query string,
	pagination domain.Pagination,
	args ...any) ([]*domain.Booking, *domain.Metadata, error) {

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	totalRecords := 0

	for rows.Next() {
		var booking domain.Booking
		var totalPrice pgtype.Numeric

		err := rows.Scan(
			&totalRecords,
			&booking.ID,
			&booking.Reference,
			&booking.UserID,
			&booking.ScreeningID,
			&booking.MovieTitle,
			&booking.TheaterName,
			&booking.StartsAt,
			&booking.Seats,
			&totalPrice,
			&booking.Status,
			&booking.IdempotencyKey,
			&booking.CreatedAt,
			&booking.UpdatedAt,
			&booking.Version,
		)
		if err != nil {
			return nil, nil, err
		}

		booking.TotalPrice = numericToDecimal(totalPrice)
		bookings = append(bookings, &booking)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return bookings, metadata, nil
}

func (p *PostgresBookingRepository) UpdateStatus(
	ctx context.Context,
	reference string,
	status domain.BookingStatus) (*domain.Booking, error) {

	var booking *domain.Booking

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1 FOR UPDATE`

		current, err := scanBooking(tx.QueryRow(ctx, query, reference))
		if err != nil {
			return err
		}

		if current.Status == status {
			// Idempotent replay.
			booking = current
			return nil
		}

		if !current.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, current.Status, status)
		}

		query = `
			UPDATE bookings
			SET status = $2, updated_at = now(), version = version + 1
			WHERE reference = $1
			RETURNING updated_at, version
		`

		err = tx.QueryRow(ctx, query, reference, status).Scan(&current.UpdatedAt, &current.Version)
		if err != nil {
			return err
		}

		if status == domain.BookingCancelled {
			err = releaseSeats(ctx, tx, current.ScreeningID, current.Seats)
			if err != nil {
				return err
			}
		}

		current.Status = status
		booking = current

		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

func (p *PostgresBookingRepository) UpdateSeats(
	ctx context.Context,
	reference string,
	seats []string) (*domain.Booking, error) {

	var booking *domain.Booking

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1 FOR UPDATE`

		current, err := scanBooking(tx.QueryRow(ctx, query, reference))
		if err != nil {
			return err
		}

		if current.Status != domain.BookingPending {
			return fmt.Errorf("%w: booking is %s", domain.ErrBookingNotEditable, current.Status)
		}

		query = `
			SELECT s.seats, s.booked_seats, s.blocked_seats,
				s.standard_price, s.premium_price, t.premium_rows
			FROM screenings s
			JOIN theaters t ON s.theater_id = t.id
			WHERE s.id = $1
			FOR UPDATE OF s
		`

		var (
			seatMap       domain.SeatMap
			standardPrice pgtype.Numeric
			premiumPrice  pgtype.Numeric
			premiumRows   []string
		)

		err = tx.QueryRow(ctx, query, current.ScreeningID).Scan(
			&seatMap.All,
			&seatMap.Booked,
			&seatMap.Blocked,
			&standardPrice,
			&premiumPrice,
			&premiumRows,
		)
		if err != nil {
			return err
		}

		// The booking's own seats are up for grabs again, so keeping an
		// overlapping selection is allowed.
		seatMap.Booked = without(seatMap.Booked, current.Seats)

		err = seatMap.Validate(seats)
		if err != nil {
			if errors.Is(err, domain.ErrSeatUnavailable) {
				return fmt.Errorf("%w (%v)", domain.ErrSeatConflict, err)
			}

			return err
		}

		schedule := domain.PriceSchedule{
			Standard:    numericToDecimal(standardPrice),
			Premium:     numericToDecimal(premiumPrice),
			PremiumRows: premiumRows,
		}
		total := schedule.Quote(seats)

		query = `
			UPDATE bookings
			SET seats = $2, total_price = $3, updated_at = now(), version = version + 1
			WHERE reference = $1
			RETURNING updated_at, version
		`

		err = tx.QueryRow(ctx, query, reference, seats, decimalToNumeric(total)).
			Scan(&current.UpdatedAt, &current.Version)
		if err != nil {
			return err
		}

		err = releaseSeats(ctx, tx, current.ScreeningID, current.Seats)
		if err != nil {
			return err
		}

		query = `
			UPDATE screenings
			SET booked_seats = booked_seats || $2::text[], version = version + 1
			WHERE id = $1
		`

		_, err = tx.Exec(ctx, query, current.ScreeningID, seats)
		if err != nil {
			return err
		}

		current.Seats = seats
		current.TotalPrice = total
		booking = current

		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// without returns codes with every element of exclude removed.
func without(codes, exclude []string) []string {
	drop := make(map[string]bool, len(exclude))
	for _, code := range exclude {
		drop[code] = true
	}

	kept := make([]string, 0, len(codes))
	for _, code := range codes {
		if !drop[code] {
			kept = append(kept, code)
		}
	}

	return kept
}

func (p *PostgresBookingRepository) Delete(ctx context.Context, reference string) error {
	return runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			DELETE FROM bookings
			WHERE reference = $1
			RETURNING screening_id, seats, status
		`

		var (
			screeningId int
			seats       []string
			status      domain.BookingStatus
		)

		err := tx.QueryRow(ctx, query, reference).Scan(&screeningId, &seats, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		// Cancelled bookings already gave their seats back.
		if status == domain.BookingCancelled {
			return nil
		}

		return releaseSeats(ctx, tx, screeningId, seats)
	})
}

func (p *PostgresBookingRepository) CancelStalePending(
	ctx context.Context,
	olderThan time.Time) ([]*domain.Booking, error) {

	cancelled := make([]*domain.Booking, 0)

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			SELECT ` + bookingColumns + `
			FROM bookings
			WHERE status = $1 AND created_at < $2
			FOR UPDATE SKIP LOCKED
		`

		rows, err := tx.Query(ctx, query, domain.BookingPending, olderThan)
		if err != nil {
			return err
		}

		stale := make([]*domain.Booking, 0)

		for rows.Next() {
			booking, err := scanBooking(rows)
			if err != nil {
				rows.Close()
				return err
			}

			stale = append(stale, booking)
		}
		rows.Close()

		if err = rows.Err(); err != nil {
			return err
		}

		for _, booking := range stale {
			query = `
				UPDATE bookings
				SET status = $2, updated_at = now(), version = version + 1
				WHERE id = $1
				RETURNING updated_at, version
			`

			err = tx.QueryRow(ctx, query, booking.ID, domain.BookingCancelled).
				Scan(&booking.UpdatedAt, &booking.Version)
			if err != nil {
				return err
			}

			err = releaseSeats(ctx, tx, booking.ScreeningID, booking.Seats)
			if err != nil {
				return err
			}

			booking.Status = domain.BookingCancelled
			cancelled = append(cancelled, booking)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}

// releaseSeats returns seats to the screening's available pool.
func releaseSeats(ctx context.Context, tx pgx.Tx, screeningId int, seats []string) error {
	query := `
		UPDATE screenings
		SET booked_seats = (
			SELECT COALESCE(array_agg(seat), '{}')
			FROM unnest(booked_seats) AS seat
			WHERE seat <> ALL($2::text[])
		), version = version + 1
		WHERE id = $1
	`

	_, err := tx.Exec(ctx, query, screeningId, seats)

	return err
}
