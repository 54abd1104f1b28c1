package repository

import (
	"context"
	"errors"

	"github.com/cinebook/cinema-booking-system/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresTheaterRepository struct {
	db *pgxpool.Pool
}

func NewPostgresTheaterRepository(db *pgxpool.Pool) *PostgresTheaterRepository {
	return &PostgresTheaterRepository{
		db: db,
	}
}

func (p *PostgresTheaterRepository) GetById(ctx context.Context, id int) (*domain.Theater, error) {
	query := `
		SELECT id, name, location, seat_rows, seats_per_row, premium_rows
		FROM theaters
		WHERE id = $1
	`

	var theater domain.Theater

	err := p.db.QueryRow(ctx, query, id).Scan(
		&theater.ID,
		&theater.Name,
		&theater.Location,
		&theater.SeatRows,
		&theater.SeatsPerRow,
		&theater.PremiumRows,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &theater, nil
}

func (p *PostgresTheaterRepository) GetAll(ctx context.Context) ([]*domain.Theater, error) {
	query := `
		SELECT id, name, location, seat_rows, seats_per_row, premium_rows
		FROM theaters
		ORDER BY name
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	theaters := make([]*domain.Theater, 0)

	for rows.Next() {
		var theater domain.Theater

		err := rows.Scan(
			&theater.ID,
			&theater.Name,
			&theater.Location,
			&theater.SeatRows,
			&theater.SeatsPerRow,
			&theater.PremiumRows,
		)
		if err != nil {
			return nil, err
		}

		theaters = append(theaters, &theater)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return theaters, nil
}
