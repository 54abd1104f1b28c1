package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cinebook/cinema-booking-system/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresMovieRepository struct {
	db *pgxpool.Pool
}

func NewPostgresMovieRepository(db *pgxpool.Pool) *PostgresMovieRepository {
	return &PostgresMovieRepository{
		db: db,
	}
}

func (p *PostgresMovieRepository) GetAll(
	ctx context.Context,
	pagination domain.Pagination) ([]*domain.Movie, *domain.Metadata, error) {

	query := fmt.Sprintf(`
		SELECT count(*) OVER(), id, title, description, genre, language,
			duration, poster_url, release_date, cast_members, created_at, version
		FROM movies
		WHERE ((to_tsvector('english', title) @@ plainto_tsquery('english', $1)
			OR to_tsvector('english', description) @@ plainto_tsquery('english', $1))
			OR $1 = '')
		ORDER BY %s %s
		LIMIT $2 OFFSET $3`, pagination.SortColumn(), pagination.SortDirection())

	rows, err := p.db.Query(ctx, query, pagination.Term, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	totalRecords := 0
	movies := []*domain.Movie{}

	for rows.Next() {
		var movie domain.Movie

		err := rows.Scan(
			&totalRecords,
			&movie.ID,
			&movie.Title,
			&movie.Description,
			&movie.Genre,
			&movie.Language,
			&movie.Duration,
			&movie.PosterUrl,
			&movie.ReleaseDate,
			&movie.CastMembers,
			&movie.CreatedAt,
			&movie.Version,
		)
		if err != nil {
			return nil, nil, err
		}

		movies = append(movies, &movie)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return movies, metadata, nil
}

func (p *PostgresMovieRepository) GetById(ctx context.Context, id int) (*domain.Movie, error) {
	query := `
		SELECT id, title, description, genre, language, duration, poster_url,
			release_date, cast_members, created_at, version
		FROM movies
		WHERE id = $1
	`

	var movie domain.Movie

	err := p.db.QueryRow(ctx, query, id).Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.Genre,
		&movie.Language,
		&movie.Duration,
		&movie.PosterUrl,
		&movie.ReleaseDate,
		&movie.CastMembers,
		&movie.CreatedAt,
		&movie.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &movie, nil
}

func (p *PostgresMovieRepository) Create(ctx context.Context, movie *domain.Movie) error {
	query := `
		INSERT INTO movies
			(title, description, genre, language, duration, poster_url, release_date, cast_members)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, version
	`

	return p.db.QueryRow(ctx, query,
		movie.Title,
		movie.Description,
		movie.Genre,
		movie.Language,
		movie.Duration,
		movie.PosterUrl,
		movie.ReleaseDate,
		movie.CastMembers,
	).Scan(&movie.ID, &movie.CreatedAt, &movie.Version)
}

func (p *PostgresMovieRepository) Update(ctx context.Context, movie *domain.Movie) error {
	query := `
		UPDATE movies
		SET title = $1, description = $2, genre = $3, language = $4, duration = $5,
			poster_url = $6, release_date = $7, cast_members = $8, version = version + 1
		WHERE id = $9 AND version = $10
		RETURNING version
	`

	err := p.db.QueryRow(ctx, query,
		movie.Title,
		movie.Description,
		movie.Genre,
		movie.Language,
		movie.Duration,
		movie.PosterUrl,
		movie.ReleaseDate,
		movie.CastMembers,
		movie.ID,
		movie.Version,
	).Scan(&movie.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEditConflict
		}

		return err
	}

	return nil
}

func (p *PostgresMovieRepository) Delete(ctx context.Context, id int) error {
	result, err := p.db.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}
