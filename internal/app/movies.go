package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/cinebook/cinema-booking-system/api"
	"github.com/cinebook/cinema-booking-system/internal/domain"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	DefaultSort     = "id"
	MaxPageSize     = 100
)

func (app *Application) GetMovies(w http.ResponseWriter, r *http.Request) {
	pagination := app.readPagination(r)
	pagination.Term = r.URL.Query().Get("term")

	movies, metadata, err := app.movieRepo.GetAll(r.Context(), pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	apiMovies := make([]api.MovieResponse, len(movies))
	for i, movie := range movies {
		apiMovies[i] = toApiMovie(movie)
	}

	resp := api.MovieListResponse{
		Movies:   apiMovies,
		Metadata: toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetMovie(w http.ResponseWriter, r *http.Request) {
	movieId, err := app.readIDParam(r, "movieId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	movie, err := app.movieRepo.GetById(r.Context(), movieId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiMovie(movie), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateMovie(w http.ResponseWriter, r *http.Request) {
	var input api.MovieRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	movie, err := toDomainMovie(input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.movieRepo.Create(r.Context(), movie)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.notifier.Publish(r.Context(), domain.Event{
		Kind:    domain.EventMovieAdded,
		Payload: toApiMovie(movie),
	})

	err = app.writeJSON(w, http.StatusCreated, toApiMovie(movie), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	movieId, err := app.readIDParam(r, "movieId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.MovieRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	movie, err := app.movieRepo.GetById(r.Context(), movieId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	updated, err := toDomainMovie(input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updated.ID = movie.ID
	updated.CreatedAt = movie.CreatedAt
	updated.Version = movie.Version

	err = app.movieRepo.Update(r.Context(), updated)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.notifier.Publish(r.Context(), domain.Event{
		Kind:    domain.EventMovieUpdated,
		Payload: toApiMovie(updated),
	})

	err = app.writeJSON(w, http.StatusOK, toApiMovie(updated), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	movieId, err := app.readIDParam(r, "movieId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.movieRepo.Delete(r.Context(), movieId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.notifier.Publish(r.Context(), domain.Event{
		Kind:    domain.EventMovieDeleted,
		Payload: map[string]any{"id": movieId},
	})

	w.WriteHeader(http.StatusNoContent)
}

func toDomainMovie(input api.MovieRequest) (*domain.Movie, error) {
	releaseDate, err := time.Parse("2006-01-02", input.ReleaseDate)
	if err != nil {
		return nil, errors.New("invalid release date")
	}

	return &domain.Movie{
		Title:       input.Title,
		Description: input.Description,
		Genre:       input.Genre,
		Language:    input.Language,
		Duration:    input.Duration,
		PosterUrl:   input.PosterUrl,
		ReleaseDate: releaseDate,
		CastMembers: input.CastMembers,
	}, nil
}

func toApiMovie(movie *domain.Movie) api.MovieResponse {
	return api.MovieResponse{
		Id:          movie.ID,
		Title:       movie.Title,
		Description: movie.Description,
		Genre:       movie.Genre,
		Language:    movie.Language,
		Duration:    movie.Duration,
		PosterUrl:   movie.PosterUrl,
		ReleaseDate: movie.ReleaseDate.Format("2006-01-02"),
		CastMembers: movie.CastMembers,
		CreatedAt:   movie.CreatedAt,
		Version:     movie.Version,
	}
}
