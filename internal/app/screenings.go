package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cinebook/cinema-booking-system/api"
	"github.com/cinebook/cinema-booking-system/internal/domain"
)

func (app *Application) GetScreenings(w http.ResponseWriter, r *http.Request) {
	filters := domain.ScreeningFilters{
		Pagination: app.readPagination(r),
	}
	filters.Sort = "starts_at"

	query := r.URL.Query()

	if theaterId, err := app.readQueryInt(query.Get("theaterId")); err == nil {
		filters.TheaterID = theaterId
	}

	if movieId, err := app.readQueryInt(query.Get("movieId")); err == nil {
		filters.MovieID = movieId
	}

	if date := query.Get("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("date must be in YYYY-MM-DD format"))
			return
		}
		filters.Date = &day
	}

	screenings, metadata, err := app.screeningRepo.GetAll(r.Context(), filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	summaries := make([]api.ScreeningSummary, len(screenings))
	for i, screening := range screenings {
		summaries[i] = api.ScreeningSummary{
			Id:          screening.ID,
			MovieId:     screening.MovieID,
			MovieTitle:  screening.MovieTitle,
			TheaterId:   screening.TheaterID,
			TheaterName: screening.TheaterName,
			StartsAt:    screening.StartsAt,
			SeatsLeft:   screening.SeatMap.SeatsLeft(),
		}
	}

	resp := api.ScreeningListResponse{
		Screenings: summaries,
		Metadata:   toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// GetScreening returns the full seat map of a screening. Seats locked by
// an active hold are shown as unavailable even though they are not booked
// yet.
func (app *Application) GetScreening(w http.ResponseWriter, r *http.Request) {
	screeningId, err := app.readIDParam(r, "screeningId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	screening, err := app.screeningRepo.GetById(r.Context(), screeningId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	heldSeats, err := app.validHoldSeats(r.Context(), screeningId)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiScreening(screening, heldSeats), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CreateScreening(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	movieId, err := app.readIDParam(r, "movieId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.CreateScreeningRequest

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

	if !input.StartsAt.After(time.Now()) {
		app.badRequestResponse(w, r, fmt.Errorf("startsAt must be in the future"))
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

	theater, err := app.theaterRepo.GetById(r.Context(), input.TheaterId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			logger.Warn("screening creation for unknown theater", "theater_id", input.TheaterId)
			app.badRequestResponse(w, r, fmt.Errorf("theater does not exist"))
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	screening := &domain.Screening{
		MovieID:     movie.ID,
		MovieTitle:  movie.Title,
		TheaterID:   theater.ID,
		TheaterName: theater.Name,
		StartsAt:    input.StartsAt,
		Price: domain.PriceSchedule{
			Standard:    input.StandardPrice,
			Premium:     input.PremiumPrice,
			PremiumRows: theater.PremiumRows,
		},
		SeatMap: domain.SeatMap{
			All: theater.Layout(),
		},
	}

	err = app.screeningRepo.Create(r.Context(), screening)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.notifier.Publish(r.Context(), domain.Event{
		Kind:    domain.EventShowtimeAdded,
		Payload: toApiScreening(screening, nil),
	})

	err = app.writeJSON(w, http.StatusCreated, toApiScreening(screening, nil), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// UpdateSeatState blocks or unblocks seats on a screening. The request
// carries the version the caller last saw; retrying the same request after
// a dropped response succeeds without applying the change twice.
func (app *Application) UpdateSeatState(w http.ResponseWriter, r *http.Request) {
	screeningId, err := app.readIDParam(r, "screeningId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.UpdateSeatStateRequest

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

	if len(input.Block) == 0 && len(input.Unblock) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("at least one seat must be blocked or unblocked"))
		return
	}

	screening, err := app.screeningRepo.UpdateSeatState(r.Context(), screeningId, input.Version, input.Block, input.Unblock)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		case errors.Is(err, domain.ErrSeatUnknown):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, domain.ErrSeatUnavailable):
			app.editConflictResponseWithErr(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	resp := api.SeatStateResponse{
		ScreeningId: screening.ID,
		Booked:      screening.SeatMap.Booked,
		Blocked:     screening.SeatMap.Blocked,
		Version:     screening.Version,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) readQueryInt(value string) (int, error) {
	if value == "" {
		return 0, errors.New("empty value")
	}

	var n int
	_, err := fmt.Sscanf(value, "%d", &n)
	if err != nil || n < 1 {
		return 0, errors.New("invalid value")
	}

	return n, nil
}

func toApiScreening(screening *domain.Screening, heldSeats []string) api.ScreeningResponse {
	held := make(map[string]bool, len(heldSeats))
	for _, code := range heldSeats {
		held[code] = true
	}

	blocked := make(map[string]bool, len(screening.SeatMap.Blocked))
	for _, code := range screening.SeatMap.Blocked {
		blocked[code] = true
	}

	seats := make([]api.Seat, len(screening.SeatMap.All))
	for i, code := range screening.SeatMap.All {
		seats[i] = api.Seat{
			Code:      code,
			Tier:      string(screening.Price.Tier(code)),
			Price:     screening.Price.SeatPrice(code),
			Available: screening.SeatMap.Available(code) && !held[code],
			Blocked:   blocked[code],
		}
	}

	return api.ScreeningResponse{
		Id:            screening.ID,
		MovieId:       screening.MovieID,
		MovieTitle:    screening.MovieTitle,
		TheaterId:     screening.TheaterID,
		TheaterName:   screening.TheaterName,
		StartsAt:      screening.StartsAt,
		StandardPrice: screening.Price.Standard,
		PremiumPrice:  screening.Price.Premium,
		Seats:         seats,
		Version:       screening.Version,
	}
}
