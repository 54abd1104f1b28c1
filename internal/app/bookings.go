package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cinebook/cinema-booking-system/api"
	"github.com/cinebook/cinema-booking-system/internal/domain"
	"github.com/go-chi/chi/v5"
)

const idempotencyKeyHeader = "Idempotency-Key"

// CreateBooking validates the seat selection and its price, then commits
// the reservation atomically. Concurrent requests for overlapping seats
// resolve to exactly one winner; the loser gets a conflict and a fresh
// seat map to choose from.
func (app *Application) CreateBooking(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	userId := app.contextGetUserId(r)

	var input api.CreateBookingRequest

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

	booking := &domain.Booking{
		UserID:         userId,
		ScreeningID:    input.ScreeningId,
		Seats:          input.Seats,
		TotalPrice:     input.TotalPrice,
		IdempotencyKey: r.Header.Get(idempotencyKeyHeader),
	}

	err = app.bookingRepo.Reserve(r.Context(), booking)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrSeatUnknown), errors.Is(err, domain.ErrNoSeatsSelected):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, domain.ErrSeatConflict):
			logger.Warn("booking conflict: selected seats were taken", "screening_id", input.ScreeningId)
			app.metrics.SeatConflicts.Add(r.Context(), 1)
			app.editConflictResponseWithErr(w, r, err)
		case errors.Is(err, domain.ErrPriceMismatch):
			app.badRequestResponse(w, r, err)
		default:
			logger.Error("failed to reserve seats", "error", err)
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.metrics.BookingsReserved.Add(r.Context(), 1)

	// The hold served its purpose; drop it so the session can book again.
	app.releaseOwnHold(r, booking.ScreeningID, booking.Seats)

	app.notifier.Publish(r.Context(), domain.Event{
		Kind:    domain.EventBookingCreated,
		Payload: toApiBooking(booking),
	})

	resp := toApiBooking(booking)
	resp.ScreeningVersion = booking.ScreeningVersion

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookings(w http.ResponseWriter, r *http.Request) {
	pagination := app.readPagination(r)

	bookings, metadata, err := app.bookingRepo.GetAll(r.Context(), pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiBookingList(bookings, metadata), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBookingsOfUser(w http.ResponseWriter, r *http.Request) {
	userId, err := app.readIDParam(r, "userId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if userId != app.contextGetUserId(r) {
		app.unauthorizedAccessResponse(w, r)
		return
	}

	pagination := app.readPagination(r)

	bookings, metadata, err := app.bookingRepo.GetByUserId(r.Context(), userId, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiBookingList(bookings, metadata), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetBooking(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	booking, err := app.bookingRepo.GetByReference(r.Context(), reference)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if booking.UserID != app.contextGetUserId(r) {
		app.notFoundResponse(w, r)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiBooking(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	reference := chi.URLParam(r, "reference")

	var input api.UpdateBookingStatusRequest

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

	if !app.ownsBooking(w, r, reference) {
		return
	}

	booking, err := app.bookingRepo.UpdateStatus(r.Context(), reference, domain.BookingStatus(input.Status))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrInvalidStatusTransition):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, domain.ErrEditConflict):
			app.editConflictResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if booking.Status == domain.BookingConfirmed {
		app.sendBookingConfirmation(r, booking)
	}

	app.notifier.Publish(r.Context(), domain.Event{
		Kind:    domain.EventBookingStatusUpdated,
		Payload: toApiBooking(booking),
	})

	logger.Info("booking status updated", "reference", reference, "status", booking.Status)

	err = app.writeJSON(w, http.StatusOK, toApiBooking(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// UpdateBooking swaps the seat selection of the caller's pending booking.
// The price is requoted from the new seats; the freed seats go back to
// the pool in the same transaction that claims the new ones.
func (app *Application) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	reference := chi.URLParam(r, "reference")

	var input api.UpdateBookingRequest

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

	if !app.ownsBooking(w, r, reference) {
		return
	}

	booking, err := app.bookingRepo.UpdateSeats(r.Context(), reference, input.Seats)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrBookingNotEditable):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, domain.ErrSeatUnknown):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, domain.ErrSeatConflict):
			app.metrics.SeatConflicts.Add(r.Context(), 1)
			app.editConflictResponseWithErr(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	app.notifier.Publish(r.Context(), domain.Event{
		Kind:    domain.EventBookingUpdated,
		Payload: toApiBooking(booking),
	})

	logger.Info("booking seats updated", "reference", reference)

	err = app.writeJSON(w, http.StatusOK, toApiBooking(booking), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	if !app.ownsBooking(w, r, reference) {
		return
	}

	err := app.bookingRepo.Delete(r.Context(), reference)
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
		Kind:    domain.EventBookingDeleted,
		Payload: map[string]any{"reference": reference},
	})

	w.WriteHeader(http.StatusNoContent)
}

// ownsBooking checks that the booking exists and belongs to the session
// user, writing the error response itself when it does not. A foreign
// booking reads as not found so references cannot be enumerated.
func (app *Application) ownsBooking(w http.ResponseWriter, r *http.Request, reference string) bool {
	booking, err := app.bookingRepo.GetByReference(r.Context(), reference)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return false
	}

	if booking.UserID != app.contextGetUserId(r) {
		app.notFoundResponse(w, r)
		return false
	}

	return true
}

// releaseOwnHold drops the session's hold after a successful booking when
// the hold covers the booked screening. Best effort.
func (app *Application) releaseOwnHold(r *http.Request, screeningID int, seats []string) {
	sessionID := app.sessionManager.Token(r.Context())
	if sessionID == "" {
		return
	}

	holdBytes, err := app.redis.Get(r.Context(), holdSessionKey(sessionID)).Bytes()
	if err != nil {
		return
	}

	var hold sessionHold
	if json.Unmarshal(holdBytes, &hold) != nil || hold.ScreeningID != screeningID {
		return
	}

	app.releaseSeatHolds(r.Context(), hold.ScreeningID, hold.Seats, sessionID)
}

func (app *Application) sendBookingConfirmation(r *http.Request, booking *domain.Booking) {
	user, err := app.userRepo.GetById(r.Context(), booking.UserID)
	if err != nil {
		app.contextGetLogger(r).Error("failed to load user for confirmation email", "error", err)
		return
	}

	go func(ctx context.Context) {
		gLogger := app.contextGetLogger(r.WithContext(ctx))

		defer func() {
			if err := recover(); err != nil {
				gLogger.Error("panic occurred during sending confirmation mail", "panic", err)
			}
		}()

		data := map[string]any{
			"name":        user.Name,
			"reference":   booking.Reference,
			"movieTitle":  booking.MovieTitle,
			"theaterName": booking.TheaterName,
			"startsAt":    booking.StartsAt.Format(time.RFC1123),
			"seats":       strings.Join(booking.Seats, ", "),
			"totalPrice":  booking.TotalPrice.StringFixed(2),
		}

		err := app.mailer.Send(user.Email, "booking_confirmation.tmpl", data)
		if err != nil {
			gLogger.Error("failed to send confirmation email", "error", err)
		} else {
			gLogger.Info("confirmation email sent successfully", "reference", booking.Reference)
		}
	}(context.WithoutCancel(r.Context()))
}

func toApiBooking(booking *domain.Booking) api.BookingResponse {
	return api.BookingResponse{
		Reference:   booking.Reference,
		UserId:      booking.UserID,
		ScreeningId: booking.ScreeningID,
		MovieTitle:  booking.MovieTitle,
		TheaterName: booking.TheaterName,
		StartsAt:    booking.StartsAt,
		Seats:       booking.Seats,
		TotalPrice:  booking.TotalPrice,
		Status:      string(booking.Status),
		BookingDate: booking.CreatedAt,
		Version:     booking.Version,
	}
}

func toApiBookingList(bookings []*domain.Booking, metadata *domain.Metadata) api.BookingListResponse {
	apiBookings := make([]api.BookingResponse, len(bookings))
	for i, booking := range bookings {
		apiBookings[i] = toApiBooking(booking)
	}

	return api.BookingListResponse{
		Bookings: apiBookings,
		Metadata: toApiMetadata(metadata),
	}
}
