package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cinebook/cinema-booking-system/api"
	"github.com/cinebook/cinema-booking-system/internal/domain"
	"github.com/redis/go-redis/v9"
)

var holdSeatsScript = redis.NewScript(`
    -- KEYS = seat hold keys (e.g., seat_hold:123:A1, seat_hold:123:A2 etc.)
    -- ARGV = [sessionID, ttl]

    for i=1, #KEYS do
        if redis.call("EXISTS", KEYS[i]) == 1 then
            return {err = "seat already held"} -- Return an error indicator
        end
    end

    for i=1, #KEYS do
        redis.call("SET", KEYS[i], ARGV[1], "EX", ARGV[2])
    end

    return "OK"
`)

// Cleans up expired seat holds and returns the currently held seat codes.
var filterValidHoldSeats = redis.NewScript(`
	local setKey = KEYS[1]
	local screeningId = ARGV[1]
	local cursor = "0"
	local batchSize = 100
	local expiredSeats = {}
	local validSeats = {}

	repeat
		local result = redis.call("SSCAN", setKey, cursor, "COUNT", batchSize)
		cursor = result[1]
		local seats = result[2]

		for _, seat in ipairs(seats) do
			local holdKey = "seat_hold:" .. screeningId .. ":" .. seat
			if redis.call("EXISTS", holdKey) == 0 then
				table.insert(expiredSeats, seat)
			else
				table.insert(validSeats, seat)
			end
		end
	until cursor == "0"

	if #expiredSeats > 0 then
		redis.call("SREM", setKey, unpack(expiredSeats))
	end

	return validSeats
`)

type sessionHold struct {
	ScreeningID int      `json:"screeningId"`
	Seats       []string `json:"seats"`
}

// CreateHold takes a short-lived hold on a seat selection so the seats
// stay reserved for this session while the user completes the booking.
// Holds expire on their own; only the eventual booking commit is
// authoritative.
func (app *Application) CreateHold(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	screeningId, err := app.readIDParam(r, "screeningId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.CreateHoldRequest

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

	sessionID := app.sessionManager.Token(r.Context())

	existing, err := app.redis.Get(r.Context(), holdSessionKey(sessionID)).Result()
	if err != nil && err != redis.Nil {
		logger.Error("failed to check for existing hold in redis", "error", err)
		app.serverErrorResponse(w, r, err)
		return
	}

	if existing != "" {
		logger.Warn("hold creation attempt rejected: a hold already exists for this session")
		app.badRequestResponse(w, r, fmt.Errorf("cannot create new hold if a hold already exists in session"))
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

	err = screening.SeatMap.Validate(input.Seats)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSeatUnknown):
			logger.Warn("hold creation failed: unknown seat requested", "seats", input.Seats)
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrSeatUnavailable):
			logger.Warn("hold creation conflict: user selected an already booked seat")
			app.editConflictResponseWithErr(w, r, fmt.Errorf("some of the selected seats are already taken"))
		default:
			app.badRequestResponse(w, r, err)
		}

		return
	}

	err = app.tryHoldSeats(r.Context(), input.Seats, screeningId, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSeatHeld):
			logger.Warn("hold creation conflict due to race condition: user selected an already held seat")
			app.editConflictResponseWithErr(w, r, fmt.Errorf("some of the selected seats are already taken"))
		default:
			app.serverErrorResponse(w, r, fmt.Errorf("seats couldn't be acquired: %w", err))
		}

		return
	}

	err = app.storeSessionHold(r.Context(), screeningId, input.Seats, sessionID)
	if err != nil {
		logger.Error("hold creation process failed", "error", err)
		app.serverErrorResponse(w, r, fmt.Errorf("hold couldn't be created: %w", err))
		return
	}

	resp := api.HoldResponse{
		ScreeningId: screeningId,
		Seats:       input.Seats,
		ExpiresIn:   int(app.holdTTL().Seconds()),
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) DeleteHold(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	screeningId, err := app.readIDParam(r, "screeningId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sessionID := app.sessionManager.Token(r.Context())

	holdBytes, err := app.redis.Get(r.Context(), holdSessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	var hold sessionHold

	err = json.Unmarshal(holdBytes, &hold)
	if err != nil {
		logger.Error("failed to unmarshal hold from redis", "error", err)
		app.serverErrorResponse(w, r, err)
		return
	}

	if hold.ScreeningID != screeningId {
		logger.Warn("hold deletion attempt with mismatched screening ID in URL",
			"url_screening_id", screeningId,
			"hold_screening_id", hold.ScreeningID,
		)
		app.notFoundResponse(w, r)
		return
	}

	app.releaseSeatHolds(r.Context(), hold.ScreeningID, hold.Seats, sessionID)

	w.WriteHeader(http.StatusNoContent)
}

func (app *Application) tryHoldSeats(ctx context.Context, seats []string, screeningID int, sessionID string) error {
	keys := make([]string, len(seats))
	for i, code := range seats {
		keys[i] = seatHoldKey(screeningID, code)
	}

	err := holdSeatsScript.Run(ctx, app.redis, keys, sessionID, int(app.holdTTL().Seconds())).Err()
	if err != nil {
		if redis.HasErrorPrefix(err, "seat already held") {
			return domain.ErrSeatHeld
		}

		return err
	}

	return nil
}

func (app *Application) storeSessionHold(ctx context.Context, screeningID int, seats []string, sessionID string) error {
	hold := sessionHold{
		ScreeningID: screeningID,
		Seats:       seats,
	}

	holdBytes, err := json.Marshal(hold)
	if err != nil {
		app.releaseSeatHolds(ctx, screeningID, seats, sessionID)
		return err
	}

	pipe := app.redis.TxPipeline()

	seatInterfaces := make([]interface{}, len(seats))
	for i, code := range seats {
		seatInterfaces[i] = code
	}
	pipe.SAdd(ctx, seatHoldSetKey(screeningID), seatInterfaces...)
	pipe.Set(ctx, holdSessionKey(sessionID), holdBytes, app.holdTTL())

	_, err = pipe.Exec(ctx)
	if err != nil {
		app.releaseSeatHolds(ctx, screeningID, seats, sessionID)
		return err
	}

	return nil
}

func (app *Application) releaseSeatHolds(ctx context.Context, screeningID int, seats []string, sessionID string) {
	holdKeys := make([]string, 0, len(seats)+1)
	seatInterfaces := make([]interface{}, len(seats))

	for i, code := range seats {
		holdKeys = append(holdKeys, seatHoldKey(screeningID, code))
		seatInterfaces[i] = code
	}
	holdKeys = append(holdKeys, holdSessionKey(sessionID))

	pipe := app.redis.TxPipeline()
	pipe.Del(ctx, holdKeys...)
	pipe.SRem(ctx, seatHoldSetKey(screeningID), seatInterfaces...)

	_, err := pipe.Exec(ctx)
	if err != nil {
		app.logger.Error("failed to release seat holds", "error", err)
		return
	}
}

// validHoldSeats returns the seats of a screening under an active hold,
// pruning expired entries from the hold set as a side effect.
func (app *Application) validHoldSeats(ctx context.Context, screeningID int) ([]string, error) {
	cmd := filterValidHoldSeats.Run(ctx, app.redis, []string{seatHoldSetKey(screeningID)}, screeningID)
	heldSeats, err := cmd.StringSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to run filterValidHoldSeats script: %w", err)
	}

	return heldSeats, nil
}

func (app *Application) holdTTL() time.Duration {
	if app.config.HoldTTL > 0 {
		return app.config.HoldTTL
	}

	return 10 * time.Minute
}

func holdSessionKey(sessionID string) string {
	return fmt.Sprintf("hold:%s", sessionID)
}

func seatHoldKey(screeningID int, code string) string {
	return fmt.Sprintf("seat_hold:%d:%s", screeningID, code)
}

func seatHoldSetKey(screeningID int) string {
	return fmt.Sprintf("seat_holds:%d", screeningID)
}
