package domain

import "context"

type EventKind string

const (
	EventBookingCreated       EventKind = "bookingCreated"
	EventBookingUpdated       EventKind = "bookingUpdated"
	EventBookingStatusUpdated EventKind = "bookingStatusUpdated"
	EventBookingDeleted       EventKind = "bookingDeleted"
	EventMovieAdded           EventKind = "movieAdded"
	EventMovieUpdated         EventKind = "movieUpdated"
	EventMovieDeleted         EventKind = "movieDeleted"
	EventShowtimeAdded        EventKind = "showtimeAdded"
)

// Event is a change notification fanned out to connected observers. The
// payload is the changed entity, or its identifier for deletions.
type Event struct {
	Kind    EventKind `json:"kind"`
	Payload any       `json:"payload"`
}

// Notifier broadcasts events to subscribed observers. Delivery is best
// effort: implementations must never block the caller and never surface
// publish failures as request errors.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}
