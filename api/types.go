// Package api contains the request and response types of the HTTP surface.
package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type RegisterRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=70"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,password"`
	Mobile     string `json:"mobile" validate:"required,min=7,max=20"`
	BirthDate  string `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	Profession string `json:"profession" validate:"max=100"`
	Location   string `json:"location" validate:"max=100"`
}

type UpdateUserRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=2,max=70"`
	Mobile     *string `json:"mobile" validate:"omitempty,min=7,max=20"`
	Profession *string `json:"profession" validate:"omitempty,max=100"`
	Location   *string `json:"location" validate:"omitempty,max=100"`
}

type UserResponse struct {
	Id         int       `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Mobile     string    `json:"mobile"`
	Profession string    `json:"profession,omitempty"`
	Location   string    `json:"location,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Version    int       `json:"version"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type MovieRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required"`
	Genre       string   `json:"genre" validate:"max=50"`
	Language    string   `json:"language" validate:"max=50"`
	Duration    int      `json:"duration" validate:"required,gt=0"`
	PosterUrl   string   `json:"posterUrl" validate:"omitempty,url"`
	ReleaseDate string   `json:"releaseDate" validate:"required,datetime=2006-01-02"`
	CastMembers []string `json:"castMembers" validate:"omitempty,dive,max=100"`
}

type MovieResponse struct {
	Id          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Genre       string    `json:"genre,omitempty"`
	Language    string    `json:"language,omitempty"`
	Duration    int       `json:"duration"`
	PosterUrl   string    `json:"posterUrl,omitempty"`
	ReleaseDate string    `json:"releaseDate"`
	CastMembers []string  `json:"castMembers,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Version     int       `json:"version"`
}

type MovieListResponse struct {
	Movies   []MovieResponse `json:"movies"`
	Metadata *Metadata       `json:"metadata,omitempty"`
}

type CreateScreeningRequest struct {
	TheaterId     int             `json:"theaterId" validate:"required,gt=0"`
	StartsAt      time.Time       `json:"startsAt" validate:"required"`
	StandardPrice decimal.Decimal `json:"standardPrice" validate:"required"`
	PremiumPrice  decimal.Decimal `json:"premiumPrice" validate:"required"`
}

// Seat is a single entry of a screening's seat map as presented to clients.
type Seat struct {
	Code      string          `json:"code"`
	Tier      string          `json:"tier"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
	Blocked   bool            `json:"blocked"`
}

type ScreeningResponse struct {
	Id            int             `json:"id"`
	MovieId       int             `json:"movieId"`
	MovieTitle    string          `json:"movieTitle"`
	TheaterId     int             `json:"theaterId"`
	TheaterName   string          `json:"theaterName"`
	StartsAt      time.Time       `json:"startsAt"`
	StandardPrice decimal.Decimal `json:"standardPrice"`
	PremiumPrice  decimal.Decimal `json:"premiumPrice"`
	Seats         []Seat          `json:"seats"`
	Version       int             `json:"version"`
}

type ScreeningSummary struct {
	Id          int       `json:"id"`
	MovieId     int       `json:"movieId"`
	MovieTitle  string    `json:"movieTitle"`
	TheaterId   int       `json:"theaterId"`
	TheaterName string    `json:"theaterName"`
	StartsAt    time.Time `json:"startsAt"`
	SeatsLeft   int       `json:"seatsLeft"`
}

type ScreeningListResponse struct {
	Screenings []ScreeningSummary `json:"screenings"`
	Metadata   *Metadata          `json:"metadata,omitempty"`
}

// UpdateSeatStateRequest blocks or unblocks seats on a screening. The
// version must match the screening's current version; replaying the same
// request against the resulting version is a no-op.
type UpdateSeatStateRequest struct {
	Block   []string `json:"block" validate:"omitempty,dive,seat_code"`
	Unblock []string `json:"unblock" validate:"omitempty,dive,seat_code"`
	Version int      `json:"version" validate:"gte=0"`
}

type SeatStateResponse struct {
	ScreeningId int      `json:"screeningId"`
	Booked      []string `json:"booked"`
	Blocked     []string `json:"blocked"`
	Version     int      `json:"version"`
}

type CreateHoldRequest struct {
	Seats []string `json:"seats" validate:"required,min=1,dive,seat_code"`
}

type HoldResponse struct {
	ScreeningId int      `json:"screeningId"`
	Seats       []string `json:"seats"`
	ExpiresIn   int      `json:"expiresIn"`
}

type CreateBookingRequest struct {
	ScreeningId int             `json:"screeningId" validate:"required,gt=0"`
	Seats       []string        `json:"seats" validate:"required,min=1,dive,seat_code"`
	TotalPrice  decimal.Decimal `json:"totalPrice" validate:"required"`
}

// UpdateBookingRequest changes the seat selection of a pending booking.
// The total price is requoted server-side from the new selection.
type UpdateBookingRequest struct {
	Seats []string `json:"seats" validate:"required,min=1,dive,seat_code"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,booking_status"`
}

type BookingResponse struct {
	Reference   string          `json:"reference"`
	UserId      int             `json:"userId"`
	ScreeningId int             `json:"screeningId"`
	MovieTitle  string          `json:"movieTitle"`
	TheaterName string          `json:"theaterName"`
	StartsAt    time.Time       `json:"startsAt"`
	Seats       []string        `json:"seats"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Status      string          `json:"status"`
	BookingDate time.Time       `json:"bookingDate"`
	Version     int             `json:"version"`

	// ScreeningVersion is the seat map version produced by the reservation
	// commit. Only set on creation responses.
	ScreeningVersion int `json:"screeningVersion,omitempty"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Metadata *Metadata         `json:"metadata,omitempty"`
}
