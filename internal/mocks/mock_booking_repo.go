package mocks

import (
	"context"
	"time"

	"github.com/cinebook/cinema-booking-system/internal/domain"
)

type MockBookingRepo struct {
	domain.BookingRepository
	ReserveFunc             func(ctx context.Context, booking *domain.Booking) error
	GetByReferenceFunc      func(ctx context.Context, reference string) (*domain.Booking, error)
	GetByIdempotencyKeyFunc func(ctx context.Context, key string) (*domain.Booking, error)
	GetAllFunc              func(ctx context.Context, pagination domain.Pagination) ([]*domain.Booking, *domain.Metadata, error)
	GetByUserIdFunc         func(ctx context.Context, userId int, pagination domain.Pagination) ([]*domain.Booking, *domain.Metadata, error)
	UpdateStatusFunc        func(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error)
	UpdateSeatsFunc         func(ctx context.Context, reference string, seats []string) (*domain.Booking, error)
	DeleteFunc              func(ctx context.Context, reference string) error
	CancelStalePendingFunc  func(ctx context.Context, olderThan time.Time) ([]*domain.Booking, error)
}

func (m *MockBookingRepo) Reserve(ctx context.Context, booking *domain.Booking) error {
	return m.ReserveFunc(ctx, booking)
}

func (m *MockBookingRepo) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return m.GetByReferenceFunc(ctx, reference)
}

func (m *MockBookingRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	return m.GetByIdempotencyKeyFunc(ctx, key)
}

func (m *MockBookingRepo) GetAll(ctx context.Context, pagination domain.Pagination) ([]*domain.Booking, *domain.Metadata, error) {
	return m.GetAllFunc(ctx, pagination)
}

func (m *MockBookingRepo) GetByUserId(ctx context.Context, userId int, pagination domain.Pagination) ([]*domain.Booking, *domain.Metadata, error) {
	return m.GetByUserIdFunc(ctx, userId, pagination)
}

func (m *MockBookingRepo) UpdateStatus(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error) {
	return m.UpdateStatusFunc(ctx, reference, status)
}

func (m *MockBookingRepo) UpdateSeats(ctx context.Context, reference string, seats []string) (*domain.Booking, error) {
	return m.UpdateSeatsFunc(ctx, reference, seats)
}

func (m *MockBookingRepo) Delete(ctx context.Context, reference string) error {
	return m.DeleteFunc(ctx, reference)
}

func (m *MockBookingRepo) CancelStalePending(ctx context.Context, olderThan time.Time) ([]*domain.Booking, error) {
	return m.CancelStalePendingFunc(ctx, olderThan)
}
