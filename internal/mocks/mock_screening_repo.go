package mocks

import (
	"context"

	"github.com/cinebook/cinema-booking-system/internal/domain"
)

type MockScreeningRepo struct {
	domain.ScreeningRepository
	GetAllFunc          func(ctx context.Context, filters domain.ScreeningFilters) ([]*domain.Screening, *domain.Metadata, error)
	GetByIdFunc         func(ctx context.Context, id int) (*domain.Screening, error)
	CreateFunc          func(ctx context.Context, screening *domain.Screening) error
	UpdateSeatStateFunc func(ctx context.Context, id, version int, block, unblock []string) (*domain.Screening, error)
}

func (m *MockScreeningRepo) GetAll(ctx context.Context, filters domain.ScreeningFilters) ([]*domain.Screening, *domain.Metadata, error) {
	return m.GetAllFunc(ctx, filters)
}

func (m *MockScreeningRepo) GetById(ctx context.Context, id int) (*domain.Screening, error) {
	return m.GetByIdFunc(ctx, id)
}

func (m *MockScreeningRepo) Create(ctx context.Context, screening *domain.Screening) error {
	return m.CreateFunc(ctx, screening)
}

func (m *MockScreeningRepo) UpdateSeatState(ctx context.Context, id, version int, block, unblock []string) (*domain.Screening, error) {
	return m.UpdateSeatStateFunc(ctx, id, version, block, unblock)
}

type MockTheaterRepo struct {
	domain.TheaterRepository
	GetByIdFunc func(ctx context.Context, id int) (*domain.Theater, error)
	GetAllFunc  func(ctx context.Context) ([]*domain.Theater, error)
}

func (m *MockTheaterRepo) GetById(ctx context.Context, id int) (*domain.Theater, error) {
	return m.GetByIdFunc(ctx, id)
}

func (m *MockTheaterRepo) GetAll(ctx context.Context) ([]*domain.Theater, error) {
	return m.GetAllFunc(ctx)
}
