package mocks

import (
	"context"
	"sync"

	"github.com/cinebook/cinema-booking-system/internal/domain"
)

// MockNotifier records published events for assertions.
type MockNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *MockNotifier) Publish(ctx context.Context, event domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)
}

func (m *MockNotifier) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]domain.Event(nil), m.events...)
}
