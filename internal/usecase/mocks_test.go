package usecase_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/vitos/riskbox/internal/domain"
)

// MockBroker records submissions and lets tests drive fills synchronously.
type MockBroker struct {
	mu        sync.Mutex
	Requests  []domain.OrderRequest
	OrderIDs  []string
	FailNext  int // rejects the next N submissions at the call site
	callbacks []func(domain.OrderUpdate)
	nextID    int
}

func (m *MockBroker) SubmitOrder(ctx context.Context, req domain.OrderRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailNext > 0 {
		m.FailNext--
		return "", fmt.Errorf("broker unavailable")
	}

	m.nextID++
	id := fmt.Sprintf("order-%d", m.nextID)
	m.Requests = append(m.Requests, req)
	m.OrderIDs = append(m.OrderIDs, id)
	return id, nil
}

func (m *MockBroker) OnOrderUpdate(callback func(domain.OrderUpdate)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// Emit pushes an update through the registered callbacks, like a venue would.
func (m *MockBroker) Emit(u domain.OrderUpdate) {
	m.mu.Lock()
	callbacks := make([]func(domain.OrderUpdate), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(u)
	}
}

func (m *MockBroker) LastRequest() domain.OrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Requests[len(m.Requests)-1]
}

func (m *MockBroker) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockAccount returns a fixed balance for any currency.
type MockAccount struct {
	FixedBalance float64
}

func (m *MockAccount) Balance(currency string) float64 {
	return m.FixedBalance
}

// MockJournal collects journal writes in memory.
type MockJournal struct {
	mu      sync.Mutex
	Entries []*domain.JournalEntry
	Updates map[string]domain.OrderState
}

func NewMockJournal() *MockJournal {
	return &MockJournal{Updates: make(map[string]domain.OrderState)}
}

func (m *MockJournal) RecordOrder(ctx context.Context, entry *domain.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockJournal) UpdateOrderState(ctx context.Context, orderID string, state domain.OrderState, fillPrice float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates[orderID] = state
	return nil
}

func (m *MockJournal) ListOrders(ctx context.Context, limit int) ([]*domain.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Entries, nil
}

// MockStateRepo is an in-memory ToolStateRepository.
type MockStateRepo struct {
	mu    sync.Mutex
	State *domain.ToolState
}

func (m *MockStateRepo) SaveToolState(ctx context.Context, state *domain.ToolState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *state
	m.State = &copied
	return nil
}

func (m *MockStateRepo) Saved() *domain.ToolState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.State == nil {
		return nil
	}
	copied := *m.State
	return &copied
}

func (m *MockStateRepo) LoadToolState(ctx context.Context) (*domain.ToolState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.State == nil {
		return nil, nil
	}
	copied := *m.State
	return &copied, nil
}
