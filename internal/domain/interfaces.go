package domain

import (
	"context"
	"time"
)

// Broker routes orders to the execution venue. SubmitOrder is fire-and-forget:
// it returns an order id immediately and all results (fills, rejections,
// cancels) arrive later through the registered update callbacks.
type Broker interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (string, error)
	OnOrderUpdate(callback func(OrderUpdate))
}

// AccountProvider exposes the read-only balance lookup used by
// percent-of-account sizing.
type AccountProvider interface {
	Balance(currency string) float64
}

// ToolState is the persisted slice of the tool: box placement and the three
// price levels, nothing else survives a restart.
type ToolState struct {
	BoxLeftX    float64
	BoxWidth    float64
	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	Visible     bool
	UpdatedAt   time.Time
}

// ToolStateRepository persists the single tool state row.
type ToolStateRepository interface {
	SaveToolState(ctx context.Context, state *ToolState) error
	// LoadToolState returns (nil, nil) when nothing has been saved yet.
	LoadToolState(ctx context.Context) (*ToolState, error)
}

// OrderJournal records submissions and their state transitions.
type OrderJournal interface {
	RecordOrder(ctx context.Context, entry *JournalEntry) error
	UpdateOrderState(ctx context.Context, orderID string, state OrderState, fillPrice float64) error
	ListOrders(ctx context.Context, limit int) ([]*JournalEntry, error)
}
