package domain

import "time"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// OrderAction is the broker-facing buy/sell, as opposed to the setup direction.
type OrderAction string

const (
	ActionBuy  OrderAction = "BUY"
	ActionSell OrderAction = "SELL"
)

// EntryAction maps a setup direction to the action that opens it.
func (s Side) EntryAction() OrderAction {
	if s == SideLong {
		return ActionBuy
	}
	return ActionSell
}

// ExitAction maps a setup direction to the action that closes it.
func (s Side) ExitAction() OrderAction {
	if s == SideLong {
		return ActionSell
	}
	return ActionBuy
}

type OrderType string

const (
	OrderTypeMarket     OrderType = "MARKET"
	OrderTypeLimit      OrderType = "LIMIT"
	OrderTypeStopMarket OrderType = "STOP_MARKET"
)

type OrderState string

const (
	OrderStateSubmitted OrderState = "SUBMITTED"
	OrderStateWorking   OrderState = "WORKING"
	OrderStateFilled    OrderState = "FILLED"
	OrderStateCancelled OrderState = "CANCELLED"
	OrderStateRejected  OrderState = "REJECTED"
)

// OrderRequest is a single order handed to the broker. Orders sharing a
// LinkID are an OCO group: a fill or cancel of one cancels the others.
type OrderRequest struct {
	Action     OrderAction
	Type       OrderType
	Quantity   int
	LimitPrice float64
	StopPrice  float64
	LinkID     string
	Label      string
}

// OrderUpdate is the asynchronous result channel for submitted orders.
type OrderUpdate struct {
	OrderID   string
	State     OrderState
	FillPrice float64
	FilledQty int
	Err       string
}

// JournalEntry records one order submission and its latest known state.
type JournalEntry struct {
	ID         int64      `json:"id"`
	OrderID    string     `json:"order_id"`
	Label      string     `json:"label"`
	Action     string     `json:"action"`
	OrderType  string     `json:"order_type"`
	Quantity   int        `json:"quantity"`
	LimitPrice float64    `json:"limit_price"`
	StopPrice  float64    `json:"stop_price"`
	FillPrice  float64    `json:"fill_price"`
	State      OrderState `json:"state"`
	LinkID     string     `json:"link_id"`
	CreatedAt  time.Time  `json:"created_at"`
}
