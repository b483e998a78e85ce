package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitos/riskbox/internal/domain"
)

type CoordinatorState string

const (
	CoordIdle           CoordinatorState = "IDLE"
	CoordEntrySubmitted CoordinatorState = "ENTRY_SUBMITTED"
	CoordBracketPlaced  CoordinatorState = "BRACKET_PLACED"
)

// orderRole resolves which transition an async update applies to. Roles are
// keyed by order id, never matched on labels.
type orderRole string

const (
	roleEntry     orderRole = "entry"
	roleStopLeg   orderRole = "stop-leg"
	roleTargetLeg orderRole = "target-leg"
)

const (
	labelEntry      = "Entry"
	labelStopLoss   = "StopLoss"
	labelTakeProfit = "TakeProfit"
)

// OrderTicket summarizes a submission for the confirmation step.
type OrderTicket struct {
	Direction   domain.Side      `json:"direction"`
	OrderType   domain.OrderType `json:"order_type"`
	Quantity    int              `json:"quantity"`
	Entry       float64          `json:"entry"`
	Stop        float64          `json:"stop"`
	Target      float64          `json:"target"`
	MarketPrice float64          `json:"market_price"`
	Risk        float64          `json:"risk"`
	Reward      float64          `json:"reward"`
	Ratio       float64          `json:"ratio"`
}

// ConfirmFunc gates a submission. Returning false aborts it with no side
// effects. A nil func means no confirmation step.
type ConfirmFunc func(OrderTicket) bool

// BracketCoordinator drives one submission cycle: entry order out, then on
// its fill an OCO-linked stop+target pair. Faults are surfaced and never
// retried; already-placed legs are never rolled back.
type BracketCoordinator struct {
	broker  domain.Broker
	journal domain.OrderJournal
	levels  *PriceLevelModel
	confirm ConfirmFunc
	log     *zap.Logger

	state    CoordinatorState
	roles    map[string]orderRole
	quantity int
	side     domain.Side

	entryLinkID   string
	bracketLinkID string
}

func NewBracketCoordinator(broker domain.Broker, journal domain.OrderJournal, levels *PriceLevelModel, confirm ConfirmFunc, log *zap.Logger) *BracketCoordinator {
	return &BracketCoordinator{
		broker:  broker,
		journal: journal,
		levels:  levels,
		confirm: confirm,
		log:     log,
		state:   CoordIdle,
		roles:   make(map[string]orderRole),
	}
}

func (c *BracketCoordinator) State() CoordinatorState {
	return c.state
}

// ClassifyEntry picks the entry order type from the configured entry price
// relative to the market: a long below the market rests as a limit, above it
// as a stop-market, and exactly at it goes straight to market. Shorts mirror.
func ClassifyEntry(side domain.Side, entryPrice, marketPrice float64) domain.OrderType {
	if side == domain.SideLong {
		switch {
		case entryPrice < marketPrice:
			return domain.OrderTypeLimit
		case entryPrice > marketPrice:
			return domain.OrderTypeStopMarket
		default:
			return domain.OrderTypeMarket
		}
	}
	switch {
	case entryPrice > marketPrice:
		return domain.OrderTypeLimit
	case entryPrice < marketPrice:
		return domain.OrderTypeStopMarket
	default:
		return domain.OrderTypeMarket
	}
}

// SubmitEntry classifies and submits the entry order at the configured entry
// price. Declining the confirmation returns to idle without submitting.
func (c *BracketCoordinator) SubmitEntry(ctx context.Context, side domain.Side, marketPrice float64) error {
	return c.submit(ctx, side, ClassifyEntry(side, c.levels.Entry, marketPrice), marketPrice)
}

// SubmitMarketEntry submits at market regardless of where the entry line sits.
func (c *BracketCoordinator) SubmitMarketEntry(ctx context.Context, side domain.Side, marketPrice float64) error {
	return c.submit(ctx, side, domain.OrderTypeMarket, marketPrice)
}

func (c *BracketCoordinator) submit(ctx context.Context, side domain.Side, orderType domain.OrderType, marketPrice float64) error {
	if c.state != CoordIdle {
		return fmt.Errorf("submission already in progress (state %s)", c.state)
	}
	if c.levels.Quantity < 1 {
		return fmt.Errorf("no computed quantity")
	}

	if c.confirm != nil {
		ticket := OrderTicket{
			Direction:   side,
			OrderType:   orderType,
			Quantity:    c.levels.Quantity,
			Entry:       c.levels.Entry,
			Stop:        c.levels.Stop,
			Target:      c.levels.Target,
			MarketPrice: marketPrice,
			Risk:        c.levels.RiskAmount,
			Reward:      c.levels.RewardAmount,
			Ratio:       c.levels.Ratio,
		}
		if !c.confirm(ticket) {
			c.log.Info("order declined by user", zap.String("side", string(side)))
			return nil
		}
	}

	req := domain.OrderRequest{
		Action:   side.EntryAction(),
		Type:     orderType,
		Quantity: c.levels.Quantity,
		LinkID:   uuid.NewString(),
		Label:    labelEntry,
	}
	switch orderType {
	case domain.OrderTypeLimit:
		req.LimitPrice = c.levels.Entry
	case domain.OrderTypeStopMarket:
		req.StopPrice = c.levels.Entry
	}

	orderID, err := c.broker.SubmitOrder(ctx, req)
	if err != nil {
		c.log.Error("entry submission failed", zap.Error(err))
		return fmt.Errorf("submit entry: %w", err)
	}

	c.state = CoordEntrySubmitted
	c.roles[orderID] = roleEntry
	c.quantity = req.Quantity
	c.side = side
	c.entryLinkID = req.LinkID

	c.log.Info("entry order submitted",
		zap.String("order_id", orderID),
		zap.String("side", string(side)),
		zap.String("type", string(orderType)),
		zap.Int("quantity", req.Quantity),
		zap.Float64("entry", c.levels.Entry))

	c.record(ctx, orderID, req)
	return nil
}

// HandleOrderUpdate applies an asynchronous broker notification. It is a
// no-op for order ids the coordinator does not own.
func (c *BracketCoordinator) HandleOrderUpdate(ctx context.Context, u domain.OrderUpdate) {
	role, ok := c.roles[u.OrderID]
	if !ok {
		return
	}

	if u.Err != "" {
		// Surfaced, not retried. The worst case is an entry fill with a
		// failed leg: the position is unprotected and the user must manage
		// it manually, so that gets the loudest log line.
		if role != roleEntry && c.state == CoordBracketPlaced {
			c.log.Error("bracket leg failed, position may be unprotected",
				zap.String("order_id", u.OrderID),
				zap.String("role", string(role)),
				zap.String("error", u.Err))
		} else {
			c.log.Error("order error",
				zap.String("order_id", u.OrderID),
				zap.String("role", string(role)),
				zap.String("error", u.Err))
		}
	}

	if c.journal != nil {
		if err := c.journal.UpdateOrderState(ctx, u.OrderID, u.State, u.FillPrice); err != nil {
			c.log.Warn("journal update failed", zap.Error(err))
		}
	}

	switch {
	case role == roleEntry && u.State == domain.OrderStateFilled && c.state == CoordEntrySubmitted:
		c.placeBracket(ctx, u)
	case role == roleEntry && (u.State == domain.OrderStateRejected || u.State == domain.OrderStateCancelled):
		c.log.Warn("entry order did not fill", zap.String("order_id", u.OrderID), zap.String("state", string(u.State)))
		c.reset()
	case role != roleEntry && (u.State == domain.OrderStateFilled || u.State == domain.OrderStateCancelled):
		delete(c.roles, u.OrderID)
		if !c.hasLegs() {
			c.reset()
		}
	}
}

// placeBracket submits the OCO pair against the just-filled entry: a
// stop-market at the stop price and a limit at the target price, both tagged
// with one fresh link id so either fill cancels the other. Prices are read
// from the live model, matching what the user sees at fill time.
func (c *BracketCoordinator) placeBracket(ctx context.Context, fill domain.OrderUpdate) {
	c.bracketLinkID = uuid.NewString()
	exit := c.side.ExitAction()

	quantity := c.quantity
	if fill.FilledQty > 0 {
		quantity = fill.FilledQty
	}

	stopReq := domain.OrderRequest{
		Action:    exit,
		Type:      domain.OrderTypeStopMarket,
		Quantity:  quantity,
		StopPrice: c.levels.Stop,
		LinkID:    c.bracketLinkID,
		Label:     labelStopLoss,
	}
	targetReq := domain.OrderRequest{
		Action:     exit,
		Type:       domain.OrderTypeLimit,
		Quantity:   quantity,
		LimitPrice: c.levels.Target,
		LinkID:     c.bracketLinkID,
		Label:      labelTakeProfit,
	}

	stopID, err := c.broker.SubmitOrder(ctx, stopReq)
	if err != nil {
		c.log.Error("stop leg submission failed, position unprotected", zap.Error(err))
	} else {
		c.roles[stopID] = roleStopLeg
		c.record(ctx, stopID, stopReq)
	}

	targetID, err := c.broker.SubmitOrder(ctx, targetReq)
	if err != nil {
		c.log.Error("target leg submission failed", zap.Error(err))
	} else {
		c.roles[targetID] = roleTargetLeg
		c.record(ctx, targetID, targetReq)
	}

	delete(c.roles, fill.OrderID)
	if !c.hasLegs() {
		// Both legs rejected at submission: nothing left to track.
		c.reset()
		return
	}
	c.state = CoordBracketPlaced

	c.log.Info("bracket placed",
		zap.Float64("stop", c.levels.Stop),
		zap.Float64("target", c.levels.Target),
		zap.Int("quantity", quantity),
		zap.String("link_id", c.bracketLinkID))
}

func (c *BracketCoordinator) hasLegs() bool {
	for _, role := range c.roles {
		if role == roleStopLeg || role == roleTargetLeg {
			return true
		}
	}
	return false
}

func (c *BracketCoordinator) reset() {
	c.state = CoordIdle
	c.roles = make(map[string]orderRole)
	c.entryLinkID = ""
	c.bracketLinkID = ""
}

func (c *BracketCoordinator) record(ctx context.Context, orderID string, req domain.OrderRequest) {
	if c.journal == nil {
		return
	}
	entry := &domain.JournalEntry{
		OrderID:    orderID,
		Label:      req.Label,
		Action:     string(req.Action),
		OrderType:  string(req.Type),
		Quantity:   req.Quantity,
		LimitPrice: req.LimitPrice,
		StopPrice:  req.StopPrice,
		State:      domain.OrderStateSubmitted,
		LinkID:     req.LinkID,
	}
	if err := c.journal.RecordOrder(ctx, entry); err != nil {
		c.log.Warn("journal record failed", zap.Error(err))
	}
}
