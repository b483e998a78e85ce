package exchange

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitos/riskbox/internal/domain"
)

// PaperBroker is an in-process execution venue for development and tests.
// Market orders fill at the last tick price; limit and stop orders arm and
// fill when a tick crosses them; orders sharing a link id are an OCO group
// and cancel each other on fill. All results are delivered asynchronously
// through the update callbacks, in submission-processing order.
type PaperBroker struct {
	mu        sync.Mutex
	log       *zap.Logger
	currency  string
	cash      decimal.Decimal
	lastPrice float64

	orders map[string]*paperOrder

	// Simple signed position for PnL realization on closing fills.
	positionQty int
	avgPrice    decimal.Decimal

	callbacks []func(domain.OrderUpdate)
	updates   chan domain.OrderUpdate
	done      chan struct{}
}

type paperOrder struct {
	id    string
	req   domain.OrderRequest
	state domain.OrderState
}

func NewPaperBroker(startingBalance float64, currency string, log *zap.Logger) *PaperBroker {
	p := &PaperBroker{
		log:      log,
		currency: currency,
		cash:     decimal.NewFromFloat(startingBalance),
		orders:   make(map[string]*paperOrder),
		updates:  make(chan domain.OrderUpdate, 64),
		done:     make(chan struct{}),
	}
	go p.dispatchLoop()
	return p
}

func (p *PaperBroker) Close() {
	close(p.done)
}

func (p *PaperBroker) OnOrderUpdate(callback func(domain.OrderUpdate)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, callback)
}

// Balance implements the account lookup for percent-of-account sizing.
func (p *PaperBroker) Balance(currency string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if currency != "" && currency != p.currency {
		return 0
	}
	return p.cash.InexactFloat64()
}

// SubmitOrder accepts the order and returns immediately; fills, rejections
// and cancels arrive via the callbacks.
func (p *PaperBroker) SubmitOrder(ctx context.Context, req domain.OrderRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.NewString()
	order := &paperOrder{id: id, req: req, state: domain.OrderStateSubmitted}
	p.orders[id] = order

	switch {
	case req.Quantity < 1:
		p.reject(order, "quantity must be at least 1")
	case req.Type == domain.OrderTypeMarket:
		if p.lastPrice <= 0 {
			p.reject(order, "no market price available")
			break
		}
		p.fill(order, p.lastPrice)
	case req.Type == domain.OrderTypeLimit, req.Type == domain.OrderTypeStopMarket:
		order.state = domain.OrderStateWorking
		p.emit(domain.OrderUpdate{OrderID: id, State: domain.OrderStateWorking})
	default:
		p.reject(order, fmt.Sprintf("unsupported order type %s", req.Type))
	}

	return id, nil
}

// Tick advances the market price and triggers any armed orders it crosses.
func (p *PaperBroker) Tick(price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastPrice = price

	for _, order := range p.orders {
		if order.state != domain.OrderStateWorking {
			continue
		}
		if p.triggered(order.req, price) {
			fillPrice := price
			if order.req.Type == domain.OrderTypeLimit {
				fillPrice = order.req.LimitPrice
			}
			p.fill(order, fillPrice)
		}
	}
}

func (p *PaperBroker) triggered(req domain.OrderRequest, price float64) bool {
	switch req.Type {
	case domain.OrderTypeLimit:
		if req.Action == domain.ActionBuy {
			return price <= req.LimitPrice
		}
		return price >= req.LimitPrice
	case domain.OrderTypeStopMarket:
		if req.Action == domain.ActionBuy {
			return price >= req.StopPrice
		}
		return price <= req.StopPrice
	}
	return false
}

// fill marks the order filled, realizes PnL on closing quantity, and cancels
// OCO siblings. Caller holds the lock.
func (p *PaperBroker) fill(order *paperOrder, price float64) {
	order.state = domain.OrderStateFilled
	p.applyFill(order.req, price)

	p.emit(domain.OrderUpdate{
		OrderID:   order.id,
		State:     domain.OrderStateFilled,
		FillPrice: price,
		FilledQty: order.req.Quantity,
	})

	if order.req.LinkID != "" {
		for _, sibling := range p.orders {
			if sibling.id == order.id || sibling.req.LinkID != order.req.LinkID {
				continue
			}
			if sibling.state == domain.OrderStateWorking || sibling.state == domain.OrderStateSubmitted {
				sibling.state = domain.OrderStateCancelled
				p.emit(domain.OrderUpdate{OrderID: sibling.id, State: domain.OrderStateCancelled})
			}
		}
	}
}

func (p *PaperBroker) applyFill(req domain.OrderRequest, price float64) {
	qty := req.Quantity
	if req.Action == domain.ActionSell {
		qty = -qty
	}
	fillPrice := decimal.NewFromFloat(price)

	switch {
	case p.positionQty == 0 || sameSign(p.positionQty, qty):
		total := decimal.NewFromInt(int64(p.positionQty)).Abs().Mul(p.avgPrice).
			Add(decimal.NewFromInt(int64(abs(qty))).Mul(fillPrice))
		p.positionQty += qty
		if p.positionQty != 0 {
			p.avgPrice = total.Div(decimal.NewFromInt(int64(abs(p.positionQty))))
		}
	default:
		closed := abs(qty)
		if closed > abs(p.positionQty) {
			closed = abs(p.positionQty)
		}
		diff := fillPrice.Sub(p.avgPrice)
		if p.positionQty < 0 {
			diff = diff.Neg()
		}
		pnl := diff.Mul(decimal.NewFromInt(int64(closed)))
		p.cash = p.cash.Add(pnl)
		p.positionQty += qty
		switch {
		case p.positionQty == 0:
			p.avgPrice = decimal.Zero
		case sameSign(p.positionQty, qty):
			// The fill reversed through flat; the residual opened here.
			p.avgPrice = fillPrice
		}
		p.log.Info("paper fill realized pnl",
			zap.String("pnl", pnl.StringFixed(2)),
			zap.String("cash", p.cash.StringFixed(2)))
	}
}

func (p *PaperBroker) reject(order *paperOrder, reason string) {
	order.state = domain.OrderStateRejected
	p.emit(domain.OrderUpdate{OrderID: order.id, State: domain.OrderStateRejected, Err: reason})
}

// emit hands the update to the dispatcher so callbacks run off the lock.
func (p *PaperBroker) emit(u domain.OrderUpdate) {
	select {
	case p.updates <- u:
	case <-p.done:
	}
}

func (p *PaperBroker) dispatchLoop() {
	for {
		select {
		case <-p.done:
			return
		case u := <-p.updates:
			p.mu.Lock()
			callbacks := make([]func(domain.OrderUpdate), len(p.callbacks))
			copy(callbacks, p.callbacks)
			p.mu.Unlock()

			for _, cb := range callbacks {
				cb(u)
			}
		}
	}
}

func sameSign(a, b int) bool {
	return (a > 0) == (b > 0)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
