package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/riskbox/internal/domain"
)

type Command string

const (
	CommandResetLevels      Command = "RESET_LEVELS"
	CommandFlipDirection    Command = "FLIP_DIRECTION"
	CommandSubmitPending    Command = "SUBMIT_PENDING"
	CommandSubmitMarket     Command = "SUBMIT_MARKET"
	CommandToggleVisibility Command = "TOGGLE_VISIBILITY"
)

type ToolConfig struct {
	Instrument         domain.Instrument
	Risk               RiskConfig
	DefaultStopTicks   int
	DefaultTargetTicks int
	ChartWidth         float64
}

// toolEvent is one item on the serialized queue. Exactly one of the pointers
// is set; command events may carry an explicit side.
type toolEvent struct {
	pointer *domain.PointerEvent
	tick    *float64
	order   *domain.OrderUpdate
	scale   *domain.LinearScale
	command Command
	side    domain.Side
}

// Snapshot is the consistent read view the render layer consumes each frame.
type Snapshot struct {
	Revision    uint64      `json:"revision"`
	Initialized bool        `json:"initialized"`
	Visible     bool        `json:"visible"`
	Direction   domain.Side `json:"direction"`

	EntryPrice  float64 `json:"entry_price"`
	StopPrice   float64 `json:"stop_price"`
	TargetPrice float64 `json:"target_price"`

	StopTicks    int     `json:"stop_ticks"`
	TargetTicks  int     `json:"target_ticks"`
	StopPoints   float64 `json:"stop_points"`
	TargetPoints float64 `json:"target_points"`
	RiskAmount   float64 `json:"risk_amount"`
	RewardAmount float64 `json:"reward_amount"`
	Ratio        float64 `json:"ratio"`
	Quantity     int     `json:"quantity"`

	MarketPrice float64 `json:"market_price"`

	BoxLeftX float64 `json:"box_left_x"`
	BoxWidth float64 `json:"box_width"`

	EntryText  string `json:"entry_text"`
	StopText   string `json:"stop_text"`
	TargetText string `json:"target_text"`

	Dragging DragTarget `json:"dragging"`
}

// ToolService owns the tool's entire mutable state. Pointer events, market
// ticks, order updates and commands are all serialized onto one queue and
// handled by a single goroutine, so no mutation ever races another. Readers
// get a published Snapshot rather than the live fields.
type ToolService struct {
	cfg         ToolConfig
	levels      *PriceLevelModel
	box         *BoxGeometry
	drag        *DragController
	coordinator *BracketCoordinator
	stateRepo   domain.ToolStateRepository
	account     domain.AccountProvider
	log         *zap.Logger

	scale       domain.ChartScale
	marketPrice float64
	visible     bool
	revision    uint64

	events chan toolEvent

	mu              sync.RWMutex
	snapshot        Snapshot
	nextSubID       int
	updateCallbacks map[int]func(Snapshot)
	menuCallbacks   []func(x, y float64)
}

func NewToolService(
	cfg ToolConfig,
	broker domain.Broker,
	journal domain.OrderJournal,
	stateRepo domain.ToolStateRepository,
	account domain.AccountProvider,
	confirm ConfirmFunc,
	log *zap.Logger,
) *ToolService {
	levels := &PriceLevelModel{}
	box := NewBoxGeometry()

	s := &ToolService{
		cfg:             cfg,
		levels:          levels,
		box:             &box,
		drag:            NewDragController(levels, &box),
		stateRepo:       stateRepo,
		account:         account,
		log:             log,
		visible:         true,
		events:          make(chan toolEvent, 256),
		updateCallbacks: make(map[int]func(Snapshot)),
	}
	s.coordinator = NewBracketCoordinator(broker, journal, levels, confirm, log)

	// Broker callbacks can arrive on any goroutine; marshal them onto the
	// queue like everything else.
	broker.OnOrderUpdate(func(u domain.OrderUpdate) {
		s.events <- toolEvent{order: &u}
	})

	return s
}

// OnUpdate registers a callback invoked with every published snapshot. The
// returned func unregisters it (websocket clients come and go).
func (s *ToolService) OnUpdate(cb func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.updateCallbacks[id] = cb

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.updateCallbacks, id)
	}
}

// OnMenuRequest registers a callback for the secondary-click menu gesture.
func (s *ToolService) OnMenuRequest(cb func(x, y float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menuCallbacks = append(s.menuCallbacks, cb)
}

func (s *ToolService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// ProcessPointer enqueues a raw pointer event. Move floods are dropped when
// the queue is full rather than blocking the input source.
func (s *ToolService) ProcessPointer(ev domain.PointerEvent) {
	e := toolEvent{pointer: &ev}
	if ev.Kind == domain.PointerMove {
		select {
		case s.events <- e:
		default:
		}
		return
	}
	s.events <- e
}

// ProcessTick enqueues a market price update.
func (s *ToolService) ProcessTick(price float64) {
	select {
	case s.events <- toolEvent{tick: &price}:
	default:
	}
}

// SetScale installs the host's current price<->pixel mapping.
func (s *ToolService) SetScale(scale domain.LinearScale) {
	s.events <- toolEvent{scale: &scale}
}

func (s *ToolService) ResetLevels()      { s.events <- toolEvent{command: CommandResetLevels} }
func (s *ToolService) FlipDirection()    { s.events <- toolEvent{command: CommandFlipDirection} }
func (s *ToolService) ToggleVisibility() { s.events <- toolEvent{command: CommandToggleVisibility} }

// SubmitPendingOrder submits an entry classified from the entry price. An
// empty side means the setup's inferred direction.
func (s *ToolService) SubmitPendingOrder(side domain.Side) {
	s.events <- toolEvent{command: CommandSubmitPending, side: side}
}

func (s *ToolService) SubmitMarketOrder(side domain.Side) {
	s.events <- toolEvent{command: CommandSubmitMarket, side: side}
}

// Run consumes the queue until the context ends, persisting state on the way
// out. It is the only goroutine that mutates the model.
func (s *ToolService) Run(ctx context.Context) {
	s.restore(ctx)

	for {
		select {
		case <-ctx.Done():
			s.persist(context.Background())
			return
		case ev := <-s.events:
			s.handle(ctx, ev)
		}
	}
}

func (s *ToolService) handle(ctx context.Context, ev toolEvent) {
	switch {
	case ev.scale != nil:
		s.scale = *ev.scale
	case ev.tick != nil:
		s.handleTick(*ev.tick)
	case ev.pointer != nil:
		s.handlePointer(ctx, *ev.pointer)
	case ev.order != nil:
		s.coordinator.HandleOrderUpdate(ctx, *ev.order)
		s.publish()
	case ev.command != "":
		s.handleCommand(ctx, ev.command, ev.side)
	}
}

func (s *ToolService) handleTick(price float64) {
	if price <= 0 {
		return
	}
	s.marketPrice = price

	if !s.levels.Initialized {
		s.levels.SetFromMarket(price, s.cfg.DefaultStopTicks, s.cfg.DefaultTargetTicks, s.cfg.Instrument)
		s.placeBoxIfNeeded()
		s.log.Info("levels initialized from market",
			zap.Float64("entry", s.levels.Entry),
			zap.Float64("stop", s.levels.Stop),
			zap.Float64("target", s.levels.Target))
	}

	s.recalculate()
	s.publish()
}

func (s *ToolService) handlePointer(ctx context.Context, ev domain.PointerEvent) {
	if ev.Kind == domain.PointerDown && ev.Button == domain.ButtonSecondary {
		// A modified secondary click opens the menu; it never starts a drag.
		if ev.Ctrl {
			s.fireMenu(ev.X, ev.Y)
		}
		return
	}
	if !s.visible || s.scale == nil || !s.levels.Initialized {
		return
	}

	switch ev.Kind {
	case domain.PointerDown:
		if s.drag.HandleDown(ev, s.scale) {
			s.publish()
		}
	case domain.PointerMove:
		if s.drag.HandleMove(ev, s.scale, s.cfg.Instrument, s.cfg.ChartWidth) {
			s.recalculate()
			s.publish()
		}
	case domain.PointerUp:
		if s.drag.HandleUp() {
			s.persist(ctx)
			s.publish()
		}
	}
}

func (s *ToolService) handleCommand(ctx context.Context, cmd Command, side domain.Side) {
	switch cmd {
	case CommandResetLevels:
		if s.marketPrice <= 0 {
			return
		}
		s.levels.SetFromMarket(s.marketPrice, s.cfg.DefaultStopTicks, s.cfg.DefaultTargetTicks, s.cfg.Instrument)
		s.placeBoxIfNeeded()
		s.recalculate()
		s.persist(ctx)
		s.publish()

	case CommandFlipDirection:
		if !s.levels.Initialized {
			return
		}
		s.levels.Flip(s.cfg.Instrument)
		s.recalculate()
		s.persist(ctx)
		s.publish()

	case CommandToggleVisibility:
		s.visible = !s.visible
		s.persist(ctx)
		s.publish()

	case CommandSubmitPending:
		if !s.levels.Initialized {
			return
		}
		if s.marketPrice <= 0 {
			s.log.Warn("submit ignored, no market price yet")
			return
		}
		if side == "" {
			side = s.levels.Direction()
		}
		if err := s.coordinator.SubmitEntry(ctx, side, s.marketPrice); err != nil {
			s.log.Error("pending order submission failed", zap.Error(err))
		}
		s.publish()

	case CommandSubmitMarket:
		if !s.levels.Initialized {
			return
		}
		if s.marketPrice <= 0 {
			s.log.Warn("submit ignored, no market price yet")
			return
		}
		if side == "" {
			side = s.levels.Direction()
		}
		if err := s.coordinator.SubmitMarketEntry(ctx, side, s.marketPrice); err != nil {
			s.log.Error("market order submission failed", zap.Error(err))
		}
		s.publish()
	}
}

func (s *ToolService) recalculate() {
	s.levels.Recalculate(s.cfg.Instrument, s.cfg.Risk, s.account)
}

func (s *ToolService) placeBoxIfNeeded() {
	if !s.box.Placed() && s.cfg.ChartWidth > 0 {
		s.box.PlaceDefault(s.cfg.ChartWidth)
	}
}

func (s *ToolService) publish() {
	instr := s.cfg.Instrument
	snap := Snapshot{
		Initialized:  s.levels.Initialized,
		Visible:      s.visible,
		Direction:    s.levels.Direction(),
		EntryPrice:   s.levels.Entry,
		StopPrice:    s.levels.Stop,
		TargetPrice:  s.levels.Target,
		StopTicks:    s.levels.StopTicks,
		TargetTicks:  s.levels.TargetTicks,
		StopPoints:   s.levels.StopPoints,
		TargetPoints: s.levels.TargetPoints,
		RiskAmount:   s.levels.RiskAmount,
		RewardAmount: s.levels.RewardAmount,
		Ratio:        s.levels.Ratio,
		Quantity:     s.levels.Quantity,
		MarketPrice:  s.marketPrice,
		BoxLeftX:     s.box.LeftX,
		BoxWidth:     s.box.Width,
		EntryText:    instr.FormatPrice(s.levels.Entry),
		StopText:     instr.FormatPrice(s.levels.Stop),
		TargetText:   instr.FormatPrice(s.levels.Target),
		Dragging:     s.drag.Target(),
	}

	s.mu.Lock()
	s.revision++
	snap.Revision = s.revision
	s.snapshot = snap
	callbacks := make([]func(Snapshot), 0, len(s.updateCallbacks))
	for _, cb := range s.updateCallbacks {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb(snap)
	}
}

func (s *ToolService) fireMenu(x, y float64) {
	s.mu.RLock()
	callbacks := make([]func(x, y float64), len(s.menuCallbacks))
	copy(callbacks, s.menuCallbacks)
	s.mu.RUnlock()

	for _, cb := range callbacks {
		cb(x, y)
	}
}

func (s *ToolService) persist(ctx context.Context) {
	if s.stateRepo == nil || !s.levels.Initialized {
		return
	}
	state := &domain.ToolState{
		BoxLeftX:    s.box.LeftX,
		BoxWidth:    s.box.Width,
		EntryPrice:  s.levels.Entry,
		StopPrice:   s.levels.Stop,
		TargetPrice: s.levels.Target,
		Visible:     s.visible,
		UpdatedAt:   time.Now(),
	}
	if err := s.stateRepo.SaveToolState(ctx, state); err != nil {
		s.log.Warn("failed to persist tool state", zap.Error(err))
	}
}

func (s *ToolService) restore(ctx context.Context) {
	if s.stateRepo == nil {
		return
	}
	state, err := s.stateRepo.LoadToolState(ctx)
	if err != nil {
		s.log.Warn("failed to load tool state", zap.Error(err))
		return
	}
	if state == nil {
		return
	}

	s.box.LeftX = state.BoxLeftX
	s.box.Width = state.BoxWidth
	s.levels.Entry = state.EntryPrice
	s.levels.Stop = state.StopPrice
	s.levels.Target = state.TargetPrice
	s.levels.Initialized = true
	s.visible = state.Visible

	s.recalculate()
	s.publish()
	s.log.Info("tool state restored",
		zap.Float64("entry", s.levels.Entry),
		zap.Float64("box_left_x", s.box.LeftX))
}
