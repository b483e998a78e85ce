package usecase

import (
	"math"

	"github.com/vitos/riskbox/internal/domain"
)

type DragTarget string

const (
	DragNone        DragTarget = "NONE"
	DragEntry       DragTarget = "ENTRY"
	DragStopLoss    DragTarget = "STOP_LOSS"
	DragTakeProfit  DragTarget = "TAKE_PROFIT"
	DragBoxMove     DragTarget = "BOX_MOVE"
	DragResizeLeft  DragTarget = "RESIZE_LEFT"
	DragResizeRight DragTarget = "RESIZE_RIGHT"
)

const (
	// lineHitThreshold is the vertical pixel distance within which a price
	// line captures the pointer.
	lineHitThreshold = 10.0
	// edgeHitZone is the horizontal pixel distance from a box edge that
	// triggers a resize instead of a move.
	edgeHitZone = 8.0
)

// dragSession exists only while a button is held. It carries exactly the
// fields the active target needs: the running pointer X for horizontal
// deltas, and for box moves the anchor Y plus a snapshot of all three prices.
type dragSession struct {
	target DragTarget

	lastX  float64
	startY float64

	startEntry  float64
	startStop   float64
	startTarget float64
}

// DragController turns pointer events and the current box geometry into
// price and geometry mutations. It is idle between pointer-down and
// pointer-up pairs; pointer-up always returns it to idle.
type DragController struct {
	levels  *PriceLevelModel
	box     *BoxGeometry
	session *dragSession
}

func NewDragController(levels *PriceLevelModel, box *BoxGeometry) *DragController {
	return &DragController{levels: levels, box: box}
}

func (c *DragController) Active() bool {
	return c.session != nil
}

func (c *DragController) Target() DragTarget {
	if c.session == nil {
		return DragNone
	}
	return c.session.target
}

// HandleDown runs the hit tests in strict priority order: entry line, stop
// line, target line, left edge, right edge, box body. Line hits win over the
// box body even when the zones overlap, and edges win over moves, so
// overlapping hot-zones near the corners resolve predictably. Returns whether
// the event was consumed.
func (c *DragController) HandleDown(ev domain.PointerEvent, scale domain.ChartScale) bool {
	if c.session != nil {
		// Cannot happen with a single button: up always clears first.
		return false
	}
	if !c.box.Placed() {
		return false
	}

	entryY := scale.YFromPrice(c.levels.Entry)
	stopY := scale.YFromPrice(c.levels.Stop)
	targetY := scale.YFromPrice(c.levels.Target)

	switch {
	case math.Abs(ev.Y-entryY) <= lineHitThreshold:
		c.session = &dragSession{target: DragEntry}
	case math.Abs(ev.Y-stopY) <= lineHitThreshold:
		c.session = &dragSession{target: DragStopLoss}
	case math.Abs(ev.Y-targetY) <= lineHitThreshold:
		c.session = &dragSession{target: DragTakeProfit}
	default:
		minY := math.Min(entryY, math.Min(stopY, targetY))
		maxY := math.Max(entryY, math.Max(stopY, targetY))
		inBoxY := ev.Y >= minY && ev.Y <= maxY

		switch {
		case inBoxY && math.Abs(ev.X-c.box.LeftX) <= edgeHitZone:
			c.session = &dragSession{target: DragResizeLeft, lastX: ev.X}
		case inBoxY && math.Abs(ev.X-c.box.RightX()) <= edgeHitZone:
			c.session = &dragSession{target: DragResizeRight, lastX: ev.X}
		case inBoxY && c.box.ContainsX(ev.X):
			c.session = &dragSession{
				target:      DragBoxMove,
				lastX:       ev.X,
				startY:      ev.Y,
				startEntry:  c.levels.Entry,
				startStop:   c.levels.Stop,
				startTarget: c.levels.Target,
			}
		default:
			return false
		}
	}
	return true
}

// HandleMove applies the active drag to the model. Returns whether anything
// mutated, in which case the host must recompute derived values and redraw.
func (c *DragController) HandleMove(ev domain.PointerEvent, scale domain.ChartScale, instr domain.Instrument, chartWidth float64) bool {
	s := c.session
	if s == nil {
		return false
	}

	switch s.target {
	case DragBoxMove:
		c.box.MoveBy(ev.X-s.lastX, chartWidth)
		s.lastX = ev.X

		// Vertical translation: one price delta applied to the whole
		// snapshot preserves the box shape.
		priceDelta := scale.PriceFromY(ev.Y) - scale.PriceFromY(s.startY)
		c.levels.Entry = instr.RoundToTick(s.startEntry + priceDelta)
		c.levels.Stop = instr.RoundToTick(s.startStop + priceDelta)
		c.levels.Target = instr.RoundToTick(s.startTarget + priceDelta)
		return true

	case DragResizeLeft:
		if c.box.ResizeLeft(ev.X - s.lastX) {
			s.lastX = ev.X
			return true
		}
		return false

	case DragResizeRight:
		if c.box.ResizeRight(ev.X-s.lastX, chartWidth) {
			s.lastX = ev.X
			return true
		}
		return false

	default:
		price := instr.RoundToTick(scale.PriceFromY(ev.Y))
		switch s.target {
		case DragEntry:
			c.levels.Entry = price
		case DragStopLoss:
			c.levels.Stop = price
		case DragTakeProfit:
			c.levels.Target = price
		}
		return true
	}
}

// HandleUp ends the drag unconditionally. Returns whether a drag was active.
func (c *DragController) HandleUp() bool {
	if c.session == nil {
		return false
	}
	c.session = nil
	return true
}
