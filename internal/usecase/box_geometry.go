package usecase

const (
	// MinBoxWidth is the floor below which resizes are dropped.
	MinBoxWidth = 60.0
	// DefaultBoxWidth is the width before any user resize.
	DefaultBoxWidth = 200.0

	// reservedLabelWidth keeps the box clear of the price labels when moving
	// or resizing; labelAreaWidth positions the default placement.
	reservedLabelWidth = 170.0
	labelAreaWidth     = 180.0
)

// BoxGeometry is the draggable rectangle's screen-space bounds: left edge and
// width in pixels. It carries no price information. LeftX stays at the -1
// sentinel until the box is first placed.
type BoxGeometry struct {
	LeftX float64
	Width float64
}

func NewBoxGeometry() BoxGeometry {
	return BoxGeometry{LeftX: -1, Width: DefaultBoxWidth}
}

func (b *BoxGeometry) Placed() bool {
	return b.LeftX >= 0
}

// PlaceDefault right-aligns the box next to the label area.
func (b *BoxGeometry) PlaceDefault(chartWidth float64) {
	b.LeftX = chartWidth - labelAreaWidth - b.Width - 20
}

func (b *BoxGeometry) RightX() float64 {
	return b.LeftX + b.Width
}

func (b *BoxGeometry) ContainsX(x float64) bool {
	return x >= b.LeftX && x <= b.RightX()
}

// MoveBy shifts the box horizontally, clamped to the visible chart minus the
// label area. Clamping is per event; the drag stays active.
func (b *BoxGeometry) MoveBy(deltaX, chartWidth float64) {
	b.LeftX += deltaX

	maxX := chartWidth - reservedLabelWidth - b.Width
	if b.LeftX < 0 {
		b.LeftX = 0
	}
	if b.LeftX > maxX {
		b.LeftX = maxX
	}
}

// ResizeLeft moves the left edge. The whole move is dropped, not partially
// applied, when it would shrink the box below the minimum width.
func (b *BoxGeometry) ResizeLeft(deltaX float64) bool {
	newLeft := b.LeftX + deltaX
	newWidth := b.Width - deltaX

	if newWidth < MinBoxWidth {
		return false
	}
	b.LeftX = newLeft
	b.Width = newWidth
	return true
}

// ResizeRight moves the right edge, bounded by the minimum width and the
// label area on the right.
func (b *BoxGeometry) ResizeRight(deltaX, chartWidth float64) bool {
	newWidth := b.Width + deltaX

	maxRight := chartWidth - reservedLabelWidth
	if newWidth < MinBoxWidth || b.LeftX+newWidth > maxRight {
		return false
	}
	b.Width = newWidth
	return true
}
