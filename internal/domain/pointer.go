package domain

type PointerKind string

const (
	PointerDown PointerKind = "DOWN"
	PointerMove PointerKind = "MOVE"
	PointerUp   PointerKind = "UP"
)

type PointerButton string

const (
	ButtonPrimary   PointerButton = "PRIMARY"
	ButtonSecondary PointerButton = "SECONDARY"
)

// PointerEvent is one raw input event in chart pixel space.
type PointerEvent struct {
	Kind   PointerKind
	X      float64
	Y      float64
	Button PointerButton
	Ctrl   bool
}
