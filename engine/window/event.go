package window

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy2d/common"
)

// EventKind identifies what an input Event carries.
type EventKind int

const (
	// EventKeyDown is a key press or auto-repeat. Key is set.
	EventKeyDown EventKind = iota
	// EventKeyUp is a key release. Key is set.
	EventKeyUp
	// EventMouseDown is a mouse button press. Button and Position are set.
	EventMouseDown
	// EventMouseUp is a mouse button release. Button and Position are set.
	EventMouseUp
	// EventMouseMove is cursor movement inside the window. Position is set.
	EventMouseMove
	// EventScroll is a wheel movement. Scroll is positive for up, negative for down.
	EventScroll
)

func (k EventKind) String() string {
	switch k {
	case EventKeyDown:
		return "key down"
	case EventKeyUp:
		return "key up"
	case EventMouseDown:
		return "mouse down"
	case EventMouseUp:
		return "mouse up"
	case EventMouseMove:
		return "mouse move"
	case EventScroll:
		return "scroll"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// MouseButton identifies a mouse button.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// Event is one input event delivered to the window's event callback.
type Event struct {
	Kind EventKind
	Key  common.Key
	// Repeat marks a key down generated by holding the key.
	Repeat   bool
	Button   MouseButton
	Position common.Point2
	Scroll   float32
}
