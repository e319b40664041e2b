// Package event converts raw platform input into semantic events and routes
// them to registered listeners from a single dispatch loop.
package event

import (
	"fmt"
	"image"

	"github.com/OpticalFlyer/screenkit/geom"
)

// Kind identifies an event variant and the listener list it is routed to.
type Kind int

const (
	KindQuit Kind = iota
	KindResize
	KindMouseMotion
	KindMouseDown
	KindMouseUp
	KindMouseClick
	KindMouseDoubleClick
	KindScrollUp
	KindScrollDown
	KindKeyDown
	KindKeyUp
	KindFileDrop
	KindTextDrop
	KindDragBegin
	KindDropComplete
	KindTick

	// Hitbox-local kinds. The Handler never dispatches these itself.
	KindMouseEnter
	KindMouseLeave
	KindFocus
	KindFocusRelease
	KindChange

	numKinds
)

var kindNames = [numKinds]string{
	KindQuit:             "close",
	KindResize:           "resize",
	KindMouseMotion:      "mouseMotion",
	KindMouseDown:        "mouseDown",
	KindMouseUp:          "mouseUp",
	KindMouseClick:       "mouseClick",
	KindMouseDoubleClick: "mouseDoubleClick",
	KindScrollUp:         "scrollUp",
	KindScrollDown:       "scrollDown",
	KindKeyDown:          "keyDown",
	KindKeyUp:            "keyUp",
	KindFileDrop:         "fileDrop",
	KindTextDrop:         "textDrop",
	KindDragBegin:        "drag",
	KindDropComplete:     "drop",
	KindTick:             "tick",
	KindMouseEnter:       "mouseEnter",
	KindMouseLeave:       "mouseLeave",
	KindFocus:            "focus",
	KindFocusRelease:     "focusRelease",
	KindChange:           "change",
}

func (k Kind) String() string {
	if k >= 0 && k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k >= 0 && k < numKinds }

// Local reports whether k is only dispatched by a Hitbox.
func (k Kind) Local() bool { return k >= KindMouseEnter && k < numKinds }

// Spatial reports whether k is tied to the pointer position, so a Hitbox
// only delivers it while the pointer is inside.
func (k Kind) Spatial() bool {
	switch k {
	case KindMouseMotion, KindMouseDown, KindMouseUp, KindMouseClick,
		KindMouseDoubleClick, KindScrollUp, KindScrollDown,
		KindFileDrop, KindTextDrop, KindMouseEnter, KindMouseLeave:
		return true
	}
	return false
}

// ParseKind looks a kind up by its listener name, e.g. "mouseClick".
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// Button is a mouse button.
type Button int

const (
	ButtonNone Button = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	}
	return "none"
}

// Event is one input or synthetic event. Events are passed by value; a
// listener may modify its copy without affecting other listeners.
type Event struct {
	Kind Kind
	// Pos is the pointer position. Non-pointer events carry the last
	// known pointer position.
	Pos    geom.Vec
	Button Button
	Key    Key
	// Rune is the character typed with a KeyDown, or 0.
	Rune rune
	// Path is set for FileDrop.
	Path string
	// Text is set for TextDrop.
	Text string
	// Size is set for Resize.
	Size image.Point
	// Tick counts dispatch passes for Tick events.
	Tick uint64
	// Mods is the modifier state when the event was dispatched.
	Mods Modifiers

	// Target is the object that received the event, set by the Hitbox
	// that delivered it.
	Target any
	// RelPos is Pos relative to the receiving Hitbox.
	RelPos geom.Vec
}

func (e Event) String() string {
	switch e.Kind {
	case KindMouseDown, KindMouseUp:
		return fmt.Sprintf("%s{%v %s}", e.Kind, e.Pos, e.Button)
	case KindKeyDown, KindKeyUp:
		return fmt.Sprintf("%s{%s}", e.Kind, e.Key)
	case KindTick:
		return fmt.Sprintf("tick{%d}", e.Tick)
	}
	return fmt.Sprintf("%s{%v}", e.Kind, e.Pos)
}

// Quit is the window-close event.
func Quit() Event { return Event{Kind: KindQuit} }

// Resize reports a new window size.
func Resize(w, h int) Event { return Event{Kind: KindResize, Size: image.Pt(w, h)} }

// MouseMotion reports a pointer move.
func MouseMotion(pos geom.Vec) Event { return Event{Kind: KindMouseMotion, Pos: pos} }

// MouseDown reports a button press.
func MouseDown(pos geom.Vec, b Button) Event {
	return Event{Kind: KindMouseDown, Pos: pos, Button: b}
}

// MouseUp reports a button release.
func MouseUp(pos geom.Vec, b Button) Event {
	return Event{Kind: KindMouseUp, Pos: pos, Button: b}
}

// Scroll reports one wheel step; up is away from the user.
func Scroll(pos geom.Vec, up bool) Event {
	if up {
		return Event{Kind: KindScrollUp, Pos: pos}
	}
	return Event{Kind: KindScrollDown, Pos: pos}
}

// KeyDown reports a key press, with the typed character if any.
func KeyDown(k Key, r rune) Event { return Event{Kind: KindKeyDown, Key: k, Rune: r} }

// KeyUp reports a key release.
func KeyUp(k Key) Event { return Event{Kind: KindKeyUp, Key: k} }

// FileDrop reports a file dropped on the window.
func FileDrop(path string) Event { return Event{Kind: KindFileDrop, Path: path} }

// TextDrop reports text dropped on the window.
func TextDrop(text string) Event { return Event{Kind: KindTextDrop, Text: text} }

// DragBegin reports the start of a drag-and-drop over the window.
func DragBegin() Event { return Event{Kind: KindDragBegin} }

// DropComplete reports the end of a drag-and-drop.
func DropComplete() Event { return Event{Kind: KindDropComplete} }

func (k Kind) pointer() bool {
	switch k {
	case KindMouseMotion, KindMouseDown, KindMouseUp, KindScrollUp, KindScrollDown:
		return true
	}
	return false
}
