package ebitenwin

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/widget"
)

var keyMap = map[ebiten.Key]event.Key{
	ebiten.KeyBackspace:      event.KeyBackspace,
	ebiten.KeyTab:            event.KeyTab,
	ebiten.KeyEnter:          event.KeyReturn,
	ebiten.KeyNumpadEnter:    event.KeyReturn,
	ebiten.KeyEscape:         event.KeyEscape,
	ebiten.KeySpace:          event.KeySpace,
	ebiten.KeyDelete:         event.KeyDelete,
	ebiten.KeyArrowLeft:      event.KeyArrowLeft,
	ebiten.KeyArrowRight:     event.KeyArrowRight,
	ebiten.KeyArrowUp:        event.KeyArrowUp,
	ebiten.KeyArrowDown:      event.KeyArrowDown,
	ebiten.KeyHome:           event.KeyHome,
	ebiten.KeyEnd:            event.KeyEnd,
	ebiten.KeyPageUp:         event.KeyPageUp,
	ebiten.KeyPageDown:       event.KeyPageDown,
	ebiten.KeyShiftLeft:      event.KeyLShift,
	ebiten.KeyShiftRight:     event.KeyRShift,
	ebiten.KeyControlLeft:    event.KeyLCtrl,
	ebiten.KeyControlRight:   event.KeyRCtrl,
	ebiten.KeyAltLeft:        event.KeyLAlt,
	ebiten.KeyAltRight:       event.KeyRAlt,
	ebiten.KeyEqual:          event.KeyPlus,
	ebiten.KeyNumpadAdd:      event.KeyPlus,
	ebiten.KeyMinus:          event.KeyMinus,
	ebiten.KeyNumpadSubtract: event.KeyMinus,
}

var (
	fKeys = []ebiten.Key{
		ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4, ebiten.KeyF5, ebiten.KeyF6,
		ebiten.KeyF7, ebiten.KeyF8, ebiten.KeyF9, ebiten.KeyF10, ebiten.KeyF11, ebiten.KeyF12,
	}
	digitKeys = []ebiten.Key{
		ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
		ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
	}
	letterKeys = []ebiten.Key{
		ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF, ebiten.KeyG,
		ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ, ebiten.KeyK, ebiten.KeyL, ebiten.KeyM, ebiten.KeyN,
		ebiten.KeyO, ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR, ebiten.KeyS, ebiten.KeyT, ebiten.KeyU,
		ebiten.KeyV, ebiten.KeyW, ebiten.KeyX, ebiten.KeyY, ebiten.KeyZ,
	}
)

func init() {
	for i, k := range fKeys {
		keyMap[k] = event.KeyF1 + event.Key(i)
	}
	for i, k := range digitKeys {
		keyMap[k] = event.Key0 + event.Key(i)
	}
	for i, k := range letterKeys {
		keyMap[k] = event.KeyA + event.Key(i)
	}
}

// Key translates an ebiten key. Keys without a counterpart are
// KeyUnknown.
func Key(k ebiten.Key) event.Key {
	return keyMap[k]
}

// repeatKeys send repeated KeyDown events while held.
var repeatKeys = []ebiten.Key{
	ebiten.KeyBackspace, ebiten.KeyDelete,
	ebiten.KeyArrowLeft, ebiten.KeyArrowRight, ebiten.KeyArrowUp, ebiten.KeyArrowDown,
}

// Key repeat timing, in ticks.
const (
	repeatDelay    = 30
	repeatInterval = 3
)

// repeats reports whether a key held for d ticks repeats this tick. The
// first tick is the initial press and is not a repeat.
func repeats(d int) bool {
	return d >= repeatDelay && (d-repeatDelay)%repeatInterval == 0
}

var buttons = []struct {
	eb ebiten.MouseButton
	b  event.Button
}{
	{ebiten.MouseButtonLeft, event.ButtonLeft},
	{ebiten.MouseButtonMiddle, event.ButtonMiddle},
	{ebiten.MouseButtonRight, event.ButtonRight},
}

// CursorShape translates a panel cursor to ebiten's.
func CursorShape(c widget.Cursor) ebiten.CursorShapeType {
	switch c {
	case widget.CursorMove:
		return ebiten.CursorShapeMove
	case widget.CursorEWResize:
		return ebiten.CursorShapeEWResize
	case widget.CursorNSResize:
		return ebiten.CursorShapeNSResize
	case widget.CursorNWSEResize:
		return ebiten.CursorShapeNWSEResize
	case widget.CursorNESWResize:
		return ebiten.CursorShapeNESWResize
	}
	return ebiten.CursorShapeDefault
}
