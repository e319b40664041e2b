package event

import "fmt"

// Key is a keyboard key, independent of the platform backend.
type Key int

const (
	KeyUnknown Key = iota
	KeyBackspace
	KeyTab
	KeyReturn
	KeyEscape
	KeySpace
	KeyDelete
	KeyArrowLeft
	KeyArrowRight
	KeyArrowUp
	KeyArrowDown
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyLShift
	KeyRShift
	KeyLCtrl
	KeyRCtrl
	KeyLAlt
	KeyRAlt
	KeyPlus
	KeyMinus
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyA
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
)

var keyNames = map[Key]string{
	KeyUnknown:    "unknown",
	KeyBackspace:  "backspace",
	KeyTab:        "tab",
	KeyReturn:     "return",
	KeyEscape:     "escape",
	KeySpace:      "space",
	KeyDelete:     "delete",
	KeyArrowLeft:  "left",
	KeyArrowRight: "right",
	KeyArrowUp:    "up",
	KeyArrowDown:  "down",
	KeyHome:       "home",
	KeyEnd:        "end",
	KeyPageUp:     "pageup",
	KeyPageDown:   "pagedown",
	KeyLShift:     "lshift",
	KeyRShift:     "rshift",
	KeyLCtrl:      "lctrl",
	KeyRCtrl:      "rctrl",
	KeyLAlt:       "lalt",
	KeyRAlt:       "ralt",
	KeyPlus:       "plus",
	KeyMinus:      "minus",
}

func (k Key) String() string {
	switch {
	case k >= KeyF1 && k <= KeyF12:
		return fmt.Sprintf("f%d", int(k-KeyF1)+1)
	case k >= Key0 && k <= Key9:
		return string(rune('0' + k - Key0))
	case k >= KeyA && k <= KeyZ:
		return string(rune('a' + k - KeyA))
	}
	if n, ok := keyNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// Modifiers is the set of held modifier keys, tracked per side.
type Modifiers uint8

const (
	ModLShift Modifiers = 1 << iota
	ModRShift
	ModLCtrl
	ModRCtrl
	ModLAlt
	ModRAlt
)

// Modifier is a modifier a listener can require. The unsided variants
// match either side.
type Modifier int

const (
	Shift Modifier = iota + 1
	LShift
	RShift
	Ctrl
	LCtrl
	RCtrl
	Alt
	LAlt
	RAlt
)

// Has reports whether the modifier requirement m is satisfied.
func (s Modifiers) Has(m Modifier) bool {
	switch m {
	case Shift:
		return s&(ModLShift|ModRShift) != 0
	case LShift:
		return s&ModLShift != 0
	case RShift:
		return s&ModRShift != 0
	case Ctrl:
		return s&(ModLCtrl|ModRCtrl) != 0
	case LCtrl:
		return s&ModLCtrl != 0
	case RCtrl:
		return s&ModRCtrl != 0
	case Alt:
		return s&(ModLAlt|ModRAlt) != 0
	case LAlt:
		return s&ModLAlt != 0
	case RAlt:
		return s&ModRAlt != 0
	}
	return false
}

// HasAll reports whether every requirement holds.
func (s Modifiers) HasAll(ms []Modifier) bool {
	for _, m := range ms {
		if !s.Has(m) {
			return false
		}
	}
	return true
}

func modifierBit(k Key) Modifiers {
	switch k {
	case KeyLShift:
		return ModLShift
	case KeyRShift:
		return ModRShift
	case KeyLCtrl:
		return ModLCtrl
	case KeyRCtrl:
		return ModRCtrl
	case KeyLAlt:
		return ModLAlt
	case KeyRAlt:
		return ModRAlt
	}
	return 0
}
