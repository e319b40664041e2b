package widget

import (
	"image/color"

	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/surface"
)

var (
	// ButtonColor, ButtonHoverColor and ButtonPressColor are the default
	// button fills.
	ButtonColor      = color.RGBA{150, 150, 150, 255}
	ButtonHoverColor = color.RGBA{180, 180, 180, 255}
	ButtonPressColor = color.RGBA{100, 100, 100, 255}
)

// Button is a label that reacts to hover and press and runs a callback
// on click.
type Button struct {
	element.HitboxElement
	textStyle

	text       string
	hoverColor color.Color
	pressColor color.Color
	hovered    bool
	pressed    bool
	upID       event.ListenerID
	surf       *surface.Surface
}

// NewButton returns a button that calls onClick, if not nil, when
// clicked.
func NewButton(h *event.Handler, text string, f *surface.Font, onClick func()) *Button {
	b := &Button{text: text, hoverColor: ButtonHoverColor, pressColor: ButtonPressColor}
	b.InitHitbox(b, h)
	b.textStyle = newTextStyle(&b.Base, f)
	b.background = ButtonColor
	b.border = Black
	defaultPadding(&b.Base)

	b.On(event.KindMouseEnter, func(event.Event) { b.setHover(true) })
	b.On(event.KindMouseLeave, func(event.Event) { b.setHover(false) })
	b.On(event.KindMouseDown, func(event.Event) { b.setPressed(true) }, event.WithButton(event.ButtonLeft))
	// Releases anywhere end the press, so listen on the handler directly.
	b.upID = b.Handler().On(event.KindMouseUp, func(event.Event) { b.setPressed(false) }, event.WithOwner(b))
	if onClick != nil {
		b.OnClick(onClick)
	}
	return b
}

// OnClick adds a click callback and returns its listener id.
func (b *Button) OnClick(fn func()) event.ListenerID {
	return b.On(event.KindMouseClick, func(event.Event) { fn() })
}

func (b *Button) Text() string { return b.text }

func (b *Button) SetText(text string) {
	if text != b.text {
		b.text = text
		b.MarkChanged()
	}
}

// SetStateColors sets the hover and press fills.
func (b *Button) SetStateColors(hover, press color.Color) {
	b.hoverColor, b.pressColor = hover, press
	b.MarkChanged()
}

func (b *Button) Hovered() bool { return b.hovered }
func (b *Button) Pressed() bool { return b.pressed }

func (b *Button) setHover(v bool) {
	if v != b.hovered {
		b.hovered = v
		b.MarkChanged()
	}
}

func (b *Button) setPressed(v bool) {
	if v != b.pressed {
		b.pressed = v
		b.MarkChanged()
	}
}

func (b *Button) fill() color.Color {
	switch {
	case b.pressed:
		return b.pressColor
	case b.hovered:
		return b.hoverColor
	}
	return b.background
}

func (b *Button) CalcInnerWidth() int  { return b.font.Measure(b.text) }
func (b *Button) CalcInnerHeight() int { return b.font.Height() }

func (b *Button) Render(dst *surface.Surface) *surface.Surface {
	if !b.Visible() {
		return nil
	}
	if b.surf == nil || b.Changed() || b.surf.Size() != b.Size() {
		b.surf = b.frame(b.Width(), b.Height(), b.fill())
		b.place(b.surf, b.text, b.Padding())
		b.MarkClean()
	}
	b.SyncHitbox()
	if dst != nil {
		dst.Blit(b.surf, b.BlitPoint())
	}
	return b.surf
}

// Destruct removes the button's listeners.
func (b *Button) Destruct() {
	b.Handler().RemoveEventListener(b.upID)
	b.HitboxElement.Destruct()
}
