package widget

import (
	"image"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/surface"
)

// CaretInterval is how often the text caret blinks.
var CaretInterval = 500 * time.Millisecond

// Textbox is a single-line text input. A press inside focuses it; while
// focused it takes every KeyDown event. Return or a press outside blurs
// it, and Change fires on blur if the text differs from when it gained
// focus.
type Textbox struct {
	element.HitboxElement
	textStyle

	value       string
	placeholder string
	maxLength   int
	mask        rune

	caret   bool
	keyID   event.ListenerID
	caretID event.IntervalID
	surf    *surface.Surface

	// Widgets built on Textbox replace these to change editing.
	editKey func(event.Event)
	current func() any
	onBlur  func()
}

// NewTextbox returns an empty, left-aligned text box.
func NewTextbox(h *event.Handler, f *surface.Font) *Textbox {
	t := &Textbox{}
	t.InitHitbox(t, h)
	t.textStyle = newTextStyle(&t.Base, f)
	t.align = AlignLeft
	defaultPadding(&t.Base)
	t.editKey = t.onKeyDown
	t.current = func() any { return t.value }
	t.On(event.KindMouseDown, t.focus)
	return t
}

// NewPasswordBox returns a text box that shows every rune as '*'.
func NewPasswordBox(h *event.Handler, f *surface.Font) *Textbox {
	t := NewTextbox(h, f)
	t.mask = '*'
	return t
}

func (t *Textbox) Value() string { return t.value }

// SetValue replaces the text, cut to the maximum length.
func (t *Textbox) SetValue(v string) {
	if t.maxLength > 0 && utf8.RuneCountInString(v) > t.maxLength {
		v = string([]rune(v)[:t.maxLength])
	}
	if v != t.value {
		t.value = v
		t.MarkChanged()
	}
}

func (t *Textbox) Placeholder() string { return t.placeholder }

// SetPlaceholder sets the text shown while the box is empty and blurred.
func (t *Textbox) SetPlaceholder(p string) {
	t.placeholder = p
	t.MarkChanged()
}

func (t *Textbox) MaxLength() int { return t.maxLength }

// SetMaxLength limits the text to n runes. Zero means no limit.
func (t *Textbox) SetMaxLength(n int) {
	t.maxLength = max(n, 0)
	t.SetValue(t.value)
}

func (t *Textbox) focus(event.Event) {
	if t.HasFocus() {
		return
	}
	t.Hitbox().Focus(t.current)
	h := t.Handler()
	t.keyID = h.On(event.KindKeyDown, t.editKey, event.Override(), event.WithOwner(t))
	t.caret = true
	t.caretID = h.AddInterval(CaretInterval, t.blink)
	t.On(event.KindFocusRelease, func(event.Event) { t.blur() }, event.Once())
	t.MarkChanged()
}

func (t *Textbox) blur() {
	h := t.Handler()
	if t.keyID != 0 {
		h.RemoveEventListener(t.keyID)
		t.keyID = 0
	}
	if t.caretID != 0 {
		h.RemoveInterval(t.caretID)
		t.caretID = 0
	}
	t.caret = false
	if t.onBlur != nil {
		t.onBlur()
	}
	t.MarkChanged()
}

func (t *Textbox) blink() {
	t.caret = !t.caret
	t.MarkChanged()
}

func (t *Textbox) onKeyDown(ev event.Event) {
	switch {
	case ev.Key == event.KeyBackspace:
		if r := []rune(t.value); len(r) > 0 {
			t.SetValue(string(r[:len(r)-1]))
		}
	case ev.Key == event.KeyReturn:
		t.Hitbox().ReleaseFocus()
	case ev.Rune != 0 && unicode.IsPrint(ev.Rune):
		if t.maxLength == 0 || utf8.RuneCountInString(t.value) < t.maxLength {
			t.SetValue(t.value + string(ev.Rune))
		}
	}
}

func (t *Textbox) shown() string {
	if t.mask == 0 {
		return t.value
	}
	return strings.Repeat(string(t.mask), utf8.RuneCountInString(t.value))
}

// CalcInnerWidth leaves room for the caret while focused.
func (t *Textbox) CalcInnerWidth() int {
	s := t.shown()
	if t.HasFocus() {
		s += " "
	}
	return t.font.Measure(s)
}

func (t *Textbox) CalcInnerHeight() int { return t.font.Height() }

func (t *Textbox) Render(dst *surface.Surface) *surface.Surface {
	if !t.Visible() {
		return nil
	}
	if t.surf == nil || t.Changed() || t.surf.Size() != t.Size() {
		t.draw()
		t.MarkClean()
	}
	t.SyncHitbox()
	if dst != nil {
		dst.Blit(t.surf, t.BlitPoint())
	}
	return t.surf
}

func (t *Textbox) draw() {
	text := t.shown()
	switch {
	case t.HasFocus() && t.caret:
		text += "|"
	case t.HasFocus():
		text += " "
	case text == "":
		text = t.placeholder
	}
	f := t.frame(t.Width(), t.Height(), t.background)
	pad := t.Padding()
	tw, th := t.font.Measure(text), t.font.Height()
	dx, dy := pad.Left(), pad.Top()
	// Keep the end of long text, where the caret is, in view.
	if tw+pad.Horizontal() > f.Width() {
		dx = f.Width() - tw - pad.Right()
	}
	if th+pad.Vertical() > f.Height() {
		dy = f.Height() - th - pad.Bottom()
	}
	t.font.DrawText(f, text, image.Pt(dx, dy), t.color)
	t.surf = f
}

// Destruct drops the key listener and caret timer along with the hitbox.
func (t *Textbox) Destruct() {
	t.blur()
	t.HitboxElement.Destruct()
}
