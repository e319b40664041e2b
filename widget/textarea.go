package widget

import (
	"image"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/surface"
)

// Textarea is a multi-line text input. A click focuses it. Return starts
// a new line and shift+Return blurs it. Lines wrap at the inner width when
// the width is fixed, and text taller than the area scrolls with the
// wheel; typing scrolls to the end.
type Textarea struct {
	element.HitboxElement
	textStyle

	value     string
	maxLength int
	readonly  bool

	caret   bool
	keyID   event.ListenerID
	caretID event.IntervalID
	view    viewport
	surf    *surface.Surface
}

// NewTextarea returns an empty text area. A read-only area shows its
// text and scrolls but cannot be focused.
func NewTextarea(h *event.Handler, f *surface.Font, readonly bool) *Textarea {
	t := &Textarea{readonly: readonly}
	t.InitHitbox(t, h)
	t.textStyle = newTextStyle(&t.Base, f)
	t.align = AlignLeft
	defaultPadding(&t.Base)
	if !readonly {
		t.On(event.KindMouseClick, t.focus)
	}
	t.On(event.KindScrollUp, func(event.Event) { t.scroll(-ScrollStep) })
	t.On(event.KindScrollDown, func(event.Event) { t.scroll(ScrollStep) })
	return t
}

func (t *Textarea) Value() string  { return t.value }
func (t *Textarea) ReadOnly() bool { return t.readonly }

// SetValue replaces the text, cut to the maximum length.
func (t *Textarea) SetValue(v string) {
	if t.maxLength > 0 && utf8.RuneCountInString(v) > t.maxLength {
		v = string([]rune(v)[:t.maxLength])
	}
	if v != t.value {
		t.value = v
		t.MarkChanged()
	}
}

func (t *Textarea) MaxLength() int { return t.maxLength }

// SetMaxLength limits the text to n runes. Zero means no limit.
func (t *Textarea) SetMaxLength(n int) {
	t.maxLength = max(n, 0)
	t.SetValue(t.value)
}

// ScrollOffset is how far the text is scrolled down.
func (t *Textarea) ScrollOffset() int { return t.view.offset.Y }

func (t *Textarea) scroll(delta int) {
	if t.view.scroll(delta, false) {
		t.MarkChanged()
	}
}

func (t *Textarea) focus(event.Event) {
	if t.HasFocus() {
		return
	}
	t.Hitbox().Focus(func() any { return t.value })
	h := t.Handler()
	t.keyID = h.On(event.KindKeyDown, t.onKeyDown, event.Override(), event.WithOwner(t))
	t.caret = true
	t.caretID = h.AddInterval(CaretInterval, t.blink)
	t.On(event.KindFocusRelease, func(event.Event) { t.blur() }, event.Once())
	t.MarkChanged()
}

func (t *Textarea) blur() {
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
	t.MarkChanged()
}

func (t *Textarea) blink() {
	t.caret = !t.caret
	t.MarkChanged()
}

func (t *Textarea) onKeyDown(ev event.Event) {
	switch {
	case ev.Key == event.KeyReturn && ev.Mods.Has(event.Shift):
		t.Hitbox().ReleaseFocus()
		return
	case ev.Key == event.KeyBackspace:
		if r := []rune(t.value); len(r) > 0 {
			t.SetValue(string(r[:len(r)-1]))
		}
	case t.maxLength > 0 && utf8.RuneCountInString(t.value) >= t.maxLength:
	case ev.Key == event.KeyReturn:
		t.SetValue(t.value + "\n")
	case ev.Rune != 0 && unicode.IsPrint(ev.Rune):
		t.SetValue(t.value + string(ev.Rune))
	}
	t.view.follow = true
}

// shown is the text with the caret cell appended while focused.
func (t *Textarea) shown() string {
	switch {
	case t.HasFocus() && t.caret:
		return t.value + "|"
	case t.HasFocus():
		return t.value + " "
	}
	return t.value
}

// lines splits the shown text into lines, wrapped at the inner width when
// the width is fixed.
func (t *Textarea) lines() []string {
	raw := strings.Split(t.shown(), "\n")
	if _, ok := t.ExplicitWidth(); !ok {
		return raw
	}
	width := t.InnerWidth()
	var out []string
	for _, l := range raw {
		out = append(out, wrapLine(t.font, l, width)...)
	}
	return out
}

// wrapLine breaks line into pieces no wider than width, at spaces where
// possible and between runes otherwise.
func wrapLine(f *surface.Font, line string, width int) []string {
	if width <= 0 || f.Measure(line) <= width {
		return []string{line}
	}
	var out []string
	for line != "" {
		fit := 0
		for i := range line {
			if i > 0 && f.Measure(line[:i]) > width {
				break
			}
			fit = i
		}
		if f.Measure(line) <= width {
			fit = len(line)
		}
		if fit == 0 {
			_, fit = utf8.DecodeRuneInString(line)
		}
		if fit < len(line) {
			if sp := strings.LastIndexByte(line[:fit], ' '); sp > 0 {
				fit = sp + 1
			}
		}
		out = append(out, strings.TrimRight(line[:fit], " "))
		line = line[fit:]
	}
	return out
}

func (t *Textarea) CalcInnerWidth() int {
	w := 0
	for _, l := range strings.Split(t.value+" ", "\n") {
		w = max(w, t.font.Measure(l))
	}
	return w
}

func (t *Textarea) CalcInnerHeight() int {
	return t.font.Height() * len(t.lines())
}

// Changed stays true while focused so the caret keeps drawing.
func (t *Textarea) Changed() bool { return t.Base.Changed() || t.HasFocus() }

func (t *Textarea) Render(dst *surface.Surface) *surface.Surface {
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

func (t *Textarea) draw() {
	lines := t.lines()
	pad := t.Padding()
	fh := t.font.Height()
	w, h := t.Width(), t.Height()
	text := surface.New(max(w-pad.Horizontal(), 0), fh*len(lines))
	for i, l := range lines {
		t.font.DrawText(text, l, image.Pt(0, i*fh), t.color)
	}
	cw, ch := w, text.Height()+pad.Vertical()
	if ch > h {
		// Leave the scrollbar its own column.
		cw -= ScrollbarWidth
	}
	content := surface.New(cw, ch)
	content.Blit(text, image.Pt(pad.Left(), pad.Top()))
	f := t.view.compose(content, image.Point{}, content.Size(), w, h, t.background)
	if t.border != nil {
		f.StrokeRect(f.Bounds(), t.border, 1)
	}
	t.surf = f
}

// Destruct drops the key listener and caret timer along with the hitbox.
func (t *Textarea) Destruct() {
	t.blur()
	t.HitboxElement.Destruct()
}
