package widget

import (
	"fmt"

	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/surface"
)

// Label shows a single line of text.
type Label struct {
	element.HitboxElement
	textStyle

	text string
	surf *surface.Surface
}

// NewLabel returns a centered label. A nil font selects the default font.
func NewLabel(h *event.Handler, text string, f *surface.Font) *Label {
	l := &Label{text: text}
	l.InitHitbox(l, h)
	l.textStyle = newTextStyle(&l.Base, f)
	defaultPadding(&l.Base)
	return l
}

func (l *Label) Text() string { return l.text }

func (l *Label) SetText(text string) {
	if text != l.text {
		l.text = text
		l.MarkChanged()
	}
}

// SetValue sets the text to the default formatting of v.
func (l *Label) SetValue(v any) { l.SetText(fmt.Sprint(v)) }

func (l *Label) CalcInnerWidth() int  { return l.font.Measure(l.text) }
func (l *Label) CalcInnerHeight() int { return l.font.Height() }

func (l *Label) Render(dst *surface.Surface) *surface.Surface {
	if !l.Visible() {
		return nil
	}
	if l.surf == nil || l.Changed() || l.surf.Size() != l.Size() {
		l.surf = l.frame(l.Width(), l.Height(), l.background)
		l.place(l.surf, l.text, l.Padding())
		l.MarkClean()
	}
	l.SyncHitbox()
	if dst != nil {
		dst.Blit(l.surf, l.BlitPoint())
	}
	return l.surf
}
