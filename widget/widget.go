// Package widget holds the interactive elements built on element and
// hitbox: labels, buttons, checkboxes, progress bars, text boxes, text
// areas, number boxes, multitoggles, dropdowns, scroll boxes and floating
// panels.
package widget

import (
	"image"
	"image/color"

	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/surface"
)

// TextAlign places text horizontally inside a widget.
type TextAlign int

const (
	AlignLeft TextAlign = iota - 1
	AlignCenter
	AlignRight
)

var (
	// White is the default text color.
	White = color.RGBA{255, 255, 255, 255}
	// Black is the default checkbox border and mark color.
	Black = color.RGBA{0, 0, 0, 255}
)

// textStyle is the look shared by text-bearing widgets. Every setter
// marks the owning element changed.
type textStyle struct {
	font       *surface.Font
	color      color.Color
	background color.Color
	border     color.Color
	align      TextAlign
	owner      *element.Base
}

func newTextStyle(owner *element.Base, f *surface.Font) textStyle {
	if f == nil {
		f = surface.DefaultFont()
	}
	return textStyle{font: f, color: White, owner: owner}
}

func (s *textStyle) Font() *surface.Font { return s.font }

func (s *textStyle) SetFont(f *surface.Font) {
	if f == nil {
		f = surface.DefaultFont()
	}
	s.font = f
	s.owner.MarkChanged()
}

func (s *textStyle) Color() color.Color { return s.color }

func (s *textStyle) SetColor(c color.Color) {
	s.color = c
	s.owner.MarkChanged()
}

func (s *textStyle) Background() color.Color { return s.background }

// SetBackground sets the fill color; nil is transparent.
func (s *textStyle) SetBackground(c color.Color) {
	s.background = c
	s.owner.MarkChanged()
}

func (s *textStyle) Border() color.Color { return s.border }

// SetBorder sets the 1px outline color; nil draws no outline.
func (s *textStyle) SetBorder(c color.Color) {
	s.border = c
	s.owner.MarkChanged()
}

func (s *textStyle) TextAlign() TextAlign { return s.align }

func (s *textStyle) SetTextAlign(a TextAlign) {
	s.align = a
	s.owner.MarkChanged()
}

// frame returns a w x h surface with the style's background and border.
func (s *textStyle) frame(w, h int, bg color.Color) *surface.Surface {
	f := surface.New(w, h)
	if bg != nil {
		f.Fill(bg)
	}
	if s.border != nil {
		f.StrokeRect(f.Bounds(), s.border, 1)
	}
	return f
}

// place draws text into f inside the padding, aligned per the style.
// Text taller than the content box is centered on it.
func (s *textStyle) place(f *surface.Surface, text string, pad *element.Spacing) {
	tw, th := s.font.Measure(text), s.font.Height()
	fw, fh := f.Width(), f.Height()
	dy := 0
	if inner := fh - pad.Vertical(); th > inner {
		dy = (inner - th) / 2
	}
	dx := pad.Left()
	switch s.align {
	case AlignCenter:
		dx += (fw - (tw + pad.Horizontal())) / 2
	case AlignRight:
		dx += fw - (tw + pad.Horizontal())
	}
	s.font.DrawText(f, text, image.Pt(dx, pad.Top()+dy), s.color)
}

// defaultPadding is 2px above and below and 8px left and right.
func defaultPadding(b *element.Base) {
	_ = b.Padding().Set(2, 8, 2, 8)
}
