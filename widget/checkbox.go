package widget

import (
	"image"
	"image/color"

	"github.com/OpticalFlyer/screenkit/drawobj"
	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/surface"
)

// Symbol is the mark drawn in a checked checkbox.
type Symbol int

const (
	SymbolCheck Symbol = iota
	SymbolCross
	SymbolCircle
	SymbolFilled
)

// Checkbox is a square toggle followed by a text label. A click flips it
// and fires Change.
type Checkbox struct {
	element.HitboxElement
	textStyle

	text     string
	checked  bool
	symbol   Symbol
	boxFill  color.Color
	boxLine  color.Color
	markFill color.Color
	surf     *surface.Surface
}

// NewCheckbox returns an unchecked checkbox.
func NewCheckbox(h *event.Handler, text string, f *surface.Font) *Checkbox {
	c := &Checkbox{
		text:     text,
		boxFill:  White,
		boxLine:  Black,
		markFill: Black,
	}
	c.InitHitbox(c, h)
	c.textStyle = newTextStyle(&c.Base, f)
	defaultPadding(&c.Base)
	c.On(event.KindMouseClick, func(event.Event) { c.Toggle() }, event.WithButton(event.ButtonLeft))
	return c
}

func (c *Checkbox) Checked() bool { return c.checked }

// SetChecked sets the state without firing Change.
func (c *Checkbox) SetChecked(v bool) {
	if v != c.checked {
		c.checked = v
		c.MarkChanged()
	}
}

// Toggle flips the state and fires Change.
func (c *Checkbox) Toggle() {
	c.SetChecked(!c.checked)
	c.Hitbox().TriggerChange()
}

func (c *Checkbox) SetSymbol(s Symbol) {
	c.symbol = s
	c.MarkChanged()
}

// SetBoxColors sets the square's fill, outline and mark colors.
func (c *Checkbox) SetBoxColors(fill, line, mark color.Color) {
	c.boxFill, c.boxLine, c.markFill = fill, line, mark
	c.MarkChanged()
}

func (c *Checkbox) side() int { return c.font.Height() }

func (c *Checkbox) CalcInnerWidth() int {
	w := c.side()
	if c.text != "" {
		w += 4 + c.font.Measure(c.text)
	}
	return w
}

func (c *Checkbox) CalcInnerHeight() int { return c.font.Height() }

func (c *Checkbox) Render(dst *surface.Surface) *surface.Surface {
	if !c.Visible() {
		return nil
	}
	if c.surf == nil || c.Changed() || c.surf.Size() != c.Size() {
		c.draw()
		c.MarkClean()
	}
	c.SyncHitbox()
	if dst != nil {
		dst.Blit(c.surf, c.BlitPoint())
	}
	return c.surf
}

func (c *Checkbox) draw() {
	pad := c.Padding()
	f := c.frame(c.Width(), c.Height(), c.background)
	n := c.side()
	x, y := float64(pad.Left()), float64(pad.Top())
	lo, hi := geom.V(x, y), geom.V(x+float64(n), y+float64(n))
	drawobj.Rectangle(f, c.boxFill, lo, hi, 0)
	drawobj.Rectangle(f, c.boxLine, lo, hi, 1)

	if c.checked {
		s := float64(n)
		at := func(fx, fy float64) geom.Vec { return geom.V(x+fx*s, y+fy*s) }
		w := max(s/8, 1.5)
		switch c.symbol {
		case SymbolCheck:
			drawobj.Line(f, c.markFill, at(0.2, 0.55), at(0.42, 0.78), w)
			drawobj.Line(f, c.markFill, at(0.42, 0.78), at(0.82, 0.25), w)
		case SymbolCross:
			drawobj.Line(f, c.markFill, at(0.2, 0.2), at(0.8, 0.8), w)
			drawobj.Line(f, c.markFill, at(0.8, 0.2), at(0.2, 0.8), w)
		case SymbolCircle:
			drawobj.Circle(f, c.markFill, at(0.5, 0.5), s*0.3, 0)
		case SymbolFilled:
			drawobj.Rectangle(f, c.markFill, at(0.2, 0.2), at(0.8, 0.8), 0)
		}
	}
	if c.text != "" {
		c.font.DrawText(f, c.text, image.Pt(pad.Left()+n+4, pad.Top()), c.color)
	}
	c.surf = f
}
