package widget

import (
	"image/color"

	"github.com/OpticalFlyer/screenkit/drawobj"
	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/surface"
)

// ProgressBarColor is the default fill of the completed part.
var ProgressBarColor = color.RGBA{33, 150, 243, 255}

// ProgressBar shows a value in [0, 1] as a partly filled bar. It has no
// intrinsic size: give it an explicit size or let a box stretch it.
type ProgressBar struct {
	element.HitboxElement

	value      float64
	color      color.Color
	background color.Color
	border     color.Color
	surf       *surface.Surface
}

func NewProgressBar(h *event.Handler) *ProgressBar {
	p := &ProgressBar{color: ProgressBarColor, background: color.RGBA{60, 60, 60, 255}}
	p.InitHitbox(p, h)
	return p
}

func (p *ProgressBar) Value() float64 { return p.value }

// SetValue sets the completed fraction. Values outside [0, 1] are
// rejected.
func (p *ProgressBar) SetValue(v float64) error {
	if !(v >= 0 && v <= 1) {
		return errors.InvalidArgument("widget.ProgressBar.SetValue", "value %v outside [0, 1]", v)
	}
	if v != p.value {
		p.value = v
		p.MarkChanged()
	}
	return nil
}

// SetColors sets the bar, background and border colors. Nil background
// or border colors are not drawn.
func (p *ProgressBar) SetColors(bar, background, border color.Color) {
	p.color, p.background, p.border = bar, background, border
	p.MarkChanged()
}

func (p *ProgressBar) CalcInnerWidth() int  { return 0 }
func (p *ProgressBar) CalcInnerHeight() int { return 0 }

func (p *ProgressBar) Render(dst *surface.Surface) *surface.Surface {
	if !p.Visible() {
		return nil
	}
	if p.surf == nil || p.Changed() || p.surf.Size() != p.Size() {
		p.draw()
		p.MarkClean()
	}
	p.SyncHitbox()
	if dst != nil {
		dst.Blit(p.surf, p.BlitPoint())
	}
	return p.surf
}

func (p *ProgressBar) draw() {
	w, h := p.Width(), p.Height()
	f := surface.New(w, h)
	pad := p.Padding()
	left, top := float64(pad.Left()), float64(pad.Top())
	right, bottom := float64(w-pad.Right()), float64(h-pad.Bottom())
	if p.background != nil {
		drawobj.Rectangle(f, p.background, geom.V(left, top), geom.V(right, bottom), 0)
	}
	if done := float64(int((right - left) * p.value)); done > 0 {
		drawobj.Rectangle(f, p.color, geom.V(left, top), geom.V(left+done, bottom), 0)
	}
	if p.border != nil {
		drawobj.Rectangle(f, p.border, geom.V(left, top), geom.V(right, bottom), 1)
	}
	p.surf = f
}
