package widget

import (
	"image"
	"image/color"

	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/surface"
)

// ToggleActiveColor fills the selected button of a Multitoggle.
var ToggleActiveColor = color.RGBA{70, 110, 200, 255}

// Multitoggle is a row of buttons of which at most one is selected.
// Clicking an unselected button selects it and fires Change.
type Multitoggle struct {
	element.HitboxElement

	options  []string
	buttons  []*Button
	selected int
	gap      int
	inactive color.Color
	active   color.Color
	rects    []image.Rectangle
	surf     *surface.Surface
}

// NewMultitoggle returns a toggle over options with nothing selected.
func NewMultitoggle(h *event.Handler, f *surface.Font, options ...string) *Multitoggle {
	m := &Multitoggle{options: options, selected: -1, inactive: ButtonColor, active: ToggleActiveColor}
	m.InitHitbox(m, h)
	for i, o := range options {
		b := NewButton(h, o, f, nil)
		b.SetTextAlign(AlignCenter)
		b.On(event.KindMouseClick, func(event.Event) { m.choose(i) }, event.WithButton(event.ButtonLeft))
		m.buttons = append(m.buttons, b)
	}
	return m
}

func (m *Multitoggle) Options() []string { return m.options }

// Buttons returns the option buttons in order. Do not modify the slice.
func (m *Multitoggle) Buttons() []*Button { return m.buttons }

// Children lets tree walks reach the buttons.
func (m *Multitoggle) Children() []element.Element {
	out := make([]element.Element, len(m.buttons))
	for i, b := range m.buttons {
		out[i] = b
	}
	return out
}

// Selected returns the selected index, or -1.
func (m *Multitoggle) Selected() int { return m.selected }

// Value returns the selected option.
func (m *Multitoggle) Value() (string, bool) {
	if m.selected < 0 {
		return "", false
	}
	return m.options[m.selected], true
}

// Select selects option i, or clears the selection for -1, without firing
// Change.
func (m *Multitoggle) Select(i int) error {
	if i < -1 || i >= len(m.options) {
		return errors.InvalidArgument("widget.Multitoggle.Select", "index %d outside %d options", i, len(m.options))
	}
	if i != m.selected {
		m.selected = i
		m.MarkChanged()
	}
	return nil
}

func (m *Multitoggle) choose(i int) {
	if i == m.selected {
		return
	}
	_ = m.Select(i)
	m.Hitbox().TriggerChange()
}

func (m *Multitoggle) Gap() int { return m.gap }

func (m *Multitoggle) SetGap(g int) error {
	if g < 0 {
		return errors.InvalidArgument("widget.Multitoggle.SetGap", "negative gap %d", g)
	}
	m.gap = g
	m.MarkChanged()
	return nil
}

// SetColors sets the fill of unselected and selected buttons.
func (m *Multitoggle) SetColors(inactive, active color.Color) {
	m.inactive, m.active = inactive, active
	m.MarkChanged()
}

func (m *Multitoggle) CalcInnerWidth() int {
	w := 0
	for _, b := range m.buttons {
		w += b.Width()
	}
	return w + m.gap*max(len(m.buttons)-1, 0)
}

func (m *Multitoggle) CalcInnerHeight() int {
	h := 0
	for _, b := range m.buttons {
		h = max(h, b.Height())
	}
	return h
}

// Changed is true when the toggle or any button needs drawing.
func (m *Multitoggle) Changed() bool {
	if m.Base.Changed() {
		return true
	}
	for _, b := range m.buttons {
		if b.Changed() {
			return true
		}
	}
	return false
}

// widths returns each button's width. A fixed toggle width is shared
// equally.
func (m *Multitoggle) widths() []int {
	out := make([]int, len(m.buttons))
	_, fixed := m.ExplicitWidth()
	each := 0
	if n := len(m.buttons); fixed && n > 0 {
		each = max((m.InnerWidth()-m.gap*(n-1))/n, 0)
	}
	for i, b := range m.buttons {
		out[i] = b.Width()
		if fixed {
			out[i] = each
		}
	}
	return out
}

func (m *Multitoggle) Render(dst *surface.Surface) *surface.Surface {
	if !m.Visible() {
		return nil
	}
	if m.surf == nil || m.Changed() || m.surf.Size() != m.Size() {
		m.draw()
		m.MarkClean()
	}
	m.SyncHitbox()
	m.placeButtons()
	if dst != nil {
		dst.Blit(m.surf, m.BlitPoint())
	}
	return m.surf
}

func (m *Multitoggle) draw() {
	f := surface.New(m.Width(), m.Height())
	pad := m.Padding()
	x, h := pad.Left(), m.InnerHeight()
	for i, b := range m.buttons {
		fill := m.inactive
		if i == m.selected {
			fill = m.active
		}
		if b.Background() != fill {
			b.SetBackground(fill)
		}
	}
	m.rects = m.rects[:0]
	for i, w := range m.widths() {
		b, at := m.buttons[i], image.Pt(x, pad.Top())
		var s *surface.Surface
		b.ResetAfter(func() {
			_ = b.SetWidth(w)
			_ = b.SetHeight(h)
			s = b.Render(nil)
		})
		if s == nil {
			s = surface.New(0, 0)
		}
		f.Blit(s, at)
		m.rects = append(m.rects, image.Rectangle{Min: at, Max: at.Add(s.Size())})
		x += w + m.gap
	}
	m.surf = f
}

// placeButtons moves each button's hitbox over the rectangle it was drawn
// in.
func (m *Multitoggle) placeButtons() {
	for i, r := range m.rects {
		b := m.buttons[i]
		p := m.Offset().Add(geom.FromPoint(r.Min))
		b.Base.SetOffset(p)
		b.Hitbox().SetLocation(p)
		b.Hitbox().SetSize(geom.FromPoint(r.Size()))
	}
}

// SetOffset moves the toggle and its buttons.
func (m *Multitoggle) SetOffset(p geom.Vec) {
	m.HitboxElement.SetOffset(p)
	m.placeButtons()
}

// Destruct releases every button and the toggle's hitbox.
func (m *Multitoggle) Destruct() {
	for _, b := range m.buttons {
		b.Destruct()
	}
	m.HitboxElement.Destruct()
}
