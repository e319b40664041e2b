package widget

import (
	"image"
	"image/color"

	"github.com/OpticalFlyer/screenkit/drawobj"
	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/surface"
)

// DropdownHoverColor highlights the option under the pointer.
var DropdownHoverColor = color.RGBA{80, 80, 80, 255}

// PopupHost displays popups above every other entity. The screen is one.
type PopupHost interface {
	AddPopup(p element.Entity)
	RemovePopup(p element.Entity)
}

// Dropdown shows the selected option and opens a list of all options on
// click. While the list is open every click goes to it: a click on an
// option selects it, any click closes the list, and Change fires if the
// selection differs from when the list opened.
type Dropdown struct {
	element.HitboxElement
	textStyle

	host        PopupHost
	options     []string
	selected    int
	placeholder string

	popup   *dropdownPopup
	open    bool
	clickID event.ListenerID
	surf    *surface.Surface
}

// NewDropdown returns a dropdown with nothing selected whose list is
// shown through host.
func NewDropdown(h *event.Handler, host PopupHost, f *surface.Font, options ...string) *Dropdown {
	d := &Dropdown{host: host, options: options, selected: -1, placeholder: "Select..."}
	d.InitHitbox(d, h)
	d.textStyle = newTextStyle(&d.Base, f)
	d.align = AlignLeft
	d.background = ButtonColor
	defaultPadding(&d.Base)
	d.popup = &dropdownPopup{d: d}
	d.On(event.KindMouseClick, func(event.Event) { d.Open() }, event.WithButton(event.ButtonLeft))
	// Losing focus to another widget closes the list.
	d.On(event.KindFocusRelease, func(event.Event) {
		if d.open {
			d.close()
		}
	})
	return d
}

func (d *Dropdown) Options() []string { return d.options }

// SetOptions replaces the options and clears the selection.
func (d *Dropdown) SetOptions(options ...string) {
	d.options = options
	d.selected = -1
	d.MarkChanged()
}

// Selected returns the selected index, or -1.
func (d *Dropdown) Selected() int { return d.selected }

// Value returns the selected option.
func (d *Dropdown) Value() (string, bool) {
	if d.selected < 0 {
		return "", false
	}
	return d.options[d.selected], true
}

// Select selects option i, or clears the selection for -1.
func (d *Dropdown) Select(i int) error {
	if i < -1 || i >= len(d.options) {
		return errors.InvalidArgument("widget.Dropdown.Select", "index %d outside %d options", i, len(d.options))
	}
	if i != d.selected {
		d.selected = i
		d.MarkChanged()
	}
	return nil
}

func (d *Dropdown) SetPlaceholder(p string) {
	d.placeholder = p
	d.MarkChanged()
}

// IsOpen reports whether the option list is showing.
func (d *Dropdown) IsOpen() bool { return d.open }

// Open shows the option list below the dropdown.
func (d *Dropdown) Open() {
	if d.open || d.Hitbox().Destructed() {
		return
	}
	d.Hitbox().ManualFocus(func() any { return d.selected })
	d.open = true
	d.popup.pos = d.Offset().Add(geom.V(0, float64(d.Height())))
	d.popup.width = max(d.Width(), d.widest()+30)
	d.clickID = d.Handler().On(event.KindMouseClick, d.onListClick, event.Override(), event.WithOwner(d))
	d.host.AddPopup(d.popup)
	d.MarkChanged()
}

// Close hides the option list.
func (d *Dropdown) Close() {
	if d.open {
		d.close()
	}
}

func (d *Dropdown) onListClick(ev event.Event) {
	if i, ok := d.popup.indexAt(ev.Pos); ok {
		_ = d.Select(i)
	}
	d.close()
}

func (d *Dropdown) close() {
	d.open = false
	d.Handler().RemoveEventListener(d.clickID)
	d.clickID = 0
	d.host.RemovePopup(d.popup)
	d.Hitbox().ReleaseFocus()
	d.MarkChanged()
}

func (d *Dropdown) text() string {
	if v, ok := d.Value(); ok {
		return v
	}
	return d.placeholder
}

func (d *Dropdown) widest() int {
	w := d.font.Measure(d.placeholder)
	for _, o := range d.options {
		w = max(w, d.font.Measure(o))
	}
	return w
}

// CalcInnerWidth fits the longest option and the arrow.
func (d *Dropdown) CalcInnerWidth() int  { return d.widest() + d.font.Height() }
func (d *Dropdown) CalcInnerHeight() int { return d.font.Height() }

func (d *Dropdown) Render(dst *surface.Surface) *surface.Surface {
	if !d.Visible() {
		return nil
	}
	if d.surf == nil || d.Changed() || d.surf.Size() != d.Size() {
		d.draw()
		d.MarkClean()
	}
	d.SyncHitbox()
	if dst != nil {
		dst.Blit(d.surf, d.BlitPoint())
	}
	return d.surf
}

func (d *Dropdown) draw() {
	f := d.frame(d.Width(), d.Height(), d.background)
	pad := d.Padding()
	d.font.DrawText(f, d.text(), image.Pt(pad.Left(), pad.Top()), d.color)

	// Arrow in the right end of the content box, pointing up while open.
	s := float64(d.font.Height())
	x := float64(f.Width()-pad.Right()) - s
	y := float64(pad.Top())
	tri := []geom.Vec{geom.V(x+s*0.2, y+s*0.35), geom.V(x+s*0.8, y+s*0.35), geom.V(x+s*0.5, y+s*0.7)}
	if d.open {
		tri = []geom.Vec{geom.V(x+s*0.2, y+s*0.65), geom.V(x+s*0.8, y+s*0.65), geom.V(x+s*0.5, y+s*0.3)}
	}
	drawobj.Polygon(f, d.color, tri, 0)
	d.surf = f
}

// Destruct closes the list and releases the hitbox.
func (d *Dropdown) Destruct() {
	d.Close()
	d.HitboxElement.Destruct()
}

// dropdownPopup is the open option list, drawn straight onto the frame.
type dropdownPopup struct {
	d     *Dropdown
	pos   geom.Vec
	width int
}

func (p *dropdownPopup) rowHeight() int {
	return p.d.font.Height() + p.d.Padding().Vertical()
}

func (p *dropdownPopup) indexAt(pos geom.Vec) (int, bool) {
	rel := pos.Sub(p.pos)
	if rel.X < 0 || rel.X >= float64(p.width) || rel.Y < 0 {
		return 0, false
	}
	i := int(rel.Y) / p.rowHeight()
	return i, i < len(p.d.options)
}

// Changed is always true: the list follows the pointer for its highlight.
func (p *dropdownPopup) Changed() bool { return true }

func (p *dropdownPopup) Render(dst *surface.Surface) *surface.Surface {
	if dst == nil {
		return nil
	}
	d := p.d
	hover, hovering := p.indexAt(d.Handler().MousePos())
	rh := p.rowHeight()
	pad := d.Padding()
	for i, o := range d.options {
		bg := d.background
		if hovering && i == hover {
			bg = DropdownHoverColor
		}
		row := d.frame(p.width, rh, bg)
		d.font.DrawText(row, o, image.Pt(pad.Left(), pad.Top()), d.color)
		dst.Blit(row, p.pos.Add(geom.V(0, float64(i*rh))).Point())
	}
	return dst
}
