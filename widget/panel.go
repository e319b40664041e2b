package widget

import (
	"image"
	"image/color"

	"github.com/OpticalFlyer/screenkit/drawobj"
	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/hitbox"
	"github.com/OpticalFlyer/screenkit/surface"
)

// Dock is the window edge a panel is attached to.
type Dock int

const (
	DockNone Dock = iota
	DockLeft
	DockRight
	DockTop
	DockBottom
)

// Edge is a set of panel edges under the pointer, used for resizing.
type Edge int

const (
	EdgeLeft Edge = 1 << iota
	EdgeRight
	EdgeTop
	EdgeBottom
)

// Cursor is the pointer shape a panel asks for.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorMove
	CursorEWResize
	CursorNSResize
	CursorNWSEResize
	CursorNESWResize
)

const (
	TitleBarHeight = 20.0
	resizeArea     = 5.0
	dockThreshold  = 20.0
	dockedSize     = 200.0
	minPanelWidth  = 100.0
	minPanelHeight = 50.0
	previewAlpha   = 84
	panelAlpha     = 200
)

// Panel is a floating window entity: a title bar that drags it, edges
// that resize it, docking to a window edge when dragged close to one, and
// a vertical flexbox body that fills the area below the title bar.
type Panel struct {
	h     *event.Handler
	title string
	font  *surface.Font
	body  *element.Box

	rect     geom.Rect
	undocked geom.Rect
	dock     Dock
	preview  bool
	window   image.Point

	dragging  bool
	resizing  Edge
	grab      geom.Vec
	startRect geom.Rect

	listeners []event.ListenerID
	visible   bool
}

type panelBody struct{ p *Panel }

func (b panelBody) Width() int  { return int(b.p.rect.Size.X) }
func (b panelBody) Height() int { return max(int(b.p.rect.Size.Y-TitleBarHeight), 0) }

// NewPanel returns a panel at x, y in a window assumed to be 800x600
// until SetWindowSize is called.
func NewPanel(h *event.Handler, x, y, w, height float64, title string, f *surface.Font) *Panel {
	if f == nil {
		f = surface.DefaultFont()
	}
	p := &Panel{
		h:       h,
		title:   title,
		font:    f,
		rect:    geom.R(x, y, w, height),
		window:  image.Pt(800, 600),
		visible: true,
	}
	p.undocked = p.rect
	p.body = element.NewFlexbox(panelBody{p})
	_ = p.body.Padding().SetAll(4)
	p.listeners = []event.ListenerID{
		h.On(event.KindMouseDown, p.onDown, event.WithButton(event.ButtonLeft), event.WithOwner(p)),
		h.On(event.KindMouseMotion, p.onMotion, event.WithOwner(p)),
		h.On(event.KindMouseUp, p.onUp, event.WithButton(event.ButtonLeft), event.WithOwner(p)),
		h.On(event.KindResize, func(ev event.Event) { p.SetWindowSize(ev.Size.X, ev.Size.Y) }, event.WithOwner(p)),
	}
	return p
}

// Body returns the box laid out inside the panel.
func (p *Panel) Body() *element.Box { return p.body }

// Add appends elements to the body.
func (p *Panel) Add(children ...element.Element) { p.body.Add(children...) }

func (p *Panel) Title() string           { return p.title }
func (p *Panel) Rect() geom.Rect         { return p.rect }
func (p *Panel) Dock() Dock              { return p.dock }
func (p *Panel) Visible() bool           { return p.visible }
func (p *Panel) Changed() bool           { return true }
func (p *Panel) Interacting() bool       { return p.dragging || p.resizing != 0 }
func (p *Panel) SetTitle(t string)       { p.title = t }
func (p *Panel) DockPreview() bool       { return p.preview }
func (p *Panel) WindowSize() image.Point { return p.window }

// SetVisible shows or hides the panel, enabling or disabling the
// hitboxes in its body to match.
func (p *Panel) SetVisible(v bool) {
	p.visible = v
	setHitboxes(p.body, v)
}

func setHitboxes(e element.Element, on bool) {
	if hb, ok := e.(interface{ Hitbox() *hitbox.Hitbox }); ok {
		hb.Hitbox().SetEnabled(on && e.Visible())
	}
	if c, ok := e.(interface{ Children() []element.Element }); ok {
		for _, child := range c.Children() {
			setHitboxes(child, on)
		}
	}
}

// Contains reports whether pos is over the panel or its resize margin.
func (p *Panel) Contains(pos geom.Vec) bool {
	if !p.visible {
		return false
	}
	m := geom.V(resizeArea, resizeArea)
	return geom.Rect{Pos: p.rect.Pos.Sub(m), Size: p.rect.Size.Add(m.Scale(2))}.Contains(pos)
}

// SetWindowSize tells the panel the window size so docked panels follow
// it.
func (p *Panel) SetWindowSize(w, h int) {
	p.window = image.Pt(w, h)
	ww, wh := float64(w), float64(h)
	switch p.dock {
	case DockLeft:
		p.rect.Pos = geom.V(0, 0)
		p.rect.Size.Y = wh
	case DockRight:
		p.rect.Pos = geom.V(ww-p.rect.Size.X, 0)
		p.rect.Size.Y = wh
	case DockTop:
		p.rect.Pos = geom.V(0, 0)
		p.rect.Size.X = ww
	case DockBottom:
		p.rect.Pos = geom.V(0, wh-p.rect.Size.Y)
		p.rect.Size.X = ww
	}
}

// checkDocking previews docking while the title bar is dragged to within
// dockThreshold of a window edge.
func (p *Panel) checkDocking(pos geom.Vec) {
	ww, wh := float64(p.window.X), float64(p.window.Y)
	var d Dock
	switch {
	case pos.X < dockThreshold:
		d = DockLeft
	case ww-pos.X < dockThreshold:
		d = DockRight
	case pos.Y < dockThreshold:
		d = DockTop
	case wh-pos.Y < dockThreshold:
		d = DockBottom
	}
	if d == DockNone {
		if p.preview {
			p.rect.Size = p.undocked.Size
		}
		p.dock, p.preview = DockNone, false
		return
	}
	if p.dock == DockNone && !p.preview {
		p.undocked = p.rect
	}
	if d != p.dock {
		switch d {
		case DockLeft, DockRight:
			p.rect.Size.X = dockedSize
		case DockTop, DockBottom:
			p.rect.Size.Y = dockedSize
		}
	}
	p.dock, p.preview = d, true
	p.SetWindowSize(p.window.X, p.window.Y)
}

// resizableEdges are the edges that may move in the current dock state.
func (p *Panel) resizableEdges() Edge {
	switch p.dock {
	case DockLeft:
		return EdgeRight
	case DockRight:
		return EdgeLeft
	case DockTop:
		return EdgeBottom
	case DockBottom:
		return EdgeTop
	}
	return EdgeLeft | EdgeRight | EdgeTop | EdgeBottom
}

// edgesAt returns the resizable edges within resizeArea of pos.
func (p *Panel) edgesAt(pos geom.Vec) Edge {
	near := func(v, edge float64) bool { return v >= edge-resizeArea && v <= edge+resizeArea }
	lo, hi := p.rect.Pos, p.rect.Max()
	var e Edge
	if near(pos.X, lo.X) {
		e |= EdgeLeft
	}
	if near(pos.X, hi.X) {
		e |= EdgeRight
	}
	if near(pos.Y, lo.Y) {
		e |= EdgeTop
	}
	if near(pos.Y, hi.Y) {
		e |= EdgeBottom
	}
	e &= p.resizableEdges()
	if p.dock != DockNone {
		return e
	}
	// Undocked, an edge only counts along the panel's extent.
	inX := pos.X >= lo.X-resizeArea && pos.X <= hi.X+resizeArea
	inY := pos.Y >= lo.Y-resizeArea && pos.Y <= hi.Y+resizeArea
	if !inY {
		e &^= EdgeLeft | EdgeRight
	}
	if !inX {
		e &^= EdgeTop | EdgeBottom
	}
	return e
}

func (p *Panel) inTitleBar(pos geom.Vec) bool {
	if p.edgesAt(pos) != 0 {
		return false
	}
	return geom.Rect{Pos: p.rect.Pos, Size: geom.V(p.rect.Size.X, TitleBarHeight)}.Contains(pos)
}

// Cursor returns the pointer shape for pos.
func (p *Panel) Cursor(pos geom.Vec) Cursor {
	if !p.visible {
		return CursorDefault
	}
	switch e := p.edgesAt(pos); e {
	case EdgeLeft, EdgeRight:
		return CursorEWResize
	case EdgeTop, EdgeBottom:
		return CursorNSResize
	case EdgeTop | EdgeLeft, EdgeBottom | EdgeRight:
		return CursorNWSEResize
	case EdgeTop | EdgeRight, EdgeBottom | EdgeLeft:
		return CursorNESWResize
	}
	if p.inTitleBar(pos) {
		return CursorMove
	}
	return CursorDefault
}

func (p *Panel) onDown(ev event.Event) {
	if !p.visible {
		return
	}
	pos := ev.Pos
	if p.inTitleBar(pos) {
		p.dragging = true
		if p.dock == DockNone {
			p.undocked = p.rect
		} else {
			// Undock under the pointer at the same relative position.
			rel := (pos.X - p.rect.Pos.X) / p.rect.Size.X
			p.dock, p.preview = DockNone, false
			p.rect.Size = p.undocked.Size
			p.rect.Pos = geom.V(pos.X-p.rect.Size.X*rel, pos.Y-TitleBarHeight/2)
		}
		p.grab = pos.Sub(p.rect.Pos)
		return
	}
	if e := p.edgesAt(pos); e != 0 {
		p.resizing = e
		p.grab = pos
		p.startRect = p.rect
	}
}

func (p *Panel) onMotion(ev event.Event) {
	pos := ev.Pos
	switch {
	case p.dragging:
		p.rect.Pos = pos.Sub(p.grab)
		p.checkDocking(pos)
	case p.resizing != 0:
		p.resize(pos.Sub(p.grab))
	}
}

func (p *Panel) resize(d geom.Vec) {
	s := p.startRect
	r := s
	if p.resizing&EdgeLeft != 0 {
		r.Size.X = max(minPanelWidth, s.Size.X-d.X)
		r.Pos.X = s.Max().X - r.Size.X
	}
	if p.resizing&EdgeRight != 0 {
		r.Size.X = max(minPanelWidth, s.Size.X+d.X)
	}
	if p.resizing&EdgeTop != 0 {
		r.Size.Y = max(minPanelHeight, s.Size.Y-d.Y)
		r.Pos.Y = s.Max().Y - r.Size.Y
	}
	if p.resizing&EdgeBottom != 0 {
		r.Size.Y = max(minPanelHeight, s.Size.Y+d.Y)
	}
	p.rect = r
	if p.dock == DockNone {
		p.undocked = p.rect
	}
}

func (p *Panel) onUp(event.Event) {
	if p.dragging && p.preview {
		p.preview = false
		p.SetWindowSize(p.window.X, p.window.Y)
	}
	p.dragging = false
	p.resizing = 0
}

// Render draws the panel and its body onto dst.
func (p *Panel) Render(dst *surface.Surface) *surface.Surface {
	if dst == nil || !p.visible {
		return dst
	}
	bg := color.RGBA{100, 100, 100, panelAlpha}
	title := color.RGBA{60, 60, 60, panelAlpha}
	if p.preview {
		bg = color.RGBA{33, 150, 243, previewAlpha}
		title = color.RGBA{60, 60, 60, previewAlpha}
	}
	lo, hi := p.rect.Pos, p.rect.Max()
	drawobj.Rectangle(dst, bg, lo, hi, 0)
	drawobj.Rectangle(dst, title, lo, geom.V(hi.X, lo.Y+TitleBarHeight), 0)
	ty := int(lo.Y) + (TitleBarHeight-p.font.Height())/2
	p.font.DrawText(dst, p.title, image.Pt(int(lo.X)+6, ty), White)

	p.body.SetPosition(lo.Add(geom.V(0, TitleBarHeight)))
	p.body.Render(dst)
	return dst
}

// DrawHitbox outlines the panel and every hitbox in its body.
func (p *Panel) DrawHitbox(dst *surface.Surface) {
	if !p.visible {
		return
	}
	dst.StrokeRect(p.rect.Image(), element.HitboxColor, 1)
	element.DrawHitboxes(p.body, dst)
}

// Destruct removes the panel's listeners and destructs its body.
func (p *Panel) Destruct() {
	for _, id := range p.listeners {
		p.h.RemoveEventListener(id)
	}
	p.listeners = nil
	p.body.Destruct()
}
