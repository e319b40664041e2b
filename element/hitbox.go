package element

import (
	"image"
	"image/color"

	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/hitbox"
	"github.com/OpticalFlyer/screenkit/surface"
)

// HitboxColor outlines hitboxes in the debug overlay.
var HitboxColor = color.RGBA{255, 0, 0, 255}

// HitboxElement is a Base that owns a Hitbox following its on-screen
// rectangle. Interactive widgets embed it.
type HitboxElement struct {
	Base
	hb *hitbox.Hitbox
}

// InitHitbox prepares e for use by self with a hitbox registered on h.
func (e *HitboxElement) InitHitbox(self Self, h *event.Handler) {
	e.Init(self)
	e.hb = hitbox.New(h, geom.Vec{}, geom.Vec{})
	e.hb.SetTarget(self)
}

// Hitbox returns the element's hitbox.
func (e *HitboxElement) Hitbox() *hitbox.Hitbox { return e.hb }

// Handler returns the event handler the hitbox is registered with.
func (e *HitboxElement) Handler() *event.Handler { return e.hb.Handler() }

// On registers fn on the element's hitbox.
func (e *HitboxElement) On(kind event.Kind, fn event.Listener, opts ...event.Option) event.ListenerID {
	return e.hb.On(kind, fn, opts...)
}

// AddEventListener registers fn on the element's hitbox.
func (e *HitboxElement) AddEventListener(kind event.Kind, fn event.Listener, opts ...event.Option) (event.ListenerID, error) {
	return e.hb.AddEventListener(kind, fn, opts...)
}

// RemoveEventListener removes a listener added with On.
func (e *HitboxElement) RemoveEventListener(id event.ListenerID) int {
	return e.hb.RemoveEventListener(id)
}

// HasFocus reports whether the element's hitbox holds focus.
func (e *HitboxElement) HasFocus() bool { return e.hb.HasFocus() }

// SetOffset moves the hitbox to the element's new screen position.
func (e *HitboxElement) SetOffset(p geom.Vec) {
	e.offset = p
	e.SyncHitbox()
}

// SetPosition places a top-level element and moves its hitbox there.
func (e *HitboxElement) SetPosition(p geom.Vec) {
	e.Base.SetPosition(p)
	e.SetOffset(geom.FromPoint(e.BlitPoint()))
}

// SyncHitbox sizes the hitbox to the element's outer size. Outside a
// forced-size render that is the size a parent last drew it at, if any.
func (e *HitboxElement) SyncHitbox() {
	e.hb.SetLocation(e.offset)
	size := e.drawn
	if e.resetDepth > 0 || size == (image.Point{}) {
		size = image.Pt(e.self.Width(), e.self.Height())
	}
	e.hb.SetSize(geom.FromPoint(size))
}

// SetVisible hides the element and disables its hitbox.
func (e *HitboxElement) SetVisible(v bool) {
	e.Base.SetVisible(v)
	e.hb.SetEnabled(v)
}

// Destruct releases the hitbox and every listener registered through it.
func (e *HitboxElement) Destruct() {
	e.hb.Destruct()
}

// DrawHitbox outlines the hitbox on dst.
func (e *HitboxElement) DrawHitbox(dst *surface.Surface) {
	if e.hb.Enabled() {
		dst.StrokeRect(e.hb.Rect().Image(), HitboxColor, 1)
	}
}

// HitboxDrawer is implemented by elements that can outline their hitboxes.
type HitboxDrawer interface {
	DrawHitbox(dst *surface.Surface)
}

// DrawHitboxes outlines every hitbox in the tree rooted at e.
func DrawHitboxes(e Element, dst *surface.Surface) {
	if !e.Visible() {
		return
	}
	if d, ok := e.(HitboxDrawer); ok {
		d.DrawHitbox(dst)
	}
	if c, ok := e.(container); ok {
		for _, child := range c.Children() {
			DrawHitboxes(child, dst)
		}
	}
}
