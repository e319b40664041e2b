// Package element implements the layout and invalidation protocol shared by
// every widget: explicit or intrinsic sizes, dual-unit padding and margin,
// the changed flag, and the Box containers that composite children.
package element

import (
	"image"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/surface"
)

// Element is a node in a render tree.
type Element interface {
	SizeProvider
	InnerWidth() int
	InnerHeight() int
	ExplicitWidth() (int, bool)
	ExplicitHeight() (int, bool)
	SetWidth(w int) error
	SetHeight(h int) error
	ClearWidth()
	ClearHeight()
	Padding() *Spacing
	Margin() *Spacing
	Visible() bool
	SetVisible(v bool)
	// Changed reports whether the next Render would draw something new.
	Changed() bool
	// Render draws the element. With a nil dst it only returns the result;
	// otherwise it also blits it onto dst at the element's position.
	Render(dst *surface.Surface) *surface.Surface
	// SetOffset receives the absolute screen position assigned by the
	// parent during layout.
	SetOffset(p geom.Vec)
	Offset() geom.Vec
	// ResetAfter runs fn and then restores the explicit width and height.
	ResetAfter(fn func())
	Destruct()
}

// Intrinsic computes the content size of an element that has no explicit
// size.
type Intrinsic interface {
	CalcInnerWidth() int
	CalcInnerHeight() int
}

// Self is what a concrete element passes to Base.Init: itself.
type Self interface {
	SizeProvider
	Intrinsic
}

// Base carries the state common to every element. Embed it and call Init
// with the outer value so size queries reach the outer type's methods.
type Base struct {
	self Self

	width, height       int
	hasWidth, hasHeight bool

	padding *Spacing
	margin  *Spacing

	visible bool
	changed bool
	offset  geom.Vec
	// Position is where Render blits onto a destination surface, before
	// the margin is added. Containers ignore it for their children.
	position geom.Vec

	resetDepth int
	// drawn is the size of the last composite; free is the size the
	// element had once any forced-size scope around that render ended.
	drawn, free image.Point
	scoped      bool
}

// Init prepares b for use by the element self.
func (b *Base) Init(self Self) {
	b.self = self
	b.visible = true
	b.changed = true
	b.padding = NewSpacing(self)
	b.padding.onChange = b.MarkChanged
	b.margin = NewSpacing(self)
	b.margin.onChange = b.MarkChanged
}

func (b *Base) intrinsic() Self {
	if b.self == nil {
		panic(errors.New("element.Base", errors.KindNotImplemented, "intrinsic size not implemented"))
	}
	return b.self
}

// Width is the outer width: explicit if set, otherwise intrinsic content
// plus padding. Invisible elements are 0 wide.
func (b *Base) Width() int {
	if !b.visible {
		return 0
	}
	if b.hasWidth {
		return b.width
	}
	_, r, _, l := b.padding.Raw()
	return outerFromInner(b.intrinsic().CalcInnerWidth(), l, r)
}

// Height is the outer height.
func (b *Base) Height() int {
	if !b.visible {
		return 0
	}
	if b.hasHeight {
		return b.height
	}
	t, _, bo, _ := b.padding.Raw()
	return outerFromInner(b.intrinsic().CalcInnerHeight(), t, bo)
}

// InnerWidth is the width available to content.
func (b *Base) InnerWidth() int {
	if !b.visible {
		return 0
	}
	if b.hasWidth {
		_, r, _, l := b.padding.Raw()
		return shrinkOuter(b.width, l, r)
	}
	return b.intrinsic().CalcInnerWidth()
}

// InnerHeight is the height available to content.
func (b *Base) InnerHeight() int {
	if !b.visible {
		return 0
	}
	if b.hasHeight {
		t, _, bo, _ := b.padding.Raw()
		return shrinkOuter(b.height, t, bo)
	}
	return b.intrinsic().CalcInnerHeight()
}

func (b *Base) ExplicitWidth() (int, bool)  { return b.width, b.hasWidth }
func (b *Base) ExplicitHeight() (int, bool) { return b.height, b.hasHeight }

// SetWidth fixes the outer width. Negative widths are rejected.
func (b *Base) SetWidth(w int) error {
	if w < 0 {
		return errors.InvalidArgument("element.SetWidth", "negative width %d", w)
	}
	if !b.hasWidth || b.width != w {
		b.width, b.hasWidth = w, true
		b.markResized()
	}
	return nil
}

// SetHeight fixes the outer height. Negative heights are rejected.
func (b *Base) SetHeight(h int) error {
	if h < 0 {
		return errors.InvalidArgument("element.SetHeight", "negative height %d", h)
	}
	if !b.hasHeight || b.height != h {
		b.height, b.hasHeight = h, true
		b.markResized()
	}
	return nil
}

// markResized dirties the element unless the size is being forced inside
// ResetAfter. Renderers compare sizes themselves, so a forced size that
// matches the last drawn one costs nothing.
func (b *Base) markResized() {
	if b.resetDepth == 0 {
		b.changed = true
	}
}

// ClearWidth returns to the intrinsic width.
func (b *Base) ClearWidth() {
	b.width, b.hasWidth = 0, false
	b.changed = true
}

// ClearHeight returns to the intrinsic height.
func (b *Base) ClearHeight() {
	b.height, b.hasHeight = 0, false
	b.changed = true
}

func (b *Base) Padding() *Spacing { return b.padding }
func (b *Base) Margin() *Spacing  { return b.margin }
func (b *Base) Visible() bool     { return b.visible }

func (b *Base) SetVisible(v bool) {
	if v != b.visible {
		b.visible = v
		b.changed = true
	}
}

// Changed reports the element's own dirty flag.
func (b *Base) Changed() bool { return b.changed }

// MarkChanged sets the dirty flag.
func (b *Base) MarkChanged() { b.changed = true }

// MarkClean clears the dirty flag. Elements call it after rendering.
func (b *Base) MarkClean() { b.changed = false }

func (b *Base) SetOffset(p geom.Vec) { b.offset = p }
func (b *Base) Offset() geom.Vec     { return b.offset }

// SetPosition sets where Render blits onto a destination.
func (b *Base) SetPosition(p geom.Vec) { b.position = p }

// Position returns the blit position set with SetPosition.
func (b *Base) Position() geom.Vec { return b.position }

// Size returns the outer size.
func (b *Base) Size() image.Point {
	return image.Pt(b.self.Width(), b.self.Height())
}

// BlitPoint is where Render places the element on a destination: its
// position shifted by the top and left margins.
func (b *Base) BlitPoint() image.Point {
	return b.position.Add(geom.V(float64(b.margin.Left()), float64(b.margin.Top()))).Point()
}

// ResetAfter runs fn, then restores the explicit width and height even if
// fn panics.
func (b *Base) ResetAfter(fn func()) {
	w, hw, h, hh := b.width, b.hasWidth, b.height, b.hasHeight
	b.resetDepth++
	defer func() {
		b.resetDepth--
		b.width, b.hasWidth, b.height, b.hasHeight = w, hw, h, hh
		if b.scoped && b.resetDepth == 0 {
			b.scoped = false
			b.free = image.Pt(b.self.Width(), b.self.Height())
		}
	}()
	fn()
}

// commitDrawn records the size a container just composited at.
func (b *Base) commitDrawn(w, h int) {
	b.drawn = image.Pt(w, h)
	if b.resetDepth > 0 {
		b.scoped = true
	} else {
		b.free = b.drawn
	}
}

// sizeStale reports whether the element no longer has the size it was
// drawn at. Inside a forced-size scope the forced size is compared with
// the drawn size; outside it the free size is.
func (b *Base) sizeStale() bool {
	want := b.free
	if b.resetDepth > 0 {
		want = b.drawn
	}
	return want != image.Pt(b.self.Width(), b.self.Height())
}

// drawnRecorder is implemented by every element embedding Base. Containers
// use it to tell a child the size it was composited at.
type drawnRecorder interface {
	recordDrawn(size image.Point)
}

func (b *Base) recordDrawn(size image.Point) { b.drawn = size }

// InReset reports whether the element is inside a ResetAfter call.
func (b *Base) InReset() bool { return b.resetDepth > 0 }

// Destruct does nothing for a plain element.
func (b *Base) Destruct() {}
