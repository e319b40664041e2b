package widget

import (
	"image"
	"image/color"

	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/surface"
)

const (
	// ScrollStep is how many pixels one wheel step scrolls.
	ScrollStep = 30
	// ScrollbarWidth is the thickness of a scrollbar track.
	ScrollbarWidth = 10
	// ScrollThumbMin is the shortest a scrollbar thumb gets.
	ScrollThumbMin = 10
)

var (
	ScrollTrackColor = color.RGBA{255, 255, 255, 255}
	ScrollThumbColor = color.RGBA{116, 116, 116, 255}
)

// viewport shows a window of a larger content surface and draws a
// scrollbar for each axis the content overflows.
type viewport struct {
	offset    image.Point
	maxOffset image.Point
	// follow jumps to the end of the content on the next compose.
	follow bool
}

// scroll moves the window by delta along y, or along x when horizontal.
// It reports whether the offset changed.
func (v *viewport) scroll(delta int, horizontal bool) bool {
	old := v.offset
	if horizontal {
		v.offset.X = min(max(v.offset.X+delta, 0), v.maxOffset.X)
	} else {
		v.offset.Y = min(max(v.offset.Y+delta, 0), v.maxOffset.Y)
	}
	return v.offset != old
}

// compose returns a w x h surface showing content, whose top-left corner
// sits at origin inside a size-sized scroll area.
func (v *viewport) compose(content *surface.Surface, origin, size image.Point, w, h int, bg color.Color) *surface.Surface {
	showY := size.Y > h
	availW := w
	if showY {
		availW -= ScrollbarWidth
	}
	showX := size.X > availW
	availH := h
	if showX {
		availH -= ScrollbarWidth
		if !showY && size.Y > availH {
			showY = true
			availW -= ScrollbarWidth
		}
	}
	v.maxOffset = image.Pt(max(size.X-availW, 0), max(size.Y-availH, 0))
	if v.follow {
		v.offset, v.follow = v.maxOffset, false
	}
	v.offset.X = min(max(v.offset.X, 0), v.maxOffset.X)
	v.offset.Y = min(max(v.offset.Y, 0), v.maxOffset.Y)

	out := surface.New(w, h)
	if bg != nil {
		out.Fill(bg)
	}
	out.Blit(content, origin.Sub(v.offset))

	if showY && v.maxOffset.Y > 0 {
		length := h
		if showX {
			length -= ScrollbarWidth
		}
		out.FillRect(image.Rect(w-ScrollbarWidth, 0, w, h), ScrollTrackColor)
		pos, thumb := thumbSpan(length, v.maxOffset.Y, v.offset.Y)
		out.FillRect(image.Rect(w-ScrollbarWidth+1, pos, w, pos+thumb), ScrollThumbColor)
	}
	if showX && v.maxOffset.X > 0 {
		length := w
		if showY {
			length -= ScrollbarWidth
		}
		out.FillRect(image.Rect(0, h-ScrollbarWidth, length, h), ScrollTrackColor)
		pos, thumb := thumbSpan(length, v.maxOffset.X, v.offset.X)
		out.FillRect(image.Rect(pos, h-ScrollbarWidth+1, pos+thumb, h), ScrollThumbColor)
	}
	return out
}

// thumbSpan returns the position and length of a thumb on a track of
// length pixels for content that scrolls maxOffset pixels.
func thumbSpan(length, maxOffset, offset int) (pos, thumb int) {
	thumb = min(max(ScrollThumbMin, length-maxOffset), length)
	return (length - thumb) * offset / maxOffset, thumb
}

// ScrollBox shows a child through a window no larger than its maximum
// size. The mouse wheel over it scrolls vertically, or horizontally while
// shift is held. A zero maximum leaves that axis unbounded.
type ScrollBox struct {
	element.HitboxElement

	child      element.Element
	maxW, maxH int
	background color.Color
	view       viewport
	surf       *surface.Surface
}

// NewScrollBox wraps child in a window of at most maxWidth by maxHeight.
func NewScrollBox(h *event.Handler, child element.Element, maxWidth, maxHeight int) *ScrollBox {
	s := &ScrollBox{child: child, maxW: max(maxWidth, 0), maxH: max(maxHeight, 0)}
	s.InitHitbox(s, h)
	s.On(event.KindScrollUp, func(ev event.Event) { s.scroll(ev, -ScrollStep) })
	s.On(event.KindScrollDown, func(ev event.Event) { s.scroll(ev, ScrollStep) })
	return s
}

func (s *ScrollBox) scroll(ev event.Event, delta int) {
	if s.view.scroll(delta, ev.Mods.Has(event.Shift)) {
		s.MarkChanged()
	}
}

// Child returns the scrolled element.
func (s *ScrollBox) Child() element.Element { return s.child }

// Children lets tree walks reach the scrolled element.
func (s *ScrollBox) Children() []element.Element { return []element.Element{s.child} }

// ScrollOffset is the window's position inside the child.
func (s *ScrollBox) ScrollOffset() image.Point { return s.view.offset }

// MaxScrollOffset is the largest offset the last render allowed.
func (s *ScrollBox) MaxScrollOffset() image.Point { return s.view.maxOffset }

// ScrollTo moves the window, clamped to the content.
func (s *ScrollBox) ScrollTo(p image.Point) {
	s.view.offset.X = min(max(p.X, 0), s.view.maxOffset.X)
	s.view.offset.Y = min(max(p.Y, 0), s.view.maxOffset.Y)
	s.MarkChanged()
}

// SetMaxSize bounds the window. Zero leaves an axis unbounded.
func (s *ScrollBox) SetMaxSize(w, h int) {
	s.maxW, s.maxH = max(w, 0), max(h, 0)
	s.MarkChanged()
}

// SetBackground sets the fill behind the child; nil is transparent.
func (s *ScrollBox) SetBackground(c color.Color) {
	s.background = c
	s.MarkChanged()
}

func (s *ScrollBox) content() (origin, size image.Point) {
	m := s.child.Margin()
	origin = image.Pt(m.Left(), m.Top())
	size = image.Pt(s.child.Width()+m.Horizontal(), s.child.Height()+m.Vertical())
	return origin, size
}

func (s *ScrollBox) CalcInnerWidth() int {
	_, size := s.content()
	w := size.X
	if s.maxH > 0 && size.Y > s.maxH {
		w += ScrollbarWidth
	}
	if s.maxW > 0 {
		w = min(w, s.maxW)
	}
	return w
}

func (s *ScrollBox) CalcInnerHeight() int {
	_, size := s.content()
	h := size.Y
	if s.maxW > 0 && size.X > s.maxW {
		h += ScrollbarWidth
	}
	if s.maxH > 0 {
		h = min(h, s.maxH)
	}
	return h
}

// Changed is true when the box or the child needs drawing.
func (s *ScrollBox) Changed() bool {
	return s.Base.Changed() || (s.child.Visible() && s.child.Changed())
}

func (s *ScrollBox) Render(dst *surface.Surface) *surface.Surface {
	if !s.Visible() {
		return nil
	}
	if s.surf == nil || s.Changed() || s.surf.Size() != s.Size() {
		origin, size := s.content()
		s.surf = s.view.compose(s.child.Render(nil), origin, size, s.Width(), s.Height(), s.background)
		s.MarkClean()
	}
	s.SyncHitbox()
	s.placeChild()
	if dst != nil {
		dst.Blit(s.surf, s.BlitPoint())
	}
	return s.surf
}

// SetOffset moves the box and the scrolled child with it.
func (s *ScrollBox) SetOffset(p geom.Vec) {
	s.HitboxElement.SetOffset(p)
	s.placeChild()
}

func (s *ScrollBox) placeChild() {
	origin, _ := s.content()
	s.child.SetOffset(s.Offset().Add(geom.FromPoint(origin.Sub(s.view.offset))))
}

// Destruct destructs the child and releases the hitbox.
func (s *ScrollBox) Destruct() {
	s.child.Destruct()
	s.HitboxElement.Destruct()
}
