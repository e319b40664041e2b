// Package drawobj rasterizes simple anti-aliased figures onto surfaces.
package drawobj

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"

	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/surface"
)

// path collects closed sub-paths and draws them in one pass. Every outline
// is stored with positive orientation and every hole with negative, so
// overlapping outlines add up and holes cut out.
type path struct {
	z *vector.Rasterizer
	n int
}

func newPath(dst *surface.Surface) *path {
	w, h := dst.Width(), dst.Height()
	return &path{z: vector.NewRasterizer(w, h)}
}

func area(pts []geom.Vec) float64 {
	a := 0.0
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

func (p *path) add(pts []geom.Vec, hole bool) {
	if len(pts) < 3 {
		return
	}
	a := area(pts)
	if a == 0 {
		return
	}
	reverse := (a < 0) != hole
	at := func(i int) geom.Vec {
		if reverse {
			return pts[len(pts)-1-i]
		}
		return pts[i]
	}
	first := at(0)
	p.z.MoveTo(float32(first.X), float32(first.Y))
	for i := 1; i < len(pts); i++ {
		v := at(i)
		p.z.LineTo(float32(v.X), float32(v.Y))
	}
	p.z.ClosePath()
	p.n++
}

func (p *path) draw(dst *surface.Surface, c color.Color) {
	if p.n == 0 {
		return
	}
	p.z.Draw(dst.Image(), dst.Bounds(), image.NewUniform(c), image.Point{})
}

// segment returns the quad covering a stroke of width w from a to b.
func segment(a, b geom.Vec, w float64) []geom.Vec {
	d := b.Sub(a)
	l := d.Len()
	if l == 0 {
		return nil
	}
	n := geom.V(-d.Y, d.X).Scale(w / 2 / l)
	return []geom.Vec{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}
}

func steps(r float64) int {
	return max(16, int(2*math.Pi*r/2))
}

// ellipse returns points on the ellipse inside the box from lo to hi.
func ellipse(lo, hi geom.Vec, n int) []geom.Vec {
	c := lo.Add(hi).Scale(0.5)
	rx, ry := (hi.X-lo.X)/2, (hi.Y-lo.Y)/2
	pts := make([]geom.Vec, n)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = geom.V(c.X+rx*math.Cos(t), c.Y+ry*math.Sin(t))
	}
	return pts
}

func corners(p1, p2 geom.Vec) (lo, hi geom.Vec) {
	return geom.V(math.Min(p1.X, p2.X), math.Min(p1.Y, p2.Y)),
		geom.V(math.Max(p1.X, p2.X), math.Max(p1.Y, p2.Y))
}

func rect(lo, hi geom.Vec) []geom.Vec {
	return []geom.Vec{lo, geom.V(hi.X, lo.Y), hi, geom.V(lo.X, hi.Y)}
}

// Rectangle draws the rectangle spanned by two corners. A width of 0 or a
// border too wide to leave a hole fills it; otherwise the border is drawn
// inside the rectangle.
func Rectangle(dst *surface.Surface, c color.Color, p1, p2 geom.Vec, width float64) {
	lo, hi := corners(p1, p2)
	p := newPath(dst)
	p.add(rect(lo, hi), false)
	if width > 0 && 2*width < hi.X-lo.X && 2*width < hi.Y-lo.Y {
		in := geom.V(width, width)
		p.add(rect(lo.Add(in), hi.Sub(in)), true)
	}
	p.draw(dst, c)
}

// offscreen reports whether a segment lies entirely beyond one edge of dst.
func offscreen(dst *surface.Surface, a, b geom.Vec) bool {
	w, h := float64(dst.Width()), float64(dst.Height())
	return (a.X > w && b.X > w) || (a.Y > h && b.Y > h) || (a.X < 0 && b.X < 0) || (a.Y < 0 && b.Y < 0)
}

// Line strokes the segment from p1 to p2.
func Line(dst *surface.Surface, c color.Color, p1, p2 geom.Vec, width float64) {
	if width <= 0 || offscreen(dst, p1, p2) {
		return
	}
	p := newPath(dst)
	p.add(segment(p1, p2, width), false)
	p.draw(dst, c)
}

// DashedLine strokes every other dash of length dash along p1 to p2.
func DashedLine(dst *surface.Surface, c color.Color, p1, p2 geom.Vec, width, dash float64) {
	if width <= 0 || dash <= 0 || offscreen(dst, p1, p2) {
		return
	}
	d := p2.Sub(p1)
	l := d.Len()
	if l == 0 {
		return
	}
	step := d.Scale(dash / l)
	p := newPath(dst)
	for i := 0; i < int(l/dash); i += 2 {
		a := p1.Add(step.Scale(float64(i)))
		p.add(segment(a, a.Add(step), width), false)
	}
	p.draw(dst, c)
}

// Circle draws a circle around center. A width of 0 fills it.
func Circle(dst *surface.Surface, c color.Color, center geom.Vec, radius, width float64) {
	r := geom.V(radius, radius)
	Ellipse(dst, c, center.Sub(r), center.Add(r), width)
}

// Ellipse draws the ellipse inscribed in the box spanned by two corners.
// A width of 0 fills it.
func Ellipse(dst *surface.Surface, c color.Color, p1, p2 geom.Vec, width float64) {
	lo, hi := corners(p1, p2)
	n := steps(math.Max(hi.X-lo.X, hi.Y-lo.Y) / 2)
	p := newPath(dst)
	p.add(ellipse(lo, hi, n), false)
	if width > 0 && 2*width < hi.X-lo.X && 2*width < hi.Y-lo.Y {
		in := geom.V(width, width)
		p.add(ellipse(lo.Add(in), hi.Sub(in), n), true)
	}
	p.draw(dst, c)
}

// Arc strokes part of the circle around center. Angles are in radians,
// measured clockwise from straight up, and the arc runs clockwise from
// start to stop.
func Arc(dst *surface.Surface, c color.Color, center geom.Vec, radius, start, stop, width float64) {
	if width <= 0 || radius <= 0 {
		return
	}
	for stop < start {
		stop += 2 * math.Pi
	}
	sweep := stop - start
	n := max(2, int(float64(steps(radius))*sweep/(2*math.Pi))+1)
	outer, inner := radius, math.Max(radius-width, 0)
	band := make([]geom.Vec, 0, 2*n)
	at := func(r, a float64) geom.Vec {
		return geom.V(center.X+r*math.Sin(a), center.Y-r*math.Cos(a))
	}
	for i := 0; i < n; i++ {
		band = append(band, at(outer, start+sweep*float64(i)/float64(n-1)))
	}
	for i := n - 1; i >= 0; i-- {
		band = append(band, at(inner, start+sweep*float64(i)/float64(n-1)))
	}
	p := newPath(dst)
	p.add(band, false)
	p.draw(dst, c)
}

// Polygon draws the closed polygon through pts. A width of 0 fills it;
// otherwise each edge is stroked.
func Polygon(dst *surface.Surface, c color.Color, pts []geom.Vec, width float64) {
	if len(pts) < 2 {
		return
	}
	p := newPath(dst)
	if width <= 0 {
		p.add(pts, false)
	} else {
		for i, a := range pts {
			p.add(segment(a, pts[(i+1)%len(pts)], width), false)
		}
	}
	p.draw(dst, c)
}

// FilledPolygon fills outer with every ring in holes cut out.
func FilledPolygon(dst *surface.Surface, c color.Color, outer []geom.Vec, holes ...[]geom.Vec) {
	p := newPath(dst)
	p.add(outer, false)
	for _, h := range holes {
		p.add(h, true)
	}
	p.draw(dst, c)
}

// Shape is a screen entity that draws a figure straight onto the frame
// on every render.
type Shape struct {
	draw    func(dst *surface.Surface)
	visible bool
}

// NewShape wraps fn as an entity.
func NewShape(fn func(dst *surface.Surface)) *Shape {
	return &Shape{draw: fn, visible: true}
}

func (s *Shape) SetVisible(v bool) { s.visible = v }
func (s *Shape) Visible() bool     { return s.visible }

// Changed is always true: a shape is redrawn every frame.
func (s *Shape) Changed() bool { return true }

// Render draws the shape onto dst and returns dst.
func (s *Shape) Render(dst *surface.Surface) *surface.Surface {
	if dst != nil && s.visible {
		s.draw(dst)
	}
	return dst
}
