// Package geom provides the small value types used for positions and
// extents throughout screenkit.
package geom

import (
	"image"
	"math"
)

// Vec is a 2D point or extent in pixels.
type Vec struct {
	X, Y float64
}

// V is shorthand for Vec{x, y}.
func V(x, y float64) Vec { return Vec{x, y} }

// FromPoint converts an integer point.
func FromPoint(p image.Point) Vec { return Vec{float64(p.X), float64(p.Y)} }

func (v Vec) Add(o Vec) Vec       { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec       { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(f float64) Vec { return Vec{v.X * f, v.Y * f} }
func (v Vec) Div(f float64) Vec   { return Vec{v.X / f, v.Y / f} }
func (v Vec) Dot(o Vec) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec) IsZero() bool        { return v.X == 0 && v.Y == 0 }

// Dist2 returns the squared distance between v and o.
func (v Vec) Dist2(o Vec) float64 {
	d := v.Sub(o)
	return d.Dot(d)
}

// Point truncates v to an integer point.
func (v Vec) Point() image.Point { return image.Pt(int(v.X), int(v.Y)) }

// Rect is an axis-aligned rectangle given by its origin and size.
type Rect struct {
	Pos  Vec
	Size Vec
}

// R builds a Rect from origin and size components.
func R(x, y, w, h float64) Rect { return Rect{Vec{x, y}, Vec{w, h}} }

// Max returns the far corner.
func (r Rect) Max() Vec { return r.Pos.Add(r.Size) }

// Contains reports whether p lies in r. Both the near and far edges are
// inside.
func (r Rect) Contains(p Vec) bool {
	m := r.Max()
	return p.X >= r.Pos.X && p.X <= m.X && p.Y >= r.Pos.Y && p.Y <= m.Y
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Size.X <= 0 || r.Size.Y <= 0 }

// Image converts r to an image.Rectangle, truncating coordinates.
func (r Rect) Image() image.Rectangle {
	return image.Rectangle{Min: r.Pos.Point(), Max: r.Max().Point()}
}
