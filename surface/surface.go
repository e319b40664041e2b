// Package surface is the CPU pixel buffer every widget renders into.
package surface

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Surface is an RGBA pixel buffer with its origin at (0, 0).
type Surface struct {
	img *image.RGBA
}

// New returns a transparent surface. Negative sizes are treated as 0.
func New(w, h int) *Surface {
	return &Surface{img: image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))}
}

// FromImage copies img into a new surface.
func FromImage(img image.Image) *Surface {
	b := img.Bounds()
	s := New(b.Dx(), b.Dy())
	draw.Draw(s.img, s.img.Bounds(), img, b.Min, draw.Src)
	return s
}

// Image returns the backing image.
func (s *Surface) Image() *image.RGBA { return s.img }

func (s *Surface) Width() int                 { return s.img.Rect.Dx() }
func (s *Surface) Height() int                { return s.img.Rect.Dy() }
func (s *Surface) Size() image.Point          { return s.img.Rect.Size() }
func (s *Surface) Bounds() image.Rectangle    { return s.img.Rect }
func (s *Surface) At(x, y int) color.RGBA     { return s.img.RGBAAt(x, y) }
func (s *Surface) Set(x, y int, c color.RGBA) { s.img.SetRGBA(x, y, c) }

// Clear makes every pixel transparent.
func (s *Surface) Clear() {
	clear(s.img.Pix)
}

// Fill paints the whole surface with c, replacing what was there.
func (s *Surface) Fill(c color.Color) {
	s.FillRect(s.img.Rect, c)
}

// FillRect paints r with c, replacing what was there. A nil c erases r to
// transparent.
func (s *Surface) FillRect(r image.Rectangle, c color.Color) {
	if c == nil {
		c = color.Transparent
	}
	draw.Draw(s.img, r.Intersect(s.img.Rect), image.NewUniform(c), image.Point{}, draw.Src)
}

// BlendRect composites c over r.
func (s *Surface) BlendRect(r image.Rectangle, c color.Color) {
	draw.Draw(s.img, r.Intersect(s.img.Rect), image.NewUniform(c), image.Point{}, draw.Over)
}

// Blit composites src over s with src's origin at at.
func (s *Surface) Blit(src *Surface, at image.Point) {
	if src == nil {
		return
	}
	s.BlitImage(src.img, at)
}

// BlitImage composites img over s with img's bounds origin at at.
func (s *Surface) BlitImage(img image.Image, at image.Point) {
	b := img.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(b.Size())}
	draw.Draw(s.img, r, img, b.Min, draw.Over)
}

// StrokeRect outlines r with lines w pixels thick.
func (s *Surface) StrokeRect(r image.Rectangle, c color.Color, w int) {
	if w <= 0 || r.Empty() {
		return
	}
	s.BlendRect(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), c)
	s.BlendRect(image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), c)
	s.BlendRect(image.Rect(r.Min.X, r.Min.Y+w, r.Min.X+w, r.Max.Y-w), c)
	s.BlendRect(image.Rect(r.Max.X-w, r.Min.Y+w, r.Max.X, r.Max.Y-w), c)
}

// ScaleInto draws s stretched over all of dst.
func (s *Surface) ScaleInto(dst *Surface) {
	draw.ApproxBiLinear.Scale(dst.img, dst.img.Rect, s.img, s.img.Rect, draw.Src, nil)
}

// Scaled returns a copy of s resized to w x h.
func (s *Surface) Scaled(w, h int) *Surface {
	out := New(w, h)
	s.ScaleInto(out)
	return out
}

// Copy returns an independent copy of s.
func (s *Surface) Copy() *Surface {
	return FromImage(s.img)
}

// Region returns a copy of the pixels in r.
func (s *Surface) Region(r image.Rectangle) *Surface {
	return FromImage(s.img.SubImage(r.Intersect(s.img.Rect)))
}
