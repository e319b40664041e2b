package surface

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/OpticalFlyer/screenkit/errors"
)

// Font renders single-line text.
type Font struct {
	face   font.Face
	height int
	ascent int
}

var (
	goRegularOnce sync.Once
	goRegular     *opentype.Font
	goRegularErr  error
)

// DefaultFont returns the fixed 7x13 bitmap font.
func DefaultFont() *Font {
	return FromFace(basicfont.Face7x13)
}

// FromFace wraps an existing face.
func FromFace(face font.Face) *Font {
	m := face.Metrics()
	return &Font{face: face, height: m.Height.Ceil(), ascent: m.Ascent.Ceil()}
}

// NewFont returns Go Regular at size points (72 DPI, so size is pixels).
func NewFont(size float64) (*Font, error) {
	if size <= 0 {
		return nil, errors.InvalidArgument("surface.NewFont", "font size %v must be positive", size)
	}
	goRegularOnce.Do(func() {
		goRegular, goRegularErr = opentype.Parse(goregular.TTF)
	})
	if goRegularErr != nil {
		return nil, errors.Wrap("surface.NewFont", errors.KindIO, goRegularErr)
	}
	face, err := opentype.NewFace(goRegular, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap("surface.NewFont", errors.KindIO, err)
	}
	return FromFace(face), nil
}

// Height is the line height in pixels.
func (f *Font) Height() int { return f.height }

// Measure returns the advance width of text in pixels.
func (f *Font) Measure(text string) int {
	return font.MeasureString(f.face, text).Ceil()
}

// DrawText draws text onto dst with the top-left of the line at at.
func (f *Font) DrawText(dst *Surface, text string, at image.Point, c color.Color) {
	d := font.Drawer{
		Dst:  dst.img,
		Src:  image.NewUniform(c),
		Face: f.face,
		Dot:  fixed.P(at.X, at.Y+f.ascent),
	}
	d.DrawString(text)
}

// Render returns text on a transparent surface sized to fit it.
func (f *Font) Render(text string, c color.Color) *Surface {
	s := New(f.Measure(text), f.height)
	f.DrawText(s, text, image.Point{}, c)
	return s
}
