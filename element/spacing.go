package element

import "github.com/OpticalFlyer/screenkit/errors"

// SizeProvider is anything with an outer size. Fractional spacing values
// resolve against one.
type SizeProvider interface {
	Width() int
	Height() int
}

// Spacing is a four-sided padding or margin. Each side holds either a
// fraction of the provider's size, for values strictly between 0 and 1,
// or a pixel count. Top and bottom resolve against the provider's height,
// left and right against its width. Sides are resolved on every read.
type Spacing struct {
	top, right, bottom, left float64
	provider                 SizeProvider
	onChange                 func()
}

// NewSpacing returns zero spacing resolved against p.
func NewSpacing(p SizeProvider) *Spacing {
	return &Spacing{provider: p}
}

func resolve(v float64, dim int) int {
	if v > 0 && v < 1 {
		return int(v * float64(dim))
	}
	return int(v)
}

func (s *Spacing) dims() (w, h int) {
	if s.provider == nil {
		return 0, 0
	}
	return s.provider.Width(), s.provider.Height()
}

func (s *Spacing) Top() int {
	_, h := s.dims()
	return resolve(s.top, h)
}

func (s *Spacing) Bottom() int {
	_, h := s.dims()
	return resolve(s.bottom, h)
}

func (s *Spacing) Left() int {
	w, _ := s.dims()
	return resolve(s.left, w)
}

func (s *Spacing) Right() int {
	w, _ := s.dims()
	return resolve(s.right, w)
}

// Horizontal is Left+Right.
func (s *Spacing) Horizontal() int { return s.Left() + s.Right() }

// Vertical is Top+Bottom.
func (s *Spacing) Vertical() int { return s.Top() + s.Bottom() }

// Raw returns the unresolved values.
func (s *Spacing) Raw() (top, right, bottom, left float64) {
	return s.top, s.right, s.bottom, s.left
}

// Set assigns all four sides in CSS order.
func (s *Spacing) Set(top, right, bottom, left float64) error {
	for _, v := range [...]float64{top, right, bottom, left} {
		if v < 0 {
			return errors.InvalidArgument("element.Spacing.Set", "negative spacing %v", v)
		}
	}
	s.top, s.right, s.bottom, s.left = top, right, bottom, left
	if s.onChange != nil {
		s.onChange()
	}
	return nil
}

// SetAll assigns v to every side.
func (s *Spacing) SetAll(v float64) error { return s.Set(v, v, v, v) }

// SetProvider changes what fractions resolve against.
func (s *Spacing) SetProvider(p SizeProvider) {
	s.provider = p
}

// split returns the summed pixel sides and the summed fractional sides of
// a pair.
func split(a, b float64) (abs, frac float64) {
	for _, v := range [...]float64{a, b} {
		if v > 0 && v < 1 {
			frac += v
		} else {
			abs += float64(int(v))
		}
	}
	return abs, frac
}

// outerFromInner grows an inner length by a pair of sides, where the
// fractional sides are fractions of the result.
func outerFromInner(inner int, a, b float64) int {
	abs, frac := split(a, b)
	if frac >= 1 {
		return inner + int(abs)
	}
	return int((float64(inner) + abs) / (1 - frac))
}

// shrinkOuter removes a pair of sides from an outer length, fractional
// sides being fractions of that length.
func shrinkOuter(outer int, a, b float64) int {
	abs, frac := split(a, b)
	return max(int(float64(outer)*(1-frac)-abs), 0)
}
