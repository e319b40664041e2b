package widget

import (
	"math"
	"strconv"
	"strings"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/surface"
)

// Numbox is a Textbox that only takes a number. Digits, a leading minus
// and one decimal point can be typed; the arrow keys step the value. The
// value is clamped to the range, and the text is rewritten from the value
// on blur. Change fires on blur when the number differs.
type Numbox struct {
	*Textbox

	num    float64
	valid  bool
	lo, hi float64
	step   float64
}

// NewNumbox returns an unbounded number box holding v.
func NewNumbox(h *event.Handler, f *surface.Font, v float64) *Numbox {
	n := &Numbox{Textbox: NewTextbox(h, f), lo: math.Inf(-1), hi: math.Inf(1), step: 1}
	n.editKey = n.onKeyDown
	n.current = func() any {
		if !n.valid {
			return nil
		}
		return n.num
	}
	n.onBlur = n.syncText
	n.SetValue(v)
	return n
}

// Value returns the number, or false when the text does not hold one.
func (n *Numbox) Value() (float64, bool) { return n.num, n.valid }

// Text returns the text as typed.
func (n *Numbox) Text() string { return n.Textbox.Value() }

// SetValue replaces the number, clamped to the range.
func (n *Numbox) SetValue(v float64) {
	n.num, n.valid = n.clamp(v), true
	n.syncText()
}

// SetRange bounds the value to [lo, hi]. Infinite bounds are open.
func (n *Numbox) SetRange(lo, hi float64) error {
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return errors.InvalidArgument("widget.Numbox.SetRange", "bad range [%v, %v]", lo, hi)
	}
	n.lo, n.hi = lo, hi
	if n.valid {
		n.SetValue(n.num)
	}
	return nil
}

func (n *Numbox) Range() (lo, hi float64) { return n.lo, n.hi }
func (n *Numbox) Step() float64          { return n.step }

// SetStep sets how far the arrow keys move the value.
func (n *Numbox) SetStep(step float64) error {
	if !(step > 0) || math.IsInf(step, 0) {
		return errors.InvalidArgument("widget.Numbox.SetStep", "step %v must be positive", step)
	}
	n.step = step
	return nil
}

func (n *Numbox) clamp(v float64) float64 {
	return math.Round(min(max(v, n.lo), n.hi)*1e5) / 1e5
}

// syncText rewrites the text from the value.
func (n *Numbox) syncText() {
	if !n.valid {
		n.Textbox.SetValue("")
		return
	}
	n.Textbox.SetValue(strconv.FormatFloat(n.num, 'f', -1, 64))
}

// parse takes the number from the typed text.
func (n *Numbox) parse() {
	v, err := strconv.ParseFloat(n.Text(), 64)
	if err != nil {
		n.valid = false
		return
	}
	n.num, n.valid = n.clamp(v), true
}

func (n *Numbox) setText(s string) {
	n.Textbox.SetValue(s)
	n.parse()
}

func (n *Numbox) onKeyDown(ev event.Event) {
	text := n.Text()
	switch {
	case ev.Key == event.KeyBackspace:
		if text != "" {
			n.setText(text[:len(text)-1])
		}
	case ev.Key == event.KeyReturn:
		n.Hitbox().ReleaseFocus()
	case ev.Key == event.KeyArrowUp:
		if n.valid {
			n.SetValue(n.num + n.step)
		}
	case ev.Key == event.KeyArrowDown:
		if n.valid {
			n.SetValue(n.num - n.step)
		}
	case n.maxLength > 0 && len(text) >= n.maxLength:
	case ev.Rune >= '0' && ev.Rune <= '9', ev.Rune == '-':
		n.setText(text + string(ev.Rune))
	case ev.Rune == '.' || ev.Rune == ',':
		if !strings.Contains(text, ".") {
			n.setText(text + ".")
		}
	}
}
