package widget

import (
	"fmt"
	"testing"

	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
)

func TestScrollBoxWheel(t *testing.T) {
	h, _ := newHandler()
	var rows []element.Element
	for i := 0; i < 10; i++ {
		rows = append(rows, NewLabel(h, fmt.Sprintf("row %d", i), nil))
	}
	first := rows[0].(*Label)
	sb := NewScrollBox(h, element.NewBox(rows...), 0, 50)
	place(sb)

	if sb.Width() != 51+ScrollbarWidth || sb.Height() != 50 {
		t.Fatalf("size = %v, want %dx50", sb.Size(), 51+ScrollbarWidth)
	}
	if got := sb.MaxScrollOffset(); got.X != 0 || got.Y != 179-50 {
		t.Fatalf("max offset = %v", got)
	}
	if got := sb.Render(nil).At(sb.Width()-1, 5); got != ScrollThumbColor {
		t.Errorf("thumb at top = %v", got)
	}

	inside := geom.V(10, 10)
	step(t, h, event.Scroll(inside, false))
	sb.Render(nil)
	if sb.ScrollOffset().Y != ScrollStep {
		t.Fatalf("offset = %v after one step", sb.ScrollOffset())
	}
	if got := first.Hitbox().Location(); got != geom.V(0, -ScrollStep) {
		t.Errorf("first row hitbox at %v", got)
	}

	for i := 0; i < 6; i++ {
		step(t, h, event.Scroll(inside, false))
	}
	s := sb.Render(nil)
	if sb.ScrollOffset().Y != 129 {
		t.Errorf("offset = %v, want clamped to 129", sb.ScrollOffset())
	}
	if got := s.At(sb.Width()-1, 45); got != ScrollThumbColor {
		t.Errorf("thumb at bottom = %v", got)
	}

	step(t, h, event.KeyDown(event.KeyLShift, 0), event.Scroll(inside, true))
	if sb.ScrollOffset().X != 0 {
		t.Error("horizontal scroll moved without overflow")
	}
	step(t, h, event.KeyUp(event.KeyLShift), event.Scroll(geom.V(500, 500), true))
	if sb.ScrollOffset().Y != 129 {
		t.Error("wheel outside the box scrolled it")
	}
}

func TestTextareaEditing(t *testing.T) {
	h, clk := newHandler()
	ta := NewTextarea(h, nil, false)
	_ = ta.SetWidth(100)
	place(ta)
	var changes []string
	ta.On(event.KindChange, func(ev event.Event) { changes = append(changes, ev.Target.(*Textarea).Value()) })

	click(t, h, clk, geom.V(5, 5))
	if !ta.HasFocus() {
		t.Fatal("click did not focus")
	}
	step(t, h,
		event.KeyDown(event.KeyUnknown, 'a'),
		event.KeyDown(event.KeyUnknown, 'b'),
		event.KeyDown(event.KeyReturn, 0),
		event.KeyDown(event.KeyUnknown, 'c'),
	)
	if ta.Value() != "ab\nc" {
		t.Fatalf("value = %q", ta.Value())
	}
	if len(changes) != 0 {
		t.Error("Change fired while focused")
	}

	step(t, h, event.KeyDown(event.KeyLShift, 0), event.KeyDown(event.KeyReturn, 0))
	if ta.HasFocus() {
		t.Fatal("shift+Return did not blur")
	}
	if len(changes) != 1 || changes[0] != "ab\nc" {
		t.Errorf("changes = %q", changes)
	}
	if ta.Height() != 2*13+4 {
		t.Errorf("height = %d, want two lines", ta.Height())
	}

	ta.SetValue("aaaa bbbb cccc")
	if got := ta.lines(); len(got) != 2 || got[0] != "aaaa bbbb" || got[1] != "cccc" {
		t.Errorf("wrapped lines = %q", got)
	}
}

func TestTextareaScrolls(t *testing.T) {
	h, clk := newHandler()
	ta := NewTextarea(h, nil, false)
	_ = ta.SetWidth(100)
	_ = ta.SetHeight(30)
	ta.SetValue("1\n2\n3\n4\n5")
	place(ta)

	step(t, h, event.Scroll(geom.V(5, 5), false))
	ta.Render(nil)
	step(t, h, event.Scroll(geom.V(5, 5), false))
	ta.Render(nil)
	if got := ta.ScrollOffset(); got != 5*13+4-30 {
		t.Errorf("offset = %d, want %d", got, 5*13+4-30)
	}
	step(t, h, event.Scroll(geom.V(5, 5), true), event.Scroll(geom.V(5, 5), true))
	ta.Render(nil)
	if ta.ScrollOffset() != 0 {
		t.Errorf("offset = %d after scrolling back", ta.ScrollOffset())
	}

	click(t, h, clk, geom.V(5, 5))
	step(t, h, event.KeyDown(event.KeyUnknown, '6'))
	ta.Render(nil)
	if ta.ScrollOffset() == 0 {
		t.Error("typing did not scroll to the end")
	}
}

func TestTextareaReadOnly(t *testing.T) {
	h, clk := newHandler()
	ta := NewTextarea(h, nil, true)
	ta.SetValue("fixed")
	place(ta)
	click(t, h, clk, geom.V(5, 5))
	if ta.HasFocus() {
		t.Error("read-only area took focus")
	}
}

func TestNumboxEditing(t *testing.T) {
	h, _ := newHandler()
	n := NewNumbox(h, nil, 5)
	if err := n.SetRange(0, 10); err != nil {
		t.Fatal(err)
	}
	_ = n.SetWidth(100)
	place(n)
	changes := 0
	n.On(event.KindChange, func(event.Event) { changes++ })

	step(t, h, event.MouseDown(geom.V(5, 5), event.ButtonLeft))
	if !n.HasFocus() {
		t.Fatal("press did not focus")
	}
	step(t, h, event.KeyDown(event.KeyArrowUp, 0))
	if v, ok := n.Value(); !ok || v != 6 || n.Text() != "6" {
		t.Errorf("after up: %v %v %q", v, ok, n.Text())
	}
	step(t, h, event.KeyDown(event.KeyUnknown, 'x'), event.KeyDown(event.Key1, '1'))
	if v, _ := n.Value(); v != 10 || n.Text() != "61" {
		t.Errorf("typed past max: %v %q", v, n.Text())
	}
	step(t, h, event.KeyDown(event.KeyReturn, 0))
	if n.HasFocus() || n.Text() != "10" || changes != 1 {
		t.Errorf("after blur: focus=%v text=%q changes=%d", n.HasFocus(), n.Text(), changes)
	}

	step(t, h, event.MouseDown(geom.V(5, 5), event.ButtonLeft),
		event.KeyDown(event.KeyBackspace, 0),
		event.KeyDown(event.KeyBackspace, 0),
		event.KeyDown(event.KeyMinus, '-'),
	)
	if _, ok := n.Value(); ok {
		t.Error("lone minus parsed as a number")
	}
	step(t, h, event.KeyDown(event.KeyReturn, 0))
	if n.Text() != "" || changes != 2 {
		t.Errorf("invalid blur: text=%q changes=%d", n.Text(), changes)
	}
}

func TestNumboxValues(t *testing.T) {
	h, _ := newHandler()
	n := NewNumbox(h, nil, 2.5)
	if n.Text() != "2.5" {
		t.Errorf("text = %q", n.Text())
	}
	n.SetValue(1.000004)
	if n.Text() != "1" {
		t.Errorf("rounded text = %q", n.Text())
	}
	if err := n.SetRange(3, 1); !errors.Is(err, errors.KindInvalidArgument) {
		t.Errorf("inverted range err = %v", err)
	}
	if err := n.SetStep(0); !errors.Is(err, errors.KindInvalidArgument) {
		t.Errorf("zero step err = %v", err)
	}
	_ = n.SetRange(2, 4)
	if v, _ := n.Value(); v != 2 {
		t.Errorf("range did not clamp: %v", v)
	}
}

func TestMultitoggleSelect(t *testing.T) {
	h, clk := newHandler()
	m := NewMultitoggle(h, nil, "a", "bb", "ccc")
	place(m)
	changes := 0
	m.On(event.KindChange, func(event.Event) { changes++ })

	if m.Width() != 23+30+37 {
		t.Fatalf("width = %d", m.Width())
	}
	click(t, h, clk, geom.V(30, 5))
	if m.Selected() != 1 || changes != 1 {
		t.Fatalf("selected=%d changes=%d", m.Selected(), changes)
	}
	click(t, h, clk, geom.V(30, 5))
	if changes != 1 {
		t.Error("clicking the selected option fired Change")
	}
	m.Render(nil)
	if m.Buttons()[1].Background() != ToggleActiveColor || m.Buttons()[0].Background() != ButtonColor {
		t.Error("selected button not highlighted")
	}

	_ = m.SetWidth(150)
	m.Render(nil)
	hb := m.Buttons()[2].Hitbox()
	if hb.Location().X != 100 || hb.Size().X != 50 {
		t.Errorf("third button hitbox at %v size %v", hb.Location(), hb.Size())
	}
	click(t, h, clk, geom.V(120, 5))
	if v, _ := m.Value(); v != "ccc" || changes != 2 {
		t.Errorf("value=%q changes=%d", v, changes)
	}
	if err := m.Select(3); !errors.Is(err, errors.KindInvalidArgument) {
		t.Errorf("Select(3) err = %v", err)
	}
}
