package ebitenwin

import (
	"image"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/widget"
)

func kinds(evs []event.Event) []event.Kind {
	out := make([]event.Kind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

func equalKinds(a, b []event.Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want []event.Kind
	}{
		{"still cursor", Input{}, nil},
		{"move", Input{Cursor: image.Pt(5, 5)}, []event.Kind{event.KindMouseMotion}},
		{"press", Input{Pressed: []event.Button{event.ButtonLeft}}, []event.Kind{event.KindMouseDown}},
		{"release", Input{Released: []event.Button{event.ButtonRight}}, []event.Kind{event.KindMouseUp}},
		{"wheel up", Input{WheelY: 1}, []event.Kind{event.KindScrollUp}},
		{"wheel down", Input{WheelY: -0.5}, []event.Kind{event.KindScrollDown}},
		{"typing", Input{KeysDown: []event.Key{event.KeyA}, Runes: []rune{'a'}, KeysUp: []event.Key{event.KeyA}},
			[]event.Kind{event.KindKeyDown, event.KindKeyDown, event.KindKeyUp}},
		{"drop", Input{Dropped: []string{"a.shp", "b.shp"}},
			[]event.Kind{event.KindDragBegin, event.KindFileDrop, event.KindFileDrop, event.KindDropComplete}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &translator{}
			tr.translate(Input{})
			if got := kinds(tr.translate(tt.in)); !equalKinds(got, tt.want) {
				t.Errorf("kinds = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTranslateRunesCarryCharacter(t *testing.T) {
	tr := &translator{}
	evs := tr.translate(Input{Runes: []rune{'é'}})
	last := evs[len(evs)-1]
	if last.Key != event.KeyUnknown || last.Rune != 'é' {
		t.Errorf("rune event = %+v", last)
	}
}

func TestSingleTouchActsAsMouse(t *testing.T) {
	tr := &translator{}
	tr.translate(Input{})
	steps := []struct {
		touches []Touch
		want    []event.Kind
	}{
		{[]Touch{{1, image.Pt(10, 10)}}, []event.Kind{event.KindMouseMotion, event.KindMouseDown}},
		{[]Touch{{1, image.Pt(10, 10)}}, nil},
		{[]Touch{{1, image.Pt(20, 10)}}, []event.Kind{event.KindMouseMotion}},
		{nil, []event.Kind{event.KindMouseUp}},
	}
	for i, s := range steps {
		evs := tr.translate(Input{Touches: s.touches})
		if got := kinds(evs); !equalKinds(got, s.want) {
			t.Fatalf("step %d: kinds = %v, want %v", i, got, s.want)
		}
		if i == 3 && evs[0].Pos != geom.V(20, 10) {
			t.Errorf("release at %v", evs[0].Pos)
		}
	}
}

func TestPinchScrolls(t *testing.T) {
	tr := &translator{}
	tr.translate(Input{})
	pair := func(d int) []Touch {
		return []Touch{{1, image.Pt(100-d/2, 100)}, {2, image.Pt(100+d/2, 100)}}
	}
	steps := []struct {
		d    int
		want []event.Kind
	}{
		{100, nil},
		{105, nil},
		{120, []event.Kind{event.KindScrollUp}},
		{125, nil},
		{100, []event.Kind{event.KindScrollDown}},
	}
	for i, s := range steps {
		evs := tr.translate(Input{Touches: pair(s.d)})
		if got := kinds(evs); !equalKinds(got, s.want) {
			t.Fatalf("step %d: kinds = %v, want %v", i, got, s.want)
		}
		if len(evs) > 0 && evs[0].Pos != geom.V(100, 100) {
			t.Errorf("step %d: scroll at %v", i, evs[0].Pos)
		}
	}
}

func TestTouchToPinchReleasesButton(t *testing.T) {
	tr := &translator{}
	tr.translate(Input{})
	tr.translate(Input{Touches: []Touch{{1, image.Pt(10, 10)}}})
	evs := tr.translate(Input{Touches: []Touch{{1, image.Pt(10, 10)}, {2, image.Pt(50, 10)}}})
	if got := kinds(evs); !equalKinds(got, []event.Kind{event.KindMouseUp}) {
		t.Errorf("kinds = %v", got)
	}
}

func TestRepeats(t *testing.T) {
	tests := []struct {
		d    int
		want bool
	}{
		{1, false},
		{29, false},
		{30, true},
		{31, false},
		{33, true},
	}
	for _, tt := range tests {
		if got := repeats(tt.d); got != tt.want {
			t.Errorf("repeats(%d) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestKeyMapping(t *testing.T) {
	tests := []struct {
		in   ebiten.Key
		want event.Key
	}{
		{ebiten.KeyEnter, event.KeyReturn},
		{ebiten.KeyBackspace, event.KeyBackspace},
		{ebiten.KeyF3, event.KeyF3},
		{ebiten.KeyF12, event.KeyF12},
		{ebiten.KeyDigit7, event.Key7},
		{ebiten.KeyQ, event.KeyQ},
		{ebiten.KeyNumpadAdd, event.KeyPlus},
		{ebiten.KeyCapsLock, event.KeyUnknown},
	}
	for _, tt := range tests {
		if got := Key(tt.in); got != tt.want {
			t.Errorf("Key(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCursorShape(t *testing.T) {
	if CursorShape(widget.CursorEWResize) != ebiten.CursorShapeEWResize {
		t.Error("EW resize not mapped")
	}
	if CursorShape(widget.CursorDefault) != ebiten.CursorShapeDefault {
		t.Error("default not mapped")
	}
}
