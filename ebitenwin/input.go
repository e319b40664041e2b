package ebitenwin

import (
	"image"

	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
)

// Touch is one active touch point.
type Touch struct {
	ID  int
	Pos image.Point
}

// Input is the raw input polled from ebiten in one tick.
type Input struct {
	Cursor   image.Point
	Pressed  []event.Button
	Released []event.Button
	KeysDown []event.Key
	KeysUp   []event.Key
	Runes    []rune
	WheelY   float64
	Touches  []Touch
	Dropped  []string
}

// Pinch distance ratios that count as one zoom step.
const (
	pinchIn  = 1.1
	pinchOut = 0.9
)

// translator turns polled input into events. A single touch acts as the
// left mouse button; two touches pinch to scroll at their midpoint.
type translator struct {
	cursor   image.Point
	started  bool
	touch    int
	touchPos geom.Vec
	touching bool
	pinching bool
	pinch    float64
}

func (t *translator) translate(in Input) []event.Event {
	var evs []event.Event
	pos := geom.FromPoint(in.Cursor)
	if !t.started || in.Cursor != t.cursor {
		t.started, t.cursor = true, in.Cursor
		evs = append(evs, event.MouseMotion(pos))
	}
	for _, b := range in.Pressed {
		evs = append(evs, event.MouseDown(pos, b))
	}
	for _, b := range in.Released {
		evs = append(evs, event.MouseUp(pos, b))
	}
	switch {
	case in.WheelY > 0:
		evs = append(evs, event.Scroll(pos, true))
	case in.WheelY < 0:
		evs = append(evs, event.Scroll(pos, false))
	}
	for _, k := range in.KeysDown {
		evs = append(evs, event.KeyDown(k, 0))
	}
	for _, r := range in.Runes {
		evs = append(evs, event.KeyDown(event.KeyUnknown, r))
	}
	for _, k := range in.KeysUp {
		evs = append(evs, event.KeyUp(k))
	}
	if len(in.Dropped) > 0 {
		evs = append(evs, event.DragBegin())
		for _, p := range in.Dropped {
			evs = append(evs, event.FileDrop(p))
		}
		evs = append(evs, event.DropComplete())
	}
	return append(evs, t.touches(in.Touches)...)
}

func (t *translator) touches(touches []Touch) []event.Event {
	var evs []event.Event
	if t.touching && (len(touches) != 1 || touches[0].ID != t.touch) {
		evs = append(evs, event.MouseUp(t.touchPos, event.ButtonLeft))
		t.touching = false
	}
	if len(touches) != 2 {
		t.pinching = false
	}

	switch len(touches) {
	case 1:
		p := geom.FromPoint(touches[0].Pos)
		if !t.touching {
			t.touching, t.touch, t.touchPos = true, touches[0].ID, p
			return append(evs, event.MouseMotion(p), event.MouseDown(p, event.ButtonLeft))
		}
		if p != t.touchPos {
			t.touchPos = p
			evs = append(evs, event.MouseMotion(p))
		}
	case 2:
		a, b := geom.FromPoint(touches[0].Pos), geom.FromPoint(touches[1].Pos)
		d := a.Sub(b).Len()
		if !t.pinching {
			t.pinching, t.pinch = true, d
			break
		}
		mid := a.Add(b).Scale(0.5)
		switch {
		case d > t.pinch*pinchIn:
			evs = append(evs, event.Scroll(mid, true))
			t.pinch = d
		case d < t.pinch*pinchOut:
			evs = append(evs, event.Scroll(mid, false))
			t.pinch = d
		}
	}
	return evs
}
