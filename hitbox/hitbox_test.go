package hitbox

import (
	"testing"

	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
)

func newBox() (*event.Handler, *Hitbox) {
	h := event.NewHandler(event.Config{Clock: event.NewFakeClock()})
	return h, New(h, geom.V(10, 10), geom.V(20, 20))
}

func step(t *testing.T, h *event.Handler, evs ...event.Event) {
	t.Helper()
	for _, ev := range evs {
		h.Enqueue(ev)
	}
	if err := h.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
}

func TestSpatialListenerOnlyInside(t *testing.T) {
	h, b := newBox()
	var got []event.Event
	b.On(event.KindMouseDown, func(ev event.Event) { got = append(got, ev) })

	step(t, h,
		event.MouseDown(geom.V(5, 5), event.ButtonLeft),
		event.MouseDown(geom.V(30, 30), event.ButtonLeft),
		event.MouseDown(geom.V(15, 12), event.ButtonLeft),
	)
	if len(got) != 2 {
		t.Fatalf("delivered %d events, want 2", len(got))
	}
	if got[0].Target != b || got[1].RelPos != geom.V(5, 2) {
		t.Errorf("target=%v relpos=%v", got[0].Target, got[1].RelPos)
	}

	b.SetEnabled(false)
	step(t, h, event.MouseDown(geom.V(15, 15), event.ButtonLeft))
	if len(got) != 2 {
		t.Error("disabled hitbox delivered an event")
	}
}

func TestNonSpatialListenerIgnoresPointer(t *testing.T) {
	h, b := newBox()
	keys := 0
	b.On(event.KindKeyDown, func(event.Event) { keys++ })
	step(t, h, event.MouseMotion(geom.V(100, 100)), event.KeyDown(event.KeyA, 'a'))
	if keys != 1 {
		t.Errorf("keys = %d", keys)
	}
}

func TestEnterLeaveEdges(t *testing.T) {
	h, b := newBox()
	var trail []event.Kind
	b.On(event.KindMouseEnter, func(ev event.Event) { trail = append(trail, ev.Kind) })
	b.On(event.KindMouseLeave, func(ev event.Event) { trail = append(trail, ev.Kind) })

	for _, p := range []geom.Vec{{X: 0, Y: 0}, {X: 15, Y: 15}, {X: 16, Y: 16}, {X: 40, Y: 40}, {X: 41, Y: 41}, {X: 20, Y: 20}} {
		step(t, h, event.MouseMotion(p))
	}
	want := []event.Kind{event.KindMouseEnter, event.KindMouseLeave, event.KindMouseEnter}
	if len(trail) != len(want) {
		t.Fatalf("trail = %v, want %v", trail, want)
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Fatalf("trail = %v, want %v", trail, want)
		}
	}
}

func TestFocusReleaseLetsAnotherAcquire(t *testing.T) {
	h, a := newBox()
	b := New(h, geom.V(100, 100), geom.V(5, 5))

	a.Focus(nil)
	if h.FocusObject() != a || !a.HasFocus() {
		t.Fatal("focus not taken")
	}
	a.ReleaseFocus()
	if h.FocusObject() != nil {
		t.Fatalf("FocusObject = %v after release", h.FocusObject())
	}
	b.Focus(nil)
	if h.FocusObject() != b {
		t.Error("second hitbox could not acquire focus")
	}
}

func TestChangeOnBlur(t *testing.T) {
	tests := []struct {
		name    string
		mutate  bool
		changes int
	}{
		{"mutated", true, 1},
		{"untouched", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, b := newBox()
			text := "hello"
			var order []event.Kind
			b.On(event.KindChange, func(ev event.Event) { order = append(order, ev.Kind) })
			b.On(event.KindFocusRelease, func(ev event.Event) { order = append(order, ev.Kind) })

			b.Focus(func() any { return text })
			if tt.mutate {
				text += "!"
				text += "?"
			}
			b.ReleaseFocus()
			b.ReleaseFocus()

			changes := 0
			for _, k := range order {
				if k == event.KindChange {
					changes++
				}
			}
			if changes != tt.changes {
				t.Errorf("change fired %d times, want %d", changes, tt.changes)
			}
			if order[len(order)-1] != event.KindFocusRelease {
				t.Errorf("focusRelease should fire last, got %v", order)
			}
		})
	}
}

func TestOutsideClickReleases(t *testing.T) {
	h, b := newBox()
	released := 0
	b.On(event.KindFocusRelease, func(event.Event) { released++ })

	b.Focus(nil)
	step(t, h, event.MouseDown(geom.V(15, 15), event.ButtonLeft))
	if !b.HasFocus() {
		t.Fatal("click inside released focus")
	}
	step(t, h, event.MouseDown(geom.V(90, 90), event.ButtonLeft))
	if b.HasFocus() || released != 1 {
		t.Errorf("outside click: focus=%v released=%d", b.HasFocus(), released)
	}
}

func TestManualFocusIgnoresOutsideClick(t *testing.T) {
	h, b := newBox()
	b.ManualFocus(nil)
	step(t, h, event.MouseDown(geom.V(90, 90), event.ButtonLeft))
	if !b.HasFocus() {
		t.Error("manual focus released by outside click")
	}
}

func TestFocusSubscriptionsOnce(t *testing.T) {
	h, b := newBox()
	base := h.ListenerCount()
	b.Focus(nil)
	b.ReleaseFocus()
	afterFirst := h.ListenerCount()
	for i := 0; i < 3; i++ {
		b.Focus(nil)
		b.ReleaseFocus()
	}
	if afterFirst != base+2 || h.ListenerCount() != afterFirst {
		t.Errorf("listener counts base=%d first=%d now=%d", base, afterFirst, h.ListenerCount())
	}
}

func TestCloseForceReleases(t *testing.T) {
	h, b := newBox()
	b.Focus(nil)
	h.Close()
	if err := h.Step(); err != nil {
		t.Fatalf("close with focused hitbox: %v", err)
	}
	if b.HasFocus() || h.HasFocusObject() {
		t.Error("focus survived close")
	}
}

func TestFocusStealReleasesPrevious(t *testing.T) {
	h, a := newBox()
	b := New(h, geom.V(100, 100), geom.V(5, 5))
	releasedA := 0
	a.On(event.KindFocusRelease, func(event.Event) { releasedA++ })
	a.ManualFocus(nil)
	b.ManualFocus(nil)
	if a.HasFocus() || releasedA != 1 || h.FocusObject() != b {
		t.Errorf("a.focus=%v released=%d holder=%v", a.HasFocus(), releasedA, h.FocusObject())
	}
}

func TestDestructRemovesEverything(t *testing.T) {
	h, b := newBox()
	base := h.ListenerCount()
	b.On(event.KindMouseClick, func(event.Event) {})
	b.On(event.KindMouseEnter, func(event.Event) {})
	b.On(event.KindChange, func(event.Event) {})
	b.Focus(nil)

	b.Destruct()
	b.Destruct()

	if h.ListenerCount() != base {
		t.Errorf("ListenerCount = %d, want %d", h.ListenerCount(), base)
	}
	if h.HasFocusObject() || b.LocalCount() != 0 {
		t.Error("destruct left focus or local listeners")
	}
	if b.Size() != (geom.Vec{}) || b.Location() != (geom.Vec{}) {
		t.Error("geometry not zeroed")
	}
	if _, err := b.AddEventListener(event.KindMouseDown, func(event.Event) {}); err == nil {
		t.Error("add after destruct should fail")
	}
}

func TestRemoveEventListener(t *testing.T) {
	h, b := newBox()
	base := h.ListenerCount()
	local := b.On(event.KindFocus, func(event.Event) {})
	global := b.On(event.KindMouseUp, func(event.Event) {})
	if b.RemoveEventListener(local) != 1 || b.RemoveEventListener(global) != 1 {
		t.Fatal("remove failed")
	}
	if b.RemoveEventListener(global) != 0 {
		t.Error("double remove should return 0")
	}
	if h.ListenerCount() != base || b.LocalCount() != 0 {
		t.Error("listeners left behind")
	}
}

func TestTriggerChange(t *testing.T) {
	h, b := newBox()
	n := 0
	b.On(event.KindChange, func(event.Event) { n++ }, event.Once())
	b.TriggerChange()
	b.TriggerChange()
	if n != 0 {
		t.Fatal("change fired before the loop ran")
	}
	step(t, h)
	if n != 1 {
		t.Errorf("once change listener fired %d times", n)
	}
}
