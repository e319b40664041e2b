package event

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/lock"
)

func newTestHandler() (*Handler, *FakeClock) {
	clk := NewFakeClock()
	return NewHandler(Config{Clock: clk, ReconcileTimeout: time.Second}), clk
}

func step(t *testing.T, h *Handler) {
	t.Helper()
	if err := h.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
}

func TestAddRemoveRestoresRegistrySize(t *testing.T) {
	h, _ := newTestHandler()
	h.On(KindTick, func(Event) {})
	before := h.ListenerCount()

	kinds := []Kind{KindMouseDown, KindKeyDown, KindTick, KindQuit, KindMouseClick}
	var ids []ListenerID
	for i, k := range kinds {
		opts := []Option{}
		if i%2 == 0 {
			opts = append(opts, Override())
		}
		ids = append(ids, h.On(k, func(Event) {}, opts...))
	}
	for _, id := range ids {
		if n := h.RemoveEventListener(id); n != 1 {
			t.Errorf("RemoveEventListener(%d) = %d, want 1", id, n)
		}
	}
	if got := h.ListenerCount(); got != before {
		t.Errorf("ListenerCount = %d, want %d", got, before)
	}
	if n := h.RemoveEventListener(ids[0]); n != 0 {
		t.Errorf("second remove = %d, want 0", n)
	}
}

func TestAddEventListenerRejectsLocalKinds(t *testing.T) {
	h, _ := newTestHandler()
	for _, k := range []Kind{KindMouseEnter, KindChange, Kind(-1), numKinds} {
		if _, err := h.AddEventListener(k, func(Event) {}); !errors.Is(err, errors.KindInvalidArgument) {
			t.Errorf("AddEventListener(%v) err = %v", k, err)
		}
	}
}

type clickRecorder struct {
	clicks, doubles, ups int
}

func (c *clickRecorder) register(h *Handler) {
	h.On(KindMouseClick, func(Event) { c.clicks++ })
	h.On(KindMouseDoubleClick, func(Event) { c.doubles++ })
	h.On(KindMouseUp, func(Event) { c.ups++ })
}

func press(t *testing.T, h *Handler, clk *FakeClock, pos geom.Vec, held time.Duration) {
	t.Helper()
	h.Enqueue(MouseDown(pos, ButtonLeft))
	step(t, h)
	clk.Advance(held)
	h.Enqueue(MouseUp(pos, ButtonLeft))
	step(t, h)
}

func TestDoubleClick(t *testing.T) {
	h, clk := newTestHandler()
	var rec clickRecorder
	rec.register(h)
	p := geom.V(40, 40)

	press(t, h, clk, p, 100*time.Millisecond)
	if rec.clicks != 1 || rec.doubles != 0 {
		t.Fatalf("after first press: clicks=%d doubles=%d", rec.clicks, rec.doubles)
	}
	clk.Advance(50 * time.Millisecond)
	press(t, h, clk, p, 50*time.Millisecond)

	if rec.doubles != 1 {
		t.Errorf("doubles = %d, want 1", rec.doubles)
	}
	if rec.clicks != 1 {
		t.Errorf("clicks = %d, want no extra click for the second press", rec.clicks)
	}
	if rec.ups != 2 {
		t.Errorf("mouseUp = %d, want 2", rec.ups)
	}
}

func TestClickRules(t *testing.T) {
	tests := []struct {
		name        string
		held, gap   time.Duration
		second      geom.Vec
		clicks, dbl int
	}{
		{"long press", 300 * time.Millisecond, 10 * time.Millisecond, geom.V(0, 0), 2, 0},
		{"slow second click", 50 * time.Millisecond, 300 * time.Millisecond, geom.V(0, 0), 2, 0},
		{"too far", 50 * time.Millisecond, 50 * time.Millisecond, geom.V(8, 0), 2, 0},
		{"at distance limit", 50 * time.Millisecond, 50 * time.Millisecond, geom.V(5, 5), 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, clk := newTestHandler()
			var rec clickRecorder
			rec.register(h)
			press(t, h, clk, geom.V(0, 0), tt.held)
			clk.Advance(tt.gap)
			press(t, h, clk, tt.second, tt.held)
			if rec.clicks != tt.clicks || rec.doubles != tt.dbl {
				t.Errorf("clicks=%d doubles=%d, want %d %d", rec.clicks, rec.doubles, tt.clicks, tt.dbl)
			}
		})
	}
}

func TestSingleSlowClick(t *testing.T) {
	h, clk := newTestHandler()
	var rec clickRecorder
	rec.register(h)
	press(t, h, clk, geom.V(1, 1), 400*time.Millisecond)
	if rec.clicks != 1 || rec.doubles != 0 {
		t.Errorf("clicks=%d doubles=%d, want 1 0", rec.clicks, rec.doubles)
	}
}

func TestTripleClickYieldsOneDouble(t *testing.T) {
	h, clk := newTestHandler()
	var rec clickRecorder
	rec.register(h)
	for i := 0; i < 3; i++ {
		press(t, h, clk, geom.V(3, 3), 20*time.Millisecond)
		clk.Advance(20 * time.Millisecond)
	}
	if rec.doubles != 1 || rec.clicks != 2 {
		t.Errorf("clicks=%d doubles=%d, want 2 1", rec.clicks, rec.doubles)
	}
}

func TestOverrideShadowsNormalPerKind(t *testing.T) {
	h, _ := newTestHandler()
	var normalBefore, normalAfter, override, otherKind int
	h.On(KindKeyDown, func(Event) { normalBefore++ })
	oid := h.On(KindKeyDown, func(Event) { override++ }, Override())
	h.On(KindKeyDown, func(Event) { normalAfter++ })
	h.On(KindKeyUp, func(Event) { otherKind++ })

	h.Enqueue(KeyDown(KeyA, 'a'))
	h.Enqueue(KeyUp(KeyA))
	step(t, h)

	if override != 1 || normalBefore != 0 || normalAfter != 0 {
		t.Errorf("override=%d normal=%d,%d", override, normalBefore, normalAfter)
	}
	if otherKind != 1 {
		t.Errorf("keyUp listeners shadowed: %d", otherKind)
	}

	h.RemoveEventListener(oid)
	h.Enqueue(KeyDown(KeyA, 'a'))
	step(t, h)
	if normalBefore != 1 || normalAfter != 1 || override != 1 {
		t.Errorf("after removal override=%d normal=%d,%d", override, normalBefore, normalAfter)
	}
}

func TestFilters(t *testing.T) {
	h, _ := newTestHandler()
	var keyA, ctrlShiftS, right int
	h.On(KindKeyDown, func(Event) { keyA++ }, WithKey(KeyA))
	h.On(KindKeyDown, func(Event) { ctrlShiftS++ }, WithKey(KeyS), WithModifiers(Ctrl, LShift))
	h.On(KindMouseDown, func(Event) { right++ }, WithButton(ButtonRight))

	h.Enqueue(KeyDown(KeyA, 'a'))
	h.Enqueue(KeyDown(KeyLCtrl, 0))
	h.Enqueue(KeyDown(KeyS, 's'))
	h.Enqueue(KeyDown(KeyLShift, 0))
	h.Enqueue(KeyDown(KeyS, 'S'))
	h.Enqueue(KeyUp(KeyLCtrl))
	h.Enqueue(KeyDown(KeyS, 'S'))
	h.Enqueue(MouseDown(geom.V(0, 0), ButtonLeft))
	h.Enqueue(MouseDown(geom.V(0, 0), ButtonRight))
	step(t, h)

	if keyA != 1 {
		t.Errorf("key filter: %d", keyA)
	}
	if ctrlShiftS != 1 {
		t.Errorf("modifier filter must require all modifiers: %d", ctrlShiftS)
	}
	if right != 1 {
		t.Errorf("button filter: %d", right)
	}
	if mods := h.Modifiers(); !mods.Has(LShift) || mods.Has(Ctrl) {
		t.Errorf("modifier state = %b", mods)
	}
}

func TestOnceAndSelfRemoval(t *testing.T) {
	h, _ := newTestHandler()
	var once, self, late int
	h.On(KindKeyDown, func(Event) { once++ }, Once())
	var selfID ListenerID
	selfID = h.On(KindKeyDown, func(Event) {
		self++
		h.RemoveEventListener(selfID)
		h.On(KindKeyDown, func(Event) { late++ })
	})

	h.Enqueue(KeyDown(KeyA, 'a'))
	step(t, h)
	if once != 1 || self != 1 || late != 0 {
		t.Fatalf("first pass once=%d self=%d late=%d", once, self, late)
	}
	h.Enqueue(KeyDown(KeyA, 'a'))
	step(t, h)
	if once != 1 || self != 1 || late != 1 {
		t.Errorf("second pass once=%d self=%d late=%d", once, self, late)
	}
}

func TestPanicIsolatedPerListener(t *testing.T) {
	var reported []*errors.Error
	errors.SetHandler(errors.HandlerFunc(func(e *errors.Error) { reported = append(reported, e) }))
	defer errors.SetHandler(nil)

	h, _ := newTestHandler()
	var after int
	h.On(KindMouseDown, func(Event) { panic("listener failed") })
	h.On(KindMouseDown, func(Event) { after++ })
	h.Enqueue(MouseDown(geom.V(1, 1), ButtonLeft))
	h.Enqueue(MouseDown(geom.V(1, 1), ButtonLeft))
	step(t, h)

	if after != 2 {
		t.Errorf("later listener ran %d times, want 2", after)
	}
	if len(reported) != 2 || reported[0].Kind != errors.KindDispatchCallback {
		t.Fatalf("reported %v", reported)
	}
	if reported[0].Op != "event.dispatch mouseDown" {
		t.Errorf("op = %q", reported[0].Op)
	}
}

func TestMotionCoalescedAndFirst(t *testing.T) {
	h, _ := newTestHandler()
	var seen []Kind
	var motionPos []geom.Vec
	h.On(KindMouseMotion, func(ev Event) {
		seen = append(seen, ev.Kind)
		motionPos = append(motionPos, ev.Pos)
	})
	h.On(KindKeyDown, func(ev Event) {
		seen = append(seen, ev.Kind)
		if ev.Pos != geom.V(3, 3) {
			t.Errorf("key event pos = %v, want last pointer position", ev.Pos)
		}
	})

	h.Enqueue(KeyDown(KeyA, 'a'))
	h.Enqueue(MouseMotion(geom.V(1, 1)))
	h.Enqueue(MouseMotion(geom.V(2, 2)))
	h.Enqueue(MouseMotion(geom.V(3, 3)))
	step(t, h)

	if len(seen) != 2 || seen[0] != KindMouseMotion || seen[1] != KindKeyDown {
		t.Fatalf("order = %v", seen)
	}
	if motionPos[0] != geom.V(3, 3) {
		t.Errorf("motion pos = %v, want latest", motionPos[0])
	}
}

func TestPassOrder(t *testing.T) {
	h, clk := newTestHandler()
	var order []string
	h.On(KindKeyDown, func(Event) { order = append(order, "event") })
	h.On(KindTick, func(ev Event) { order = append(order, "tick") })
	h.AddInterval(10*time.Millisecond, func() { order = append(order, "interval") })
	h.QueueTask(func() { order = append(order, "task") })
	h.Enqueue(KeyDown(KeyA, 'a'))
	clk.Advance(10 * time.Millisecond)
	step(t, h)

	want := []string{"event", "task", "tick", "interval"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	order = nil
	step(t, h)
	if len(order) != 1 || order[0] != "tick" {
		t.Errorf("interval ran before it was due: %v", order)
	}
}

func TestRemoveInterval(t *testing.T) {
	h, clk := newTestHandler()
	n := 0
	id := h.AddInterval(time.Millisecond, func() { n++ })
	clk.Advance(time.Millisecond)
	step(t, h)
	if !h.RemoveInterval(id) || h.RemoveInterval(id) {
		t.Error("RemoveInterval results wrong")
	}
	clk.Advance(time.Second)
	step(t, h)
	if n != 1 {
		t.Errorf("interval ran %d times", n)
	}
}

func TestFocus(t *testing.T) {
	h, _ := newTestHandler()
	a, b := new(int), new(int)
	h.SetFocus(a)
	if h.ReleaseFocus(b) {
		t.Error("non-holder released focus")
	}
	if h.FocusObject() != a {
		t.Error("holder changed by foreign release")
	}
	if !h.ReleaseFocus(a) || h.FocusObject() != nil {
		t.Error("holder could not release")
	}
	h.SetFocus(b)
	h.ForceReleaseFocus()
	if h.HasFocusObject() {
		t.Error("force release left focus")
	}
}

func TestQuitWithHeldFocusIsFatal(t *testing.T) {
	h, _ := newTestHandler()
	closed := 0
	h.On(KindQuit, func(Event) { closed++ })
	h.SetFocus(new(int))
	h.Close()

	err := h.Step()
	if !errors.Is(err, errors.KindFocusProtocol) {
		t.Fatalf("Step err = %v, want focus protocol error", err)
	}
	if closed != 1 || !h.Closed() {
		t.Errorf("close listeners=%d closed=%v", closed, h.Closed())
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	h := NewHandler(Config{})
	target := new(int)
	h.SetFocus(target)
	h.On(KindQuit, func(Event) { h.ReleaseFocus(target) })

	done := make(chan error, 1)
	go func() { done <- h.Run(context.Background()) }()
	h.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestAsyncListenerReconciled(t *testing.T) {
	h, _ := newTestHandler()
	release := make(chan struct{})
	ran := make(chan struct{})
	h.On(KindKeyDown, func(Event) {
		<-release
		h.QueueTask(func() { close(ran) })
	}, Async())

	h.Enqueue(KeyDown(KeyA, 'a'))
	h.cfg.ReconcileTimeout = 5 * time.Millisecond
	step(t, h)
	if h.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", h.Pending())
	}
	close(release)
	h.cfg.ReconcileTimeout = time.Second
	step(t, h)
	if h.Pending() != 0 {
		t.Errorf("pending = %d after reconcile", h.Pending())
	}
	step(t, h)
	select {
	case <-ran:
	default:
		t.Error("task queued from async listener did not run")
	}
}

func TestAsyncListenersNeverOverlap(t *testing.T) {
	h, _ := newTestHandler()
	var running, peak atomic.Int32
	enter := func() {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
	}
	order := make(chan string, 3)
	h.On(KindKeyDown, func(Event) { enter(); order <- "async1" }, Async())
	h.On(KindKeyDown, func(Event) { enter(); order <- "sync" })
	h.On(KindKeyDown, func(Event) { enter(); order <- "async2" }, Async())

	frameOwner := lock.NewOwner()
	frameDone := make(chan struct{})
	go func() {
		defer close(frameDone)
		for i := 0; i < 5; i++ {
			h.Lock().Do(frameOwner, enter)
		}
	}()

	h.Enqueue(KeyDown(KeyA, 'a'))
	step(t, h)
	<-frameDone

	if h.Pending() != 0 {
		t.Errorf("pending = %d, want 0", h.Pending())
	}
	if p := peak.Load(); p != 1 {
		t.Errorf("%d callbacks ran at once, want 1", p)
	}
	close(order)
	var got []string
	for s := range order {
		got = append(got, s)
	}
	if len(got) != 3 || got[0] != "sync" || got[1] != "async1" || got[2] != "async2" {
		t.Errorf("order = %v, want [sync async1 async2]", got)
	}
}

func TestEnqueueContextFullQueue(t *testing.T) {
	h := NewHandler(Config{QueueSize: 1})
	h.Enqueue(KeyDown(KeyA, 'a'))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := h.EnqueueContext(ctx, KeyDown(KeyB, 'b')); err == nil {
		t.Error("expected EnqueueContext to give up on a full queue")
	}
}
