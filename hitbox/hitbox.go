// Package hitbox gates input to a rectangular screen region and bridges a
// widget's focus lifecycle to the event Handler.
package hitbox

import (
	"reflect"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
)

// Hitbox is a widget's input region. Its state is guarded by the
// Handler's lock: mutate it from listeners, tasks, or while rendering.
type Hitbox struct {
	h       *event.Handler
	pos     geom.Vec
	size    geom.Vec
	enabled bool
	target  any

	hasFocus bool
	value    func() any
	start    any

	mouseIn bool
	local   map[event.Kind][]*event.Registration
	global  []event.ListenerID

	motionID  event.ListenerID
	outsideID event.ListenerID
	closeID   event.ListenerID
	dead      bool
}

// New returns an enabled Hitbox at pos with the given size.
func New(h *event.Handler, pos, size geom.Vec) *Hitbox {
	b := &Hitbox{
		h:       h,
		pos:     pos,
		size:    size,
		enabled: true,
		local:   make(map[event.Kind][]*event.Registration),
	}
	b.target = b
	return b
}

// Handler returns the event handler the hitbox registers with.
func (b *Hitbox) Handler() *event.Handler { return b.h }

// SetTarget sets the object reported as Event.Target. It defaults to the
// Hitbox itself.
func (b *Hitbox) SetTarget(t any) { b.target = t }

func (b *Hitbox) Location() geom.Vec         { return b.pos }
func (b *Hitbox) SetLocation(p geom.Vec)     { b.pos = p }
func (b *Hitbox) Size() geom.Vec             { return b.size }
func (b *Hitbox) SetSize(s geom.Vec)         { b.size = s }
func (b *Hitbox) Rect() geom.Rect            { return geom.Rect{Pos: b.pos, Size: b.size} }
func (b *Hitbox) Enabled() bool              { return b.enabled }
func (b *Hitbox) SetEnabled(on bool)         { b.enabled = on }
func (b *Hitbox) HasFocus() bool             { return b.hasFocus }
func (b *Hitbox) RelPos(p geom.Vec) geom.Vec { return p.Sub(b.pos) }

// Contains reports whether p is inside the hitbox, edges included.
func (b *Hitbox) Contains(p geom.Vec) bool {
	return b.Rect().Contains(p)
}

// AddEventListener registers fn for kind. MouseEnter, MouseLeave, Focus,
// FocusRelease and Change are handled by the hitbox itself. Other kinds
// are registered with the Handler; pointer kinds only reach fn while the
// pointer is inside, and nothing reaches fn while the hitbox is disabled.
func (b *Hitbox) AddEventListener(kind event.Kind, fn event.Listener, opts ...event.Option) (event.ListenerID, error) {
	if b.dead {
		return 0, errors.New("hitbox.AddEventListener", errors.KindListenerLifecycle, "hitbox destructed")
	}
	if !kind.Valid() {
		return 0, errors.InvalidArgument("hitbox.AddEventListener", "unknown kind %d", int(kind))
	}
	if fn == nil {
		return 0, errors.InvalidArgument("hitbox.AddEventListener", "nil listener for %s", kind)
	}
	if kind.Local() {
		r := event.NewRegistration(b.h.NextListenerID(), kind, fn, opts...)
		b.local[kind] = append(append([]*event.Registration(nil), b.local[kind]...), r)
		if kind == event.KindMouseEnter || kind == event.KindMouseLeave {
			b.subscribeMotion()
		}
		return r.ID(), nil
	}

	spatial := kind.Spatial()
	id, err := b.h.AddEventListener(kind, func(ev event.Event) {
		if !b.enabled || (spatial && !b.Contains(ev.Pos)) {
			return
		}
		ev.Target = b.target
		ev.RelPos = b.RelPos(ev.Pos)
		fn(ev)
	}, opts...)
	if err != nil {
		return 0, err
	}
	b.global = append(b.global, id)
	return id, nil
}

// On is AddEventListener for callers that know kind is valid.
func (b *Hitbox) On(kind event.Kind, fn event.Listener, opts ...event.Option) event.ListenerID {
	id, err := b.AddEventListener(kind, fn, opts...)
	if err != nil {
		panic(err)
	}
	return id
}

// RemoveEventListener removes a listener added through this hitbox and
// returns how many entries were removed.
func (b *Hitbox) RemoveEventListener(id event.ListenerID) int {
	for kind, list := range b.local {
		for i, r := range list {
			if r.ID() == id {
				out := append([]*event.Registration(nil), list[:i]...)
				b.local[kind] = append(out, list[i+1:]...)
				return 1
			}
		}
	}
	for i, g := range b.global {
		if g == id {
			b.global = append(b.global[:i:i], b.global[i+1:]...)
			return b.h.RemoveEventListener(id)
		}
	}
	return 0
}

// LocalCount returns the number of hitbox-local listeners.
func (b *Hitbox) LocalCount() int {
	n := 0
	for _, list := range b.local {
		n += len(list)
	}
	return n
}

func (b *Hitbox) subscribeMotion() {
	if b.motionID != 0 {
		return
	}
	b.motionID = b.h.On(event.KindMouseMotion, b.onMotion)
	b.global = append(b.global, b.motionID)
}

func (b *Hitbox) onMotion(ev event.Event) {
	in := b.enabled && b.Contains(ev.Pos)
	if in == b.mouseIn {
		return
	}
	b.mouseIn = in
	if in {
		ev.Kind = event.KindMouseEnter
	} else {
		ev.Kind = event.KindMouseLeave
	}
	b.fire(ev)
}

// MouseInside reports the enter/leave state from the last motion event.
func (b *Hitbox) MouseInside() bool { return b.mouseIn }

func (b *Hitbox) fire(ev event.Event) {
	ev.Target = b.target
	ev.RelPos = b.RelPos(ev.Pos)
	for _, r := range b.local[ev.Kind] {
		if !r.Matches(ev) {
			continue
		}
		if r.Once() {
			b.RemoveEventListener(r.ID())
		}
		b.call(r, ev)
	}
}

func (b *Hitbox) call(r *event.Registration, ev event.Event) {
	defer errors.Recover("hitbox.dispatch " + ev.Kind.String())
	r.Call(ev)
}

func (b *Hitbox) localEvent(kind event.Kind) event.Event {
	return event.Event{Kind: kind, Pos: b.h.MousePos(), Mods: b.h.Modifiers()}
}

// Focus takes focus for this hitbox. value, if not nil, is sampled now and
// again on release; a difference fires Change. A mouse press outside the
// hitbox releases focus, and closing the window force-releases it.
func (b *Hitbox) Focus(value func() any) {
	if b.dead {
		return
	}
	if b.outsideID == 0 {
		b.outsideID = b.h.On(event.KindMouseDown, b.onOutsideDown)
		b.global = append(b.global, b.outsideID)
	}
	b.focus(value)
}

// ManualFocus is Focus without the outside-click release. The owner is
// responsible for calling ReleaseFocus.
func (b *Hitbox) ManualFocus(value func() any) {
	if b.dead {
		return
	}
	b.focus(value)
}

func (b *Hitbox) focus(value func() any) {
	if b.closeID == 0 {
		b.closeID = b.h.On(event.KindQuit, func(event.Event) { b.ForceReleaseFocus() })
		b.global = append(b.global, b.closeID)
	}
	if b.hasFocus {
		return
	}
	b.value = value
	b.start = nil
	if value != nil {
		b.start = value()
	}
	b.hasFocus = true
	if prev, ok := b.h.SetFocus(b).(*Hitbox); ok && prev != b && prev.hasFocus {
		prev.release()
	}
	b.fire(b.localEvent(event.KindFocus))
}

func (b *Hitbox) onOutsideDown(ev event.Event) {
	if b.hasFocus && !b.Contains(ev.Pos) {
		b.ReleaseFocus()
	}
}

// ReleaseFocus gives up focus, firing Change first if the focused value
// changed, then FocusRelease.
func (b *Hitbox) ReleaseFocus() {
	if !b.hasFocus {
		return
	}
	b.release()
	b.h.ReleaseFocus(b)
}

func (b *Hitbox) release() {
	b.hasFocus = false
	if b.value != nil && !reflect.DeepEqual(b.start, b.value()) {
		b.fire(b.localEvent(event.KindChange))
	}
	b.value, b.start = nil, nil
	b.fire(b.localEvent(event.KindFocusRelease))
}

// ForceReleaseFocus drops focus without firing any listener.
func (b *Hitbox) ForceReleaseFocus() {
	b.h.ReleaseFocus(b)
	b.hasFocus = false
	b.value, b.start = nil, nil
}

// TriggerChange fires Change listeners from the dispatch loop.
func (b *Hitbox) TriggerChange() {
	b.h.QueueTask(func() {
		if !b.dead {
			b.fire(b.localEvent(event.KindChange))
		}
	})
}

// Destruct releases focus, removes every listener the hitbox registered
// and zeroes its geometry. Calling it again does nothing.
func (b *Hitbox) Destruct() {
	if b.dead {
		return
	}
	if b.hasFocus {
		b.ForceReleaseFocus()
	}
	for _, id := range b.global {
		b.h.RemoveEventListener(id)
	}
	b.global = nil
	b.local = make(map[event.Kind][]*event.Registration)
	b.motionID, b.outsideID, b.closeID = 0, 0, 0
	b.pos, b.size = geom.Vec{}, geom.Vec{}
	b.enabled = false
	b.mouseIn = false
	b.dead = true
}

// Destructed reports whether Destruct has run.
func (b *Hitbox) Destructed() bool { return b.dead }
