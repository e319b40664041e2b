package event

import (
	"sync"
)

// ListenerID is the opaque handle returned when a listener is registered.
type ListenerID uint64

// Listener receives one event.
type Listener func(ev Event)

// Registration is one registered listener and its filters.
type Registration struct {
	id       ListenerID
	kind     Kind
	fn       Listener
	once     bool
	key      Key
	button   Button
	mods     []Modifier
	override bool
	async    bool
	owner    any
}

// Option configures a Registration.
type Option func(*Registration)

// Once removes the listener after its first invocation.
func Once() Option { return func(r *Registration) { r.once = true } }

// WithKey only delivers key events for k.
func WithKey(k Key) Option { return func(r *Registration) { r.key = k } }

// WithButton only delivers mouse button events for b.
func WithButton(b Button) Option { return func(r *Registration) { r.button = b } }

// WithModifiers only delivers events while every listed modifier is held.
func WithModifiers(ms ...Modifier) Option {
	return func(r *Registration) { r.mods = append(r.mods, ms...) }
}

// Override registers into the override registry. While any override
// listener exists for a kind, normal listeners of that kind are skipped.
func Override() Option { return func(r *Registration) { r.override = true } }

// Async runs the listener on its own goroutine. Async listeners must not
// touch widget state directly; use Handler.QueueTask.
func Async() Option { return func(r *Registration) { r.async = true } }

// WithOwner tags the registration with the object that added it.
func WithOwner(o any) Option { return func(r *Registration) { r.owner = o } }

// NewRegistration builds a registration without adding it anywhere.
func NewRegistration(id ListenerID, kind Kind, fn Listener, opts ...Option) *Registration {
	r := &Registration{id: id, kind: kind, fn: fn}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registration) ID() ListenerID { return r.id }
func (r *Registration) Kind() Kind     { return r.kind }
func (r *Registration) Once() bool     { return r.once }
func (r *Registration) Override() bool { return r.override }
func (r *Registration) Async() bool    { return r.async }
func (r *Registration) Owner() any     { return r.owner }

// Options returns options reproducing r's filters for another kind.
func (r *Registration) Options() []Option {
	var opts []Option
	if r.once {
		opts = append(opts, Once())
	}
	if r.key != KeyUnknown {
		opts = append(opts, WithKey(r.key))
	}
	if r.button != ButtonNone {
		opts = append(opts, WithButton(r.button))
	}
	if len(r.mods) > 0 {
		opts = append(opts, WithModifiers(r.mods...))
	}
	if r.override {
		opts = append(opts, Override())
	}
	if r.async {
		opts = append(opts, Async())
	}
	if r.owner != nil {
		opts = append(opts, WithOwner(r.owner))
	}
	return opts
}

// Matches reports whether ev passes the key, button and modifier filters.
func (r *Registration) Matches(ev Event) bool {
	switch ev.Kind {
	case KindKeyDown, KindKeyUp:
		if r.key != KeyUnknown && ev.Key != r.key {
			return false
		}
	case KindMouseDown, KindMouseUp, KindMouseClick, KindMouseDoubleClick:
		if r.button != ButtonNone && ev.Button != r.button {
			return false
		}
	}
	return ev.Mods.HasAll(r.mods)
}

// Call invokes the listener synchronously.
func (r *Registration) Call(ev Event) { r.fn(ev) }

// registry holds the normal and override listener lists per kind.
type registry struct {
	mu       sync.Mutex
	normal   [numKinds][]*Registration
	override [numKinds][]*Registration
}

func (g *registry) add(r *Registration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r.override {
		g.override[r.kind] = append(g.override[r.kind], r)
	} else {
		g.normal[r.kind] = append(g.normal[r.kind], r)
	}
}

func (g *registry) remove(id ListenerID) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for k := range g.normal {
		g.normal[k], n = dropID(g.normal[k], id, n)
		g.override[k], n = dropID(g.override[k], id, n)
	}
	return n
}

func dropID(list []*Registration, id ListenerID, n int) ([]*Registration, int) {
	for i, r := range list {
		if r.id == id {
			out := make([]*Registration, 0, len(list)-1)
			out = append(out, list[:i]...)
			out = append(out, list[i+1:]...)
			return out, n + 1
		}
	}
	return list, n
}

// snapshot returns the listeners an event of kind k is delivered to:
// the override list when it is non-empty, otherwise the normal list.
// Lists are never mutated in place, so the returned slice is stable.
func (g *registry) snapshot(k Kind) []*Registration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.override[k]) > 0 {
		return g.override[k]
	}
	return g.normal[k]
}

func (g *registry) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for k := range g.normal {
		n += len(g.normal[k]) + len(g.override[k])
	}
	return n
}
