package event

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/lock"
	"github.com/OpticalFlyer/screenkit/logging"
)

const (
	// DefaultQueueSize is the capacity of the raw event FIFO.
	DefaultQueueSize = 100
	// DefaultTickInterval is how long Run idles between passes when no
	// event arrives.
	DefaultTickInterval = 5 * time.Millisecond
	// DefaultReconcileTimeout bounds the per-pass wait for async listeners.
	DefaultReconcileTimeout = 100 * time.Millisecond
)

// Config holds Handler settings. Zero fields take the defaults.
type Config struct {
	QueueSize        int
	TickInterval     time.Duration
	ReconcileTimeout time.Duration
	Clock            Clock
}

// IntervalID identifies a callback added with AddInterval.
type IntervalID uint64

type interval struct {
	id    IntervalID
	every time.Duration
	next  time.Time
	fn    func()
}

// Handler owns the listener registries, the global input state, focus and
// the dispatch loop. Construct one per application and pass it to every
// widget.
type Handler struct {
	cfg   Config
	clock Clock

	queue  chan Event
	motion atomic.Pointer[Event]
	wake   chan struct{}

	reg    registry
	nextID atomic.Uint64

	lk    lock.RLock
	owner lock.Owner

	stateMu  sync.Mutex
	mousePos geom.Vec
	mods     Modifiers
	focus    any

	clicks clickDetector
	tick   uint64
	closed atomic.Bool

	taskMu sync.Mutex
	tasks  []func()

	intervalMu   sync.Mutex
	intervals    map[IntervalID]*interval
	nextInterval IntervalID

	pendingMu sync.Mutex
	pending   map[uint64]chan struct{}
	nextAsync uint64

	asyncMu      sync.Mutex
	asyncQueue   []asyncCall
	asyncRunning bool
	asyncOwner   lock.Owner
}

type asyncCall struct {
	kind Kind
	fn   Listener
	ev   Event
	done chan struct{}
}

// NewHandler returns a Handler with cfg's settings.
func NewHandler(cfg Config) *Handler {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.ReconcileTimeout <= 0 {
		cfg.ReconcileTimeout = DefaultReconcileTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	return &Handler{
		cfg:        cfg,
		clock:      cfg.Clock,
		queue:      make(chan Event, cfg.QueueSize),
		wake:       make(chan struct{}, 1),
		owner:      lock.NewOwner(),
		asyncOwner: lock.NewOwner(),
		intervals:  make(map[IntervalID]*interval),
		pending:    make(map[uint64]chan struct{}),
	}
}

// Lock returns the lock held by the dispatch loop during each pass.
// Renderers hold it while walking widget trees.
func (h *Handler) Lock() *lock.RLock { return &h.lk }

// Owner returns the dispatch loop's lock owner. Code running inside a
// listener may re-enter the lock with it.
func (h *Handler) Owner() lock.Owner { return h.owner }

// Clock returns the handler's time source.
func (h *Handler) Clock() Clock { return h.clock }

// NextListenerID allocates a handle unique within this Handler.
func (h *Handler) NextListenerID() ListenerID {
	return ListenerID(h.nextID.Add(1))
}

// Enqueue hands a raw event to the dispatch loop. Mouse motion replaces any
// motion not yet dispatched. Other events go to a bounded FIFO; Enqueue
// blocks while it is full.
func (h *Handler) Enqueue(ev Event) {
	_ = h.EnqueueContext(context.Background(), ev)
}

// EnqueueContext is Enqueue that gives up when ctx ends.
func (h *Handler) EnqueueContext(ctx context.Context, ev Event) error {
	if ev.Kind == KindMouseMotion {
		h.motion.Store(&ev)
		h.signal()
		return nil
	}
	select {
	case h.queue <- ev:
		h.signal()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// AddEventListener registers fn for kind and returns its handle.
func (h *Handler) AddEventListener(kind Kind, fn Listener, opts ...Option) (ListenerID, error) {
	if !kind.Valid() || kind.Local() {
		return 0, errors.InvalidArgument("event.AddEventListener", "kind %s cannot be registered globally", kind)
	}
	if fn == nil {
		return 0, errors.InvalidArgument("event.AddEventListener", "nil listener for %s", kind)
	}
	r := NewRegistration(h.NextListenerID(), kind, fn, opts...)
	h.reg.add(r)
	return r.id, nil
}

// On is AddEventListener for callers that know kind is valid.
func (h *Handler) On(kind Kind, fn Listener, opts ...Option) ListenerID {
	id, err := h.AddEventListener(kind, fn, opts...)
	if err != nil {
		panic(err)
	}
	return id
}

// RemoveEventListener removes the registration with handle id and returns
// how many entries were removed. Unknown handles return 0.
func (h *Handler) RemoveEventListener(id ListenerID) int {
	n := h.reg.remove(id)
	if n == 0 {
		logging.Logger().Debug("remove of unknown listener", "id", uint64(id))
	}
	return n
}

// ListenerCount returns the number of registered listeners.
func (h *Handler) ListenerCount() int { return h.reg.len() }

// SetFocus makes target the focus holder, replacing any previous holder,
// which is returned.
func (h *Handler) SetFocus(target any) (prev any) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	prev, h.focus = h.focus, target
	return prev
}

// ReleaseFocus clears focus if target holds it. It reports whether focus
// was released.
func (h *Handler) ReleaseFocus(target any) bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	if h.focus == nil || h.focus != target {
		return false
	}
	h.focus = nil
	return true
}

// ForceReleaseFocus clears focus regardless of the holder.
func (h *Handler) ForceReleaseFocus() {
	h.stateMu.Lock()
	h.focus = nil
	h.stateMu.Unlock()
}

// FocusObject returns the current focus holder, or nil.
func (h *Handler) FocusObject() any {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.focus
}

// HasFocusObject reports whether anything holds focus.
func (h *Handler) HasFocusObject() bool { return h.FocusObject() != nil }

// MousePos returns the last known pointer position.
func (h *Handler) MousePos() geom.Vec {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.mousePos
}

// Modifiers returns the currently held modifiers.
func (h *Handler) Modifiers() Modifiers {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.mods
}

// QueueTask runs fn on the dispatch loop after the current event drain.
// It is the way for other goroutines to mutate widget state.
func (h *Handler) QueueTask(fn func()) {
	h.taskMu.Lock()
	h.tasks = append(h.tasks, fn)
	h.taskMu.Unlock()
	h.signal()
}

// AddInterval calls fn on the dispatch loop every d, first after d.
func (h *Handler) AddInterval(d time.Duration, fn func()) IntervalID {
	h.intervalMu.Lock()
	defer h.intervalMu.Unlock()
	h.nextInterval++
	id := h.nextInterval
	h.intervals[id] = &interval{id: id, every: d, next: h.clock.Now().Add(d), fn: fn}
	return id
}

// RemoveInterval stops an interval. It reports whether id was known.
func (h *Handler) RemoveInterval(id IntervalID) bool {
	h.intervalMu.Lock()
	defer h.intervalMu.Unlock()
	_, ok := h.intervals[id]
	delete(h.intervals, id)
	return ok
}

// Close asks the loop to shut down by enqueueing a Quit event.
func (h *Handler) Close() { h.Enqueue(Quit()) }

// Closed reports whether a Quit event has been dispatched.
func (h *Handler) Closed() bool { return h.closed.Load() }

// Run dispatches until a Quit event is processed, ctx ends, or focus is
// still held after Quit, which is returned as a focus protocol error.
func (h *Handler) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.cfg.TickInterval)
	defer ticker.Stop()
	for {
		if err := h.Step(); err != nil {
			return err
		}
		if h.Closed() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.wake:
		case <-ticker.C:
		}
	}
}

// Step performs one dispatch pass: every queued event, then queued tasks,
// then a Tick event, then due intervals. Async listeners queued during the
// pass run after the lock is released and are given ReconcileTimeout to
// finish.
func (h *Handler) Step() error {
	err := h.pass()
	h.reconcile()
	return err
}

func (h *Handler) pass() error {
	h.lk.Lock(h.owner)
	defer h.lk.Unlock(h.owner)

	if p := h.motion.Swap(nil); p != nil {
		if err := h.process(*p); err != nil {
			return err
		}
	}
drain:
	for !h.Closed() {
		var ev Event
		select {
		case ev = <-h.queue:
		default:
			break drain
		}
		if err := h.process(ev); err != nil {
			return err
		}
	}
	if h.Closed() {
		return nil
	}
	h.runTasks()
	h.tick++
	h.dispatch(Event{Kind: KindTick, Tick: h.tick, Pos: h.MousePos(), Mods: h.Modifiers()})
	h.runIntervals()
	return nil
}

func (h *Handler) process(ev Event) error {
	h.stateMu.Lock()
	if ev.Kind.pointer() {
		h.mousePos = ev.Pos
	} else {
		ev.Pos = h.mousePos
	}
	switch ev.Kind {
	case KindKeyDown:
		h.mods |= modifierBit(ev.Key)
	case KindKeyUp:
		h.mods &^= modifierBit(ev.Key)
	}
	ev.Mods = h.mods
	h.stateMu.Unlock()

	switch ev.Kind {
	case KindMouseDown:
		if ev.Button == ButtonLeft {
			h.clicks.down(h.clock.Now())
		}
		h.dispatch(ev)
	case KindMouseUp:
		if ev.Button == ButtonLeft {
			click := ev
			click.Kind = h.clicks.up(h.clock.Now(), ev.Pos)
			h.dispatch(click)
		}
		h.dispatch(ev)
	case KindQuit:
		h.dispatch(ev)
		h.closed.Store(true)
		if holder := h.FocusObject(); holder != nil {
			return errors.New("event.Handler.close", errors.KindFocusProtocol,
				"focus still held by %T after close listeners ran", holder)
		}
	default:
		h.dispatch(ev)
	}
	return nil
}

func (h *Handler) dispatch(ev Event) {
	for _, r := range h.reg.snapshot(ev.Kind) {
		if !r.Matches(ev) {
			continue
		}
		if r.once {
			h.reg.remove(r.id)
		}
		if r.async {
			h.goAsync(ev.Kind, r.fn, ev)
			continue
		}
		h.call(ev.Kind, r.fn, ev)
	}
}

func (h *Handler) call(kind Kind, fn Listener, ev Event) {
	defer errors.Recover("event.dispatch " + kind.String())
	fn(ev)
}

// goAsync queues fn for the async worker. Async listeners run one at a
// time on that worker, each holding the handler lock, so they never overlap
// a dispatch pass, a frame, or each other.
func (h *Handler) goAsync(kind Kind, fn Listener, ev Event) {
	done := make(chan struct{})
	h.pendingMu.Lock()
	h.nextAsync++
	h.pending[h.nextAsync] = done
	h.pendingMu.Unlock()

	h.asyncMu.Lock()
	h.asyncQueue = append(h.asyncQueue, asyncCall{kind: kind, fn: fn, ev: ev, done: done})
	start := !h.asyncRunning
	h.asyncRunning = true
	h.asyncMu.Unlock()
	if start {
		go h.drainAsync()
	}
}

// drainAsync runs queued async listeners in order and exits once the queue
// is empty.
func (h *Handler) drainAsync() {
	for {
		h.asyncMu.Lock()
		if len(h.asyncQueue) == 0 {
			h.asyncRunning = false
			h.asyncMu.Unlock()
			return
		}
		c := h.asyncQueue[0]
		h.asyncQueue = h.asyncQueue[1:]
		h.asyncMu.Unlock()

		h.lk.Do(h.asyncOwner, func() { h.call(c.kind, c.fn, c.ev) })
		close(c.done)
	}
}

// reconcile drops finished async listeners, waiting at most
// ReconcileTimeout for the rest.
func (h *Handler) reconcile() {
	h.pendingMu.Lock()
	if len(h.pending) == 0 {
		h.pendingMu.Unlock()
		return
	}
	waiting := make(map[uint64]chan struct{}, len(h.pending))
	for id, done := range h.pending {
		waiting[id] = done
	}
	h.pendingMu.Unlock()

	timer := time.NewTimer(h.cfg.ReconcileTimeout)
	defer timer.Stop()
	for id, done := range waiting {
		select {
		case <-done:
			h.pendingMu.Lock()
			delete(h.pending, id)
			h.pendingMu.Unlock()
		case <-timer.C:
			return
		}
	}
}

// Pending returns the number of async listeners not yet reconciled.
func (h *Handler) Pending() int {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	return len(h.pending)
}

func (h *Handler) runTasks() {
	h.taskMu.Lock()
	tasks := h.tasks
	h.tasks = nil
	h.taskMu.Unlock()

	for _, fn := range tasks {
		func() {
			defer errors.Recover("event.task")
			fn()
		}()
	}
}

func (h *Handler) runIntervals() {
	now := h.clock.Now()
	h.intervalMu.Lock()
	var due []*interval
	for _, iv := range h.intervals {
		if !now.Before(iv.next) {
			iv.next = now.Add(iv.every)
			due = append(due, iv)
		}
	}
	h.intervalMu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].id < due[j].id })
	for _, iv := range due {
		func() {
			defer errors.Recover("event.interval")
			iv.fn()
		}()
	}
}
