// Package screen drives rendering: each frame it clears the surface,
// renders every entity and popup while holding the event handler's lock,
// then draws the debug overlays.
package screen

import (
	"fmt"
	"image"
	"image/color"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/lock"
	"github.com/OpticalFlyer/screenkit/logging"
	"github.com/OpticalFlyer/screenkit/surface"
)

// Debug levels cycled by ToggleDebug.
const (
	DebugOff = iota
	DebugFPS
	DebugFPSStats
	DebugHitboxes
)

// LockStat names the time spent waiting for the event handler's lock in
// Stats.
const LockStat = "EventHandlerLock"

var overlayColor = color.RGBA{250, 250, 210, 255}

// Config holds the screen settings.
type Config struct {
	// Size is the window size until the first frame reports one.
	Size image.Point
	// Background clears every frame. Nil keeps the previous frame.
	Background color.Color
	// Upscaling renders at Quality's pixel budget and scales the result
	// up to the window.
	Upscaling bool
	Quality   Quality
	// Font draws the overlays. Nil selects the default font.
	Font *surface.Font
}

// Stat is the render time of one entity in the last frame.
type Stat struct {
	Name string
	Took time.Duration
}

// Screen renders entities and popups onto a surface each frame.
type Screen struct {
	h     *event.Handler
	owner lock.Owner
	cfg   Config
	fps   *FPS
	debug atomic.Int32

	mu       sync.Mutex
	entities []element.Entity
	popups   []element.Entity
	loading  *LoadingScreen
	stats    []Stat
	win      image.Point
	internal image.Point

	// Owned by the render loop.
	surf *surface.Surface
	out  *surface.Surface
}

// New returns a screen rendering under h's lock.
func New(h *event.Handler, cfg Config) *Screen {
	if cfg.Font == nil {
		cfg.Font = surface.DefaultFont()
	}
	if cfg.Quality == 0 {
		cfg.Quality = QualityHigh
	}
	s := &Screen{h: h, owner: lock.NewOwner(), cfg: cfg, fps: NewFPS(DefaultFPSHistory)}
	s.win = cfg.Size
	s.internal = s.InternalSize(cfg.Size)
	return s
}

func (s *Screen) Handler() *event.Handler { return s.h }
func (s *Screen) FPS() *FPS               { return s.fps }
func (s *Screen) Font() *surface.Font     { return s.cfg.Font }

// Width is the width of the internal render surface.
func (s *Screen) Width() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.internal.X
}

// Height is the height of the internal render surface.
func (s *Screen) Height() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.internal.Y
}

// AddEntity adds e to the entities rendered each frame, in order.
func (s *Screen) AddEntity(e element.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = append(s.entities, e)
}

// RemoveEntity removes e and reports whether it was present.
func (s *Screen) RemoveEntity(e element.Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(&s.entities, e)
}

// AddPopup adds p to the popups, which render above every entity.
func (s *Screen) AddPopup(p element.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popups = append(s.popups, p)
}

// RemovePopup removes p.
func (s *Screen) RemovePopup(p element.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	remove(&s.popups, p)
}

func remove(list *[]element.Entity, e element.Entity) bool {
	i := slices.Index(*list, e)
	if i < 0 {
		return false
	}
	*list = slices.Delete(*list, i, i+1)
	return true
}

// SetLoadingScreen shows l instead of the entities until its tasks have
// finished. Nil removes it.
func (s *Screen) SetLoadingScreen(l *LoadingScreen) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = l
}

func (s *Screen) LoadingScreen() *LoadingScreen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Loading reports whether a loading screen is showing.
func (s *Screen) Loading() bool {
	l := s.LoadingScreen()
	return l != nil && l.Active()
}

// Debug returns the debug overlay level.
func (s *Screen) Debug() int { return int(s.debug.Load()) }

// SetDebug sets the debug overlay level.
func (s *Screen) SetDebug(level int) error {
	if level < DebugOff || level > DebugHitboxes {
		return errors.InvalidArgument("screen.SetDebug", "debug level %d outside 0..%d", level, DebugHitboxes)
	}
	s.debug.Store(int32(level))
	return nil
}

// ToggleDebug moves to the next debug level, wrapping to off.
func (s *Screen) ToggleDebug() int {
	for {
		cur := s.debug.Load()
		next := (cur + 1) % (DebugHitboxes + 1)
		if s.debug.CompareAndSwap(cur, next) {
			return int(next)
		}
	}
}

// Stats returns the render times of the last frame.
func (s *Screen) Stats() []Stat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.stats)
}

// InternalSize is the render surface size for a window of size win.
func (s *Screen) InternalSize(win image.Point) image.Point {
	if !s.cfg.Upscaling {
		return win
	}
	return s.cfg.Quality.InternalSize(win)
}

// ToInternal maps a window position to the render surface.
func (s *Screen) ToInternal(p geom.Vec) geom.Vec {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.win == s.internal || s.win.X == 0 || s.win.Y == 0 {
		return p
	}
	return geom.V(p.X*float64(s.internal.X)/float64(s.win.X), p.Y*float64(s.internal.Y)/float64(s.win.Y))
}

func (s *Screen) resize(win image.Point) {
	win = image.Pt(max(win.X, 1), max(win.Y, 1))
	if s.surf != nil && win == s.winSize() {
		return
	}
	internal := s.InternalSize(win)
	s.mu.Lock()
	s.win, s.internal = win, internal
	s.mu.Unlock()

	s.surf = surface.New(internal.X, internal.Y)
	s.out = nil
	if internal != win {
		s.out = surface.New(win.X, win.Y)
	}
	logging.Logger().Debug("screen resized", "window", win, "internal", internal)
}

func (s *Screen) winSize() image.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.win
}

// Render draws one frame for a window of size win and returns it. The
// returned surface is reused by the next call.
func (s *Screen) Render(win image.Point) *surface.Surface {
	s.fps.Tick(s.h.Clock().Now())
	s.resize(win)
	if s.cfg.Background != nil {
		s.surf.Fill(s.cfg.Background)
	}

	var stats []Stat
	if l := s.LoadingScreen(); l != nil && l.Active() {
		l.Render(s.surf)
	} else {
		entities, popups := s.renderTrees(&stats)
		if s.Debug() == DebugHitboxes {
			drawHitboxes(s.surf, entities)
			drawHitboxes(s.surf, popups)
		}
	}
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()

	s.drawFPS()
	s.drawStats(stats)

	if s.out == nil {
		return s.surf
	}
	s.surf.ScaleInto(s.out)
	return s.out
}

func (s *Screen) renderTrees(stats *[]Stat) (entities, popups []element.Entity) {
	lk := s.h.Lock()
	start := time.Now()
	lk.Lock(s.owner)
	defer lk.Unlock(s.owner)
	*stats = append(*stats, Stat{LockStat, time.Since(start)})

	s.mu.Lock()
	entities, popups = slices.Clone(s.entities), slices.Clone(s.popups)
	s.mu.Unlock()

	for _, list := range [][]element.Entity{entities, popups} {
		for _, e := range list {
			start := time.Now()
			e.Render(s.surf)
			*stats = append(*stats, Stat{fmt.Sprintf("%T", e), time.Since(start)})
		}
	}
	return entities, popups
}

func drawHitboxes(dst *surface.Surface, list []element.Entity) {
	for _, e := range list {
		switch e := e.(type) {
		case element.Element:
			element.DrawHitboxes(e, dst)
		case element.HitboxDrawer:
			e.DrawHitbox(dst)
		}
	}
}

func (s *Screen) drawFPS() {
	f, w := s.cfg.Font, s.surf.Width()
	switch s.Debug() {
	case DebugFPS:
		f.DrawText(s.surf, "fps: "+s.fps.String(), image.Pt(w-90, 10), overlayColor)
	case DebugFPSStats:
		lo, hi, avg := s.fps.Stats()
		f.DrawText(s.surf, "fps: "+s.fps.String(), image.Pt(w-120, 10), overlayColor)
		f.DrawText(s.surf, fmt.Sprintf("min: %d", int(lo)), image.Pt(w-90, 30), overlayColor)
		f.DrawText(s.surf, fmt.Sprintf("max: %d", int(hi)), image.Pt(w-90, 50), overlayColor)
		f.DrawText(s.surf, fmt.Sprintf("avg: %d", int(avg)), image.Pt(w-90, 70), overlayColor)
	}
}

// drawStats lists per-entity render times on a black strip, one line each.
func (s *Screen) drawStats(stats []Stat) {
	if s.Debug() != DebugHitboxes {
		return
	}
	f := s.cfg.Font
	y := 10
	for _, st := range stats {
		line := fmt.Sprintf("%s: %dus", st.Name, st.Took.Microseconds())
		s.surf.FillRect(image.Rect(10, y, 10+f.Measure(line), y+f.Height()), color.Black)
		f.DrawText(s.surf, line, image.Pt(10, y), color.White)
		y += f.Height()
	}
}
