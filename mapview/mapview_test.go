package mapview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync/atomic"
	"testing"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
)

type size struct{ w, h int }

func (s size) Width() int  { return s.w }
func (s size) Height() int { return s.h }

// solidSource serves every tile as one color, or fails when err is set.
type solidSource struct {
	c     color.RGBA
	err   error
	calls atomic.Int32
}

func (s *solidSource) Fetch(_ context.Context, key TileKey) (image.Image, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	img := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = s.c.R, s.c.G, s.c.B, s.c.A
	}
	return img, nil
}

func newMap(t *testing.T, w, h, zoom int) (*Map, *event.Handler, *event.FakeClock, *solidSource) {
	t.Helper()
	clk := event.NewFakeClock()
	hd := event.NewHandler(event.Config{Clock: clk})
	src := &solidSource{c: color.RGBA{255, 0, 0, 255}}
	cfg := DefaultConfig()
	cfg.Zoom = zoom
	m, err := New(hd, size{w, h}, src, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		m.Destruct()
		m.Wait()
	})
	m.SetPosition(geom.V(0, 0))
	return m, hd, clk, src
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

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"zoom above max", func(c *Config) { c.Zoom = 20 }},
		{"inverted range", func(c *Config) { c.MinZoom, c.MaxZoom = 5, 3 }},
		{"max zoom too deep", func(c *Config) { c.MaxZoom = 30 }},
		{"latitude limit", func(c *Config) { c.MaxLatitude = 89 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			h := event.NewHandler(event.Config{})
			if _, err := New(h, size{10, 10}, &solidSource{}, cfg); !errors.Is(err, errors.KindInvalidArgument) {
				t.Errorf("err = %v, want invalid argument", err)
			}
		})
	}
}

func TestTileKey(t *testing.T) {
	src := NewHTTPSource("https://tiles.example/{z}/{x}/{y}.png")
	if got := src.TileURL(TileKey{3, 4, 5}); got != "https://tiles.example/3/4/5.png" {
		t.Errorf("TileURL = %q", got)
	}
	if !(TileKey{1, 1, 1}).Valid() || (TileKey{1, 2, 0}).Valid() || (TileKey{0, -1, 0}).Valid() {
		t.Error("Valid classification wrong")
	}
	if _, err := src.Fetch(context.Background(), TileKey{1, 2, 0}); !errors.Is(err, errors.KindInvalidArgument) {
		t.Errorf("Fetch out of range = %v", err)
	}
}

func TestTileCacheEvictsLeastRecent(t *testing.T) {
	c := newTileCache(2)
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	a, b, d := TileKey{0, 0, 0}, TileKey{1, 0, 0}, TileKey{1, 1, 0}
	c.put(a, img)
	c.put(b, img)
	c.get(a)
	c.put(d, img)
	if _, ok := c.get(b); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.get(a); !ok {
		t.Error("a was used recently and should stay")
	}
	if c.len() != 2 {
		t.Errorf("len = %d, want 2", c.len())
	}
}

func TestVisibleTiles(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		zoom int
		want TileRange
	}{
		{"whole world", 512, 512, 1, TileRange{0, 1, 0, 1}},
		{"single tile", 256, 256, 0, TileRange{0, 0, 0, 0}},
		{"center tiles", 256, 256, 3, TileRange{3, 4, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _, _ := newMap(t, tt.w, tt.h, tt.zoom)
			if got := m.VisibleTiles(); got != tt.want {
				t.Errorf("VisibleTiles = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPanAndClamp(t *testing.T) {
	m, _, _, _ := newMap(t, 512, 512, 1)
	m.PanBy(256, 0)
	if _, lon := m.Center(); !near(lon, -180) {
		t.Errorf("lon = %v, want -180", lon)
	}
	m.PanBy(256, 0)
	if _, lon := m.Center(); !near(lon, -180) {
		t.Errorf("lon past the edge = %v, want -180", lon)
	}
	m.SetCenter(89, 200)
	if lat, lon := m.Center(); lat > 85.0511 || lon != 180 {
		t.Errorf("center = %v, %v, want clamped", lat, lon)
	}
}

func TestZoomAtPointKeepsPointFixed(t *testing.T) {
	m, _, _, _ := newMap(t, 512, 512, 2)
	m.SetCenter(10, 20)
	p := geom.V(384, 128)
	lat, lon := m.LatLonAt(p)
	if !m.ZoomAtPoint(true, p) {
		t.Fatal("ZoomAtPoint refused")
	}
	if m.Zoom() != 3 {
		t.Errorf("zoom = %d, want 3", m.Zoom())
	}
	lat2, lon2 := m.LatLonAt(p)
	if !near(lat, lat2) || !near(lon, lon2) {
		t.Errorf("point moved from %v,%v to %v,%v", lat, lon, lat2, lon2)
	}
	got := m.PointOf(lat, lon)
	if math.Abs(got.X-p.X) > 1e-6 || math.Abs(got.Y-p.Y) > 1e-6 {
		t.Errorf("PointOf = %v, want %v", got, p)
	}
}

func TestScrollZoomIsThrottled(t *testing.T) {
	m, h, clk, _ := newMap(t, 512, 512, 2)
	m.Render(nil)
	pos := geom.V(256, 256)
	step(t, h, event.Scroll(pos, true))
	step(t, h, event.Scroll(pos, true))
	if m.Zoom() != 3 {
		t.Errorf("zoom = %d, want 3 after throttled scrolls", m.Zoom())
	}
	clk.Advance(DefaultZoomThrottle)
	step(t, h, event.Scroll(pos, false))
	if m.Zoom() != 2 {
		t.Errorf("zoom = %d, want 2", m.Zoom())
	}
}

func TestDragPans(t *testing.T) {
	m, h, _, _ := newMap(t, 512, 512, 2)
	m.Render(nil)
	step(t, h, event.MouseDown(geom.V(256, 256), event.ButtonLeft))
	if !m.Dragging() {
		t.Fatal("not dragging after press")
	}
	step(t, h, event.MouseMotion(geom.V(356, 256)))
	step(t, h, event.MouseUp(geom.V(356, 256), event.ButtonLeft))
	if m.Dragging() {
		t.Error("still dragging after release")
	}
	// 100px at zoom 2 is 100/1024 of the world.
	if _, lon := m.Center(); !near(lon, -100.0/1024*360) {
		t.Errorf("lon = %v", lon)
	}
	step(t, h, event.MouseMotion(geom.V(456, 256)))
	if _, lon := m.Center(); !near(lon, -100.0/1024*360) {
		t.Errorf("motion after release panned to %v", lon)
	}
}

func TestKeysPanAndZoom(t *testing.T) {
	m, h, _, _ := newMap(t, 512, 512, 2)
	step(t, h, event.KeyDown(event.KeyArrowRight, 0))
	if _, lon := m.Center(); !near(lon, float64(PanSpeed)/1024*360) {
		t.Errorf("lon = %v after right arrow", lon)
	}
	step(t, h, event.KeyDown(event.KeyPlus, '+'))
	if m.Zoom() != 3 {
		t.Errorf("zoom = %d after plus", m.Zoom())
	}
}

func TestObstructedInputIgnored(t *testing.T) {
	m, h, _, _ := newMap(t, 512, 512, 2)
	m.Render(nil)
	m.Obstructed = func(p geom.Vec) bool { return p.X < 100 }
	step(t, h, event.Scroll(geom.V(50, 50), true))
	step(t, h, event.MouseDown(geom.V(50, 50), event.ButtonLeft))
	if m.Zoom() != 2 || m.Dragging() {
		t.Errorf("obstructed input reached the map: zoom %d dragging %v", m.Zoom(), m.Dragging())
	}
}

func TestRenderDrawsFetchedTiles(t *testing.T) {
	m, h, _, src := newMap(t, 256, 256, 0)
	f := m.Render(nil)
	if f.At(10, 10) == src.c {
		t.Fatal("tile drawn before it was fetched")
	}
	m.Wait()
	if !m.Cached(TileKey{0, 0, 0}) {
		t.Fatal("tile not cached")
	}
	step(t, h)
	if !m.Changed() {
		t.Error("map not marked changed after the tile arrived")
	}
	if got := m.Render(nil).At(10, 10); got != src.c {
		t.Errorf("pixel = %v, want %v", got, src.c)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("source called %d times, want 1", n)
	}
}

func TestFailedTileRetriedLater(t *testing.T) {
	m, _, clk, src := newMap(t, 256, 256, 0)
	src.err = fmt.Errorf("offline")
	m.Render(nil)
	m.Wait()
	m.Render(nil)
	m.Wait()
	if n := src.calls.Load(); n != 1 {
		t.Errorf("calls = %d before the retry delay, want 1", n)
	}
	clk.Advance(retryAfter)
	m.Render(nil)
	m.Wait()
	if n := src.calls.Load(); n != 2 {
		t.Errorf("calls = %d after the retry delay, want 2", n)
	}
}

func TestDestructRemovesListeners(t *testing.T) {
	clk := event.NewFakeClock()
	h := event.NewHandler(event.Config{Clock: clk})
	before := h.ListenerCount()
	m, err := New(h, size{100, 100}, &solidSource{}, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	m.Destruct()
	if got := h.ListenerCount(); got != before {
		t.Errorf("ListenerCount = %d, want %d", got, before)
	}
}
