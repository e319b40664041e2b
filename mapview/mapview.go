// Package mapview is a slippy-map entity: OpenStreetMap-style tiles
// fetched in the background, scroll-to-zoom at the cursor, drag and arrow
// keys to pan, and vector overlays loaded from shapefiles.
package mapview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/logging"
	"github.com/OpticalFlyer/screenkit/proj"
	"github.com/OpticalFlyer/screenkit/surface"
)

// PanDirection is a direction to pan the map.
type PanDirection int

const (
	PanLeft PanDirection = iota
	PanRight
	PanUp
	PanDown
)

// PanSpeed is how far one arrow key press pans, in pixels.
const PanSpeed = 50

const (
	DefaultCacheSize    = 512
	DefaultZoomThrottle = 100 * time.Millisecond
	DefaultFetchLimit   = 8
	fetchTimeout        = 20 * time.Second
	retryAfter          = 10 * time.Second
)

var (
	placeholderColor = color.RGBA{0, 0, 0, 255}
	debugGridColor   = color.RGBA{255, 0, 0, 255}
	debugLoadedTint  = color.RGBA{0, 0, 100, 100}
	debugNeededTint  = color.RGBA{50, 0, 0, 50}
	debugFetchTint   = color.RGBA{100, 100, 0, 50}
)

// Config is the initial view and limits of a Map.
type Config struct {
	Lat, Lon float64
	Zoom     int
	MinZoom  int
	MaxZoom  int
	// MaxLatitude bounds the center latitude; 0 means proj.MaxLat.
	MaxLatitude float64
	CacheSize   int
	// FetchLimit caps concurrent tile downloads.
	FetchLimit int
	// ZoomThrottle is the minimum time between two wheel zoom steps.
	ZoomThrottle time.Duration
	Background   color.Color
}

// DefaultConfig shows the whole world.
func DefaultConfig() Config {
	return Config{
		Zoom:         2,
		MaxZoom:      19,
		MaxLatitude:  proj.MaxLat,
		CacheSize:    DefaultCacheSize,
		FetchLimit:   DefaultFetchLimit,
		ZoomThrottle: DefaultZoomThrottle,
		Background:   placeholderColor,
	}
}

func (c *Config) validate() error {
	const op = "mapview.Config"
	if c.MinZoom < 0 || c.MaxZoom > proj.MaxZoom || c.MinZoom > c.MaxZoom {
		return errors.InvalidArgument(op, "zoom range [%d, %d] outside [0, %d]", c.MinZoom, c.MaxZoom, proj.MaxZoom)
	}
	if c.Zoom < c.MinZoom || c.Zoom > c.MaxZoom {
		return errors.InvalidArgument(op, "zoom %d outside [%d, %d]", c.Zoom, c.MinZoom, c.MaxZoom)
	}
	if c.MaxLatitude == 0 {
		c.MaxLatitude = proj.MaxLat
	}
	if c.MaxLatitude < 0 || c.MaxLatitude > proj.MaxLat {
		return errors.InvalidArgument(op, "max latitude %v outside (0, %v]", c.MaxLatitude, proj.MaxLat)
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.FetchLimit <= 0 {
		c.FetchLimit = DefaultFetchLimit
	}
	if c.Background == nil {
		c.Background = placeholderColor
	}
	return nil
}

// Map renders a tile map filling its size provider, usually the screen.
type Map struct {
	element.HitboxElement

	provider element.SizeProvider
	cfg      Config
	src      Source
	cache    *tileCache

	lat, lon float64
	zoom     int

	ctx      context.Context
	cancel   context.CancelFunc
	g        errgroup.Group
	fetchMu  sync.Mutex
	fetching map[TileKey]bool
	failed   map[TileKey]time.Time

	layers []*Layer
	debug  bool

	dragging  bool
	dragFrom  geom.Vec
	lastZoom  time.Time
	listeners []event.ListenerID

	// Obstructed reports whether pos is covered by something drawn over
	// the map, such as a panel. Input there is ignored.
	Obstructed func(pos geom.Vec) bool

	surf *surface.Surface
}

// New returns a map fed by src and sized by p.
func New(h *event.Handler, p element.SizeProvider, src Source, cfg Config) (*Map, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := &Map{
		provider: p,
		cfg:      cfg,
		src:      src,
		cache:    newTileCache(cfg.CacheSize),
		zoom:     cfg.Zoom,
		fetching: make(map[TileKey]bool),
		failed:   make(map[TileKey]time.Time),
	}
	m.InitHitbox(m, h)
	m.SetCenter(cfg.Lat, cfg.Lon)
	m.g.SetLimit(cfg.FetchLimit)
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.On(event.KindScrollUp, func(ev event.Event) { m.onScroll(ev, true) })
	m.On(event.KindScrollDown, func(ev event.Event) { m.onScroll(ev, false) })
	m.On(event.KindMouseDown, m.onDown, event.WithButton(event.ButtonLeft))

	keys := map[event.Key]func(){
		event.KeyArrowLeft:  func() { m.Pan(PanLeft) },
		event.KeyArrowRight: func() { m.Pan(PanRight) },
		event.KeyArrowUp:    func() { m.Pan(PanUp) },
		event.KeyArrowDown:  func() { m.Pan(PanDown) },
		event.KeyPlus:       func() { m.ZoomIn() },
		event.KeyMinus:      func() { m.ZoomOut() },
	}
	for k, fn := range keys {
		m.listeners = append(m.listeners, h.On(event.KindKeyDown, func(event.Event) { fn() }, event.WithKey(k), event.WithOwner(m)))
	}
	m.listeners = append(m.listeners,
		h.On(event.KindMouseMotion, m.onMotion, event.WithOwner(m)),
		h.On(event.KindMouseUp, m.onUp, event.WithButton(event.ButtonLeft), event.WithOwner(m)),
	)
	return m, nil
}

func (m *Map) CalcInnerWidth() int  { return m.provider.Width() }
func (m *Map) CalcInnerHeight() int { return m.provider.Height() }

// Center returns the latitude and longitude at the middle of the map.
func (m *Map) Center() (lat, lon float64) { return m.lat, m.lon }

// SetCenter moves the map, clamping latitude to the configured maximum
// and longitude to ±180.
func (m *Map) SetCenter(lat, lon float64) {
	m.lat = proj.ClampLat(lat, m.cfg.MaxLatitude)
	m.lon = max(-180, min(180, lon))
	m.MarkChanged()
}

func (m *Map) Zoom() int { return m.zoom }

// SetZoom jumps to zoom level z keeping the center.
func (m *Map) SetZoom(z int) error {
	if z < m.cfg.MinZoom || z > m.cfg.MaxZoom {
		return errors.InvalidArgument("mapview.Map.SetZoom", "zoom %d outside [%d, %d]", z, m.cfg.MinZoom, m.cfg.MaxZoom)
	}
	if z != m.zoom {
		m.zoom = z
		m.MarkChanged()
	}
	return nil
}

// ZoomIn zooms one level in about the center. It reports whether the
// zoom changed.
func (m *Map) ZoomIn() bool { return m.SetZoom(m.zoom+1) == nil }

// ZoomOut zooms one level out about the center.
func (m *Map) ZoomOut() bool { return m.SetZoom(m.zoom-1) == nil }

func (m *Map) Debug() bool { return m.debug }

// SetDebug outlines tiles with their keys and fetch state.
func (m *Map) SetDebug(on bool) {
	m.debug = on
	m.MarkChanged()
}

func (m *Map) size() geom.Vec {
	return geom.V(float64(m.Width()), float64(m.Height()))
}

// local converts a screen position to map pixels.
func (m *Map) local(p geom.Vec) geom.Vec { return p.Sub(m.Offset()) }

// ScreenToTile converts a screen position to fractional tile coordinates
// at the current zoom.
func (m *Map) ScreenToTile(p geom.Vec) (x, y float64) {
	cx, cy := proj.LatLonToTile(m.lat, m.lon, m.zoom)
	d := m.local(p).Sub(m.size().Scale(0.5)).Scale(1.0 / TileSize)
	return cx + d.X, cy + d.Y
}

// LatLonAt returns the coordinates under a screen position.
func (m *Map) LatLonAt(p geom.Vec) (lat, lon float64) {
	x, y := m.ScreenToTile(p)
	return proj.TileToLatLon(x, y, m.zoom)
}

// PointOf returns the screen position of lat, lon.
func (m *Map) PointOf(lat, lon float64) geom.Vec {
	return m.tilePoint(proj.LatLonToTile(lat, lon, m.zoom)).Add(m.Offset())
}

// tilePoint converts tile coordinates to map pixels.
func (m *Map) tilePoint(x, y float64) geom.Vec {
	cx, cy := proj.LatLonToTile(m.lat, m.lon, m.zoom)
	return geom.V(x-cx, y-cy).Scale(TileSize).Add(m.size().Scale(0.5))
}

// VisibleTiles is the range of tiles covering the map at the current view.
func (m *Map) VisibleTiles() TileRange {
	cx, cy := proj.LatLonToTile(m.lat, m.lon, m.zoom)
	half := m.size().Scale(0.5 / TileSize)
	last := int(proj.Tiles(m.zoom)) - 1
	return TileRange{
		MinX: max(0, int(math.Floor(cx-half.X))),
		MaxX: min(last, int(math.Floor(cx+half.X))),
		MinY: max(0, int(math.Floor(cy-half.Y))),
		MaxY: min(last, int(math.Floor(cy+half.Y))),
	}
}

// Pan moves the view PanSpeed pixels in dir.
func (m *Map) Pan(dir PanDirection) {
	switch dir {
	case PanLeft:
		m.PanBy(PanSpeed, 0)
	case PanRight:
		m.PanBy(-PanSpeed, 0)
	case PanUp:
		m.PanBy(0, PanSpeed)
	case PanDown:
		m.PanBy(0, -PanSpeed)
	}
}

// PanBy moves the map content by dx, dy pixels: positive dx drags the map
// east so the view moves west.
func (m *Map) PanBy(dx, dy float64) {
	cx, cy := proj.LatLonToTile(m.lat, m.lon, m.zoom)
	n := proj.Tiles(m.zoom)
	cx = max(0, min(n, cx-dx/TileSize))
	cy = max(0, min(n, cy-dy/TileSize))
	m.SetCenter(proj.TileToLatLon(cx, cy, m.zoom))
}

// ZoomAtPoint zooms one level keeping the world point under p fixed on
// screen. Points outside the world are ignored.
func (m *Map) ZoomAtPoint(in bool, p geom.Vec) bool {
	z := m.zoom - 1
	if in {
		z = m.zoom + 1
	}
	if z < m.cfg.MinZoom || z > m.cfg.MaxZoom {
		return false
	}
	x, y := m.ScreenToTile(p)
	n := proj.Tiles(m.zoom)
	if x < 0 || x > n || y < 0 || y > n {
		return false
	}
	scale := proj.Tiles(z) / n
	off := m.local(p).Sub(m.size().Scale(0.5)).Scale(1.0 / TileSize)
	m.zoom = z
	m.SetCenter(proj.TileToLatLon(x*scale-off.X, y*scale-off.Y, z))
	return true
}

func (m *Map) obstructed(p geom.Vec) bool {
	return m.Obstructed != nil && m.Obstructed(p)
}

func (m *Map) onScroll(ev event.Event, in bool) {
	if m.obstructed(ev.Pos) {
		return
	}
	now := m.Handler().Clock().Now()
	if !m.lastZoom.IsZero() && now.Sub(m.lastZoom) < m.cfg.ZoomThrottle {
		return
	}
	if m.ZoomAtPoint(in, ev.Pos) {
		m.lastZoom = now
	}
}

func (m *Map) onDown(ev event.Event) {
	if m.obstructed(ev.Pos) {
		return
	}
	m.dragging, m.dragFrom = true, ev.Pos
}

func (m *Map) onMotion(ev event.Event) {
	if !m.dragging {
		return
	}
	d := ev.Pos.Sub(m.dragFrom)
	m.dragFrom = ev.Pos
	if !d.IsZero() {
		m.PanBy(d.X, d.Y)
	}
}

func (m *Map) onUp(event.Event) { m.dragging = false }

// Dragging reports whether a pan drag is in progress.
func (m *Map) Dragging() bool { return m.dragging }

// Cached reports whether the tile for key has been loaded.
func (m *Map) Cached(key TileKey) bool {
	_, ok := m.cache.get(key)
	return ok
}

// Fetching reports whether the tile for key is being downloaded.
func (m *Map) Fetching(key TileKey) bool {
	m.fetchMu.Lock()
	defer m.fetchMu.Unlock()
	return m.fetching[key]
}

// fetch starts loading key unless it is already in flight, failed
// recently or the download limit is reached. Skipped tiles are retried
// on a later frame.
func (m *Map) fetch(key TileKey) {
	now := m.Handler().Clock().Now()
	m.fetchMu.Lock()
	defer m.fetchMu.Unlock()
	if m.fetching[key] || m.ctx.Err() != nil {
		return
	}
	if t, ok := m.failed[key]; ok && now.Sub(t) < retryAfter {
		return
	}
	started := m.g.TryGo(func() error {
		defer func() {
			m.fetchMu.Lock()
			delete(m.fetching, key)
			m.fetchMu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(m.ctx, fetchTimeout)
		defer cancel()
		img, err := m.src.Fetch(ctx, key)
		if err != nil {
			if m.ctx.Err() == nil {
				logging.Logger().Warn("tile fetch failed", "tile", key.String(), "err", err)
				m.fetchMu.Lock()
				m.failed[key] = now
				m.fetchMu.Unlock()
			}
			return nil
		}
		m.cache.put(key, img)
		m.Handler().QueueTask(m.MarkChanged)
		return nil
	})
	if started {
		m.fetching[key] = true
	}
}

// Wait blocks until every started tile download has finished.
func (m *Map) Wait() { _ = m.g.Wait() }

// Changed is true while tiles are still loading, so the map is redrawn as
// they arrive.
func (m *Map) Changed() bool {
	if m.HitboxElement.Changed() {
		return true
	}
	m.fetchMu.Lock()
	defer m.fetchMu.Unlock()
	return len(m.fetching) > 0
}

func (m *Map) Render(dst *surface.Surface) *surface.Surface {
	if !m.Visible() {
		return nil
	}
	m.SyncHitbox()
	w, h := m.Width(), m.Height()
	if w <= 0 || h <= 0 {
		return nil
	}
	if m.surf == nil || m.surf.Size() != image.Pt(w, h) {
		m.surf = surface.New(w, h)
	}
	m.draw()
	m.MarkClean()
	if dst != nil {
		dst.Blit(m.surf, m.BlitPoint())
	}
	return m.surf
}

func (m *Map) draw() {
	f := m.surf
	f.Fill(m.cfg.Background)
	r := m.VisibleTiles()
	for ty := r.MinY; ty <= r.MaxY; ty++ {
		for tx := r.MinX; tx <= r.MaxX; tx++ {
			key := TileKey{Zoom: m.zoom, X: tx, Y: ty}
			at := m.tilePoint(float64(tx), float64(ty)).Point()
			rect := image.Rectangle{Min: at, Max: at.Add(image.Pt(TileSize, TileSize))}
			tile, ok := m.cache.get(key)
			if ok {
				f.Blit(tile, at)
			} else {
				m.fetch(key)
			}
			if m.debug {
				m.drawDebug(f, key, rect, ok)
			}
		}
	}
	for _, l := range m.layers {
		l.draw(f, m)
	}
}

func (m *Map) drawDebug(f *surface.Surface, key TileKey, rect image.Rectangle, loaded bool) {
	status, tint := "Needed", debugNeededTint
	switch {
	case loaded:
		status, tint = "", debugLoadedTint
	case m.Fetching(key):
		status, tint = "Fetching", debugFetchTint
	}
	f.BlendRect(rect, tint)
	f.StrokeRect(rect, debugGridColor, 1)
	label := key.String()
	if status != "" {
		label = fmt.Sprintf("%s: %s", status, label)
	}
	surface.DefaultFont().DrawText(f, label, rect.Min.Add(image.Pt(2, 2)), color.White)
}

// Destruct stops tile downloads and removes the map's listeners.
func (m *Map) Destruct() {
	m.cancel()
	for _, id := range m.listeners {
		m.Handler().RemoveEventListener(id)
	}
	m.listeners = nil
	m.HitboxElement.Destruct()
}
