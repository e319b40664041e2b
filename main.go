package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/OpticalFlyer/screenkit/config"
	"github.com/OpticalFlyer/screenkit/ebitenwin"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/logging"
	"github.com/OpticalFlyer/screenkit/mapview"
	"github.com/OpticalFlyer/screenkit/screen"
	"github.com/OpticalFlyer/screenkit/widget"
)

// controls is the "Map Controls" panel.
type controls struct {
	panel    *widget.Panel
	position *widget.Label
	feature  *widget.Label
	zoom     *widget.ProgressBar
	goTo     *widget.Textbox
}

func newControls(h *event.Handler, s *screen.Screen, m *mapview.Map, maxZoom int) *controls {
	f := s.Font()
	c := &controls{
		panel:    widget.NewPanel(h, 10, 10, 220, 320, "Map Controls", f),
		position: widget.NewLabel(h, "", f),
		feature:  widget.NewLabel(h, "", f),
		zoom:     widget.NewProgressBar(h),
		goTo:     widget.NewTextbox(h, f),
	}
	_ = c.zoom.SetWidth(200)
	_ = c.zoom.SetHeight(8)
	c.goTo.SetPlaceholder("lat, lon")

	zoomIn := widget.NewButton(h, "Zoom in", f, func() { m.ZoomIn() })
	zoomOut := widget.NewButton(h, "Zoom out", f, func() { m.ZoomOut() })

	tiles := widget.NewCheckbox(h, "Tile grid", f)
	tiles.On(event.KindChange, func(event.Event) { m.SetDebug(tiles.Checked()) })

	layers := widget.NewDropdown(h, s, f, "All layers", "Tiles only")
	layers.SetPlaceholder("Layers")
	layers.On(event.KindChange, func(event.Event) {
		for _, l := range m.Layers() {
			l.Visible = layers.Selected() == 0
		}
	})

	c.goTo.On(event.KindChange, func(event.Event) {
		lat, lon, err := parseLatLon(c.goTo.Value())
		if err != nil {
			logging.Logger().Warn("bad coordinates", "input", c.goTo.Value(), "err", err)
			return
		}
		m.SetCenter(lat, lon)
	})

	c.panel.Add(c.position, c.feature, c.zoom, zoomIn, zoomOut, tiles, layers, c.goTo)
	h.AddInterval(250*time.Millisecond, func() {
		_ = c.zoom.SetValue(float64(m.Zoom()) / float64(maxZoom))
	})
	h.On(event.KindMouseMotion, func(ev event.Event) {
		lat, lon := m.LatLonAt(ev.Pos)
		c.position.SetText(fmt.Sprintf("%.4f, %.4f", lat, lon))
	})
	h.On(event.KindMouseClick, func(ev event.Event) {
		if c.panel.Contains(ev.Pos) {
			return
		}
		name := ""
		if ft := m.FeatureAt(ev.Pos); ft != nil {
			name = fmt.Sprintf("%s %s", ft.Kind, ft.Name)
		}
		c.feature.SetText(name)
	})
	return c
}

func parseLatLon(s string) (lat, lon float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want \"lat, lon\"")
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64); err != nil {
		return 0, 0, err
	}
	if lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func loadShapefile(h *event.Handler, m *mapview.Map, path string) screen.Task {
	return func(ctx context.Context, l *screen.LoadingScreen) error {
		l.SetAction("Reading " + path)
		layer, err := mapview.LoadShapefile(path)
		if err != nil {
			return err
		}
		h.QueueTask(func() { m.AddLayer(layer) })
		return ctx.Err()
	}
}

func run(ctx context.Context) error {
	root, err := config.FindProjectRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(root)
	if err != nil {
		return err
	}
	if cfg.LogLevel != "" {
		logging.Setup(os.Stderr, cfg.LogLevel)
	}
	logging.Logger().Info("starting", "title", cfg.Title, "root", cfg.Root)

	h := event.NewHandler(event.Config{})
	s := screen.New(h, screen.Config{
		Size:      image.Pt(cfg.Width, cfg.Height),
		Upscaling: cfg.Upscaling,
		Quality:   cfg.Quality,
	})
	if err := s.SetDebug(cfg.Debug); err != nil {
		return err
	}

	m, err := mapview.New(h, s, mapview.NewHTTPSource(cfg.TileURL), cfg.Map)
	if err != nil {
		return err
	}
	defer m.Destruct()
	c := newControls(h, s, m, cfg.Map.MaxZoom)
	m.Obstructed = func(p geom.Vec) bool { return c.panel.Contains(p) || c.panel.Interacting() }
	s.AddEntity(m)
	s.AddEntity(c.panel)

	h.On(event.KindKeyDown, func(event.Event) { s.ToggleDebug() }, event.WithKey(event.KeyF3))
	h.On(event.KindKeyDown, func(event.Event) { m.SetDebug(!m.Debug()) }, event.WithKey(event.KeyF1))

	if cfg.Shapefile != "" {
		ls := screen.NewLoadingScreen(s, "Loading overlays", loadShapefile(h, m, cfg.Shapefile))
		ls.SetTooltips(screen.DefaultTooltipCycle, "Drag to pan", "Scroll to zoom", "F3 cycles the debug overlay")
		if err := ls.Start(ctx); err != nil {
			return err
		}
	}

	return ebitenwin.Run(ctx, h, s, ebitenwin.Config{
		Title:  cfg.Title,
		Width:  cfg.Width,
		Height: cfg.Height,
		TPS:    cfg.FPS,
		VSync:  cfg.VSync,
		Cursor: c.panel.Cursor,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}
