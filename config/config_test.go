package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/screen"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/tools/atlas/v2\n\ngo 1.24\n")
	r, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Title != "atlas" || r.ModulePath != "example.com/tools/atlas/v2" {
		t.Errorf("title %q module %q", r.Title, r.ModulePath)
	}
	if r.Width != DefaultWidth || r.Height != DefaultHeight || r.FPS != screen.DefaultFPS || !r.VSync {
		t.Errorf("window = %dx%d@%d vsync %v", r.Width, r.Height, r.FPS, r.VSync)
	}
	if r.Quality != screen.QualityHigh || r.Upscaling || r.Debug != screen.DebugOff {
		t.Errorf("display = %v %v %d", r.Quality, r.Upscaling, r.Debug)
	}
	if r.Map.Zoom != DefaultZoom || r.Map.Lat != DefaultLat || r.Map.Lon != DefaultLon {
		t.Errorf("map = %+v", r.Map)
	}
}

func TestResolveWithoutModule(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "viewer")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	r, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Title != "viewer" {
		t.Errorf("title = %q, want the directory name", r.Title)
	}
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
window:
  title: Atlas
  width: 800
  height: 600
  vsync: false
display:
  upscaling: true
  quality: Low
  debug: 3
map:
  tile_url: https://tiles.example/{z}/{x}/{y}.png
  lat: 0
  lon: 0
  zoom: 0
  max_zoom: 12
  shapefile: data/lakes.shp
log:
  level: debug
`)
	r, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Title != "Atlas" || r.Width != 800 || r.Height != 600 || r.VSync {
		t.Errorf("window = %q %dx%d vsync %v", r.Title, r.Width, r.Height, r.VSync)
	}
	if !r.Upscaling || r.Quality != screen.QualityLow || r.Debug != screen.DebugHitboxes {
		t.Errorf("display = %v %v %d", r.Upscaling, r.Quality, r.Debug)
	}
	if r.Map.Lat != 0 || r.Map.Lon != 0 || r.Map.Zoom != 0 || r.Map.MaxZoom != 12 {
		t.Errorf("map = %+v", r.Map)
	}
	if r.Shapefile != filepath.Join(dir, "data", "lakes.shp") {
		t.Errorf("shapefile = %q", r.Shapefile)
	}
	if r.LogLevel != "debug" {
		t.Errorf("log level = %q", r.LogLevel)
	}
}

func TestResolveRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad quality", "display:\n  quality: extreme\n"},
		{"debug level", "display:\n  debug: 4\n"},
		{"negative size", "window:\n  width: -1\n"},
		{"log level", "log:\n  level: loud\n"},
		{"tile url", "map:\n  tile_url: https://tiles.example/tile.png\n"},
		{"zoom range", "map:\n  min_zoom: 8\n  max_zoom: 4\n"},
		{"zoom outside range", "map:\n  zoom: 15\n  max_zoom: 10\n"},
		{"latitude limit", "map:\n  max_latitude: 90\n"},
		{"start position", "map:\n  lat: 91\n"},
		{"malformed", "window: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, FileName, tt.yaml)
			if _, err := Resolve(dir); !errors.Is(err, errors.KindInvalidArgument) {
				t.Errorf("err = %v, want invalid argument", err)
			}
		})
	}
}
