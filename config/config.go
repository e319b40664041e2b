// Package config loads the optional screenkit.yaml next to the
// application's go.mod and fills in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	skerrors "github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/logging"
	"github.com/OpticalFlyer/screenkit/mapview"
	"github.com/OpticalFlyer/screenkit/proj"
	"github.com/OpticalFlyer/screenkit/screen"
)

// FileName is the configuration file looked up in the project root.
const FileName = "screenkit.yaml"

// Config represents screenkit.yaml.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Display DisplayConfig `yaml:"display"`
	Map     MapConfig     `yaml:"map"`
	Log     LogConfig     `yaml:"log"`
}

// WindowConfig sizes the platform window.
type WindowConfig struct {
	Title  string `yaml:"title,omitempty"`
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
	FPS    int    `yaml:"fps,omitempty"`
	VSync  *bool  `yaml:"vsync,omitempty"`
}

// DisplayConfig controls rendering.
type DisplayConfig struct {
	Upscaling bool   `yaml:"upscaling,omitempty"`
	Quality   string `yaml:"quality,omitempty"`
	Debug     int    `yaml:"debug,omitempty"`
}

// MapConfig is the start view of the map and where its data comes from.
type MapConfig struct {
	TileURL     string   `yaml:"tile_url,omitempty"`
	CacheSize   int      `yaml:"cache_size,omitempty"`
	Lat         *float64 `yaml:"lat,omitempty"`
	Lon         *float64 `yaml:"lon,omitempty"`
	Zoom        *int     `yaml:"zoom,omitempty"`
	MinZoom     int      `yaml:"min_zoom,omitempty"`
	MaxZoom     int      `yaml:"max_zoom,omitempty"`
	MaxLatitude float64  `yaml:"max_latitude,omitempty"`
	Shapefile   string   `yaml:"shapefile,omitempty"`
}

// LogConfig selects the log level; empty means silent.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

var logLevels = []string{"debug", "info", "warn", "warning", "error", "quiet", "off", "none"}

// Defaults for absent keys.
const (
	DefaultWidth  = 1280
	DefaultHeight = 720
	DefaultLat    = 39.8333
	DefaultLon    = -98.5833
	DefaultZoom   = 4
)

// Resolved contains validated configuration values.
type Resolved struct {
	Root       string
	ModulePath string

	Title  string
	Width  int
	Height int
	FPS    int
	VSync  bool

	Upscaling bool
	Quality   screen.Quality
	Debug     int

	Map       mapview.Config
	TileURL   string
	Shapefile string

	LogLevel string
}

// LoadOptional reads screenkit.yaml in dir if present.
func LoadOptional(dir string) (*Config, error) {
	const op = "config.LoadOptional"
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, skerrors.Wrap(op, skerrors.KindIO, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, skerrors.Wrap(op, skerrors.KindInvalidArgument, fmt.Errorf("parsing %s: %w", FileName, err))
	}
	return &cfg, nil
}

// Resolve loads screenkit.yaml from dir, if present, and resolves
// defaults. dir need not contain a go.mod; without one the title falls
// back to the directory name.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	modPath, err := modulePath(dir)
	if err != nil {
		logging.Logger().Debug("no module path", "dir", dir, "err", err)
	}
	return cfg.Resolve(dir, modPath)
}

// Resolve applies defaults to c and validates the result.
func (c *Config) Resolve(dir, modPath string) (*Resolved, error) {
	const op = "config.Resolve"
	r := &Resolved{
		Root:       dir,
		ModulePath: modPath,
		Title:      strings.TrimSpace(c.Window.Title),
		Width:      orInt(c.Window.Width, DefaultWidth),
		Height:     orInt(c.Window.Height, DefaultHeight),
		FPS:        orInt(c.Window.FPS, screen.DefaultFPS),
		VSync:      c.Window.VSync == nil || *c.Window.VSync,
		Upscaling:  c.Display.Upscaling,
		Quality:    screen.QualityHigh,
		Debug:      c.Display.Debug,
		TileURL:    strings.TrimSpace(c.Map.TileURL),
		Shapefile:  strings.TrimSpace(c.Map.Shapefile),
		LogLevel:   strings.TrimSpace(c.Log.Level),
	}
	if r.Title == "" {
		r.Title = defaultTitle(modPath, dir)
	}
	if r.Width < 0 || r.Height < 0 {
		return nil, skerrors.InvalidArgument(op, "window size %dx%d", r.Width, r.Height)
	}
	if r.FPS < 0 {
		return nil, skerrors.InvalidArgument(op, "fps %d", r.FPS)
	}
	if q := c.Display.Quality; q != "" {
		quality, err := screen.ParseQuality(q)
		if err != nil {
			return nil, err
		}
		r.Quality = quality
	}
	if r.Debug < screen.DebugOff || r.Debug > screen.DebugHitboxes {
		return nil, skerrors.InvalidArgument(op, "debug level %d outside [%d, %d]", r.Debug, screen.DebugOff, screen.DebugHitboxes)
	}
	if r.LogLevel != "" && !slices.Contains(logLevels, strings.ToLower(r.LogLevel)) {
		return nil, skerrors.InvalidArgument(op, "unknown log level %q", r.LogLevel)
	}
	if r.TileURL != "" && !(strings.Contains(r.TileURL, "{z}") && strings.Contains(r.TileURL, "{x}") && strings.Contains(r.TileURL, "{y}")) {
		return nil, skerrors.InvalidArgument(op, "tile_url %q needs {z}, {x} and {y}", r.TileURL)
	}
	if r.Shapefile != "" && !filepath.IsAbs(r.Shapefile) {
		r.Shapefile = filepath.Join(dir, r.Shapefile)
	}

	m := mapview.DefaultConfig()
	m.Lat, m.Lon, m.Zoom = orFloat(c.Map.Lat, DefaultLat), orFloat(c.Map.Lon, DefaultLon), DefaultZoom
	if c.Map.Zoom != nil {
		m.Zoom = *c.Map.Zoom
	}
	if c.Map.CacheSize != 0 {
		m.CacheSize = c.Map.CacheSize
	}
	if c.Map.MaxZoom != 0 {
		m.MaxZoom = c.Map.MaxZoom
	}
	m.MinZoom = c.Map.MinZoom
	if c.Map.MaxLatitude != 0 {
		m.MaxLatitude = c.Map.MaxLatitude
	}
	switch {
	case m.CacheSize < 0:
		return nil, skerrors.InvalidArgument(op, "cache_size %d", m.CacheSize)
	case m.MinZoom < 0 || m.MaxZoom > proj.MaxZoom || m.MinZoom > m.MaxZoom:
		return nil, skerrors.InvalidArgument(op, "zoom range [%d, %d]", m.MinZoom, m.MaxZoom)
	case m.Zoom < m.MinZoom || m.Zoom > m.MaxZoom:
		return nil, skerrors.InvalidArgument(op, "zoom %d outside [%d, %d]", m.Zoom, m.MinZoom, m.MaxZoom)
	case m.MaxLatitude <= 0 || m.MaxLatitude > proj.MaxLat:
		return nil, skerrors.InvalidArgument(op, "max_latitude %v outside (0, %v]", m.MaxLatitude, proj.MaxLat)
	case m.Lat < -90 || m.Lat > 90 || m.Lon < -180 || m.Lon > 180:
		return nil, skerrors.InvalidArgument(op, "start position %v, %v", m.Lat, m.Lon)
	}
	r.Map = m
	return r, nil
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// FindProjectRoot walks up from the current directory to find go.mod. It
// returns the current directory when there is none.
func FindProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", skerrors.Wrap("config.FindProjectRoot", skerrors.KindIO, err)
	}
	for dir := wd; ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd, nil
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", err
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

// defaultTitle is the last element of the module path, without a major
// version suffix, or the directory name.
func defaultTitle(modPath, dir string) string {
	title := filepath.Base(dir)
	if prefix, _, ok := module.SplitPathVersion(modPath); ok && prefix != "" {
		parts := strings.Split(prefix, "/")
		title = parts[len(parts)-1]
	}
	if title == "" || title == "." || title == string(filepath.Separator) {
		return "screenkit"
	}
	return title
}
