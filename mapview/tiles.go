package mapview

import (
	"container/list"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/surface"
)

// TileSize is the edge of a map tile in pixels.
const TileSize = 256

// DefaultTileURL is the OpenStreetMap tile server.
const DefaultTileURL = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"

// TileKey identifies a map tile.
type TileKey struct {
	Zoom int
	X    int
	Y    int
}

func (k TileKey) String() string { return fmt.Sprintf("%d/%d/%d", k.Zoom, k.X, k.Y) }

// Valid reports whether the tile exists at its zoom level.
func (k TileKey) Valid() bool {
	n := 1 << k.Zoom
	return k.Zoom >= 0 && k.X >= 0 && k.X < n && k.Y >= 0 && k.Y < n
}

// TileRange is the inclusive range of tiles covering a view.
type TileRange struct {
	MinX, MaxX int
	MinY, MaxY int
}

// A Source loads tile images.
type Source interface {
	Fetch(ctx context.Context, key TileKey) (image.Image, error)
}

// HTTPSource fetches tiles from a URL template with {z}, {x} and {y}
// placeholders.
type HTTPSource struct {
	URL       string
	UserAgent string
	Client    *http.Client
}

// NewHTTPSource returns a source for url, or DefaultTileURL if url is
// empty.
func NewHTTPSource(url string) *HTTPSource {
	if url == "" {
		url = DefaultTileURL
	}
	return &HTTPSource{
		URL:       url,
		UserAgent: "screenkit/1.0",
		Client:    &http.Client{Timeout: 15 * time.Second},
	}
}

// TileURL fills the template for key.
func (s *HTTPSource) TileURL(key TileKey) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(key.Zoom),
		"{x}", strconv.Itoa(key.X),
		"{y}", strconv.Itoa(key.Y),
	).Replace(s.URL)
}

func (s *HTTPSource) Fetch(ctx context.Context, key TileKey) (image.Image, error) {
	const op = "mapview.HTTPSource.Fetch"
	if !key.Valid() {
		return nil, errors.InvalidArgument(op, "tile %s out of range", key)
	}
	url := s.TileURL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(op, errors.KindInvalidArgument, err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(op, errors.KindIO, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(op, errors.KindIO, "fetching %s: %s", url, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, errors.Wrap(op, errors.KindIO, err)
	}
	return img, nil
}

// tileCache keeps the most recently used tiles, converted to surfaces.
type tileCache struct {
	mu    sync.Mutex
	size  int
	order *list.List
	items map[TileKey]*list.Element
}

type cacheEntry struct {
	key  TileKey
	surf *surface.Surface
}

func newTileCache(size int) *tileCache {
	return &tileCache{size: max(size, 1), order: list.New(), items: make(map[TileKey]*list.Element)}
}

func (c *tileCache) get(key TileKey) (*surface.Surface, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(e)
	return e.Value.(*cacheEntry).surf, true
}

func (c *tileCache) put(key TileKey, img image.Image) {
	s := surface.FromImage(img)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok {
		e.Value.(*cacheEntry).surf = s
		c.order.MoveToFront(e)
		return
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key, s})
	for c.order.Len() > c.size {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.items, last.Value.(*cacheEntry).key)
	}
}

func (c *tileCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
