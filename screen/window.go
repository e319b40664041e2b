package screen

import (
	"context"
	"image"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/surface"
)

// DefaultFPS is the frame rate of Run when none is given.
const DefaultFPS = 60

// Window is where finished frames go.
type Window interface {
	// Size is the window size in pixels.
	Size() image.Point
	// Present shows frame, which is only valid until the call returns.
	Present(frame *surface.Surface) error
}

// Run renders frames to w at fps until the handler has closed or ctx
// ends.
func (s *Screen) Run(ctx context.Context, w Window, fps int) error {
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for {
		if s.h.Closed() {
			return nil
		}
		if err := w.Present(s.Render(w.Size())); err != nil {
			return errors.Wrap("screen.Run", errors.KindIO, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunHeadless runs h's dispatch loop and s's render loop together and
// returns when both have stopped. The first error cancels the other.
func RunHeadless(ctx context.Context, h *event.Handler, s *Screen, w Window, fps int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.Run(ctx) })
	g.Go(func() error { return s.Run(ctx, w, fps) })
	return g.Wait()
}

// Headless is a Window that keeps the last frame in memory.
type Headless struct {
	mu     sync.Mutex
	size   image.Point
	last   *surface.Surface
	frames int
}

// NewHeadless returns a w x h headless window.
func NewHeadless(w, h int) *Headless {
	return &Headless{size: image.Pt(w, h)}
}

func (h *Headless) Size() image.Point {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.size
}

func (h *Headless) SetSize(w, ht int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.size = image.Pt(w, ht)
}

func (h *Headless) Present(frame *surface.Surface) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = frame.Copy()
	h.frames++
	return nil
}

// Last returns a copy of the last presented frame, or nil.
func (h *Headless) Last() *surface.Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Frames returns how many frames were presented.
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}
