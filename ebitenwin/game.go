// Package ebitenwin shows a screen.Screen in an ebiten window and feeds
// the window's input to an event.Handler.
package ebitenwin

import (
	"context"
	"fmt"
	"image"
	"io/fs"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/sync/errgroup"

	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/logging"
	"github.com/OpticalFlyer/screenkit/screen"
	"github.com/OpticalFlyer/screenkit/widget"
)

// Config holds the window settings.
type Config struct {
	Title  string
	Width  int
	Height int
	// TPS is the input polling rate. Zero keeps ebiten's default.
	TPS   int
	VSync bool
	// Cursor, if set, picks the pointer shape for a position in screen
	// coordinates.
	Cursor func(pos geom.Vec) widget.Cursor
}

// Game implements ebiten.Game.
type Game struct {
	ctx context.Context
	h   *event.Handler
	s   *screen.Screen
	cfg Config

	tr      translator
	win     image.Point
	cursor  ebiten.CursorShapeType
	closing bool
}

// NewGame returns a game that stops once h has closed or ctx ends.
func NewGame(ctx context.Context, h *event.Handler, s *screen.Screen, cfg Config) *Game {
	return &Game{ctx: ctx, h: h, s: s, cfg: cfg}
}

// Update polls input and enqueues it as events.
func (g *Game) Update() error {
	if g.h.Closed() || g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if ebiten.IsWindowBeingClosed() && !g.closing {
		g.closing = true
		g.h.Close()
	}

	for _, ev := range g.tr.translate(poll()) {
		ev.Pos = g.s.ToInternal(ev.Pos)
		g.h.Enqueue(ev)
	}

	if g.cfg.Cursor != nil {
		if c := CursorShape(g.cfg.Cursor(g.h.MousePos())); c != g.cursor {
			g.cursor = c
			ebiten.SetCursorShape(c)
		}
	}
	return nil
}

// Draw renders a frame and copies it to the window.
func (g *Game) Draw(dst *ebiten.Image) {
	b := dst.Bounds()
	frame := g.s.Render(b.Size())
	if frame.Size() != b.Size() {
		return
	}
	dst.WritePixels(frame.Image().Pix)
	if g.s.Debug() != screen.DebugOff {
		// The screen's own counter measures frames; this is ebiten's view.
		ebitenutil.DebugPrintAt(dst, fmt.Sprintf("FPS: %.2f TPS: %.2f", ebiten.ActualFPS(), ebiten.ActualTPS()), 0, b.Dy()-16)
	}
}

// Layout follows the window size and reports changes as Resize events.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	win := image.Pt(outsideWidth, outsideHeight)
	if win != g.win {
		g.win = win
		in := g.s.InternalSize(win)
		g.h.Enqueue(event.Resize(in.X, in.Y))
	}
	return outsideWidth, outsideHeight
}

func poll() Input {
	var in Input
	in.Cursor = image.Pt(ebiten.CursorPosition())
	for _, b := range buttons {
		if inpututil.IsMouseButtonJustPressed(b.eb) {
			in.Pressed = append(in.Pressed, b.b)
		}
		if inpututil.IsMouseButtonJustReleased(b.eb) {
			in.Released = append(in.Released, b.b)
		}
	}

	for _, k := range inpututil.AppendJustPressedKeys(nil) {
		in.KeysDown = append(in.KeysDown, Key(k))
	}
	for _, k := range repeatKeys {
		if repeats(inpututil.KeyPressDuration(k)) {
			in.KeysDown = append(in.KeysDown, Key(k))
		}
	}
	for _, k := range inpututil.AppendJustReleasedKeys(nil) {
		in.KeysUp = append(in.KeysUp, Key(k))
	}
	in.Runes = ebiten.AppendInputChars(nil)
	_, in.WheelY = ebiten.Wheel()

	for _, id := range ebiten.AppendTouchIDs(nil) {
		x, y := ebiten.TouchPosition(id)
		in.Touches = append(in.Touches, Touch{ID: int(id), Pos: image.Pt(x, y)})
	}

	if dropped := ebiten.DroppedFiles(); dropped != nil {
		entries, err := fs.ReadDir(dropped, ".")
		if err != nil {
			logging.Logger().Warn("reading dropped files", "err", err)
		}
		for _, e := range entries {
			in.Dropped = append(in.Dropped, e.Name())
		}
	}
	return in
}

// Run opens the window and runs h's dispatch loop alongside it until the
// window closes. It must be called from the main goroutine.
func Run(ctx context.Context, h *event.Handler, s *screen.Screen, cfg Config) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return h.Run(ctx) })

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetVsyncEnabled(cfg.VSync)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}

	runErr := ebiten.RunGame(NewGame(ctx, h, s, cfg))
	if !h.Closed() {
		// Unblocks the dispatch loop if the window went away first.
		_ = h.EnqueueContext(ctx, event.Quit())
	}
	if err := eg.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return runErr
}
