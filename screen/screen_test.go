package screen

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/event"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/lock"
	"github.com/OpticalFlyer/screenkit/surface"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

type fill struct {
	r       image.Rectangle
	c       color.RGBA
	renders int
}

func (f *fill) Render(dst *surface.Surface) *surface.Surface {
	f.renders++
	if dst != nil {
		dst.FillRect(f.r, f.c)
	}
	return dst
}

func (f *fill) Changed() bool { return true }

func newScreen(cfg Config) (*Screen, *event.Handler) {
	h := event.NewHandler(event.Config{Clock: event.NewFakeClock()})
	return New(h, cfg), h
}

func TestQualityInternalSize(t *testing.T) {
	tests := []struct {
		name string
		q    Quality
		win  image.Point
		want image.Point
	}{
		{"within budget", QualityHigh, image.Pt(1280, 720), image.Pt(1280, 720)},
		{"at budget", QualityHigh, image.Pt(2560, 1440), image.Pt(2560, 1440)},
		{"4k on high", QualityHigh, image.Pt(3840, 2160), image.Pt(2560, 1440)},
		{"4k on medium", QualityMedium, image.Pt(3840, 2160), image.Pt(1920, 1080)},
		{"custom", Quality(2500), image.Pt(100, 100), image.Pt(50, 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.InternalSize(tt.win); got != tt.want {
				t.Errorf("InternalSize(%v) = %v, want %v", tt.win, got, tt.want)
			}
		})
	}
}

func TestParseQuality(t *testing.T) {
	for _, q := range []Quality{QualityUltra, QualityHigh, QualityMedium, QualityLow} {
		got, err := ParseQuality(strings.ToUpper(q.String()))
		if err != nil || got != q {
			t.Errorf("ParseQuality(%s) = %v, %v", q, got, err)
		}
	}
	if _, err := ParseQuality("extreme"); !errors.Is(err, errors.KindInvalidArgument) {
		t.Errorf("err = %v", err)
	}
}

func TestRenderOrder(t *testing.T) {
	s, _ := newScreen(Config{Background: color.Black})
	below := &fill{r: image.Rect(0, 0, 20, 20), c: red}
	above := &fill{r: image.Rect(10, 10, 30, 30), c: blue}
	s.AddPopup(above)
	s.AddEntity(below)

	frame := s.Render(image.Pt(40, 40))
	if frame.Size() != image.Pt(40, 40) {
		t.Fatalf("frame size = %v", frame.Size())
	}
	checks := []struct {
		x, y int
		want color.RGBA
	}{
		{5, 5, red},
		{15, 15, blue},
		{35, 35, color.RGBA{0, 0, 0, 255}},
	}
	for _, c := range checks {
		if got := frame.At(c.x, c.y); got != c.want {
			t.Errorf("(%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}

	stats := s.Stats()
	if len(stats) != 3 || stats[0].Name != LockStat || stats[1].Name != "*screen.fill" {
		t.Errorf("stats = %+v", stats)
	}

	if !s.RemoveEntity(below) || s.RemoveEntity(below) {
		t.Error("RemoveEntity did not report presence")
	}
	s.RemovePopup(above)
	s.Render(image.Pt(40, 40))
	if below.renders != 1 || above.renders != 1 {
		t.Errorf("removed entities rendered: %d %d", below.renders, above.renders)
	}
}

func TestUpscaling(t *testing.T) {
	s, _ := newScreen(Config{Upscaling: true, Quality: Quality(2500), Background: red})
	frame := s.Render(image.Pt(100, 100))
	if frame.Size() != image.Pt(100, 100) {
		t.Fatalf("frame size = %v", frame.Size())
	}
	if s.Width() != 50 || s.Height() != 50 {
		t.Errorf("internal size = %dx%d, want 50x50", s.Width(), s.Height())
	}
	if got := frame.At(99, 99); got != red {
		t.Errorf("scaled corner = %v", got)
	}
	if got := s.ToInternal(geom.V(100, 50)); got != geom.V(50, 25) {
		t.Errorf("ToInternal = %v", got)
	}

	s.Render(image.Pt(40, 40))
	if s.Width() != 40 || s.ToInternal(geom.V(7, 7)) != geom.V(7, 7) {
		t.Error("small window was still scaled")
	}
}

func TestRenderWaitsForHandlerLock(t *testing.T) {
	s, h := newScreen(Config{})
	s.AddEntity(&fill{r: image.Rect(0, 0, 1, 1), c: red})

	other := lock.NewOwner()
	h.Lock().Lock(other)
	done := make(chan struct{})
	go func() {
		s.Render(image.Pt(10, 10))
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("rendered while the handler was dispatching")
	case <-time.After(50 * time.Millisecond):
	}
	h.Lock().Unlock(other)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("render never acquired the lock")
	}
}

func TestToggleDebug(t *testing.T) {
	s, _ := newScreen(Config{})
	for _, want := range []int{DebugFPS, DebugFPSStats, DebugHitboxes, DebugOff} {
		if got := s.ToggleDebug(); got != want {
			t.Fatalf("ToggleDebug = %d, want %d", got, want)
		}
	}
	if err := s.SetDebug(4); !errors.Is(err, errors.KindInvalidArgument) {
		t.Errorf("SetDebug(4) err = %v", err)
	}
	for level := DebugOff; level <= DebugHitboxes; level++ {
		_ = s.SetDebug(level)
		s.AddEntity(&fill{r: image.Rect(0, 0, 5, 5), c: red})
		if f := s.Render(image.Pt(200, 100)); f == nil {
			t.Fatalf("level %d: nil frame", level)
		}
	}
}

func TestFPS(t *testing.T) {
	f := NewFPS(3)
	if f.String() != "< 1" {
		t.Errorf("empty String = %q", f.String())
	}
	now := time.Unix(0, 0)
	for _, d := range []time.Duration{0, 10, 50, 20, 20} {
		now = now.Add(d * time.Millisecond)
		f.Tick(now)
	}
	if f.Current() != 50 || f.String() != "50" {
		t.Errorf("current = %v %q", f.Current(), f.String())
	}
	lo, hi, avg := f.Stats()
	if lo != 20 || hi != 50 || avg != 40 {
		t.Errorf("stats = %v %v %v, want 20 50 40", lo, hi, avg)
	}
}

func TestLoadingScreen(t *testing.T) {
	s, _ := newScreen(Config{})
	ent := &fill{r: image.Rect(0, 0, 5, 5), c: red}
	s.AddEntity(ent)

	release := make(chan struct{})
	l := NewLoadingScreen(s, "Loading...",
		func(ctx context.Context, l *LoadingScreen) error {
			l.SetAction("first")
			<-release
			return nil
		},
	)
	l.SetTooltips(time.Second, "a", "b")
	var order []string
	if err := l.AddTask(func(ctx context.Context, l *LoadingScreen) error {
		order = append(order, l.Action())
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if !s.Loading() {
		t.Fatal("loading screen not active before start")
	}
	s.Render(image.Pt(200, 150))
	if ent.renders != 0 {
		t.Error("entities rendered under the loading screen")
	}
	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := l.Start(context.Background()); !errors.Is(err, errors.KindInvalidArgument) {
		t.Errorf("second Start err = %v", err)
	}
	if err := l.AddTask(nil); err == nil {
		t.Error("AddTask after Start succeeded")
	}
	close(release)
	if err := l.Wait(); err != nil {
		t.Fatal(err)
	}
	if l.Active() || l.Progress() != 1 {
		t.Errorf("active=%v progress=%v", l.Active(), l.Progress())
	}
	if len(order) != 1 || order[0] != "" {
		t.Errorf("action not cleared between tasks: %q", order)
	}
	s.Render(image.Pt(200, 150))
	if ent.renders != 1 {
		t.Error("entities not rendered after loading")
	}
}

func TestLoadingScreenStopsOnError(t *testing.T) {
	s, _ := newScreen(Config{})
	boom := errors.New("test", errors.KindIO, "boom")
	ran := false
	l := NewLoadingScreen(s, "x",
		func(context.Context, *LoadingScreen) error { return boom },
		func(context.Context, *LoadingScreen) error {
			ran = true
			return nil
		},
	)
	_ = l.Start(context.Background())
	if err := l.Wait(); err != boom {
		t.Errorf("Wait = %v", err)
	}
	if ran || l.Active() {
		t.Errorf("ran=%v active=%v", ran, l.Active())
	}
}

func TestRunHeadless(t *testing.T) {
	h := event.NewHandler(event.Config{})
	s := New(h, Config{Background: blue})
	w := NewHeadless(64, 48)
	go func() {
		for w.Frames() < 2 {
			time.Sleep(time.Millisecond)
		}
		h.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := RunHeadless(ctx, h, s, w, 120); err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	last := w.Last()
	if last == nil || last.Size() != image.Pt(64, 48) || last.At(1, 1) != blue {
		t.Errorf("last frame wrong")
	}
}
