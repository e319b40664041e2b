package screen

import (
	"context"
	"image/color"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OpticalFlyer/screenkit/element"
	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/logging"
	"github.com/OpticalFlyer/screenkit/surface"
	"github.com/OpticalFlyer/screenkit/widget"
)

// Loading screen layout.
var (
	LoadingBackground    = color.RGBA{20, 20, 50, 255}
	LoadingProgressColor = color.RGBA{0, 255, 0, 255}
)

const (
	progressWidth  = 0.7
	progressHeight = 20
)

// DefaultTooltipCycle is how long each tooltip shows.
const DefaultTooltipCycle = 5 * time.Second

// A Task is one step of a loading screen. It may report what it is doing
// with SetAction.
type Task func(ctx context.Context, l *LoadingScreen) error

// LoadingScreen replaces the screen's entities while a list of tasks runs
// in the background. It shows a title, an optional rotating tooltip, a
// progress bar and the current action.
type LoadingScreen struct {
	s *Screen

	mu       sync.Mutex
	tasks    []Task
	done     int
	title    string
	action   string
	tooltips []string
	cycle    time.Duration
	started  bool
	finished bool
	g        errgroup.Group

	// Owned by the render loop.
	tip      int
	nextTip  time.Time
	titleL   *widget.Label
	tooltipL *widget.Label
	actionL  *widget.Label
	bar      *widget.ProgressBar
	box      *element.Box
}

// NewLoadingScreen builds a loading screen for s and installs it. It shows
// until Start has run every task.
func NewLoadingScreen(s *Screen, title string, tasks ...Task) *LoadingScreen {
	h := s.Handler()
	l := &LoadingScreen{s: s, title: title, tasks: tasks, cycle: DefaultTooltipCycle, tip: -1}
	l.titleL = widget.NewLabel(h, title, nil)
	l.tooltipL = widget.NewLabel(h, "", nil)
	l.tooltipL.SetVisible(false)
	l.actionL = widget.NewLabel(h, "", nil)
	l.bar = widget.NewProgressBar(h)
	l.bar.SetColors(LoadingProgressColor, color.Black, color.White)

	bar := element.NewBox(l.bar)
	bar.SetAlign(element.AlignCenter)
	_ = bar.SetHeight(progressHeight)
	_ = l.bar.SetHeight(progressHeight)

	l.box = element.NewFlexbox(s, element.NewBox(l.titleL), l.tooltipL, bar, l.actionL)
	l.box.SetAlign(element.AlignStretch)
	l.box.SetBackground(LoadingBackground)
	_ = l.box.SetGap(10)
	_ = l.box.Padding().Set(10, 10, 10, 10)
	s.SetLoadingScreen(l)
	return l
}

// AddTask appends a task. It fails once Start has been called.
func (l *LoadingScreen) AddTask(t Task) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return errors.InvalidArgument("screen.LoadingScreen.AddTask", "loading already started")
	}
	l.tasks = append(l.tasks, t)
	return nil
}

// Start runs the tasks in order on a new goroutine. The first failing
// task stops the rest; Wait returns its error.
func (l *LoadingScreen) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return errors.InvalidArgument("screen.LoadingScreen.Start", "loading already started")
	}
	l.started = true
	tasks := l.tasks
	l.g.Go(func() error {
		defer l.finish()
		for i, t := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := t(ctx, l); err != nil {
				logging.Logger().Warn("loading task failed", "task", i, "err", err)
				return err
			}
			l.mu.Lock()
			l.done++
			l.action = ""
			l.mu.Unlock()
		}
		return nil
	})
	return nil
}

func (l *LoadingScreen) finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finished = true
}

// Wait blocks until the tasks have finished.
func (l *LoadingScreen) Wait() error { return l.g.Wait() }

// Active reports whether the loading screen still shows, which is until
// its tasks have finished.
func (l *LoadingScreen) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.finished
}

// Progress returns the fraction of tasks done.
func (l *LoadingScreen) Progress() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.progress()
}

func (l *LoadingScreen) progress() float64 {
	if len(l.tasks) == 0 {
		return 0
	}
	return float64(l.done) / float64(len(l.tasks))
}

func (l *LoadingScreen) SetTitle(title string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.title = title
}

// SetAction describes the running task. It is cleared when the task ends.
func (l *LoadingScreen) SetAction(action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.action = action
}

func (l *LoadingScreen) Action() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.action
}

// SetTooltips shows tips in turn, each for every.
func (l *LoadingScreen) SetTooltips(every time.Duration, tips ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if every <= 0 {
		every = DefaultTooltipCycle
	}
	l.tooltips, l.cycle = tips, every
}

// Render draws the loading screen over all of dst.
func (l *LoadingScreen) Render(dst *surface.Surface) *surface.Surface {
	l.mu.Lock()
	title, action, tips, cycle := l.title, l.action, l.tooltips, l.cycle
	progress := l.progress()
	l.mu.Unlock()

	l.titleL.SetText(title)
	l.actionL.SetText(action)
	_ = l.bar.SetValue(progress)
	_ = l.bar.SetWidth(int(float64(l.s.Width()) * progressWidth))

	l.tooltipL.SetVisible(len(tips) > 0)
	if len(tips) > 0 {
		now := l.s.Handler().Clock().Now()
		if !now.Before(l.nextTip) {
			l.tip = (l.tip + 1) % len(tips)
			l.nextTip = now.Add(cycle)
		}
		l.tooltipL.SetText(tips[l.tip%len(tips)])
	}

	l.box.SetPosition(geom.V(0, 0))
	return l.box.Render(dst)
}

// Changed is always true; the screen redraws it every frame.
func (l *LoadingScreen) Changed() bool { return true }
