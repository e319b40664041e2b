package screen

import (
	"strconv"
	"sync"
	"time"
)

// DefaultFPSHistory is how many frame rates an FPS counter keeps.
const DefaultFPSHistory = 100

// FPS measures the frame rate from successive Tick calls and keeps a
// bounded history for min, max and average.
type FPS struct {
	mu      sync.Mutex
	last    time.Time
	history []float64
	size    int
}

// NewFPS returns a counter remembering the last n rates.
func NewFPS(n int) *FPS {
	if n <= 0 {
		n = DefaultFPSHistory
	}
	return &FPS{size: n}
}

// Tick records a frame drawn at now.
func (f *FPS) Tick(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.last.IsZero() {
		if d := now.Sub(f.last); d > 0 {
			f.history = append(f.history, float64(time.Second)/float64(d))
			if len(f.history) > f.size {
				f.history = f.history[len(f.history)-f.size:]
			}
		}
	}
	f.last = now
}

// Current returns the most recent rate, or 0 before two frames.
func (f *FPS) Current() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.history) == 0 {
		return 0
	}
	return f.history[len(f.history)-1]
}

// Stats returns the minimum, maximum and average rate in the history.
func (f *FPS) Stats() (lo, hi, avg float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.history) == 0 {
		return 0, 0, 0
	}
	lo, hi = f.history[0], f.history[0]
	var sum float64
	for _, v := range f.history {
		lo, hi = min(lo, v), max(hi, v)
		sum += v
	}
	return lo, hi, sum / float64(len(f.history))
}

func (f *FPS) String() string {
	if c := f.Current(); c >= 1 {
		return strconv.Itoa(int(c))
	}
	return "< 1"
}
