package screen

import (
	"image"
	"math"
	"strings"

	"github.com/OpticalFlyer/screenkit/errors"
)

// Quality is the pixel budget of the internal render surface when
// upscaling is on.
type Quality int

const (
	QualityUltra  Quality = 8294400
	QualityHigh   Quality = 3686400
	QualityMedium Quality = 2073600
	QualityLow    Quality = 1036800
)

// ParseQuality reads "ultra", "high", "medium" or "low".
func ParseQuality(name string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ultra":
		return QualityUltra, nil
	case "high":
		return QualityHigh, nil
	case "medium":
		return QualityMedium, nil
	case "low":
		return QualityLow, nil
	}
	return 0, errors.InvalidArgument("screen.ParseQuality", "unknown upscaling quality %q", name)
}

func (q Quality) String() string {
	switch q {
	case QualityUltra:
		return "ultra"
	case QualityHigh:
		return "high"
	case QualityMedium:
		return "medium"
	case QualityLow:
		return "low"
	}
	return "custom"
}

// InternalSize returns the surface size to render at for a window of
// size win. A window within the budget renders at full size; a larger one
// is shrunk evenly on both axes to fit it.
func (q Quality) InternalSize(win image.Point) image.Point {
	pixels := float64(win.X) * float64(win.Y)
	if q <= 0 || pixels <= float64(q) {
		return win
	}
	f := math.Sqrt(pixels / float64(q))
	return image.Pt(max(1, int(float64(win.X)/f)), max(1, int(float64(win.Y)/f)))
}
