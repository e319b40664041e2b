package event

import (
	"time"

	"github.com/OpticalFlyer/screenkit/geom"
)

const (
	// DoubleClickTime bounds both the press duration and the gap between
	// two clicks of a double click.
	DoubleClickTime = 250 * time.Millisecond
	// DoubleClickDist2 is the largest squared distance, in pixels, between
	// the two clicks of a double click.
	DoubleClickDist2 = 50
)

// clickDetector turns primary-button releases into Click or DoubleClick.
// A zero lastClick means no click is pending.
type clickDetector struct {
	lastDown     time.Time
	lastClick    time.Time
	lastClickPos geom.Vec
}

func (c *clickDetector) down(now time.Time) {
	c.lastDown = now
}

func (c *clickDetector) up(now time.Time, pos geom.Vec) Kind {
	if now.Sub(c.lastDown) <= DoubleClickTime &&
		!c.lastClick.IsZero() && now.Sub(c.lastClick) <= DoubleClickTime &&
		pos.Dist2(c.lastClickPos) <= DoubleClickDist2 {
		c.lastClick = time.Time{}
		return KindMouseDoubleClick
	}
	c.lastClick = now
	c.lastClickPos = pos
	return KindMouseClick
}
