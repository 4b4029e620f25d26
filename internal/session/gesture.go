package session

import (
	"math"
	"sync"
	"time"
)

// Action is the resolved meaning of a tap on the player surface.
type Action int

const (
	ActionTogglePlay Action = iota
	ActionSkipBackward
	ActionSkipForward
)

const (
	doubleTapWindow  = 300 * time.Millisecond
	doubleTapMaxDist = 50.0
)

// tapClassifier distinguishes single taps from directional double taps. A
// second activation within the window and distance of the first resolves to
// a skip (left half backward, right half forward); otherwise the first tap
// resolves to a play/pause toggle once the window closes. Resolution is
// delivered through the emit callback because a lone tap cannot be
// classified until the double-tap window has expired.
type tapClassifier struct {
	mu     sync.Mutex
	window time.Duration
	dist   float64
	emit   func(Action)

	pending *time.Timer
	lastAt  time.Time
	lastX   float64
	lastY   float64
	now     func() time.Time
}

func newTapClassifier(emit func(Action)) *tapClassifier {
	return &tapClassifier{
		window: doubleTapWindow,
		dist:   doubleTapMaxDist,
		emit:   emit,
		now:    time.Now,
	}
}

// Tap records an activation at (x, y) on a surface of the given width.
func (c *tapClassifier) Tap(x, y, surfaceWidth float64) {
	c.mu.Lock()

	now := c.now()
	isDouble := c.pending != nil &&
		now.Sub(c.lastAt) < c.window &&
		math.Hypot(x-c.lastX, y-c.lastY) < c.dist

	if isDouble {
		c.pending.Stop()
		c.pending = nil
		c.lastAt = time.Time{}
		action := ActionSkipForward
		if x < surfaceWidth/2 {
			action = ActionSkipBackward
		}
		c.mu.Unlock()
		c.emit(action)
		return
	}

	if c.pending != nil {
		// A prior tap outside the distance threshold: resolve it as a toggle
		// now and start a fresh window for this one.
		c.pending.Stop()
		c.mu.Unlock()
		c.emit(ActionTogglePlay)
		c.mu.Lock()
	}

	c.lastAt = now
	c.lastX = x
	c.lastY = y
	c.pending = time.AfterFunc(c.window, func() {
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
		c.emit(ActionTogglePlay)
	})
	c.mu.Unlock()
}

// Reset cancels any pending classification without emitting.
func (c *tapClassifier) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.lastAt = time.Time{}
}
