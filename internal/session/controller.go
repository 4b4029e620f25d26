// Package session manages playback state for the single active video:
// resume-position load and debounced save, view-count incrementing on
// completion, duration derivation, and skip/tap gestures.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/playlist-platform/internal/cache"
	"github.com/example/playlist-platform/internal/media"
	"github.com/example/playlist-platform/internal/store"
)

// State of the active viewing session.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

// Media is the playable handle the controller drives. Duration reads 0 until
// metadata is available.
type Media interface {
	CurrentTime() float64
	Seek(seconds float64)
	Duration() float64
	Play()
	Pause()
}

// Persistence is the subset of store operations the controller consumes.
// *store.Store satisfies it.
type Persistence interface {
	UpdateVideoViews(ctx context.Context, playlist, url string, delta int64)
	SaveWatchPosition(ctx context.Context, playlist, url string, seconds float64)
	WatchPosition(ctx context.Context, url string) float64
}

const (
	// SkipStep is the fixed skip increment.
	SkipStep = 10.0
	// saveQuietPeriod is the debounce window for position persistence.
	saveQuietPeriod = 2 * time.Second
	// metadataTimeout bounds how long duration derivation may wait.
	metadataTimeout = 10 * time.Second
)

// Controller is the per-player playback state machine. Only one video is
// active at a time; selecting a new video tears down the previous session's
// pending timers first so no position-save timer outlives its video.
type Controller struct {
	mu       sync.Mutex
	state    State
	video    store.Video
	playlist string
	media    Media

	persist Persistence
	prefs   *cache.Prefs
	log     *zap.Logger

	saver     *debouncer
	taps      *tapClassifier
	metaTimer *time.Timer
	// generation guards late timer callbacks from a torn-down session.
	generation int

	quiet    time.Duration
	metaWait time.Duration
}

func NewController(persist Persistence, prefs *cache.Prefs, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		state:    StateIdle,
		persist:  persist,
		prefs:    prefs,
		log:      log,
		quiet:    saveQuietPeriod,
		metaWait: metadataTimeout,
	}
	c.saver = newDebouncer(c.quiet)
	c.taps = newTapClassifier(c.applyTapAction)
	return c
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Video returns the active video record, including any derived duration.
func (c *Controller) Video() store.Video {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.video
}

// Select makes v the active video, tearing down the previous session. index
// is the video's position in the playlist, remembered for session restore.
func (c *Controller) Select(playlist string, index int, v store.Video, m Media) {
	c.mu.Lock()
	c.teardownLocked()
	c.generation++
	gen := c.generation

	c.playlist = playlist
	c.video = v
	c.media = m
	c.state = StateLoading
	c.metaTimer = time.AfterFunc(c.metaWait, func() { c.metadataTimedOut(gen) })
	c.mu.Unlock()

	c.prefs.SetPersisted(cache.KeyLastPlaylist, playlist)
	c.prefs.SetPersisted(cache.LastIndexKey(playlist), index)
}

// Teardown cancels all pending timers and returns to Idle.
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.generation++
	c.state = StateIdle
	c.media = nil
	c.video = store.Video{}
	c.playlist = ""
}

func (c *Controller) teardownLocked() {
	c.saver.Stop()
	c.taps.Reset()
	if c.metaTimer != nil {
		c.metaTimer.Stop()
		c.metaTimer = nil
	}
}

// ── media events ───────────────────────────────────────────────────────────

// OnMetadataLoaded moves Loading -> Ready: the duration becomes known, any
// missing duration field is derived, and the cached resume position is
// applied by seeking.
func (c *Controller) OnMetadataLoaded() {
	c.mu.Lock()
	if c.state != StateLoading {
		c.mu.Unlock()
		return
	}
	if c.metaTimer != nil {
		c.metaTimer.Stop()
		c.metaTimer = nil
	}

	dur := c.media.Duration()
	if c.video.Duration == "" && dur > 0 {
		c.video.Duration = media.FormatDuration(dur)
	}
	c.state = StateReady
	m := c.media
	url := c.video.URL
	c.mu.Unlock()

	if pos := c.resumePosition(url, dur); pos > 0 {
		m.Seek(pos)
	}
}

// metadataTimedOut gives up on duration derivation and reports zero rather
// than hanging; the session still becomes Ready.
func (c *Controller) metadataTimedOut(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen || c.state != StateLoading {
		return
	}
	c.metaTimer = nil
	if c.video.Duration == "" {
		c.video.Duration = media.FormatDuration(0)
	}
	c.state = StateReady
	c.log.Warn("media metadata timed out", zap.String("url", c.video.URL))
}

// OnPlay records a media play event.
func (c *Controller) OnPlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateReady || c.state == StatePaused {
		c.state = StatePlaying
	}
}

// OnPause records a media pause event.
func (c *Controller) OnPause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePlaying {
		c.state = StatePaused
	}
}

// OnTimeUpdate buffers playback positions; only the latest value is
// persisted after the quiet period, to the local prefs immediately and the
// remote store best-effort.
func (c *Controller) OnTimeUpdate(seconds float64) {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	playlist, url := c.playlist, c.video.URL
	c.video.LastTime = seconds
	c.mu.Unlock()

	c.saver.Trigger(func() {
		c.prefs.SetPersisted(cache.WatchKey(url), seconds)
		c.persist.SaveWatchPosition(context.Background(), playlist, url, seconds)
	})
}

// OnEnded is terminal for the viewing session: the watch position resets to
// zero and the view counter increments by one, both best-effort.
func (c *Controller) OnEnded() {
	c.mu.Lock()
	if c.state != StatePlaying && c.state != StatePaused && c.state != StateReady {
		c.mu.Unlock()
		return
	}
	c.saver.Stop()
	c.state = StateEnded
	playlist, url := c.playlist, c.video.URL
	c.video.LastTime = 0
	c.mu.Unlock()

	c.prefs.SetPersisted(cache.WatchKey(url), 0.0)
	c.persist.SaveWatchPosition(context.Background(), playlist, url, 0)
	c.persist.UpdateVideoViews(context.Background(), playlist, url, 1)
}

// ── user actions ───────────────────────────────────────────────────────────

// SkipForward seeks ahead by SkipStep, clamped to the duration.
func (c *Controller) SkipForward() { c.skip(SkipStep) }

// SkipBackward seeks back by SkipStep, clamped to zero.
func (c *Controller) SkipBackward() { c.skip(-SkipStep) }

func (c *Controller) skip(delta float64) {
	c.mu.Lock()
	m := c.media
	active := c.state == StateReady || c.state == StatePlaying || c.state == StatePaused
	c.mu.Unlock()
	if m == nil || !active {
		return
	}

	pos := m.CurrentTime() + delta
	if pos < 0 {
		pos = 0
	}
	if dur := m.Duration(); dur > 0 && pos > dur {
		pos = dur
	}
	m.Seek(pos)
}

// TogglePlay flips between Playing and Paused.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	m := c.media
	state := c.state
	c.mu.Unlock()
	if m == nil {
		return
	}
	if state == StatePlaying {
		m.Pause()
	} else if state == StateReady || state == StatePaused {
		m.Play()
	}
}

// Tap feeds an activation on the player surface into the double-tap
// classifier: two taps within ~300ms and ~50px resolve to a directional
// skip, a lone tap to a play/pause toggle.
func (c *Controller) Tap(x, y, surfaceWidth float64) {
	c.taps.Tap(x, y, surfaceWidth)
}

func (c *Controller) applyTapAction(a Action) {
	switch a {
	case ActionSkipForward:
		c.SkipForward()
	case ActionSkipBackward:
		c.SkipBackward()
	default:
		c.TogglePlay()
	}
}

// ── helpers ────────────────────────────────────────────────────────────────

// resumePosition prefers the local pref over the remote record and discards
// positions at or past the end of the video.
func (c *Controller) resumePosition(url string, duration float64) float64 {
	var pos float64
	if !c.prefs.GetPersistedInto(cache.WatchKey(url), &pos) {
		pos = c.persist.WatchPosition(context.Background(), url)
	}
	if pos <= 0 {
		return 0
	}
	if duration > 0 && pos >= duration {
		return 0
	}
	return pos
}
