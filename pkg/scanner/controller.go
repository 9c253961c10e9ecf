// Package scanner runs the scan session: one camera, one continuous decode
// loop, and the state shown to the user.
package scanner

import (
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-scanner/internal/log"
	"github.com/teslashibe/go-scanner/pkg/camera"
	"github.com/teslashibe/go-scanner/pkg/decode"
	"github.com/teslashibe/go-scanner/pkg/overlay"
	"github.com/teslashibe/go-scanner/pkg/scanner/state"
)

// User-facing messages, see package state.
const (
	MessageScanFailed        = state.MessageScanFailed
	MessageCameraUnavailable = state.MessageCameraUnavailable
)

// ErrNotConfigured is returned by Start when no opener or decoder was given.
var ErrNotConfigured = errors.New("scanner: camera opener and decoder are required")

// State is a read-only snapshot of the scanner.
type State = state.State

// Options wires the controller to its collaborators.
type Options struct {
	Open    camera.Opener
	Decoder decode.Decoder
	Overlay *overlay.Renderer

	// Config returns the camera config used when a session starts.
	Config func() camera.Config

	// IsRoutine decides which decode errors are "nothing in this frame".
	IsRoutine decode.Classifier

	// Interval between decode attempts. Zero derives it from the camera
	// framerate.
	Interval time.Duration

	// OnFrame sees every camera frame (preview streaming).
	OnFrame func(img image.Image)

	// OnChange is called with a snapshot after every visible change.
	// It runs on the decode goroutine and must not block.
	OnChange func(State)

	Logger *slog.Logger
}

// Controller owns at most one active session and the scan state.
type Controller struct {
	opts Options
	log  *slog.Logger

	// lifeMu serializes Start/Stop/Reset and the end-of-stream watcher. The
	// decode goroutine never takes it, so Stop can wait for the loop while
	// holding it.
	lifeMu sync.Mutex
	sess   *session

	// mu guards the fields below.
	mu         sync.Mutex
	sessionID  string
	lastResult *decode.Result
	lastError  string
	lastFault  string
	updatedAt  time.Time
}

// New creates a controller. Nothing is opened until Start.
func New(opts Options) *Controller {
	if opts.Overlay == nil {
		opts.Overlay = overlay.NewCanvas(640, 480, overlay.DefaultStyle())
	}
	if opts.Config == nil {
		opts.Config = camera.DefaultConfig
	}
	if opts.IsRoutine == nil {
		opts.IsRoutine = decode.IsRoutine
	}
	if opts.Logger == nil {
		opts.Logger = log.L()
	}
	return &Controller{
		opts:      opts,
		log:       opts.Logger.With("component", "scanner"),
		updatedAt: time.Now(),
	}
}

// Start opens the camera and begins continuous decoding. It is a no-op when
// a session is already active. A camera that cannot be opened is reported
// through State().LastError as well as the returned error.
func (c *Controller) Start() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	return c.startLocked()
}

func (c *Controller) startLocked() error {
	if c.sess != nil {
		return nil
	}
	if c.opts.Open == nil || c.opts.Decoder == nil {
		return ErrNotConfigured
	}

	cfg := c.opts.Config()
	s, err := openSession(c.opts.Open, cfg)
	if err != nil {
		c.log.Error("camera unavailable", "camera", cfg.String(), "error", err)
		c.mu.Lock()
		c.lastError = MessageCameraUnavailable
		c.touchLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
		return err
	}

	c.mu.Lock()
	c.sessionID = s.id
	c.lastFault = ""
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info("scan session started", "session", s.id, "camera", cfg.String())

	// Published before the loop exists so no attempt can be overtaken by it.
	c.notify(snap)

	s.run(c.opts.Decoder, decode.LoopOptions{
		Interval: c.interval(cfg),
		OnFrame:  c.opts.OnFrame,
	}, func(res *decode.Result, err error) {
		c.handleAttempt(s, res, err)
	})
	c.sess = s
	go c.watch(s)
	return nil
}

// watch ends a session whose loop returned on its own (camera gone), so the
// camera is released and Scanning reports false until the next Start.
func (c *Controller) watch(s *session) {
	<-s.sub.Done()

	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.sess != s {
		return
	}
	c.log.Warn("camera stream ended", "session", s.id)
	_ = c.stopLocked()
}

// Stop cancels the decode loop and releases the camera before returning.
// Safe to call when nothing is running.
func (c *Controller) Stop() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	return c.stopLocked()
}

func (c *Controller) stopLocked() error {
	if c.sess == nil {
		return nil
	}
	s := c.sess
	c.sess = nil

	// Detach first: an attempt finishing during Cancel is dropped.
	c.mu.Lock()
	c.sessionID = ""
	c.mu.Unlock()

	err := s.close()

	c.mu.Lock()
	c.opts.Overlay.Clear()
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("scan session stopped with error", "session", s.id, "error", err)
	} else {
		c.log.Info("scan session stopped", "session", s.id)
	}
	c.notify(snap)
	return err
}

// Reset clears the result, error and overlay, releases the current camera
// and starts a fresh session.
func (c *Controller) Reset() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if err := c.stopLocked(); err != nil {
		c.log.Warn("reset: previous session did not close cleanly", "error", err)
	}

	c.mu.Lock()
	c.lastResult = nil
	c.lastError = ""
	c.lastFault = ""
	c.opts.Overlay.Clear()
	c.touchLocked()
	c.mu.Unlock()

	return c.startLocked()
}

// OnDecodeAttempt applies one decode attempt to the active session.
// It is ignored when no session is active.
func (c *Controller) OnDecodeAttempt(res *decode.Result, err error) {
	c.lifeMu.Lock()
	s := c.sess
	c.lifeMu.Unlock()
	if s == nil {
		return
	}
	c.handleAttempt(s, res, err)
}

func (c *Controller) handleAttempt(s *session, res *decode.Result, err error) {
	c.mu.Lock()
	if c.sessionID != s.id {
		c.mu.Unlock()
		return
	}

	_, hadBox := c.opts.Overlay.Box()
	prevError := c.lastError
	changed := false

	if res != nil {
		c.lastResult = res
		c.lastError = ""
		w, h := s.src.FrameSize()
		if derr := c.opts.Overlay.DrawBoundingBox(res.Points, w, h); derr != nil {
			c.log.Warn("overlay draw failed", "error", derr)
		}
		changed = true
	} else {
		c.opts.Overlay.Clear()
		changed = hadBox
	}

	if err != nil && !c.routine(err) {
		c.lastError = c.message(err)
		if msg := err.Error(); msg != c.lastFault {
			c.lastFault = msg
			c.log.Warn("decode fault", "session", s.id, "error", err)
		} else {
			c.log.Debug("decode fault repeated", "session", s.id, "error", err)
		}
	}
	if c.lastError != prevError {
		changed = true
	}

	if !changed {
		c.mu.Unlock()
		return
	}
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if res != nil {
		c.log.Debug("code decoded", "session", s.id, "format", res.Format, "text", res.Text)
	}
	c.notify(snap)
}

// State returns a snapshot of the current scan state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Overlay returns the renderer the controller draws on.
func (c *Controller) Overlay() *overlay.Renderer {
	return c.opts.Overlay
}

func (c *Controller) routine(err error) bool {
	return errors.Is(err, camera.ErrEmptyFrame) || c.opts.IsRoutine(err)
}

func (c *Controller) message(err error) string {
	if camera.IsDeviceError(err) {
		return MessageCameraUnavailable
	}
	return MessageScanFailed
}

func (c *Controller) interval(cfg camera.Config) time.Duration {
	if c.opts.Interval > 0 {
		return c.opts.Interval
	}
	if cfg.Framerate > 0 {
		return time.Second / time.Duration(cfg.Framerate)
	}
	return 100 * time.Millisecond
}

func (c *Controller) touchLocked() {
	c.updatedAt = time.Now()
}

func (c *Controller) snapshotLocked() State {
	st := State{
		SessionID:  c.sessionID,
		Scanning:   c.sessionID != "",
		LastResult: c.lastResult,
		LastError:  c.lastError,
		UpdatedAt:  c.updatedAt,
	}
	if box, ok := c.opts.Overlay.Box(); ok {
		st.Box = &box
	}
	return st
}

func (c *Controller) notify(st State) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(st)
	}
}
