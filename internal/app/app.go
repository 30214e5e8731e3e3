// Package app runs gesture-controlled playback sessions.
//
// An App starts at most one Session at a time. Starting a session acquires the
// camera and the landmark detector, selects the player control surface and
// launches a Driver; stopping it (or cancelling its context) releases them.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ayusman/gesturetube/internal/capture"
	"github.com/ayusman/gesturetube/internal/config"
	"github.com/ayusman/gesturetube/internal/detector"
	"github.com/ayusman/gesturetube/internal/gesture"
	"github.com/ayusman/gesturetube/internal/log"
	"github.com/ayusman/gesturetube/internal/player"
	"github.com/ayusman/gesturetube/internal/store"
)

// Options wires an App to its collaborators. Only Config, NewCamera and
// NewDetector are required.
type Options struct {
	Config config.Config

	// Store supplies tuning overrides applied at session start.
	Store *store.Store

	// Plugins and Runner provide the primary player control surface.
	Plugins player.PluginSource
	Runner  player.PluginRunner
	// Messages is the fallback surface, usually the WebSocket hub.
	Messages player.Broadcaster

	// Frames receives annotated JPEG frames. Nil disables rendering.
	Frames FrameSink

	NewCamera   func(capture.Config) capture.Camera
	NewDetector func(detector.Config) (detector.Detector, error)

	// NewTicker overrides the tick source, for tests.
	NewTicker func(time.Duration) Ticker
}

// App manages the session lifecycle and fans snapshots out to observers.
type App struct {
	opts Options

	mu        sync.Mutex
	session   *Session
	cancel    context.CancelFunc
	done      chan struct{}
	last      Snapshot
	observers []Observer
}

// New creates an App.
func New(opts Options) *App {
	if opts.NewCamera == nil {
		opts.NewCamera = capture.NewCamera
	}
	if opts.NewDetector == nil {
		opts.NewDetector = func(cfg detector.Config) (detector.Detector, error) {
			return detector.NewMediaPipeDetector(cfg)
		}
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	return &App{opts: opts}
}

// AddObserver registers o for every following snapshot.
func (a *App) AddObserver(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, o)
}

// Snapshot returns the latest published state. After a failed start it
// carries the device error.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session != nil {
		return a.session.Snapshot(time.Now())
	}
	return a.last
}

// Running reports whether a session is active.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

// Start acquires the devices and launches the frame loop. The session ends
// when Stop is called or ctx is cancelled.
func (a *App) Start(ctx context.Context) (Snapshot, error) {
	a.mu.Lock()
	if a.session != nil {
		a.mu.Unlock()
		return a.Snapshot(), ErrAlreadyRunning
	}
	a.mu.Unlock()

	cfg := a.opts.Config
	det := a.detection()

	cam := a.opts.NewCamera(capture.Config{
		DeviceID: cfg.Camera.DeviceID,
		Width:    capture.DefaultWidth,
		Height:   capture.DefaultHeight,
		FPS:      cfg.Camera.FPS,
	})
	if err := cam.Open(); err != nil {
		return a.failed(&DeviceError{Op: "open camera", Err: err})
	}

	landmarks, err := a.opts.NewDetector(detector.DefaultConfig())
	if err != nil {
		cam.Close()
		return a.failed(&DeviceError{Op: "load hand landmark model", Err: err})
	}
	if starter, ok := landmarks.(detector.Starter); ok {
		if err := starter.Start(); err != nil {
			cam.Close()
			landmarks.Close()
			return a.failed(&DeviceError{Op: "start hand landmark model", Err: err})
		}
	}

	control, err := player.Select(
		a.opts.Plugins, cfg.Player.Plugin, a.opts.Runner,
		time.Duration(cfg.Player.TimeoutMs)*time.Millisecond, a.opts.Messages,
	)
	if err != nil {
		cam.Close()
		landmarks.Close()
		return a.failed(err)
	}

	s := newSession(cam, landmarks, player.NewDispatcher(control, player.DefaultQueueSize), gesture.Timing{
		Cooldown: det.Cooldown(),
		Release:  det.Release(),
	}, time.Now())

	driver := NewDriver(s, DriverConfig{
		Interval: cfg.Camera.TickInterval(),
		Thresholds: gesture.Thresholds{
			PlayMargin:  det.PlayMargin,
			PauseMargin: det.PauseMargin,
		},
		Flash: det.Flash(),
	}, a.opts.Frames, a.publish)
	driver.newTicker = a.opts.NewTicker

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	a.mu.Lock()
	if a.session != nil {
		// Lost a race with a concurrent Start.
		a.mu.Unlock()
		cancel()
		s.release()
		return a.Snapshot(), ErrAlreadyRunning
	}
	a.session = s
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	log.Info("session started", "session", s.ID, "control", control.Name(),
		"cooldown", det.Cooldown(), "release", det.Release())

	go func() {
		defer close(done)
		driver.Run(runCtx)

		a.mu.Lock()
		if a.session == s {
			a.session = nil
			a.cancel = nil
			a.done = nil
		}
		a.mu.Unlock()
	}()

	return s.Snapshot(time.Now()), nil
}

// Stop ends the active session and waits until its resources are released.
func (a *App) Stop() error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}

	cancel()
	<-done
	return nil
}

// Wait blocks until the active session, if any, has ended.
func (a *App) Wait() {
	a.mu.Lock()
	done := a.done
	a.mu.Unlock()

	if done != nil {
		<-done
	}
}

// failed records a session that could not start and returns err.
func (a *App) failed(err error) (Snapshot, error) {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		log.Error("session start failed", "err", err)
	} else {
		log.Warn("session start failed", "err", err)
	}

	snap := Snapshot{ErrorText: err.Error(), At: time.Now()}
	a.publish(snap)
	return snap, err
}

// publish records snap and forwards it to every observer.
func (a *App) publish(snap Snapshot) {
	a.mu.Lock()
	a.last = snap
	observers := append([]Observer(nil), a.observers...)
	a.mu.Unlock()

	for _, o := range observers {
		o.Observe(snap)
	}
}

// detection returns the configured detection values with stored overrides
// applied. Invalid overrides are logged and ignored.
func (a *App) detection() config.DetectionConfig {
	det := a.opts.Config.Detection
	if a.opts.Store == nil {
		return det
	}

	settings := a.opts.Store.Settings()
	override := func(key string, apply func(int)) {
		n, err := settings.Int(key)
		if errors.Is(err, store.ErrNotFound) {
			return
		}
		if err != nil || n < 0 {
			log.Warn("ignoring invalid tuning override", "key", key, "err", err)
			return
		}
		apply(n)
	}

	override(store.KeyCooldownMs, func(n int) { det.CooldownMs = n })
	override(store.KeyReleaseMs, func(n int) { det.ReleaseMs = n })
	override(store.KeyPlayMargin, func(n int) { det.PlayMargin = float64(n) })
	override(store.KeyPauseMargin, func(n int) { det.PauseMargin = float64(n) })

	return det
}
