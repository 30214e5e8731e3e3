package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/gesturetube/internal/capture"
	"github.com/ayusman/gesturetube/internal/config"
	"github.com/ayusman/gesturetube/internal/detector"
	"github.com/ayusman/gesturetube/internal/gesture"
	"github.com/ayusman/gesturetube/internal/player"
	"github.com/ayusman/gesturetube/internal/store"
)

type messageRecorder struct {
	mu   sync.Mutex
	msgs []player.Message
	sent chan player.Message
}

func newMessageRecorder() *messageRecorder {
	return &messageRecorder{sent: make(chan player.Message, 16)}
}

func (m *messageRecorder) Broadcast(v any) error {
	msg, ok := v.(player.Message)
	if !ok {
		return nil
	}
	m.mu.Lock()
	m.msgs = append(m.msgs, msg)
	m.mu.Unlock()
	m.sent <- msg
	return nil
}

type fixture struct {
	app    *App
	cam    *capture.MockCamera
	det    *detector.MockDetector
	ticker *manualTicker
	msgs   *messageRecorder
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()

	f := &fixture{
		cam:    capture.NewMockCamera(640, 480),
		det:    detector.NewMockDetector(),
		ticker: newManualTicker(),
		msgs:   newMessageRecorder(),
	}

	opts := Options{
		Config:      config.Default(),
		Messages:    f.msgs,
		NewCamera:   func(capture.Config) capture.Camera { return f.cam },
		NewDetector: func(detector.Config) (detector.Detector, error) { return f.det, nil },
		NewTicker:   func(time.Duration) Ticker { return f.ticker },
	}
	if mutate != nil {
		mutate(&opts)
	}

	f.app = New(opts)
	t.Cleanup(func() { f.app.Stop() })
	return f
}

func TestApp_StartStop(t *testing.T) {
	f := newFixture(t, nil)

	snap, err := f.app.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if snap.SessionID == "" || !snap.CameraActive {
		t.Errorf("start snapshot = %+v", snap)
	}
	if snap.Control != "message" {
		t.Errorf("control = %q, want message fallback", snap.Control)
	}
	if !f.app.Running() || !f.det.Started() {
		t.Error("app should be running with the detector started")
	}

	if _, err := f.app.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}

	if err := f.app.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if f.app.Running() {
		t.Error("app still running after Stop")
	}
	if f.cam.IsOpen() || !f.det.Closed() {
		t.Error("Stop must release camera and detector")
	}
	if err := f.app.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second Stop() error = %v, want ErrNotRunning", err)
	}

	final := f.app.Snapshot()
	if final.CameraActive || final.SessionID != snap.SessionID {
		t.Errorf("final snapshot = %+v", final)
	}
}

func TestApp_NewSessionEachStart(t *testing.T) {
	f := newFixture(t, nil)

	first, _ := f.app.Start(context.Background())
	f.app.Stop()
	second, err := f.app.Start(context.Background())
	if err != nil {
		t.Fatalf("restart error = %v", err)
	}
	if first.SessionID == second.SessionID {
		t.Error("each session needs a fresh id")
	}
}

func TestApp_StartFailures(t *testing.T) {
	denied := errors.New("permission denied")

	tests := []struct {
		name       string
		setup      func(f *fixture)
		opts       func(o *Options)
		wantDevice bool
		wantErr    error
	}{
		{
			name:       "camera denied",
			setup:      func(f *fixture) { f.cam.SetOpenError(denied) },
			wantDevice: true,
			wantErr:    denied,
		},
		{
			name: "model missing",
			opts: func(o *Options) {
				o.NewDetector = func(detector.Config) (detector.Detector, error) {
					return nil, detector.ErrScriptNotFound
				}
			},
			wantDevice: true,
			wantErr:    detector.ErrScriptNotFound,
		},
		{
			name:       "model fails to start",
			setup:      func(f *fixture) { f.det.SetStartError(denied) },
			wantDevice: true,
			wantErr:    denied,
		},
		{
			name:    "no player surface",
			opts:    func(o *Options) { o.Messages = nil },
			wantErr: player.ErrNoSurface,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opts)
			if tt.setup != nil {
				tt.setup(f)
			}

			var observed []Snapshot
			f.app.AddObserver(ObserverFunc(func(s Snapshot) { observed = append(observed, s) }))

			snap, err := f.app.Start(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Start() error = %v, want %v", err, tt.wantErr)
			}

			var devErr *DeviceError
			if got := errors.As(err, &devErr); got != tt.wantDevice {
				t.Errorf("DeviceError = %v, want %v", got, tt.wantDevice)
			}

			if f.app.Running() {
				t.Error("failed start must leave the app stopped")
			}
			if snap.CameraActive || snap.ErrorText == "" {
				t.Errorf("snapshot = %+v, want inactive with error", snap)
			}
			if f.app.Snapshot().ErrorText != snap.ErrorText {
				t.Error("failure should stay visible until the next start")
			}
			if len(observed) != 1 || observed[0].ErrorText == "" {
				t.Errorf("observers saw %d snapshots", len(observed))
			}
			if f.cam.IsOpen() {
				t.Error("camera left open after failed start")
			}
		})
	}
}

func TestApp_ContextCancelEndsSession(t *testing.T) {
	f := newFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := f.app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		f.app.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("session did not end on context cancellation")
	}

	if f.app.Running() || f.cam.IsOpen() {
		t.Error("cancelled session must release the camera")
	}
}

func TestApp_DispatchesOverMessages(t *testing.T) {
	f := newFixture(t, nil)

	snaps := make(chan Snapshot, 16)
	f.app.AddObserver(ObserverFunc(func(s Snapshot) { snaps <- s }))

	if _, err := f.app.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-snaps

	f.det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	f.ticker.tick(t, at(0))

	select {
	case s := <-snaps:
		if s.ActiveGesture != gesture.Pause {
			t.Errorf("active gesture = %q, want pause", s.ActiveGesture)
		}
	case <-time.After(waitTimeout):
		t.Fatal("no snapshot after tick")
	}

	select {
	case msg := <-f.msgs.sent:
		if msg.Event != "command" || msg.Func != "pauseVideo" {
			t.Errorf("message = %+v", msg)
		}
	case <-time.After(waitTimeout):
		t.Fatal("no player message sent")
	}
}

func TestApp_TuningOverrides(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	s.Settings().Set(store.KeyCooldownMs, "350")
	s.Settings().Set(store.KeyReleaseMs, "-1")
	s.Settings().Set(store.KeyPlayMargin, "45")

	f := newFixture(t, func(o *Options) { o.Store = s })

	det := f.app.detection()
	if det.CooldownMs != 350 {
		t.Errorf("cooldown = %d, want 350", det.CooldownMs)
	}
	if det.ReleaseMs != config.DefaultReleaseMs {
		t.Errorf("invalid release override should be ignored, got %d", det.ReleaseMs)
	}
	if det.PlayMargin != 45 || det.PauseMargin != config.DefaultPauseMargin {
		t.Errorf("margins = %v/%v", det.PlayMargin, det.PauseMargin)
	}

	if _, err := f.app.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	f.app.mu.Lock()
	timing := f.app.session.debouncer.Timing()
	f.app.mu.Unlock()
	if timing.Cooldown != 350*time.Millisecond {
		t.Errorf("session cooldown = %v, want 350ms", timing.Cooldown)
	}
}

func TestErrors(t *testing.T) {
	base := errors.New("boom")

	dev := &DeviceError{Op: "open camera", Err: base}
	if dev.Error() != "open camera: boom" || !errors.Is(dev, base) {
		t.Errorf("DeviceError = %q", dev.Error())
	}

	inf := &InferenceError{Err: base}
	if !errors.Is(inf, base) {
		t.Error("InferenceError should unwrap")
	}
}
