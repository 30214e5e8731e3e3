package app

import (
	"sync"
	"time"

	"github.com/ayusman/gesturetube/internal/capture"
	"github.com/ayusman/gesturetube/internal/detector"
	"github.com/ayusman/gesturetube/internal/gesture"
	"github.com/ayusman/gesturetube/internal/log"
	"github.com/ayusman/gesturetube/internal/player"
	"github.com/google/uuid"
)

// Session owns the resources of one camera run: the camera, the landmark
// detector, the player dispatcher and the detection state. Each resource is
// closed at most once.
type Session struct {
	ID        string
	StartedAt time.Time

	camera     capture.Camera
	detector   detector.Detector
	dispatcher *player.Dispatcher
	debouncer  *gesture.Debouncer

	mu         sync.RWMutex
	active     bool
	errText    string
	gesture    gesture.Gesture
	flashUntil time.Time
	stats      Stats

	cameraOnce   sync.Once
	detectorOnce sync.Once
	releaseOnce  sync.Once
}

func newSession(cam capture.Camera, det detector.Detector, disp *player.Dispatcher, timing gesture.Timing, now time.Time) *Session {
	return &Session{
		ID:         uuid.New().String(),
		StartedAt:  now,
		camera:     cam,
		detector:   det,
		dispatcher: disp,
		debouncer:  gesture.NewDebouncer(timing),
		active:     true,
	}
}

// Snapshot returns the session state as seen at now.
func (s *Session) Snapshot(now time.Time) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		SessionID:     s.ID,
		ActiveGesture: s.gesture,
		CameraActive:  s.active,
		ErrorText:     s.errText,
		Flash:         s.active && now.Before(s.flashUntil),
		Stats:         s.stats,
		At:            now,
	}
	if s.dispatcher != nil {
		snap.Control = s.dispatcher.Control().Name()
	}
	return snap
}

// isActive reports whether the session still holds the camera.
func (s *Session) isActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// update applies fn to the mutable session state under the lock.
func (s *Session) update(fn func(s *Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *Session) closeCamera() {
	s.cameraOnce.Do(func() {
		if err := s.camera.Close(); err != nil {
			log.Warn("error closing camera", "session", s.ID, "err", err)
		}
	})
}

func (s *Session) closeDetector() {
	s.detectorOnce.Do(func() {
		if err := s.detector.Close(); err != nil {
			log.Warn("error closing detector", "session", s.ID, "err", err)
		}
	})
}

// release closes every resource and marks the session inactive.
func (s *Session) release() {
	s.releaseOnce.Do(func() {
		s.closeCamera()
		s.closeDetector()
		if s.dispatcher != nil {
			s.dispatcher.Close()
		}

		s.update(func(s *Session) {
			s.active = false
			s.gesture = gesture.None
			s.flashUntil = time.Time{}
		})
	})
}
