package app

import (
	"time"

	"github.com/ayusman/gesturetube/internal/gesture"
)

// Stats counts frame loop activity for one session.
type Stats struct {
	// Ticks is every scheduling tick, including dropped ones.
	Ticks uint64 `json:"ticks"`
	// Processed is ticks whose inference result was consumed.
	Processed uint64 `json:"processed"`
	// Dropped is ticks skipped because inference was still in flight.
	Dropped uint64 `json:"dropped"`
	// Accepted is gestures accepted by the debouncer.
	Accepted uint64 `json:"accepted"`
	// Errors is ticks that failed to read, infer or render.
	Errors uint64 `json:"errors"`
}

// Snapshot is the read-only view of a session handed to observers.
type Snapshot struct {
	SessionID     string          `json:"sessionId,omitempty"`
	ActiveGesture gesture.Gesture `json:"activeGesture"`
	CameraActive  bool            `json:"cameraActive"`
	ErrorText     string          `json:"errorText,omitempty"`
	Flash         bool            `json:"flash"`
	Control       string          `json:"control,omitempty"`
	Stats         Stats           `json:"stats"`
	At            time.Time       `json:"at"`
}

// Observer receives a snapshot after every processed tick and on session
// start and stop. Observe runs on the frame loop and must not block.
type Observer interface {
	Observe(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

// Observe calls f(s).
func (f ObserverFunc) Observe(s Snapshot) {
	f(s)
}

// FrameSink receives annotated frames as JPEG bytes.
type FrameSink interface {
	PushFrame(jpeg []byte)
}
