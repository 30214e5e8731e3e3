package app

import "errors"

var (
	// ErrNotRunning is returned by Stop when no session is active.
	ErrNotRunning = errors.New("no active session")
	// ErrAlreadyRunning is returned by Start while a session is active.
	ErrAlreadyRunning = errors.New("session already running")
)

// DeviceError reports a failure to acquire the camera or the landmark model.
// It ends the session; a new Start is required.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// InferenceError reports a failed landmark estimation for one tick.
// The loop keeps running.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return "hand detection failed: " + e.Err.Error()
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
