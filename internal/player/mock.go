package player

import "sync"

// RecordingControl is a Control that records every command it receives.
type RecordingControl struct {
	mu       sync.Mutex
	commands []Command
	err      error
	sent     chan Command
}

// NewRecordingControl creates a RecordingControl. Each command is also
// published on Sent, which buffers up to 64 commands.
func NewRecordingControl() *RecordingControl {
	return &RecordingControl{sent: make(chan Command, 64)}
}

// SetError makes following calls fail with err after recording.
func (r *RecordingControl) SetError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Play records PlayVideo.
func (r *RecordingControl) Play() error {
	return r.record(PlayVideo)
}

// Pause records PauseVideo.
func (r *RecordingControl) Pause() error {
	return r.record(PauseVideo)
}

// Name returns "recording".
func (r *RecordingControl) Name() string {
	return "recording"
}

// Commands returns a copy of the recorded commands.
func (r *RecordingControl) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Sent delivers commands as they are recorded.
func (r *RecordingControl) Sent() <-chan Command {
	return r.sent
}

func (r *RecordingControl) record(c Command) error {
	r.mu.Lock()
	r.commands = append(r.commands, c)
	err := r.err
	r.mu.Unlock()

	select {
	case r.sent <- c:
	default:
	}
	return err
}
