package gesture

import "time"

// Default debounce windows.
const (
	DefaultCooldown = 200 * time.Millisecond
	DefaultRelease  = 500 * time.Millisecond
)

// Outcome is the result of feeding one classification to the Debouncer.
type Outcome int

const (
	// Unchanged means nothing happened: no gesture within the release window, or already idle.
	Unchanged Outcome = iota
	// Accepted means the gesture became the held gesture and must be dispatched.
	Accepted
	// Suppressed means a gesture was seen but the cooldown had not elapsed.
	Suppressed
	// Released means the held gesture was absent for longer than the release window.
	Released
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Suppressed:
		return "suppressed"
	case Released:
		return "released"
	default:
		return "unchanged"
	}
}

// Timing holds the two debounce windows.
type Timing struct {
	// Cooldown is the minimum time between two accepted gestures.
	Cooldown time.Duration
	// Release is how long a gesture must be absent before the state returns to idle.
	Release time.Duration
}

// DefaultTiming returns the default windows.
func DefaultTiming() Timing {
	return Timing{
		Cooldown: DefaultCooldown,
		Release:  DefaultRelease,
	}
}

// State is the detection state owned by a Debouncer.
// Held is None while idle.
type State struct {
	Held       Gesture
	AcceptedAt time.Time
	SeenAt     time.Time
}

// Idle reports whether no gesture is currently held.
func (s State) Idle() bool {
	return s.Held.IsNone()
}

// Debouncer turns per-frame classifications into at most one acceptance per
// physical gesture. It is not safe for concurrent use; the frame loop owns it.
type Debouncer struct {
	timing Timing
	state  State
}

// NewDebouncer creates an idle Debouncer.
func NewDebouncer(timing Timing) *Debouncer {
	return &Debouncer{timing: timing}
}

// Step advances the state machine with the classification made at now.
func (d *Debouncer) Step(classified Gesture, now time.Time) Outcome {
	if classified.IsNone() {
		if d.state.Idle() {
			return Unchanged
		}
		if now.Sub(d.state.SeenAt) > d.timing.Release {
			d.state.Held = None
			return Released
		}
		return Unchanged
	}

	d.state.SeenAt = now
	if !d.cooledDown(now) {
		return Suppressed
	}

	d.state.Held = classified
	d.state.AcceptedAt = now
	return Accepted
}

func (d *Debouncer) cooledDown(now time.Time) bool {
	if d.state.AcceptedAt.IsZero() {
		return true
	}
	return now.Sub(d.state.AcceptedAt) > d.timing.Cooldown
}

// State returns a copy of the current detection state.
func (d *Debouncer) State() State {
	return d.state
}

// Timing returns the configured windows.
func (d *Debouncer) Timing() Timing {
	return d.timing
}
