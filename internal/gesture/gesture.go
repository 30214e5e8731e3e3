// Package gesture classifies hand landmarks into playback gestures and debounces them.
package gesture

// Gesture is a recognized hand pose. The zero value is None.
type Gesture string

const (
	// None means no gesture was recognized. It is never dispatched.
	None Gesture = ""
	// Play is the index finger held distinctly higher than every other finger.
	Play Gesture = "play"
	// Pause is an open palm raised above the wrist.
	Pause Gesture = "pause"
)

// IsNone reports whether g is the empty gesture.
func (g Gesture) IsNone() bool {
	return g == None
}

// Label returns the human-readable name shown to observers.
func (g Gesture) Label() string {
	switch g {
	case Play:
		return "Play"
	case Pause:
		return "Pause"
	default:
		return ""
	}
}

// Parse converts a stored or user-supplied name back to a Gesture.
func Parse(s string) (Gesture, bool) {
	switch s {
	case "play", "Play":
		return Play, true
	case "pause", "Pause":
		return Pause, true
	case "", "none", "None":
		return None, true
	default:
		return None, false
	}
}
