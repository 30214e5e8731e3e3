// Package player dispatches playback commands to the external video player.
package player

import "github.com/ayusman/gesturetube/internal/gesture"

// Command is a playback instruction. It carries no payload.
type Command int

const (
	// PlayVideo starts or resumes playback.
	PlayVideo Command = iota + 1
	// PauseVideo pauses playback.
	PauseVideo
)

// String returns the player API function name for the command.
func (c Command) String() string {
	switch c {
	case PlayVideo:
		return "playVideo"
	case PauseVideo:
		return "pauseVideo"
	default:
		return "unknown"
	}
}

// CommandFor maps a gesture to its command. None has no command.
func CommandFor(g gesture.Gesture) (Command, bool) {
	switch g {
	case gesture.Play:
		return PlayVideo, true
	case gesture.Pause:
		return PauseVideo, true
	default:
		return 0, false
	}
}
