// Package detector provides the hand landmark source consumed by the frame loop.
package detector

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Fingertips lists the distal tip of each digit, thumb first.
var Fingertips = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Fingers lists each digit as a chain of landmark indices starting at the wrist.
var Fingers = [5][5]int{
	{Wrist, ThumbCMC, ThumbMCP, ThumbIP, ThumbTip},
	{Wrist, IndexMCP, IndexPIP, IndexDIP, IndexTip},
	{Wrist, MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
	{Wrist, RingMCP, RingPIP, RingDIP, RingTip},
	{Wrist, PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
}

// Point3D is one landmark in image-pixel space. Smaller Y is higher in the frame.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is a complete 21-point hand skeleton for one frame.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// IsFingertip reports whether index i is one of the five fingertips.
func IsFingertip(i int) bool {
	for _, tip := range Fingertips {
		if tip == i {
			return true
		}
	}
	return false
}

// First returns the first hand of a detection result, or nil when none was found.
func First(hands []HandLandmarks) *HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	return &hands[0]
}
