package gesture

import (
	"sort"

	"github.com/ayusman/gesturetube/internal/detector"
)

// Default classifier margins in pixels, chosen for a 640x480 webcam frame.
const (
	DefaultPlayMargin  = 30.0
	DefaultPauseMargin = 30.0
)

// Thresholds holds the pixel margins used by the classifier.
type Thresholds struct {
	// PlayMargin is how far the index fingertip must be above the runner-up fingertip.
	PlayMargin float64
	// PauseMargin is how far every fingertip must be above the wrist.
	PauseMargin float64
}

// DefaultThresholds returns the default margins.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PlayMargin:  DefaultPlayMargin,
		PauseMargin: DefaultPauseMargin,
	}
}

// Classify maps landmarks to a gesture using the default thresholds.
func Classify(points []detector.Point3D) Gesture {
	return DefaultThresholds().Classify(points)
}

// ClassifyHand classifies an optional hand. A nil hand is None.
func (t Thresholds) ClassifyHand(hand *detector.HandLandmarks) Gesture {
	if hand == nil {
		return None
	}
	return t.Classify(hand.Points[:])
}

// Classify maps a landmark set to a gesture. Fewer than 21 points yields None.
// Play is checked before Pause and wins if both hold.
func (t Thresholds) Classify(points []detector.Point3D) Gesture {
	if len(points) < detector.NumLandmarks {
		return None
	}

	var tips [len(detector.Fingertips)]float64
	for i, idx := range detector.Fingertips {
		tips[i] = points[idx].Y
	}

	sorted := tips
	sort.Float64s(sorted[:])
	minY, secondMinY := sorted[0], sorted[1]

	indexY := points[detector.IndexTip].Y
	if indexY == minY && secondMinY-minY > t.PlayMargin {
		return Play
	}

	wristY := points[detector.Wrist].Y
	for _, y := range tips {
		if !(y < wristY-t.PauseMargin) {
			return None
		}
	}
	return Pause
}
