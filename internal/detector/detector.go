package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand landmark estimation.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks in pixel space.
	// Returns an empty slice if no hand is found.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Starter is implemented by detectors that can acquire their model eagerly.
type Starter interface {
	Start() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect. Only one hand is tracked.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// IdleShutdownSec stops the landmark process after this many idle seconds (0 disables).
	IdleShutdownSec int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		IdleShutdownSec: 30,
	}
}
