package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results and latency.
type MockDetector struct {
	mu       sync.Mutex
	hands    []HandLandmarks
	err      error
	gate     chan struct{}
	calls    int
	closed   bool
	startErr error
	started  bool
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.err = nil
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetStartError makes Start fail with err.
func (m *MockDetector) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// Start simulates acquiring the model.
func (m *MockDetector) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	return nil
}

// Started reports whether Start succeeded.
func (m *MockDetector) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Block makes every following Detect call wait until Release is called.
func (m *MockDetector) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gate = make(chan struct{})
}

// Release lets every blocked Detect call return.
func (m *MockDetector) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	m.calls++
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close marks the detector closed and unblocks pending calls.
func (m *MockDetector) Close() error {
	m.Release()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// PointUpLandmarks returns a right hand in a 640x480 frame with only the index finger raised.
func PointUpLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point3D{X: 320, Y: 400}

	// Thumb tucked across the palm
	lm.Points[ThumbCMC] = Point3D{X: 345, Y: 385}
	lm.Points[ThumbMCP] = Point3D{X: 360, Y: 365}
	lm.Points[ThumbIP] = Point3D{X: 350, Y: 345}
	lm.Points[ThumbTip] = Point3D{X: 335, Y: 330}

	// Index finger straight up
	lm.Points[IndexMCP] = Point3D{X: 340, Y: 320}
	lm.Points[IndexPIP] = Point3D{X: 342, Y: 260}
	lm.Points[IndexDIP] = Point3D{X: 343, Y: 200}
	lm.Points[IndexTip] = Point3D{X: 344, Y: 150}

	// Remaining fingers curled into the palm
	lm.Points[MiddleMCP] = Point3D{X: 320, Y: 318}
	lm.Points[MiddlePIP] = Point3D{X: 318, Y: 300}
	lm.Points[MiddleDIP] = Point3D{X: 316, Y: 325}
	lm.Points[MiddleTip] = Point3D{X: 315, Y: 340}

	lm.Points[RingMCP] = Point3D{X: 302, Y: 322}
	lm.Points[RingPIP] = Point3D{X: 300, Y: 306}
	lm.Points[RingDIP] = Point3D{X: 299, Y: 330}
	lm.Points[RingTip] = Point3D{X: 298, Y: 345}

	lm.Points[PinkyMCP] = Point3D{X: 286, Y: 330}
	lm.Points[PinkyPIP] = Point3D{X: 284, Y: 316}
	lm.Points[PinkyDIP] = Point3D{X: 283, Y: 336}
	lm.Points[PinkyTip] = Point3D{X: 282, Y: 350}

	return lm
}

// OpenPalmLandmarks returns a right hand in a 640x480 frame with every finger spread upward.
func OpenPalmLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	lm.Points[Wrist] = Point3D{X: 320, Y: 400}

	lm.Points[ThumbCMC] = Point3D{X: 350, Y: 385}
	lm.Points[ThumbMCP] = Point3D{X: 380, Y: 360}
	lm.Points[ThumbIP] = Point3D{X: 400, Y: 330}
	lm.Points[ThumbTip] = Point3D{X: 415, Y: 300}

	lm.Points[IndexMCP] = Point3D{X: 350, Y: 310}
	lm.Points[IndexPIP] = Point3D{X: 356, Y: 260}
	lm.Points[IndexDIP] = Point3D{X: 359, Y: 225}
	lm.Points[IndexTip] = Point3D{X: 361, Y: 200}

	// Middle finger is the longest, so its tip is the highest point
	lm.Points[MiddleMCP] = Point3D{X: 322, Y: 305}
	lm.Points[MiddlePIP] = Point3D{X: 322, Y: 250}
	lm.Points[MiddleDIP] = Point3D{X: 322, Y: 210}
	lm.Points[MiddleTip] = Point3D{X: 322, Y: 180}

	lm.Points[RingMCP] = Point3D{X: 296, Y: 310}
	lm.Points[RingPIP] = Point3D{X: 290, Y: 260}
	lm.Points[RingDIP] = Point3D{X: 287, Y: 225}
	lm.Points[RingTip] = Point3D{X: 285, Y: 200}

	lm.Points[PinkyMCP] = Point3D{X: 272, Y: 320}
	lm.Points[PinkyPIP] = Point3D{X: 262, Y: 280}
	lm.Points[PinkyDIP] = Point3D{X: 257, Y: 252}
	lm.Points[PinkyTip] = Point3D{X: 254, Y: 230}

	return lm
}

// FistLandmarks returns a closed fist: no fingertip is clearly raised.
func FistLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: "Right",
		Score:      0.9,
	}

	lm.Points[Wrist] = Point3D{X: 320, Y: 400}
	for f, chain := range Fingers {
		baseX := 350 - float64(f)*16
		for j, idx := range chain[1:] {
			lm.Points[idx] = Point3D{X: baseX, Y: 385 - float64(j)*5}
		}
	}

	// Tips curl back toward the wrist
	lm.Points[ThumbTip].Y = 360
	lm.Points[IndexTip].Y = 370
	lm.Points[MiddleTip].Y = 372
	lm.Points[RingTip].Y = 375
	lm.Points[PinkyTip].Y = 380

	return lm
}
