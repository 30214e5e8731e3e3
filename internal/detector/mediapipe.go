package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const scriptName = "hand_landmarker.py"

// ErrScriptNotFound is returned when the landmark service script cannot be located.
var ErrScriptNotFound = errors.New(scriptName + " not found")

// ErrClosed is returned by Detect and Start after Close.
var ErrClosed = errors.New("detector closed")

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Frames are sent as a 4-byte big-endian length followed by JPEG bytes; the
// service answers with one JSON line of normalized landmarks per frame.
type MediaPipeDetector struct {
	config    Config
	python    string
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer

	// abortMu guards the fields Close needs while Detect holds mu.
	abortMu sync.Mutex
	proc    *os.Process
	pipe    io.Closer
	closed  bool
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := findScript()
	if script == "" {
		return nil, ErrScriptNotFound
	}

	python := findVenvPython()
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{
		config: config,
		python: python,
		script: script,
	}, nil
}

// Detect encodes the frame, sends it to the service and converts the reply to pixel space.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("detect: empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		d.shutdown()
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		d.shutdown()
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		d.shutdown()
		return nil, fmt.Errorf("read response: %w", err)
	}

	hands, err := parseResponse(line, frame.Cols(), frame.Rows(), d.config.MaxHands)
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()
	return hands, nil
}

// Start launches the landmark service now rather than on the first frame,
// so a missing interpreter or model is reported when the session starts.
func (d *MediaPipeDetector) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return err
	}
	d.resetIdleTimer()
	return nil
}

// Close kills the Python process. A Detect blocked on the service fails
// with a read error instead of holding Close until the service replies.
func (d *MediaPipeDetector) Close() error {
	d.abort()

	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.shutdown()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Killed above.
		return nil
	}
	return err
}

// abort marks the detector closed, kills the service and closes its stdout
// so a pending read returns even if a child process still holds the pipe.
func (d *MediaPipeDetector) abort() {
	d.abortMu.Lock()
	defer d.abortMu.Unlock()

	d.closed = true
	if d.proc != nil {
		d.proc.Kill()
	}
	if d.pipe != nil {
		d.pipe.Close()
	}
}

func (d *MediaPipeDetector) isClosed() bool {
	d.abortMu.Lock()
	defer d.abortMu.Unlock()
	return d.closed
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}
	if d.isClosed() {
		return ErrClosed
	}

	d.cmd = exec.Command(d.python, d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	d.abortMu.Lock()
	d.proc, d.pipe = d.cmd.Process, stdout
	closed := d.closed
	d.abortMu.Unlock()

	// Close ran between the check above and registering the process.
	if closed {
		d.abort()
		d.shutdown()
		return ErrClosed
	}

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()

	d.abortMu.Lock()
	d.proc, d.pipe = nil, nil
	d.abortMu.Unlock()

	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.config.IdleShutdownSec <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(time.Duration(d.config.IdleShutdownSec)*time.Second, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".gesturetube", "scripts", scriptName),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".gesturetube/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
// Coordinates are normalized to [0,1] of the frame size.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// parseResponse decodes one service reply. Hands with fewer than 21 points are
// dropped so callers never see a partial skeleton.
func parseResponse(line []byte, width, height, maxHands int) ([]HandLandmarks, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
		Error string     `json:"error"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("landmark service: %s", response.Error)
	}

	var result []HandLandmarks
	for _, h := range response.Hands {
		if maxHands > 0 && len(result) >= maxHands {
			break
		}
		if len(h.Points) < NumLandmarks {
			continue
		}

		lm := HandLandmarks{
			Handedness: h.Handedness,
			Score:      h.Score,
		}
		for i := 0; i < NumLandmarks; i++ {
			lm.Points[i] = Point3D{
				X: h.Points[i].X * float64(width),
				Y: h.Points[i].Y * float64(height),
				Z: h.Points[i].Z * float64(width),
			}
		}
		result = append(result, lm)
	}

	return result, nil
}
