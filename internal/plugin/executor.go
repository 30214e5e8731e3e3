package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ayusman/gesturetube/internal/log"
)

// ErrTimeout is returned when a plugin does not answer within the executor timeout.
var ErrTimeout = errors.New("timeout")

// maxStderr caps how much plugin stderr is carried into an error.
const maxStderr = 256

// Executor runs one plugin action per call. Each call starts the plugin
// executable, writes the request to its stdin and reads a single JSON
// response from its stdout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates a new Executor with the specified timeout in milliseconds.
func NewExecutor(timeoutMs int) *Executor {
	return &Executor{
		timeout: time.Duration(timeoutMs) * time.Millisecond,
	}
}

// Execute runs a plugin with the given request and returns the response.
// The run is bounded by both ctx and the executor timeout. A response with
// Success false is returned without error; the caller decides what it means.
func (e *Executor) Execute(ctx context.Context, plugin *Plugin, req *Request) (*Response, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	cmd.Stdin = bytes.NewReader(reqJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("plugin %s: %w after %s", plugin.Manifest.Name, ErrTimeout, e.timeout)
	}
	if err != nil {
		if s := trimStderr(stderr.String()); s != "" {
			return nil, fmt.Errorf("plugin %s failed: %w: %s", plugin.Manifest.Name, err, s)
		}
		return nil, fmt.Errorf("plugin %s failed: %w", plugin.Manifest.Name, err)
	}

	// Only the first JSON value counts; anything printed after it is ignored.
	var response Response
	if err := json.NewDecoder(&stdout).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse plugin response: %w", err)
	}

	log.Debug("plugin executed", "plugin", plugin.Manifest.Name, "action", req.Action,
		"success", response.Success, "elapsed", elapsed)
	return &response, nil
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[:maxStderr] + "..."
	}
	return s
}
