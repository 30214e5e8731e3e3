// Package main provides the media-control plugin. It plays and pauses the
// video in the browser: through JavaScript in the active tab via AppleScript
// on macOS, and through playerctl (MPRIS) on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

const defaultBrowser = "Google Chrome"

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the optional per-plugin configuration.
type Config struct {
	Browser string `json:"browser"`
}

// runner executes an external command and returns its combined output.
type runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

func main() {
	handle(os.Stdin, os.Stdout, runtime.GOOS, execRunner)
}

// handle reads one request from in and writes one response to out.
func handle(in io.Reader, out io.Writer, goos string, run runner) {
	var req Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		writeResponse(out, fmt.Errorf("failed to decode request: %v", err))
		return
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(out, fmt.Errorf("invalid config: %v", err))
			return
		}
	}
	if cfg.Browser == "" {
		cfg.Browser = defaultBrowser
	}

	if req.Action != "play" && req.Action != "pause" {
		writeResponse(out, fmt.Errorf("unknown action: %s", req.Action))
		return
	}

	name, args, err := command(goos, req.Action, cfg)
	if err != nil {
		writeResponse(out, err)
		return
	}

	if output, err := run(name, args...); err != nil {
		writeResponse(out, fmt.Errorf("action %s failed: %w: %s", req.Action, err, output))
		return
	}
	writeResponse(out, nil)
}

// command builds the OS command performing action.
func command(goos, action string, cfg Config) (string, []string, error) {
	switch goos {
	case "darwin":
		js := fmt.Sprintf("document.querySelector('video').%s()", action)
		script := fmt.Sprintf(`tell application %q to execute front window's active tab javascript %q`, cfg.Browser, js)
		return "osascript", []string{"-e", script}, nil
	case "linux":
		return "playerctl", []string{action}, nil
	default:
		return "", nil, fmt.Errorf("media control is not supported on %s", goos)
	}
}

func writeResponse(out io.Writer, err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(out).Encode(resp)
}
