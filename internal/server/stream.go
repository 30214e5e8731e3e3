package server

import (
	"fmt"
	"net/http"
	"sync"
)

// StreamHandler serves annotated session frames as MJPEG. It implements
// app.FrameSink; each viewer receives the latest frame and skips any it was
// too slow to take.
type StreamHandler struct {
	mu      sync.Mutex
	viewers map[chan []byte]struct{}
}

// NewStreamHandler creates a stream with no viewers.
func NewStreamHandler() *StreamHandler {
	return &StreamHandler{viewers: make(map[chan []byte]struct{})}
}

// PushFrame hands jpeg to every viewer.
func (h *StreamHandler) PushFrame(jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.viewers {
		select {
		case ch <- jpeg:
		default:
			// Replace the stale frame with the newest one.
			select {
			case <-ch:
			default:
			}
			ch <- jpeg
		}
	}
}

// Viewers returns the number of connected viewers.
func (h *StreamHandler) Viewers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

func (h *StreamHandler) subscribe() chan []byte {
	ch := make(chan []byte, 1)
	h.mu.Lock()
	h.viewers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *StreamHandler) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.viewers, ch)
	h.mu.Unlock()
}

// ServeHTTP streams MJPEG frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	frames := h.subscribe()
	defer h.unsubscribe(frames)

	for {
		select {
		case <-r.Context().Done():
			return
		case jpeg := <-frames:
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
			if _, err := w.Write(jpeg); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}
