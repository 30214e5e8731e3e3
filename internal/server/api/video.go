package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/ayusman/gesturetube/internal/player"
)

// VideoLoader switches the embedded player to a new video.
type VideoLoader interface {
	Load(embedURL string) error
}

type videoRequest struct {
	URL string `json:"url"`
}

// Video is the video loaded into the player page.
type Video struct {
	URL      string `json:"url"`
	VideoID  string `json:"videoId"`
	EmbedURL string `json:"embedUrl"`
}

// VideoHandler serves /api/video: GET the current video, POST a YouTube URL
// to load it into the embedded player.
type VideoHandler struct {
	loader VideoLoader

	mu      sync.RWMutex
	current *Video
}

// NewVideoHandler creates a VideoHandler publishing through loader.
func NewVideoHandler(loader VideoLoader) *VideoHandler {
	return &VideoHandler{loader: loader}
}

// Set loads rawURL as the current video.
func (h *VideoHandler) Set(rawURL string) (*Video, error) {
	id, err := player.VideoID(rawURL)
	if err != nil {
		return nil, err
	}
	embed, err := player.EmbedURL(rawURL)
	if err != nil {
		return nil, err
	}

	if err := h.loader.Load(embed); err != nil {
		return nil, err
	}

	v := &Video{URL: rawURL, VideoID: id, EmbedURL: embed}
	h.mu.Lock()
	h.current = v
	h.mu.Unlock()
	return v, nil
}

// ServeHTTP handles GET and POST.
func (h *VideoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.mu.RLock()
		v := h.current
		h.mu.RUnlock()
		if v == nil {
			writeError(w, http.StatusNotFound, "no video loaded")
			return
		}
		writeJSON(w, http.StatusOK, v)

	case http.MethodPost:
		var req videoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.URL == "" {
			writeError(w, http.StatusBadRequest, "url is required")
			return
		}

		v, err := h.Set(req.URL)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, v)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
