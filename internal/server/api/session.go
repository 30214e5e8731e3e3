package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/gesturetube/internal/app"
	"github.com/ayusman/gesturetube/internal/player"
)

// SessionController starts and stops camera sessions. *app.App implements it.
type SessionController interface {
	Start(ctx context.Context) (app.Snapshot, error)
	Stop() error
	Snapshot() app.Snapshot
}

// SessionHandler serves /api/session, /api/session/start and /api/session/stop.
type SessionHandler struct {
	sessions SessionController
	// base outlives individual requests; sessions started over HTTP run under it.
	base context.Context
}

// NewSessionHandler creates a SessionHandler. Sessions it starts end when
// base is cancelled.
func NewSessionHandler(base context.Context, sessions SessionController) *SessionHandler {
	return &SessionHandler{sessions: sessions, base: base}
}

// ServeHTTP routes session requests.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/session")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.sessions.Snapshot())

	case "start":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.start(w)

	case "stop":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.stop(w)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *SessionHandler) start(w http.ResponseWriter) {
	snap, err := h.sessions.Start(h.base)

	var devErr *app.DeviceError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, snap)
	case errors.Is(err, app.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &devErr):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, player.ErrNoSurface):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *SessionHandler) stop(w http.ResponseWriter) {
	if err := h.sessions.Stop(); err != nil {
		if errors.Is(err, app.ErrNotRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.sessions.Snapshot())
}
