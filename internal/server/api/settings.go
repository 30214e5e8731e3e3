package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/gesturetube/internal/store"
)

// SettingsHandler serves the tuning overrides stored in SQLite.
//
//	GET    /api/settings        all overrides
//	PUT    /api/settings        {"cooldown_ms": 250, ...}
//	DELETE /api/settings/{key}  drop one override
//
// Overrides take effect at the next session start.
type SettingsHandler struct {
	store *store.Store
}

// NewSettingsHandler creates a SettingsHandler with the given store.
func NewSettingsHandler(s *store.Store) *SettingsHandler {
	return &SettingsHandler{store: s}
}

// ServeHTTP routes settings requests.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/settings")
	key = strings.Trim(key, "/")

	if key == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPut:
			h.update(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.delete(w, key)
}

func (h *SettingsHandler) list(w http.ResponseWriter) {
	settings, err := h.store.Settings().All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read settings")
		return
	}

	out := make(map[string]int, len(settings))
	for k, v := range settings {
		if n, err := strconv.Atoi(v); err == nil && store.IsTuningKey(k) {
			out[k] = n
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req map[string]int
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: expected integer values")
		return
	}

	for k, v := range req {
		if !store.IsTuningKey(k) {
			writeError(w, http.StatusBadRequest, "unknown setting: "+k)
			return
		}
		if v < 0 {
			writeError(w, http.StatusBadRequest, k+" must not be negative")
			return
		}
	}

	settings := h.store.Settings()
	for k, v := range req {
		if err := settings.Set(k, strconv.Itoa(v)); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	h.list(w)
}

func (h *SettingsHandler) delete(w http.ResponseWriter, key string) {
	if err := h.store.Settings().Delete(key); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "setting not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete setting")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
