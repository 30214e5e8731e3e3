package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/gesturetube/internal/app"
	"github.com/ayusman/gesturetube/internal/gesture"
	"github.com/ayusman/gesturetube/internal/store"
	"github.com/gorilla/websocket"
)

// fakeSessions implements api.SessionController.
type fakeSessions struct {
	mu       sync.Mutex
	running  bool
	startErr error
	startCtx context.Context
}

func (f *fakeSessions) Start(ctx context.Context) (app.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return app.Snapshot{ErrorText: f.startErr.Error()}, f.startErr
	}
	if f.running {
		return app.Snapshot{CameraActive: true}, app.ErrAlreadyRunning
	}
	f.running = true
	f.startCtx = ctx
	return app.Snapshot{SessionID: "s1", CameraActive: true}, nil
}

func (f *fakeSessions) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return app.ErrNotRunning
	}
	f.running = false
	return nil
}

func (f *fakeSessions) Snapshot() app.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return app.Snapshot{SessionID: "s1", CameraActive: f.running}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := New(Config{Sessions: &fakeSessions{}})

	t.Run("returns 200 with JSON response", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/health", "")

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", contentType)
		}

		var response map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
		if response["running"] != false {
			t.Errorf("expected running false, got %v", response["running"])
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		methods := []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}

		for _, method := range methods {
			rec := do(t, s, method, "/api/health", "")
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	rec := do(t, s, http.MethodGet, "/api/nonexistent", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_StaticFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testContent := "<html><body>player</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/", "")
		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/nonexistent.html", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	rec := do(t, s, http.MethodGet, "/", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_Session(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := &fakeSessions{}
	s := New(Config{Sessions: sessions, BaseContext: base})

	rec := do(t, s, http.MethodPost, "/api/session/start", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var snap app.Snapshot
	json.NewDecoder(rec.Body).Decode(&snap)
	if !snap.CameraActive || snap.SessionID != "s1" {
		t.Errorf("start snapshot = %+v", snap)
	}
	if sessions.startCtx != base {
		t.Error("session should run under the server base context, not the request")
	}

	if rec := do(t, s, http.MethodPost, "/api/session/start", ""); rec.Code != http.StatusConflict {
		t.Errorf("second start status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = do(t, s, http.MethodGet, "/api/session", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"cameraActive":true`) {
		t.Errorf("GET session = %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, s, http.MethodPost, "/api/session/stop", ""); rec.Code != http.StatusOK {
		t.Errorf("stop status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := do(t, s, http.MethodPost, "/api/session/stop", ""); rec.Code != http.StatusConflict {
		t.Errorf("second stop status = %d, want %d", rec.Code, http.StatusConflict)
	}

	if rec := do(t, s, http.MethodGet, "/api/session/start", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET start status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if rec := do(t, s, http.MethodPost, "/api/session/pause", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown action status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestServer_SessionStartErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"device", &app.DeviceError{Op: "open camera", Err: errors.New("denied")}, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{Sessions: &fakeSessions{startErr: tt.err}})

			rec := do(t, s, http.MethodPost, "/api/session/start", "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}

			var body map[string]string
			json.NewDecoder(rec.Body).Decode(&body)
			if body["error"] != tt.err.Error() {
				t.Errorf("error = %q, want %q", body["error"], tt.err.Error())
			}
		})
	}
}

func TestServer_Settings(t *testing.T) {
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	s := New(Config{Store: st})

	rec := do(t, s, http.MethodPut, "/api/settings", `{"cooldown_ms": 300, "play_margin": 40}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]int
	json.NewDecoder(do(t, s, http.MethodGet, "/api/settings", "").Body).Decode(&got)
	if got[store.KeyCooldownMs] != 300 || got[store.KeyPlayMargin] != 40 || len(got) != 2 {
		t.Errorf("settings = %v", got)
	}

	bad := []struct {
		name string
		body string
	}{
		{"unknown key", `{"volume": 3}`},
		{"negative", `{"release_ms": -1}`},
		{"not a number", `{"cooldown_ms": "fast"}`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, http.MethodPut, "/api/settings", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}

	if rec := do(t, s, http.MethodDelete, "/api/settings/cooldown_ms", ""); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := do(t, s, http.MethodDelete, "/api/settings/cooldown_ms", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func dialEvents(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev map[string]any
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return ev
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", hub.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_Events(t *testing.T) {
	hub := NewHub()
	if err := hub.Broadcast(map[string]string{"event": "x"}); !errors.Is(err, ErrNoClients) {
		t.Errorf("Broadcast() with no clients error = %v, want ErrNoClients", err)
	}

	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	conn := dialEvents(t, ts)
	waitClients(t, hub, 1)

	hub.Observe(app.Snapshot{ActiveGesture: gesture.Play, CameraActive: true})
	ev := readEvent(t, conn)
	if ev["event"] != "state" {
		t.Fatalf("event = %v, want state", ev["event"])
	}
	snap := ev["snapshot"].(map[string]any)
	if snap["activeGesture"] != "play" || snap["cameraActive"] != true {
		t.Errorf("snapshot = %v", snap)
	}

	conn.Close()
	waitClients(t, hub, 0)
}

func TestServer_Video(t *testing.T) {
	hub := NewHub()
	s := New(Config{Hub: hub})
	ts := httptest.NewServer(s)
	defer ts.Close()

	if rec := do(t, s, http.MethodGet, "/api/video", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET before load status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	early := dialEvents(t, ts)
	waitClients(t, hub, 1)

	rec := do(t, s, http.MethodPost, "/api/video", `{"url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST status = %d: %s", rec.Code, rec.Body.String())
	}
	var v map[string]string
	json.NewDecoder(rec.Body).Decode(&v)
	if v["videoId"] != "dQw4w9WgXcQ" {
		t.Errorf("video = %v", v)
	}

	ev := readEvent(t, early)
	if ev["event"] != "load" || !strings.Contains(ev["embedUrl"].(string), "dQw4w9WgXcQ") {
		t.Errorf("load event = %v", ev)
	}

	// Late clients are greeted with the current video.
	late := dialEvents(t, ts)
	if ev := readEvent(t, late); ev["event"] != "load" {
		t.Errorf("greeting = %v, want load", ev)
	}

	if rec := do(t, s, http.MethodPost, "/api/video", `{"url": "https://example.com/clip"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("non-YouTube URL status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if rec := do(t, s, http.MethodPost, "/api/video", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing URL status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	if err := New(Config{}).LoadVideo("https://youtu.be/dQw4w9WgXcQ"); err == nil {
		t.Error("LoadVideo without a hub should fail")
	}
}

func TestStream_PushFrame(t *testing.T) {
	stream := NewStreamHandler()
	stream.PushFrame([]byte("ignored"))

	ts := httptest.NewServer(New(Config{Stream: stream}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/stream")
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %s", ct)
	}

	deadline := time.Now().Add(2 * time.Second)
	for stream.Viewers() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	stream.PushFrame(jpeg)

	buf := make([]byte, 256)
	var got []byte
	for !bytes.Contains(got, jpeg) {
		n, err := resp.Body.Read(buf)
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		got = append(got, buf[:n]...)
	}
	if !bytes.Contains(got, []byte("--frame")) || !bytes.Contains(got, []byte("Content-Length: 4")) {
		t.Errorf("stream part = %q", got)
	}
}

func TestServer_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- New(Config{}).Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
