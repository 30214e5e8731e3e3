// Package tray provides a system tray interface for gesturetube.
package tray

import (
	"sync"

	"github.com/ayusman/gesturetube/internal/app"
	"github.com/ayusman/gesturetube/internal/gesture"
	"github.com/getlantern/systray"
)

// Tray shows session state in the system tray and lets the user start and
// stop sessions. It implements app.Observer.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	mu       sync.RWMutex

	enabled  bool
	last     gesture.Gesture
	camera   bool
	errText  string
	session  string
	accepted uint64

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
	menuCamera      *systray.MenuItem
}

// New creates a new Tray with no session running.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback called with the requested session state.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback for the "Open Player" menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("GestureTube")
	systray.SetTooltip("Gesture-controlled video playback")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Start or stop the camera session")
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(gestureTitle(t.last), "Last accepted gesture")
	t.menuLastGesture.Disable()
	t.menuCamera = systray.AddMenuItem(cameraTitle(t.camera, t.errText), "Camera state")
	t.menuCamera.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Player...", "Open the player page in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit GestureTube")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle requests the opposite of the current session state. The menu
// follows the session through Observe, not the click.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	want := !t.enabled
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock; it publishes back through Observe.
	if callback != nil {
		callback(want)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Observe updates the menu from a session snapshot.
func (t *Tray) Observe(s app.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = s.CameraActive
	t.camera = s.CameraActive
	t.errText = s.ErrorText

	// Accepted counts per session and only the accepting frame increments it.
	if s.SessionID != t.session {
		t.session, t.accepted = s.SessionID, 0
	}
	if s.Stats.Accepted > t.accepted {
		t.accepted = s.Stats.Accepted
		if !s.ActiveGesture.IsNone() {
			t.last = s.ActiveGesture
		}
	}

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(t.enabled))
		t.menuLastGesture.SetTitle(gestureTitle(t.last))
		t.menuCamera.SetTitle(cameraTitle(t.camera, t.errText))
	}
}

// LastGesture returns the most recently accepted gesture.
func (t *Tray) LastGesture() gesture.Gesture {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// IsEnabled reports whether a session is running.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Running (click to stop)"
	}
	return "○ Stopped (click to start)"
}

func gestureTitle(g gesture.Gesture) string {
	if g.IsNone() {
		return "Last: none"
	}
	return "Last: " + g.Label()
}

func cameraTitle(active bool, errText string) string {
	switch {
	case errText != "":
		return "Camera: " + errText
	case active:
		return "Camera: on"
	default:
		return "Camera: off"
	}
}
