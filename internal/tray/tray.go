// Package tray provides a system tray interface showing the live gesture and
// distance labels.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handput/internal/app"
	"github.com/ayusman/handput/internal/overlay"
)

// Tray represents the system tray application. It is an app.Consumer.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	labels     Labels
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuGesture  *systray.MenuItem
	menuDistance *systray.MenuItem
	menuJoints   *systray.MenuItem
	menuAlert    *systray.MenuItem
}

// Labels are the menu titles derived from the latest result or alert.
type Labels struct {
	Gesture  string
	Distance string
	Joints   string
	Alert    string
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
		labels: Labels{
			Gesture:  "Gesture: none",
			Distance: "Distance: none",
			Joints:   "0 JOINTS DETECTED",
		},
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside its menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Handput")
	systray.SetTooltip("Handput Hand Tracking")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand tracking")
	systray.AddSeparator()

	t.menuGesture = systray.AddMenuItem(t.labels.Gesture, "Current gesture")
	t.menuGesture.Disable()
	t.menuDistance = systray.AddMenuItem(t.labels.Distance, "Current hand distance")
	t.menuDistance.Disable()
	t.menuJoints = systray.AddMenuItem(t.labels.Joints, "Detected joints")
	t.menuJoints.Disable()
	t.menuAlert = systray.AddMenuItem("", "Last alert")
	t.menuAlert.Disable()
	t.menuAlert.Hide()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Handput")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
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

// OnResult implements app.Consumer.
func (t *Tray) OnResult(r app.Result) {
	m := overlay.Build(r.Snapshot, r.Gesture, r.Distance)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.labels.Gesture = "Gesture: " + m.Gesture
	t.labels.Distance = "Distance: " + m.Distance
	t.labels.Joints = m.JointsText

	if t.menuGesture != nil {
		t.menuGesture.SetTitle(t.labels.Gesture)
		t.menuDistance.SetTitle(t.labels.Distance)
		t.menuJoints.SetTitle(t.labels.Joints)
	}
}

// OnAlert implements app.Consumer.
func (t *Tray) OnAlert(a app.Alert) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.labels.Alert = fmt.Sprintf("⚠ %s", a.Message())
	if t.menuAlert != nil {
		t.menuAlert.SetTitle(t.labels.Alert)
		t.menuAlert.Show()
	}
}

// Labels returns the current menu titles.
func (t *Tray) Labels() Labels {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.labels
}

// SetEnabled syncs the toggle with state changed elsewhere, without calling
// the toggle callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
