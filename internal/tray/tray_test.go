package tray

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/handput/internal/app"
	"github.com/ayusman/handput/internal/detector"
	"github.com/ayusman/handput/internal/gesture"
	"github.com/ayusman/handput/internal/joint"
)

func TestNew(t *testing.T) {
	tr := New()

	assert.True(t, tr.IsEnabled())
	assert.Equal(t, Labels{
		Gesture:  "Gesture: none",
		Distance: "Distance: none",
		Joints:   "0 JOINTS DETECTED",
	}, tr.Labels())
}

func TestTray_OnResult(t *testing.T) {
	tr := New()

	tr.OnResult(app.Result{
		Snapshot: joint.Snapshot{Space: joint.SpaceView, Observations: []joint.Observation{
			{Joint: detector.WristJoint, Finger: detector.WristFinger, Confidence: 0.9},
			{Joint: detector.Tip, Finger: detector.Index, Confidence: 0.9},
			{Joint: detector.Tip, Finger: detector.Middle, Confidence: 0.9},
		}},
		Gesture:  gesture.Two,
		Distance: gesture.Near,
	})

	got := tr.Labels()
	assert.Equal(t, "Gesture: Two Fingers", got.Gesture)
	assert.Equal(t, "Distance: Near", got.Distance)
	assert.Equal(t, "2 JOINTS DETECTED", got.Joints)
	assert.Empty(t, got.Alert)
}

func TestTray_OnAlert(t *testing.T) {
	tr := New()

	tr.OnAlert(app.Alert{Kind: app.AlertPermissionUnavailable, Err: errors.New("denied")})

	assert.Equal(t, "⚠ Camera is unavailable", tr.Labels().Alert)
}

func TestTray_Toggle(t *testing.T) {
	tr := New()

	var calls []bool
	tr.OnToggle(func(enabled bool) { calls = append(calls, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	assert.Equal(t, []bool{false, true}, calls)
	assert.True(t, tr.IsEnabled())
}

func TestTray_SetEnabled(t *testing.T) {
	tr := New()

	called := false
	tr.OnToggle(func(bool) { called = true })

	tr.SetEnabled(false)

	assert.False(t, tr.IsEnabled())
	assert.False(t, called, "SetEnabled must not call the toggle callback")
}

func TestTray_Settings(t *testing.T) {
	tr := New()

	opened := false
	tr.OnSettings(func() { opened = true })
	tr.handleSettings()

	assert.True(t, opened)
}

func TestTray_IsConsumer(t *testing.T) {
	var _ app.Consumer = New()
}
