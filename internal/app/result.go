package app

import (
	"time"

	"github.com/ayusman/handput/internal/gesture"
	"github.com/ayusman/handput/internal/joint"
)

// Result is the outcome of one processed frame.
type Result struct {
	// Seq increases with every processed frame.
	Seq      uint64                `json:"seq"`
	Snapshot joint.Snapshot        `json:"snapshot"`
	Gesture  gesture.Label         `json:"gesture"`
	Distance gesture.DistanceLabel `json:"distance"`
	At       time.Time             `json:"at"`
}

// AlertKind identifies a condition that ends a capture session.
type AlertKind string

const (
	// AlertDetectionFailure means the pose detector returned an error.
	AlertDetectionFailure AlertKind = "detection_failure"
	// AlertPermissionUnavailable means the capture device could not be opened.
	AlertPermissionUnavailable AlertKind = "permission_unavailable"
)

// Alert is raised at most once per session.
type Alert struct {
	Kind AlertKind `json:"kind"`
	Err  error     `json:"-"`
	At   time.Time `json:"at"`
}

// Message returns the text shown to the user.
func (a Alert) Message() string {
	switch a.Kind {
	case AlertDetectionFailure:
		return "Hand detection failed"
	case AlertPermissionUnavailable:
		return "Camera is unavailable"
	default:
		return "Unknown error"
	}
}

// Consumer receives results and alerts. Calls are made from a single
// goroutine, one at a time.
type Consumer interface {
	OnResult(Result)
	OnAlert(Alert)
}

// ConsumerFuncs adapts plain functions to Consumer. Nil fields are skipped.
type ConsumerFuncs struct {
	Result func(Result)
	Alert  func(Alert)
}

// OnResult implements Consumer.
func (c ConsumerFuncs) OnResult(r Result) {
	if c.Result != nil {
		c.Result(r)
	}
}

// OnAlert implements Consumer.
func (c ConsumerFuncs) OnAlert(a Alert) {
	if c.Alert != nil {
		c.Alert(a)
	}
}

// Consumers fans results and alerts out to several consumers in order.
type Consumers []Consumer

// OnResult implements Consumer.
func (cs Consumers) OnResult(r Result) {
	for _, c := range cs {
		c.OnResult(r)
	}
}

// OnAlert implements Consumer.
func (cs Consumers) OnAlert(a Alert) {
	for _, c := range cs {
		c.OnAlert(a)
	}
}
