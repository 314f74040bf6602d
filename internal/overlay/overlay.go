// Package overlay builds the drawing model for the camera preview: joint
// markers, finger skeleton paths and the status texts shown under it.
package overlay

import (
	"fmt"
	"strings"

	"github.com/ayusman/handput/internal/detector"
	"github.com/ayusman/handput/internal/gesture"
	"github.com/ayusman/handput/internal/joint"
)

// Marker sizes and opacities.
const (
	TipDiameter   = 10.0
	JointDiameter = 5.0
	TipOpacity    = 1.0
	JointOpacity  = 0.5
	PathWidth     = 2.0
	PathDash      = 5.0
)

// Marker is a filled circle drawn at a joint.
type Marker struct {
	Center   detector.Point      `json:"center"`
	Diameter float64             `json:"diameter"`
	Opacity  float64             `json:"opacity"`
	Color    string              `json:"color"`
	Joint    detector.JointType  `json:"joint"`
	Finger   detector.FingerType `json:"finger"`
}

// Path is a dashed polyline through one finger's joints.
type Path struct {
	Finger detector.FingerType `json:"finger"`
	Points []detector.Point    `json:"points"`
}

// Model is everything needed to draw one frame's overlay.
type Model struct {
	Markers       []Marker `json:"markers"`
	Paths         []Path   `json:"paths"`
	JointCount    int      `json:"joint_count"`
	WristDetected bool     `json:"wrist_detected"`

	Gesture  string `json:"gesture"`
	Distance string `json:"distance"`
	// Status lines, upper-cased as displayed.
	JointsText string `json:"joints_text"`
	WristText  string `json:"wrist_text"`
}

// JointColor returns the color used for a joint type.
func JointColor(jt detector.JointType) string {
	switch jt {
	case detector.Tip:
		return "blue"
	case detector.DIP, detector.IP:
		return "green"
	case detector.PIP, detector.MP:
		return "yellow"
	case detector.MCP, detector.CMC:
		return "orange"
	default:
		return "white"
	}
}

// Build lays out the overlay for a view-space snapshot. Each finger's path
// starts at the first wrist when one is present, otherwise at the finger's
// own first joint, then visits the finger's joints in reverse order.
func Build(s joint.Snapshot, g gesture.Label, d gesture.DistanceLabel) Model {
	m := Model{
		Gesture:  g.Display(),
		Distance: d.Display(),
	}

	wrist, hasWrist := s.Find(detector.WristFinger, detector.WristJoint)
	m.WristDetected = hasWrist

	if len(s.Observations) > 0 {
		m.Markers = make([]Marker, 0, len(s.Observations))
	}
	for _, o := range s.Observations {
		mk := Marker{
			Center:   o.Location,
			Diameter: JointDiameter,
			Opacity:  JointOpacity,
			Color:    JointColor(o.Joint),
			Joint:    o.Joint,
			Finger:   o.Finger,
		}
		if o.Joint == detector.Tip {
			mk.Diameter = TipDiameter
			mk.Opacity = TipOpacity
		}
		m.Markers = append(m.Markers, mk)

		if o.Joint != detector.WristJoint {
			m.JointCount++
		}
	}

	for _, f := range detector.Fingers {
		var pts []detector.Point
		for _, o := range s.Observations {
			if o.Finger == f {
				pts = append(pts, o.Location)
			}
		}
		if len(pts) == 0 {
			continue
		}

		start := pts[0]
		if hasWrist {
			start = wrist.Location
		}
		path := Path{Finger: f, Points: make([]detector.Point, 0, len(pts)+1)}
		path.Points = append(path.Points, start)
		for i := len(pts) - 1; i >= 0; i-- {
			path.Points = append(path.Points, pts[i])
		}
		m.Paths = append(m.Paths, path)
	}

	m.JointsText = strings.ToUpper(fmt.Sprintf("%d joints detected", m.JointCount))
	if hasWrist {
		m.WristText = "WRIST DETECTED"
	} else {
		m.WristText = "NO WRIST DETECTED"
	}

	return m
}
