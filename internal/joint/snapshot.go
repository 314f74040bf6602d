// Package joint turns raw per-hand detections into filtered frame snapshots
// and moves them between coordinate spaces.
package joint

import (
	"fmt"

	"github.com/ayusman/handput/internal/detector"
)

// Space names the coordinate space of a snapshot's locations.
type Space int

const (
	// SpaceNormalized is detector-normalized [0,1]x[0,1] with a top-left origin.
	SpaceNormalized Space = iota
	// SpaceView is view pixels after the device-to-view conversion.
	SpaceView
)

func (s Space) String() string {
	switch s {
	case SpaceNormalized:
		return "normalized"
	case SpaceView:
		return "view"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Space) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Space) UnmarshalText(b []byte) error {
	switch string(b) {
	case "normalized":
		*s = SpaceNormalized
	case "view":
		*s = SpaceView
	default:
		return fmt.Errorf("unknown coordinate space %q", b)
	}
	return nil
}

// Observation is one detected joint that survived confidence filtering.
type Observation struct {
	Location   detector.Point      `json:"location"`
	Joint      detector.JointType  `json:"joint"`
	Finger     detector.FingerType `json:"finger"`
	Confidence float64             `json:"confidence"`
}

// Is reports whether the observation is the given finger/joint pair.
func (o Observation) Is(finger detector.FingerType, joint detector.JointType) bool {
	return o.Finger == finger && o.Joint == joint
}

// Snapshot is the ordered set of observations for one camera frame. All
// locations share a single coordinate space.
type Snapshot struct {
	Space        Space         `json:"space"`
	Observations []Observation `json:"observations"`
}

// Len returns the number of observations.
func (s Snapshot) Len() int { return len(s.Observations) }

// Find returns the first observation matching finger and joint.
func (s Snapshot) Find(finger detector.FingerType, joint detector.JointType) (Observation, bool) {
	for _, o := range s.Observations {
		if o.Is(finger, joint) {
			return o, true
		}
	}
	return Observation{}, false
}

// Counts tallies a snapshot's observations by joint type.
type Counts struct {
	Total  int
	ByType [detector.NumJointTypes]int
}

// Of returns the count for a joint type.
func (c Counts) Of(jt detector.JointType) int {
	if jt < 0 || int(jt) >= len(c.ByType) {
		return 0
	}
	return c.ByType[jt]
}

// Count tallies the snapshot.
func (s Snapshot) Count() Counts {
	var c Counts
	for _, o := range s.Observations {
		c.Total++
		if o.Joint >= 0 && int(o.Joint) < len(c.ByType) {
			c.ByType[o.Joint]++
		}
	}
	return c
}
