package gesture

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handput/internal/detector"
	"github.com/ayusman/handput/internal/joint"
)

// withCounts builds a view-space snapshot holding the requested number of
// observations per joint type. Locations are irrelevant to gesture rules.
func withCounts(counts map[detector.JointType]int) joint.Snapshot {
	s := joint.Snapshot{Space: joint.SpaceView}
	for jt := detector.JointType(0); int(jt) < detector.NumJointTypes; jt++ {
		for i := 0; i < counts[jt]; i++ {
			s.Observations = append(s.Observations, joint.Observation{
				Location:   detector.Point{X: float64(10 * i), Y: float64(10 * int(jt))},
				Joint:      jt,
				Finger:     detector.Middle,
				Confidence: 0.9,
			})
		}
	}
	return s
}

func TestClassifyGesture_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		counts map[detector.JointType]int
		want   Label
	}{
		{
			name: "full hand is open",
			counts: map[detector.JointType]int{
				detector.Tip: 5, detector.DIP: 4, detector.PIP: 4, detector.IP: 1,
				detector.MCP: 4, detector.CMC: 1, detector.MP: 1, detector.WristJoint: 1,
			},
			want: Open,
		},
		{
			name:   "fifteen joints with three tips is two",
			counts: map[detector.JointType]int{detector.Tip: 3, detector.MCP: 4, detector.PIP: 4, detector.DIP: 3, detector.WristJoint: 1},
			want:   Two,
		},
		{
			name:   "six joints is closed",
			counts: map[detector.JointType]int{detector.MCP: 4, detector.CMC: 1, detector.WristJoint: 1},
			want:   Closed,
		},
		{
			name:   "ten joints falls in the coverage gap",
			counts: map[detector.JointType]int{detector.Tip: 2, detector.MCP: 4, detector.PIP: 3, detector.WristJoint: 1},
			want:   Undefined,
		},
		{
			name:   "many joints with few tips is undefined",
			counts: map[detector.JointType]int{detector.Tip: 3, detector.MCP: 8, detector.PIP: 8, detector.DIP: 3},
			want:   Undefined,
		},
		{
			name:   "open needs the thumb interphalangeal joint",
			counts: map[detector.JointType]int{detector.Tip: 5, detector.DIP: 4, detector.PIP: 4, detector.MCP: 4, detector.WristJoint: 1},
			want:   Undefined,
		},
		{
			name:   "two needs at least one tip",
			counts: map[detector.JointType]int{detector.MCP: 4, detector.PIP: 4, detector.DIP: 4},
			want:   Undefined,
		},
		{
			name:   "two joints is too few to be closed",
			counts: map[detector.JointType]int{detector.WristJoint: 1, detector.CMC: 1},
			want:   Undefined,
		},
		{
			name:   "empty snapshot is undefined",
			counts: nil,
			want:   Undefined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyGesture(withCounts(tt.counts)))
		})
	}
}

func TestClassifyGesture_Boundaries(t *testing.T) {
	for total := 0; total <= 25; total++ {
		s := withCounts(map[detector.JointType]int{detector.Tip: 1, detector.MCP: max(total-1, 0)})
		if total == 0 {
			s = withCounts(nil)
		}

		var want Label
		switch {
		case total >= 11 && total <= 20:
			want = Two
		case total >= 3 && total <= 9:
			want = Closed
		default:
			want = Undefined
		}

		assert.Equal(t, want, ClassifyGesture(s), "total=%d", total)
	}
}

func TestClassifyGesture_IsPure(t *testing.T) {
	s := withCounts(map[detector.JointType]int{detector.Tip: 3, detector.MCP: 12})
	first := ClassifyGesture(s)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, ClassifyGesture(s))
	}
	assert.Equal(t, 15, s.Len())
}

func TestClassifyGesture_FromDetections(t *testing.T) {
	tests := []struct {
		name string
		hand detector.HandJoints
		want Label
	}{
		{name: "open palm", hand: detector.OpenPalmJoints(), want: Open},
		{name: "fist", hand: detector.FistJoints(), want: Closed},
		{name: "two fingers", hand: detector.TwoFingersJoints(), want: Two},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := joint.Ingest([]detector.HandJoints{tt.hand}, joint.DefaultThreshold)
			assert.Equal(t, tt.want, ClassifyGesture(snap))
		})
	}
}

func TestGesturePolicy_Custom(t *testing.T) {
	// Rules are data: a table loaded from JSON can add labels the
	// defaults never produce.
	raw := `[
		{"label": "three", "total": {"min": 9, "max": 9}, "joints": {"pip": {"min": 3}}},
		{"label": "one", "total": {"max": 8}, "joints": {"tip": {"min": 1, "max": 1}}}
	]`

	var policy GesturePolicy
	require.NoError(t, json.Unmarshal([]byte(raw), &policy))
	require.NoError(t, policy.Validate())

	three := withCounts(map[detector.JointType]int{detector.Tip: 3, detector.PIP: 3, detector.MCP: 3})
	one := withCounts(map[detector.JointType]int{detector.Tip: 1, detector.MCP: 4})

	assert.Equal(t, Three, policy.Classify(three.Count()))
	assert.Equal(t, One, policy.Classify(one.Count()))
	assert.Equal(t, Undefined, policy.Classify(withCounts(nil).Count()))

	t.Run("unknown label is rejected", func(t *testing.T) {
		bad := GesturePolicy{{Label: "thumbs-up"}}
		assert.Error(t, bad.Validate())
	})
}

func TestGestureThresholds_Retune(t *testing.T) {
	th := DefaultGestureThresholds()
	th.ClosedTotalMax = 10

	s := withCounts(map[detector.JointType]int{detector.MCP: 10})

	assert.Equal(t, Undefined, ClassifyGesture(s))
	assert.Equal(t, Closed, th.Policy().Classify(s.Count()))
}

func TestRange(t *testing.T) {
	assert.True(t, Range{}.Contains(-5))
	assert.True(t, AtLeast(3).Contains(3))
	assert.False(t, AtLeast(3).Contains(2))
	assert.True(t, AtMost(3).Contains(3))
	assert.False(t, AtMost(3).Contains(4))
	assert.True(t, Between(1, 4).Contains(4))
	assert.False(t, Exactly(4).Contains(5))
	assert.Equal(t, "[1,+inf]", AtLeast(1).String())
}

func TestLabel_Display(t *testing.T) {
	assert.Equal(t, "Two Fingers", Two.Display())
	assert.Equal(t, "One Finger", One.Display())
	assert.Equal(t, "Undefined", Label("bogus").Display())
	assert.Equal(t, "Ideal", Ideal.Display())
	assert.False(t, DistanceLabel("close").Valid())
}
