package joint

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handput/internal/detector"
)

func TestIngest_ConfidenceIsStrict(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		wantKept   bool
	}{
		{name: "below threshold", confidence: 0.5, wantKept: false},
		{name: "equal to threshold", confidence: 0.8, wantKept: false},
		{name: "just above threshold", confidence: 0.8 + 1e-9, wantKept: true},
		{name: "certain", confidence: 1.0, wantKept: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := detector.HandJoints{
				detector.IndexTip: {Location: detector.Point{X: 0.4, Y: 0.4}, Confidence: tt.confidence},
			}

			snap := Ingest([]detector.HandJoints{hand}, DefaultThreshold)

			if tt.wantKept {
				assert.Equal(t, 1, snap.Len())
			} else {
				assert.Equal(t, 0, snap.Len())
			}
		})
	}
}

func TestIngest_FlipsVertically(t *testing.T) {
	hand := detector.HandJoints{
		detector.Wrist: {Location: detector.Point{X: 0.25, Y: 0.3}, Confidence: 0.9},
	}

	snap := Ingest([]detector.HandJoints{hand}, DefaultThreshold)

	require.Equal(t, 1, snap.Len())
	got := snap.Observations[0]
	assert.Equal(t, 0.25, got.Location.X)
	assert.InDelta(t, 0.7, got.Location.Y, 1e-12)
	assert.Equal(t, detector.WristJoint, got.Joint)
	assert.Equal(t, detector.WristFinger, got.Finger)
	assert.Equal(t, SpaceNormalized, snap.Space)
}

func TestIngest_CanonicalOrder(t *testing.T) {
	hand := detector.SyntheticHand(0.9, detector.Wrist, detector.LittleMCP, detector.IndexTip, detector.ThumbCMC)

	snap := Ingest([]detector.HandJoints{hand}, DefaultThreshold)

	type tag struct {
		Finger detector.FingerType
		Joint  detector.JointType
	}
	var got []tag
	for _, o := range snap.Observations {
		got = append(got, tag{o.Finger, o.Joint})
	}

	want := []tag{
		{detector.Thumb, detector.CMC},
		{detector.Index, detector.Tip},
		{detector.Little, detector.MCP},
		{detector.WristFinger, detector.WristJoint},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("observation order mismatch (-want +got):\n%s", diff)
	}
}

func TestIngest_Hands(t *testing.T) {
	t.Run("no hands yields empty snapshot", func(t *testing.T) {
		snap := Ingest(nil, DefaultThreshold)
		assert.Equal(t, 0, snap.Len())
		assert.Equal(t, SpaceNormalized, snap.Space)
	})

	t.Run("two hands are concatenated", func(t *testing.T) {
		hands := []detector.HandJoints{detector.OpenPalmJoints(), detector.OpenPalmJoints()}
		snap := Ingest(hands, DefaultThreshold)
		assert.Equal(t, 2*detector.NumJoints, snap.Len())
	})

	t.Run("extra hands are ignored", func(t *testing.T) {
		hands := []detector.HandJoints{
			detector.OpenPalmJoints(), detector.OpenPalmJoints(), detector.OpenPalmJoints(),
		}
		snap := NewIngester(DefaultThreshold, 2).Ingest(hands)
		assert.Equal(t, 2*detector.NumJoints, snap.Len())
	})

	t.Run("occluded fist joints are dropped", func(t *testing.T) {
		snap := Ingest([]detector.HandJoints{detector.FistJoints()}, DefaultThreshold)
		assert.Equal(t, 6, snap.Len())
	})
}

func TestSnapshot_Count(t *testing.T) {
	snap := Ingest([]detector.HandJoints{detector.OpenPalmJoints()}, DefaultThreshold)

	c := snap.Count()

	assert.Equal(t, 21, c.Total)
	assert.Equal(t, 5, c.Of(detector.Tip))
	assert.Equal(t, 4, c.Of(detector.DIP))
	assert.Equal(t, 4, c.Of(detector.PIP))
	assert.Equal(t, 4, c.Of(detector.MCP))
	assert.Equal(t, 1, c.Of(detector.IP))
	assert.Equal(t, 1, c.Of(detector.MP))
	assert.Equal(t, 1, c.Of(detector.CMC))
	assert.Equal(t, 1, c.Of(detector.WristJoint))
	assert.Equal(t, 0, c.Of(detector.JointType(42)))
}

func TestSnapshot_Find(t *testing.T) {
	snap := Ingest([]detector.HandJoints{detector.TwoFingersJoints()}, DefaultThreshold)

	tip, ok := snap.Find(detector.Index, detector.Tip)
	require.True(t, ok)
	assert.True(t, tip.Is(detector.Index, detector.Tip))

	_, ok = snap.Find(detector.Little, detector.Tip)
	assert.False(t, ok)
}

func TestAspectFillConverter(t *testing.T) {
	c := NewAspectFillConverter(DefaultLayout())

	tests := []struct {
		name string
		in   detector.Point
		want detector.Point
	}{
		{name: "center stays centered", in: detector.Point{X: 0.5, Y: 0.5}, want: detector.Point{X: 180, Y: 180}},
		{name: "left edge is cropped", in: detector.Point{X: 0, Y: 0}, want: detector.Point{X: -60, Y: 0}},
		{name: "bottom right", in: detector.Point{X: 1, Y: 1}, want: detector.Point{X: 420, Y: 360}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ToViewSpace(tt.in)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
		})
	}

	t.Run("mirroring flips x", func(t *testing.T) {
		l := DefaultLayout()
		l.Mirrored = true
		c.SetLayout(l)

		got := c.ToViewSpace(detector.Point{X: 0.25, Y: 0.5})
		assert.InDelta(t, 300, got.X, 1e-9)
		assert.True(t, c.Layout().Mirrored)
	})

	t.Run("missing image size scales to the view", func(t *testing.T) {
		c := NewAspectFillConverter(Layout{ViewWidth: 200, ViewHeight: 100})
		got := c.ToViewSpace(detector.Point{X: 0.5, Y: 0.5})
		assert.Equal(t, detector.Point{X: 100, Y: 50}, got)
	})
}

func TestToView(t *testing.T) {
	snap := Ingest([]detector.HandJoints{detector.OpenPalmJoints()}, DefaultThreshold)
	scale := ConverterFunc(func(p detector.Point) detector.Point {
		return detector.Point{X: p.X * 100, Y: p.Y * 100}
	})

	view, err := ToView(snap, scale)
	require.NoError(t, err)

	assert.Equal(t, SpaceView, view.Space)
	require.Equal(t, snap.Len(), view.Len())
	assert.InDelta(t, snap.Observations[0].Location.X*100, view.Observations[0].Location.X, 1e-9)
	assert.Equal(t, snap.Observations[0].Joint, view.Observations[0].Joint)

	t.Run("input is untouched", func(t *testing.T) {
		assert.Equal(t, SpaceNormalized, snap.Space)
		assert.Less(t, snap.Observations[0].Location.X, 1.0)
	})

	t.Run("converting twice is a space mismatch", func(t *testing.T) {
		_, err := ToView(view, scale)
		assert.True(t, errors.Is(err, ErrSpaceMismatch))
	})

	t.Run("nil converter", func(t *testing.T) {
		_, err := ToView(snap, nil)
		assert.Error(t, err)
	})

	t.Run("identity converter", func(t *testing.T) {
		same, err := ToView(snap, IdentityConverter{})
		require.NoError(t, err)
		assert.Equal(t, snap.Observations, same.Observations)
	})
}

func TestSnapshot_JSON(t *testing.T) {
	snap := Snapshot{Space: SpaceView, Observations: []Observation{
		{Location: detector.Point{X: 12, Y: 34}, Joint: detector.Tip, Finger: detector.Index, Confidence: 0.9},
	}}

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"space":"view"`)
	assert.Contains(t, string(data), `"joint":"tip"`)

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(snap, back); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	var bad Space
	assert.Error(t, bad.UnmarshalText([]byte("screen")))
}
