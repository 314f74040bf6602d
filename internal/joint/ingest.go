package joint

import (
	"github.com/ayusman/handput/internal/detector"
)

// Ingest defaults.
const (
	// DefaultThreshold is the confidence a joint must strictly exceed.
	DefaultThreshold = 0.8
	// DefaultMaxHands is the number of hands read from a detection.
	DefaultMaxHands = 2
)

// Ingester filters raw detections into normalized snapshots.
type Ingester struct {
	Threshold float64
	MaxHands  int
}

// NewIngester returns an Ingester with the given threshold and hand limit.
// A non-positive maxHands falls back to DefaultMaxHands.
func NewIngester(threshold float64, maxHands int) Ingester {
	if maxHands <= 0 {
		maxHands = DefaultMaxHands
	}
	return Ingester{Threshold: threshold, MaxHands: maxHands}
}

// Ingest walks each hand's canonical joints in order and keeps those whose
// confidence is strictly above the threshold. Kept locations are flipped from
// the detector's bottom-left origin to a top-left origin. Missing or
// low-confidence joints are dropped; an empty snapshot is a normal result.
func (in Ingester) Ingest(hands []detector.HandJoints) Snapshot {
	snap := Snapshot{Space: SpaceNormalized}

	maxHands := in.MaxHands
	if maxHands <= 0 {
		maxHands = DefaultMaxHands
	}
	if len(hands) > maxHands {
		hands = hands[:maxHands]
	}

	for _, hand := range hands {
		for name := detector.JointName(0); name < detector.NumJoints; name++ {
			raw, ok := hand[name]
			if !ok || !(raw.Confidence > in.Threshold) {
				continue
			}
			snap.Observations = append(snap.Observations, Observation{
				Location:   FlipY(raw.Location),
				Joint:      name.Joint(),
				Finger:     name.Finger(),
				Confidence: raw.Confidence,
			})
		}
	}

	return snap
}

// Ingest filters hands with the default hand limit.
func Ingest(hands []detector.HandJoints, threshold float64) Snapshot {
	return NewIngester(threshold, DefaultMaxHands).Ingest(hands)
}
