package gesture

import (
	"github.com/ayusman/handput/internal/joint"
)

// Classifier bundles the gesture and distance procedures. It holds no
// per-frame state; a Classifier value may be shared across goroutines.
type Classifier struct {
	GesturePolicy  GesturePolicy
	DistancePolicy DistancePolicy
}

// NewClassifier returns a Classifier built from the default thresholds.
func NewClassifier() Classifier {
	return Classifier{
		GesturePolicy:  DefaultGestureThresholds().Policy(),
		DistancePolicy: DefaultDistanceThresholds().Policy(FallbackListOrder),
	}
}

// Validate checks both rule tables.
func (c Classifier) Validate() error {
	if err := c.GesturePolicy.Validate(); err != nil {
		return err
	}
	return c.DistancePolicy.Validate()
}

// Gesture labels the snapshot's pose from its joint counts.
func (c Classifier) Gesture(s joint.Snapshot) Label {
	return c.GesturePolicy.Classify(s.Count())
}

// Distance labels how far the hand is from the camera. The snapshot must
// be in view space; thresholds are in pixels.
func (c Classifier) Distance(s joint.Snapshot) DistanceLabel {
	return c.DistancePolicy.Classify(s)
}

var defaultClassifier = NewClassifier()

// ClassifyGesture labels a snapshot with the default gesture table.
func ClassifyGesture(s joint.Snapshot) Label {
	return defaultClassifier.Gesture(s)
}

// ClassifyDistance labels a view-space snapshot with the default distance table.
func ClassifyDistance(s joint.Snapshot) DistanceLabel {
	return defaultClassifier.Distance(s)
}
