package gesture

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/handput/internal/detector"
	"github.com/ayusman/handput/internal/joint"
)

// DistanceCondition holds when the total count is in range and the measured
// reference distance is strictly above Above and strictly below Below.
// A condition with a distance bound never holds when the distance is unknown.
type DistanceCondition struct {
	Total Range    `json:"total"`
	Above *float64 `json:"above,omitempty"`
	Below *float64 `json:"below,omitempty"`
}

func (c DistanceCondition) holds(total int, d float64, known bool) bool {
	if !c.Total.Contains(total) {
		return false
	}
	if c.Above == nil && c.Below == nil {
		return true
	}
	if !known {
		return false
	}
	if c.Above != nil && !(d > *c.Above) {
		return false
	}
	if c.Below != nil && !(d < *c.Below) {
		return false
	}
	return true
}

// DistanceRule assigns Label when any of its conditions hold.
type DistanceRule struct {
	Label DistanceLabel       `json:"label"`
	AnyOf []DistanceCondition `json:"any_of"`
}

func (r DistanceRule) matches(total int, d float64, known bool) bool {
	for _, c := range r.AnyOf {
		if c.holds(total, d, known) {
			return true
		}
	}
	return false
}

// DistancePolicy is the distance decision procedure: a minimum snapshot
// size, a reference-point fallback and an ordered rule table.
type DistancePolicy struct {
	MinPoints int            `json:"min_points"`
	Fallback  FallbackPolicy `json:"fallback"`
	Rules     []DistanceRule `json:"rules"`
}

// Validate checks labels and the fallback policy.
func (p DistancePolicy) Validate() error {
	if p.MinPoints < 0 {
		return errors.New("min_points must not be negative")
	}
	if !p.Fallback.Valid() {
		return fmt.Errorf("unknown fallback policy %q", p.Fallback)
	}
	for i, r := range p.Rules {
		if err := validateDistanceLabel(r.Label); err != nil {
			return fmt.Errorf("distance rule %d: %w", i, err)
		}
		if len(r.AnyOf) == 0 {
			return fmt.Errorf("distance rule %d: no conditions", i)
		}
	}
	return nil
}

// Classify labels a view-space snapshot. Snapshots smaller than MinPoints
// are always DistanceUndefined.
func (p DistancePolicy) Classify(s joint.Snapshot) DistanceLabel {
	if s.Len() < p.MinPoints {
		return DistanceUndefined
	}

	total := s.Len()
	a, b, known := ReferencePoints(s, p.Fallback)
	var d float64
	if known {
		d = Distance(a, b)
	}

	for _, r := range p.Rules {
		if r.matches(total, d, known) {
			return r.Label
		}
	}
	return DistanceUndefined
}

// ReferencePoints picks the pair whose separation is measured: the wrist and
// the index fingertip. Under FallbackListOrder a missing wrist is replaced by
// the first observation and a missing index tip by the second. Under
// FallbackStrict a missing joint leaves ok false.
func ReferencePoints(s joint.Snapshot, fb FallbackPolicy) (a, b detector.Point, ok bool) {
	wrist, hasWrist := s.Find(detector.WristFinger, detector.WristJoint)
	tip, hasTip := s.Find(detector.Index, detector.Tip)

	if fb == FallbackStrict {
		if !hasWrist || !hasTip {
			return detector.Point{}, detector.Point{}, false
		}
		return wrist.Location, tip.Location, true
	}

	if !hasWrist {
		if s.Len() < 1 {
			return detector.Point{}, detector.Point{}, false
		}
		wrist = s.Observations[0]
	}
	if !hasTip {
		if s.Len() < 2 {
			return detector.Point{}, detector.Point{}, false
		}
		tip = s.Observations[1]
	}
	return wrist.Location, tip.Location, true
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b detector.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DistanceThresholds are the tuned constants of the default distance table.
// Distances are in view pixels.
type DistanceThresholds struct {
	MinPoints            int     `json:"min_points"`
	IdealMinTotal        int     `json:"ideal_min_total"`
	NearAbove            float64 `json:"near_above"`
	NearSparseTotalBelow int     `json:"near_sparse_total_below"` // exclusive
	NearSparseBelow      float64 `json:"near_sparse_below"`
	FarBelow             float64 `json:"far_below"`
}

// DefaultDistanceThresholds returns the shipped distance constants.
func DefaultDistanceThresholds() DistanceThresholds {
	return DistanceThresholds{
		MinPoints:            3,
		IdealMinTotal:        20,
		NearAbove:            280,
		NearSparseTotalBelow: 17,
		NearSparseBelow:      200,
		FarBelow:             100,
	}
}

func floatPtr(v float64) *float64 { return &v }

// Policy expands the thresholds into the default distance procedure:
// a dense hand is ideal; a wide reference pair, or a sparse hand with a
// short pair, is near; a short pair is far; anything else is undefined.
func (t DistanceThresholds) Policy(fb FallbackPolicy) DistancePolicy {
	if fb == "" {
		fb = FallbackListOrder
	}
	return DistancePolicy{
		MinPoints: t.MinPoints,
		Fallback:  fb,
		Rules: []DistanceRule{
			{
				Label: Ideal,
				AnyOf: []DistanceCondition{{Total: AtLeast(t.IdealMinTotal)}},
			},
			{
				Label: Near,
				AnyOf: []DistanceCondition{
					{Above: floatPtr(t.NearAbove)},
					{Total: AtMost(t.NearSparseTotalBelow - 1), Below: floatPtr(t.NearSparseBelow)},
				},
			},
			{
				Label: Far,
				AnyOf: []DistanceCondition{{Below: floatPtr(t.FarBelow)}},
			},
		},
	}
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	return floatPtr(*f)
}

// Clone returns a deep copy of the rule.
func (r DistanceRule) Clone() DistanceRule {
	out := DistanceRule{Label: r.Label}
	if r.AnyOf != nil {
		out.AnyOf = make([]DistanceCondition, len(r.AnyOf))
		for i, c := range r.AnyOf {
			out.AnyOf[i] = DistanceCondition{Total: c.Total.Clone(), Above: cloneFloat(c.Above), Below: cloneFloat(c.Below)}
		}
	}
	return out
}

// CloneDistanceRules deep-copies a distance rule table.
func CloneDistanceRules(rules []DistanceRule) []DistanceRule {
	if rules == nil {
		return nil
	}
	out := make([]DistanceRule, len(rules))
	for i, r := range rules {
		out[i] = r.Clone()
	}
	return out
}
