package gesture

import (
	"fmt"

	"github.com/ayusman/handput/internal/detector"
	"github.com/ayusman/handput/internal/joint"
)

// Range is an inclusive integer interval. A nil bound is unbounded.
type Range struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// Contains reports whether n lies within the range.
func (r Range) Contains(n int) bool {
	if r.Min != nil && n < *r.Min {
		return false
	}
	if r.Max != nil && n > *r.Max {
		return false
	}
	return true
}

func (r Range) String() string {
	lo, hi := "-inf", "+inf"
	if r.Min != nil {
		lo = fmt.Sprint(*r.Min)
	}
	if r.Max != nil {
		hi = fmt.Sprint(*r.Max)
	}
	return "[" + lo + "," + hi + "]"
}

func intPtr(v int) *int { return &v }

// AtLeast returns [n, +inf).
func AtLeast(n int) Range { return Range{Min: intPtr(n)} }

// AtMost returns (-inf, n].
func AtMost(n int) Range { return Range{Max: intPtr(n)} }

// Between returns [lo, hi].
func Between(lo, hi int) Range { return Range{Min: intPtr(lo), Max: intPtr(hi)} }

// Exactly returns [n, n].
func Exactly(n int) Range { return Between(n, n) }

// GestureRule assigns Label when the snapshot's total count and every listed
// per-type count fall within their ranges.
type GestureRule struct {
	Label  Label                        `json:"label"`
	Total  Range                        `json:"total"`
	Joints map[detector.JointType]Range `json:"joints,omitempty"`
}

// Matches reports whether the counts satisfy the rule.
func (r GestureRule) Matches(c joint.Counts) bool {
	if !r.Total.Contains(c.Total) {
		return false
	}
	for jt, rng := range r.Joints {
		if !rng.Contains(c.Of(jt)) {
			return false
		}
	}
	return true
}

// GesturePolicy is an ordered rule table. The first matching rule wins; when
// none match the label is Undefined.
type GesturePolicy []GestureRule

// Classify evaluates the table against the counts.
func (p GesturePolicy) Classify(c joint.Counts) Label {
	for _, r := range p {
		if r.Matches(c) {
			return r.Label
		}
	}
	return Undefined
}

// Validate checks every rule's label.
func (p GesturePolicy) Validate() error {
	for i, r := range p {
		if err := validateLabel(r.Label); err != nil {
			return fmt.Errorf("gesture rule %d: %w", i, err)
		}
	}
	return nil
}

// GestureThresholds are the tuned constants of the default gesture table.
type GestureThresholds struct {
	OpenMinTips    int `json:"open_min_tips"`
	OpenDips       int `json:"open_dips"`
	OpenPips       int `json:"open_pips"`
	OpenIps        int `json:"open_ips"`
	TwoTotalMin    int `json:"two_total_min"`
	TwoTotalMax    int `json:"two_total_max"`
	TwoTipMax      int `json:"two_tip_max"` // exclusive
	ClosedTotalMin int `json:"closed_total_min"`
	ClosedTotalMax int `json:"closed_total_max"`
}

// DefaultGestureThresholds returns the shipped gesture constants.
func DefaultGestureThresholds() GestureThresholds {
	return GestureThresholds{
		OpenMinTips:    5,
		OpenDips:       4,
		OpenPips:       4,
		OpenIps:        1,
		TwoTotalMin:    11,
		TwoTotalMax:    20,
		TwoTipMax:      5,
		ClosedTotalMin: 3,
		ClosedTotalMax: 9,
	}
}

// Policy expands the thresholds into the default rule table:
// open, then two, then closed. Counts that fit none stay Undefined,
// including a total of 10 and large totals with few tips.
func (t GestureThresholds) Policy() GesturePolicy {
	return GesturePolicy{
		{
			Label: Open,
			Joints: map[detector.JointType]Range{
				detector.Tip: AtLeast(t.OpenMinTips),
				detector.DIP: Exactly(t.OpenDips),
				detector.PIP: Exactly(t.OpenPips),
				detector.IP:  Exactly(t.OpenIps),
			},
		},
		{
			Label: Two,
			Total: Between(t.TwoTotalMin, t.TwoTotalMax),
			Joints: map[detector.JointType]Range{
				detector.Tip: Between(1, t.TwoTipMax-1),
			},
		},
		{
			Label: Closed,
			Total: Between(t.ClosedTotalMin, t.ClosedTotalMax),
		},
	}
}

// Clone returns a copy that shares no bounds with r.
func (r Range) Clone() Range {
	var out Range
	if r.Min != nil {
		out.Min = intPtr(*r.Min)
	}
	if r.Max != nil {
		out.Max = intPtr(*r.Max)
	}
	return out
}

// Clone returns a deep copy of the rule.
func (r GestureRule) Clone() GestureRule {
	out := GestureRule{Label: r.Label, Total: r.Total.Clone()}
	if r.Joints != nil {
		out.Joints = make(map[detector.JointType]Range, len(r.Joints))
		for jt, rng := range r.Joints {
			out.Joints[jt] = rng.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the table.
func (p GesturePolicy) Clone() GesturePolicy {
	if p == nil {
		return nil
	}
	out := make(GesturePolicy, len(p))
	for i, r := range p {
		out[i] = r.Clone()
	}
	return out
}
