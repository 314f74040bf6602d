// Package gesture classifies joint snapshots into gesture and camera-distance
// labels using ordered, data-driven rule tables.
package gesture

import "fmt"

// Label is a discrete hand pose.
type Label string

const (
	Open      Label = "open"
	Closed    Label = "closed"
	One       Label = "one"
	Two       Label = "two"
	Three     Label = "three"
	Undefined Label = "undefined"
)

var labelDisplay = map[Label]string{
	Open:      "Open",
	Closed:    "Closed",
	One:       "One Finger",
	Two:       "Two Fingers",
	Three:     "Three Fingers",
	Undefined: "Undefined",
}

// Valid reports whether l is a known gesture label.
func (l Label) Valid() bool {
	_, ok := labelDisplay[l]
	return ok
}

// Display returns the human-readable name shown in the UI.
func (l Label) Display() string {
	if s, ok := labelDisplay[l]; ok {
		return s
	}
	return labelDisplay[Undefined]
}

// DistanceLabel is a discrete hand-to-camera distance.
type DistanceLabel string

const (
	Near              DistanceLabel = "near"
	Ideal             DistanceLabel = "ideal"
	Far               DistanceLabel = "far"
	DistanceUndefined DistanceLabel = "undefined"
)

var distanceDisplay = map[DistanceLabel]string{
	Near:              "Near",
	Ideal:             "Ideal",
	Far:               "Far",
	DistanceUndefined: "Undefined",
}

// Valid reports whether l is a known distance label.
func (l DistanceLabel) Valid() bool {
	_, ok := distanceDisplay[l]
	return ok
}

// Display returns the human-readable name shown in the UI.
func (l DistanceLabel) Display() string {
	if s, ok := distanceDisplay[l]; ok {
		return s
	}
	return distanceDisplay[DistanceUndefined]
}

// FallbackPolicy chooses the distance reference points when the wrist or
// index fingertip is missing from a snapshot.
type FallbackPolicy string

const (
	// FallbackListOrder substitutes the snapshot's first and second
	// observations. Which joints those are depends on ingest order.
	FallbackListOrder FallbackPolicy = "list-order"
	// FallbackStrict leaves the distance unknown, so only rules that do not
	// look at distance can match.
	FallbackStrict FallbackPolicy = "strict"
)

// Valid reports whether p is a known fallback policy. The empty value is
// accepted and means FallbackListOrder.
func (p FallbackPolicy) Valid() bool {
	switch p {
	case "", FallbackListOrder, FallbackStrict:
		return true
	}
	return false
}

func validateLabel(l Label) error {
	if !l.Valid() {
		return fmt.Errorf("unknown gesture label %q", l)
	}
	return nil
}

func validateDistanceLabel(l DistanceLabel) error {
	if !l.Valid() {
		return fmt.Errorf("unknown distance label %q", l)
	}
	return nil
}
