// Package config loads the classification tuning and process settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ayusman/handput/internal/gesture"
	"github.com/ayusman/handput/internal/joint"
)

// maxTuningFileSize caps tuning files at 1MB.
const maxTuningFileSize = 1 * 1024 * 1024

// Tuning holds every adjustable constant of the pipeline. The same JSON
// shape is used for tuning files, stored profiles and the HTTP API.
type Tuning struct {
	// ConfidenceThreshold is the value a joint's confidence must strictly exceed.
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	MaxHands            int     `json:"max_hands"`

	Gesture gesture.GestureThresholds `json:"gesture"`
	// GestureRules replaces the table derived from Gesture when non-empty.
	GestureRules gesture.GesturePolicy `json:"gesture_rules,omitempty"`

	Distance gesture.DistanceThresholds `json:"distance"`
	// DistanceRules replaces the table derived from Distance when non-empty.
	DistanceRules []gesture.DistanceRule `json:"distance_rules,omitempty"`
	Fallback      gesture.FallbackPolicy `json:"fallback"`

	Layout joint.Layout `json:"layout"`
}

// Default returns the shipped tuning.
func Default() Tuning {
	return Tuning{
		ConfidenceThreshold: joint.DefaultThreshold,
		MaxHands:            joint.DefaultMaxHands,
		Gesture:             gesture.DefaultGestureThresholds(),
		Distance:            gesture.DefaultDistanceThresholds(),
		Fallback:            gesture.FallbackListOrder,
		Layout:              joint.DefaultLayout(),
	}
}

// Parse decodes a tuning document over the defaults, so fields omitted
// from data keep their default values, then validates the result.
func Parse(data []byte) (Tuning, error) {
	t := Default()
	if err := json.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("invalid tuning: %w", err)
	}
	return t, nil
}

// Load reads a tuning file. The file must have a .json extension and be
// under 1MB.
func Load(path string) (Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Tuning{}, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to stat tuning file: %w", err)
	}
	if info.Size() > maxTuningFileSize {
		return Tuning{}, fmt.Errorf("tuning file too large: %d bytes (max %d)", info.Size(), maxTuningFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to read tuning file: %w", err)
	}

	return Parse(data)
}

// Validate checks that the values are usable.
func (t Tuning) Validate() error {
	if t.ConfidenceThreshold < 0 || t.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0 and 1, got %f", t.ConfidenceThreshold)
	}
	if t.MaxHands < 1 || t.MaxHands > 2 {
		return fmt.Errorf("max_hands must be 1 or 2, got %d", t.MaxHands)
	}
	if !t.Fallback.Valid() {
		return fmt.Errorf("unknown fallback %q", t.Fallback)
	}
	if t.Layout.ViewWidth <= 0 || t.Layout.ViewHeight <= 0 {
		return errors.New("layout view size must be positive")
	}
	if t.Layout.ImageWidth < 0 || t.Layout.ImageHeight < 0 {
		return errors.New("layout image size must not be negative")
	}

	g := t.Gesture
	if g.TwoTotalMin > g.TwoTotalMax {
		return fmt.Errorf("gesture.two_total_min %d exceeds two_total_max %d", g.TwoTotalMin, g.TwoTotalMax)
	}
	if g.ClosedTotalMin > g.ClosedTotalMax {
		return fmt.Errorf("gesture.closed_total_min %d exceeds closed_total_max %d", g.ClosedTotalMin, g.ClosedTotalMax)
	}
	if t.Distance.MinPoints < 0 {
		return errors.New("distance.min_points must not be negative")
	}

	return t.Classifier().Validate()
}

// Classifier builds the rule tables described by the tuning.
func (t Tuning) Classifier() gesture.Classifier {
	gp := t.Gesture.Policy()
	if len(t.GestureRules) > 0 {
		gp = t.GestureRules.Clone()
	}

	dp := t.Distance.Policy(t.Fallback)
	if len(t.DistanceRules) > 0 {
		dp.Rules = gesture.CloneDistanceRules(t.DistanceRules)
	}

	return gesture.Classifier{GesturePolicy: gp, DistancePolicy: dp}
}

// Clone returns a deep copy. The rule tables of the copy share no memory
// with t.
func (t Tuning) Clone() Tuning {
	t.GestureRules = t.GestureRules.Clone()
	t.DistanceRules = gesture.CloneDistanceRules(t.DistanceRules)
	return t
}

// Patch applies a JSON merge patch to t and validates the result. Objects
// merge field by field; arrays and scalars replace, so a rule table in the
// patch replaces the whole table. A null removes the field. t itself is
// never modified.
func (t Tuning) Patch(patch []byte) (Tuning, error) {
	base, err := json.Marshal(t)
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to encode tuning: %w", err)
	}

	var doc, change any
	if err := json.Unmarshal(base, &doc); err != nil {
		return Tuning{}, fmt.Errorf("failed to decode tuning: %w", err)
	}
	if err := json.Unmarshal(patch, &change); err != nil {
		return Tuning{}, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}
	if _, ok := change.(map[string]any); !ok {
		return Tuning{}, errors.New("failed to parse tuning JSON: expected an object")
	}

	merged, err := json.Marshal(mergePatch(doc, change))
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to encode tuning: %w", err)
	}

	var out Tuning
	if err := json.Unmarshal(merged, &out); err != nil {
		return Tuning{}, fmt.Errorf("failed to parse tuning JSON: %w", err)
	}
	if err := out.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("invalid tuning: %w", err)
	}
	return out, nil
}

// mergePatch follows RFC 7386.
func mergePatch(doc, patch any) any {
	p, ok := patch.(map[string]any)
	if !ok {
		return patch
	}
	d, ok := doc.(map[string]any)
	if !ok {
		d = map[string]any{}
	}
	for k, v := range p {
		if v == nil {
			delete(d, k)
			continue
		}
		d[k] = mergePatch(d[k], v)
	}
	return d
}

// Ingester builds the joint filter described by the tuning.
func (t Tuning) Ingester() joint.Ingester {
	return joint.NewIngester(t.ConfidenceThreshold, t.MaxHands)
}

// Marshal encodes the tuning as indented JSON.
func (t Tuning) Marshal() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
