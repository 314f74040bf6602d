package detector

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrDetection is wrapped by detector implementations for failures that end
// the current session.
var ErrDetection = errors.New("hand detection failed")

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns per-hand joint detections.
	// Returns an empty slice if no hands are detected. An error is fatal
	// for the current session.
	Detect(frame *gocv.Mat) ([]HandJoints, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the detector's own hand-presence threshold (0.0-1.0).
	// Per-joint filtering happens later, during ingest.
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
