package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandJoints
	script [][]HandJoints
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by every Detect call.
func (m *MockDetector) SetHands(hands []HandJoints) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
	m.script = nil
}

// SetScript makes successive Detect calls return the given frames in order.
// Once the script is exhausted, the last frame repeats.
func (m *MockDetector) SetScript(frames ...[]HandJoints) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = frames
	m.calls = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandJoints, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++

	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) > 0 {
		if idx >= len(m.script) {
			idx = len(m.script) - 1
		}
		return m.script[idx], nil
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// openPalmLayout holds an open right palm in top-left image coordinates.
var openPalmLayout = [NumJoints]Point{
	ThumbTip:  {X: 0.73, Y: 0.60},
	ThumbIP:   {X: 0.68, Y: 0.65},
	ThumbMP:   {X: 0.62, Y: 0.70},
	ThumbCMC:  {X: 0.55, Y: 0.75},
	IndexTip:  {X: 0.58, Y: 0.35},
	IndexDIP:  {X: 0.58, Y: 0.45},
	IndexPIP:  {X: 0.57, Y: 0.55},
	IndexMCP:  {X: 0.55, Y: 0.68},
	MiddleTip: {X: 0.50, Y: 0.28},
	MiddleDIP: {X: 0.50, Y: 0.40},
	MiddlePIP: {X: 0.50, Y: 0.52},
	MiddleMCP: {X: 0.50, Y: 0.66},
	RingTip:   {X: 0.42, Y: 0.35},
	RingDIP:   {X: 0.42, Y: 0.45},
	RingPIP:   {X: 0.43, Y: 0.55},
	RingMCP:   {X: 0.45, Y: 0.68},
	LittleTip: {X: 0.34, Y: 0.42},
	LittleDIP: {X: 0.35, Y: 0.50},
	LittlePIP: {X: 0.37, Y: 0.60},
	LittleMCP: {X: 0.40, Y: 0.70},
	Wrist:     {X: 0.50, Y: 0.80},
}

// SyntheticHand builds a hand with the named joints detected at the given
// confidence, laid out as an open palm. Locations use the detector's
// bottom-left origin.
func SyntheticHand(confidence float64, names ...JointName) HandJoints {
	hand := make(HandJoints, len(names))
	for _, n := range names {
		if !n.Valid() {
			continue
		}
		p := openPalmLayout[n]
		hand[n] = RawJoint{
			Location:   Point{X: p.X, Y: 1 - p.Y},
			Confidence: confidence,
		}
	}
	return hand
}

// OpenPalmJoints returns a fully detected open hand (all 21 joints).
func OpenPalmJoints() HandJoints {
	return SyntheticHand(0.95, CanonicalJoints()...)
}

// FistJoints returns a closed hand: curled fingers hide most joints, so only
// the wrist, thumb and a few knuckles survive.
func FistJoints() HandJoints {
	hand := SyntheticHand(0.95, Wrist, ThumbTip, ThumbIP, ThumbMP, IndexMCP, MiddleMCP)
	// Occluded joints are still reported, but with low confidence.
	for n, p := range SyntheticHand(0.3, IndexTip, MiddleTip, RingTip, LittleTip, RingMCP, LittleMCP) {
		hand[n] = p
	}
	return hand
}

// TwoFingersJoints returns a hand showing index and middle fingers with the
// thumb partly visible: 15 joints, 3 of them tips.
func TwoFingersJoints() HandJoints {
	return SyntheticHand(0.95,
		Wrist,
		ThumbTip, ThumbMP, ThumbCMC,
		IndexTip, IndexDIP, IndexPIP, IndexMCP,
		MiddleTip, MiddleDIP, MiddlePIP, MiddleMCP,
		RingPIP, RingMCP,
		LittleMCP,
	)
}
