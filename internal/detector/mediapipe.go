package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// idleShutdown is how long the Python service may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

// mediaPipeOrder maps MediaPipe hand landmark indices to canonical joints.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
var mediaPipeOrder = [NumJoints]JointName{
	Wrist,
	ThumbCMC, ThumbMP, ThumbIP, ThumbTip,
	IndexMCP, IndexPIP, IndexDIP, IndexTip,
	MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip,
	RingMCP, RingPIP, RingDIP, RingTip,
	LittleMCP, LittlePIP, LittleDIP, LittleTip,
}

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
type MediaPipeDetector struct {
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	if findMediaPipeScript() == "" {
		return nil, fmt.Errorf("mediapipe_service.py not found")
	}
	if config.MaxHands <= 0 {
		config.MaxHands = DefaultConfig().MaxHands
	}

	return &MediaPipeDetector{
		config: config,
	}, nil
}

// Detect sends the frame to the service and returns the detected joints.
// MediaPipe reports top-left origin coordinates; they are flipped to the
// bottom-left convention of RawJoint here.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandJoints, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return nil, nil
	}

	if err := d.ensureStarted(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetection, err)
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Write length (4 bytes big-endian) + data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("%w: write length: %v", ErrDetection, err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("%w: write data: %v", ErrDetection, err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrDetection, err)
	}

	hands, err := decodeResponse([]byte(line), d.config.MaxHands)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetection, err)
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return hands, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	scriptPath := findMediaPipeScript()
	if scriptPath == "" {
		return fmt.Errorf("mediapipe_service.py not found")
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, scriptPath, fmt.Sprintf("--max-hands=%d", d.config.MaxHands))

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(execDir, "scripts/mediapipe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".handput/scripts/mediapipe_service.py"),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".handput/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

// jsonPoint carries an optional per-landmark visibility. When the service
// does not report one, the hand score stands in as the joint confidence.
type jsonPoint struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Z          float64  `json:"z"`
	Visibility *float64 `json:"visibility,omitempty"`
}

func decodeResponse(line []byte, maxHands int) ([]HandJoints, error) {
	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	hands := response.Hands
	if maxHands > 0 && len(hands) > maxHands {
		hands = hands[:maxHands]
	}

	result := make([]HandJoints, len(hands))
	for i, h := range hands {
		result[i] = h.toHandJoints()
	}
	return result, nil
}

func (h jsonHand) toHandJoints() HandJoints {
	joints := make(HandJoints, NumJoints)

	for i := 0; i < NumJoints && i < len(h.Points); i++ {
		p := h.Points[i]
		conf := h.Score
		if p.Visibility != nil {
			conf = *p.Visibility
		}
		joints[mediaPipeOrder[i]] = RawJoint{
			Location:   Point{X: p.X, Y: 1 - p.Y},
			Confidence: conf,
		}
	}

	return joints
}
