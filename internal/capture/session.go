package capture

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Frame is a captured image handed to the pipeline. The receiver owns the
// Mat and must call Close.
type Frame struct {
	Mat *gocv.Mat
	Seq uint64
	At  time.Time
}

// Close releases the frame's image.
func (f Frame) Close() {
	if f.Mat != nil {
		f.Mat.Close()
	}
}

// Session reads frames from a Camera at a fixed rate and hands them over
// through a channel holding at most one frame. A frame that arrives while
// the previous one has not been taken yet is discarded, so the consumer
// never works through a backlog.
type Session struct {
	id     string
	camera Camera
	fps    int
	frames chan Frame

	mu      sync.Mutex
	stopCh  chan struct{}
	done    chan struct{}
	started time.Time

	seq     atomic.Uint64
	dropped atomic.Uint64
}

// NewSession creates a session for camera. A non-positive fps uses DefaultFPS.
func NewSession(camera Camera, fps int) *Session {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Session{
		id:     uuid.New().String(),
		camera: camera,
		fps:    fps,
		frames: make(chan Frame, 1),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// FPS returns the capture rate.
func (s *Session) FPS() int { return s.fps }

// Frames returns the channel frames are delivered on.
func (s *Session) Frames() <-chan Frame { return s.frames }

// Dropped returns how many frames were discarded because the consumer was busy.
func (s *Session) Dropped() uint64 { return s.dropped.Load() }

// Captured returns how many frames were read from the camera.
func (s *Session) Captured() uint64 { return s.seq.Load() }

// Running reports whether the session is capturing.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCh != nil
}

// StartedAt returns when the session last started.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Start opens the camera and begins capturing. It returns an error wrapping
// ErrUnavailable when the device cannot be opened. Starting a running
// session is a no-op.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return nil
	}

	s.camera.SetFPS(s.fps)
	if err := s.camera.Open(); err != nil {
		return err
	}

	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.started = time.Now()
	go s.run(s.stopCh, s.done)

	log.Printf("Capture session %s started at %d fps", s.id, s.fps)
	return nil
}

// Stop halts capture, closes the camera and discards any frame still
// waiting in the channel. It is safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	stopCh, done := s.stopCh, s.done
	s.stopCh, s.done = nil, nil
	s.mu.Unlock()

	if stopCh == nil {
		return
	}

	close(stopCh)
	<-done

	if err := s.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	for {
		select {
		case f := <-s.frames:
			f.Close()
		default:
			log.Printf("Capture session %s stopped (%d captured, %d dropped)", s.id, s.Captured(), s.Dropped())
			return
		}
	}
}

func (s *Session) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			mat, err := s.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			f := Frame{Mat: mat, Seq: s.seq.Add(1), At: time.Now()}
			select {
			case s.frames <- f:
			default:
				f.Close()
				s.dropped.Add(1)
			}
		}
	}
}
