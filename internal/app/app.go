// Package app runs the frame pipeline: capture, detection, joint filtering
// and classification, with results handed to a single consumer.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/ayusman/handput/internal/capture"
	"github.com/ayusman/handput/internal/config"
	"github.com/ayusman/handput/internal/detector"
	"github.com/ayusman/handput/internal/gesture"
	"github.com/ayusman/handput/internal/joint"
)

// ErrSessionFailed is returned by Start while a session that ended on a
// detection failure has not been stopped.
var ErrSessionFailed = errors.New("capture session failed; call Stop before restarting")

// Status describes the capture session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
)

// Config holds configuration options for the application.
type Config struct {
	Tuning   config.Tuning
	CameraID int
	FPS      int
	// Converter maps normalized points to view pixels. When nil an
	// aspect-fill converter following Tuning.Layout is used.
	Converter joint.ViewConverter
}

// compiled is the immutable form of a tuning used by the pipeline.
type compiled struct {
	tuning     config.Tuning
	ingester   joint.Ingester
	classifier gesture.Classifier
}

func compile(t config.Tuning) (*compiled, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t = t.Clone()
	return &compiled{
		tuning:     t,
		ingester:   t.Ingester(),
		classifier: t.Classifier(),
	}, nil
}

// App orchestrates the capture session and the classification pipeline.
type App struct {
	config    Config
	converter joint.ViewConverter
	layout    *joint.AspectFillConverter

	pipeline atomic.Pointer[compiled]
	latest   atomic.Pointer[Result]
	seq      atomic.Uint64
	enabled  atomic.Bool
	status   atomic.Value

	mu       sync.RWMutex
	camera   capture.Camera
	detector detector.Detector
	consumer Consumer
	session  *capture.Session
	disp     *dispatcher
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates an App. An invalid tuning is replaced by the defaults.
func New(cfg Config) *App {
	a := &App{
		config: cfg,
		camera: capture.NewCamera(cfg.CameraID),
	}

	p, err := compile(cfg.Tuning)
	if err != nil {
		log.Printf("Invalid tuning (%v), using defaults", err)
		p, _ = compile(config.Default())
	}
	a.pipeline.Store(p)

	if cfg.Converter != nil {
		a.converter = cfg.Converter
	} else {
		a.layout = joint.NewAspectFillConverter(p.tuning.Layout)
		a.converter = a.layout
	}

	a.enabled.Store(true)
	a.status.Store(StatusIdle)

	// Try MediaPipe first, fall back to mock detector
	dcfg := detector.DefaultConfig()
	dcfg.MaxHands = p.tuning.MaxHands
	if mp, err := detector.NewMediaPipeDetector(dcfg); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetEnabled enables or disables processing. Frames captured while
// disabled are discarded.
func (a *App) SetEnabled(enabled bool) {
	a.enabled.Store(enabled)
}

// IsEnabled returns whether frames are being processed.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// SetCamera replaces the camera. It takes effect on the next Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// SetConsumer registers the consumer of results and alerts. It takes
// effect on the next Start.
func (a *App) SetConsumer(c Consumer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.consumer = c
}

// SetTuning validates t and applies it from the next frame on.
func (a *App) SetTuning(t config.Tuning) error {
	p, err := compile(t)
	if err != nil {
		return fmt.Errorf("apply tuning: %w", err)
	}
	a.pipeline.Store(p)
	if a.layout != nil {
		a.layout.SetLayout(t.Layout)
	}
	log.Printf("Tuning applied (threshold %.2f, fallback %s)", t.ConfidenceThreshold, t.Fallback)
	return nil
}

// Tuning returns a copy of the tuning in effect.
func (a *App) Tuning() config.Tuning {
	return a.pipeline.Load().tuning.Clone()
}

// Latest returns the most recent result, if any frame was processed.
func (a *App) Latest() (Result, bool) {
	r := a.latest.Load()
	if r == nil {
		return Result{}, false
	}
	return *r, true
}

// Status returns the state of the capture session.
func (a *App) Status() Status {
	return a.status.Load().(Status)
}

// Session returns the current capture session, or nil when not running.
func (a *App) Session() *capture.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// Start opens the camera and begins processing frames. If the camera
// cannot be opened a permission alert is delivered to the consumer and the
// error is returned; the pipeline does not start. Starting is a no-op while
// running and fails with ErrSessionFailed after a detection failure until
// Stop is called.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		select {
		case <-a.done:
			return ErrSessionFailed
		default:
			// Already running
			return nil
		}
	}

	fps := a.config.FPS
	if fps <= 0 {
		fps = capture.DefaultFPS
	}

	disp := newDispatcher(a.consumer)
	go disp.run()

	session := capture.NewSession(a.camera, fps)
	if err := session.Start(); err != nil {
		if errors.Is(err, capture.ErrUnavailable) {
			disp.raise(Alert{Kind: AlertPermissionUnavailable, Err: err, At: now()})
		}
		disp.close()
		a.status.Store(StatusFailed)
		log.Printf("Failed to start capture: %v", err)
		return fmt.Errorf("start capture: %w", err)
	}

	a.session = session
	a.disp = disp
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	a.status.Store(StatusRunning)
	go a.runPipeline(session, disp, a.stopCh, a.done)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the pipeline and the capture session. No result is delivered
// after Stop returns.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done, session, disp := a.stopCh, a.done, a.session, a.disp
	a.stopCh, a.done, a.session, a.disp = nil, nil, nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}

	close(stopCh)
	<-done
	session.Stop()
	disp.close()

	if a.Status() == StatusRunning {
		a.status.Store(StatusIdle)
	}
	log.Println("Detection pipeline stopped")
}

// Close stops the pipeline and releases the detector.
func (a *App) Close() error {
	a.Stop()
	if d := a.Detector(); d != nil {
		return d.Close()
	}
	return nil
}
