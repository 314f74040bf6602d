package app

import (
	"fmt"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handput/internal/capture"
	"github.com/ayusman/handput/internal/detector"
	"github.com/ayusman/handput/internal/joint"
)

// now is replaced in tests.
var now = time.Now

// runPipeline processes frames one at a time until stopCh closes or the
// detector fails. A detection failure stops the session and raises a
// single alert; no further results are delivered.
func (a *App) runPipeline(session *capture.Session, disp *dispatcher, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stopCh:
			return
		case frame := <-session.Frames():
			if !a.IsEnabled() {
				frame.Close()
				continue
			}

			res, err := a.Process(frame.Mat)
			frame.Close()

			if err != nil {
				log.Printf("Error detecting hands, stopping session: %v", err)
				disp.raise(Alert{Kind: AlertDetectionFailure, Err: err, At: now()})
				a.status.Store(StatusFailed)
				session.Stop()
				return
			}

			disp.post(res)
		}
	}
}

// Process runs detection and classification on a single frame and returns
// the result. It does not deliver the result to the consumer.
func (a *App) Process(frame *gocv.Mat) (Result, error) {
	det := a.Detector()
	if det == nil {
		return Result{}, fmt.Errorf("%w: no detector configured", detector.ErrDetection)
	}

	hands, err := det.Detect(frame)
	if err != nil {
		return Result{}, fmt.Errorf("detect hands: %w", err)
	}

	return a.Classify(hands)
}

// Classify filters the detected hands and labels the resulting snapshot.
// The gesture is read from the joint counts; the distance is measured on
// the view-space snapshot.
func (a *App) Classify(hands []detector.HandJoints) (Result, error) {
	p := a.pipeline.Load()

	snap := p.ingester.Ingest(hands)
	view, err := joint.ToView(snap, a.converter)
	if err != nil {
		return Result{}, err
	}

	r := Result{
		Seq:      a.seq.Add(1),
		Snapshot: view,
		Gesture:  p.classifier.Gesture(view),
		Distance: p.classifier.Distance(view),
		At:       now(),
	}
	a.latest.Store(&r)
	return r, nil
}
