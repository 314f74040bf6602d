package app

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/handput/internal/config"
	"github.com/ayusman/handput/internal/detector"
	"github.com/ayusman/handput/internal/gesture"
	"github.com/ayusman/handput/internal/joint"
)

// recorder is a Consumer that keeps everything it receives.
type recorder struct {
	mu      sync.Mutex
	results []Result
	alerts  []Alert

	resultCh chan Result
	alertCh  chan Alert
}

func newRecorder() *recorder {
	return &recorder{
		resultCh: make(chan Result, 256),
		alertCh:  make(chan Alert, 16),
	}
}

func (r *recorder) OnResult(res Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	r.resultCh <- res
}

func (r *recorder) OnAlert(a Alert) {
	r.mu.Lock()
	r.alerts = append(r.alerts, a)
	r.mu.Unlock()
	r.alertCh <- a
}

func (r *recorder) snapshot() ([]Result, []Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...), append([]Alert(nil), r.alerts...)
}

func newTestApp(t *testing.T, hands ...detector.HandJoints) (*App, *detector.MockDetector) {
	t.Helper()
	a := New(Config{Tuning: config.Default()})
	mock := detector.NewMockDetector()
	mock.SetHands(hands)
	a.SetDetector(mock)
	t.Cleanup(func() { a.Stop() })
	return a, mock
}

func TestApp_Classify(t *testing.T) {
	tests := []struct {
		name     string
		hand     detector.HandJoints
		joints   int
		gesture  gesture.Label
		distance gesture.DistanceLabel
	}{
		{name: "open palm", hand: detector.OpenPalmJoints(), joints: 21, gesture: gesture.Open, distance: gesture.Ideal},
		{name: "two fingers", hand: detector.TwoFingersJoints(), joints: 15, gesture: gesture.Two, distance: gesture.Near},
		{name: "fist", hand: detector.FistJoints(), joints: 6, gesture: gesture.Closed, distance: gesture.Near},
		{name: "nothing", hand: detector.HandJoints{}, joints: 0, gesture: gesture.Undefined, distance: gesture.DistanceUndefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApp(t)

			res, err := a.Classify([]detector.HandJoints{tt.hand})
			require.NoError(t, err)

			assert.Equal(t, joint.SpaceView, res.Snapshot.Space)
			assert.Equal(t, tt.joints, res.Snapshot.Len())
			assert.Equal(t, tt.gesture, res.Gesture)
			assert.Equal(t, tt.distance, res.Distance)
			assert.Equal(t, uint64(1), res.Seq)
		})
	}
}

func TestApp_ClassifyViewSpace(t *testing.T) {
	a, _ := newTestApp(t)

	res, err := a.Classify([]detector.HandJoints{detector.SyntheticHand(0.9, detector.Wrist)})
	require.NoError(t, err)
	require.Equal(t, 1, res.Snapshot.Len())

	// A 640x480 capture fills a 360x360 preview at scale 0.75, cropped
	// 60px on each side.
	wrist := res.Snapshot.Observations[0].Location
	assert.InDelta(t, 180.0, wrist.X, 1e-9)
	assert.InDelta(t, 288.0, wrist.Y, 1e-9)
}

func TestApp_Process(t *testing.T) {
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	t.Run("labels detected hands", func(t *testing.T) {
		a, mock := newTestApp(t, detector.OpenPalmJoints())

		res, err := a.Process(&frame)
		require.NoError(t, err)
		assert.Equal(t, gesture.Open, res.Gesture)
		assert.Equal(t, 1, mock.Calls())

		latest, ok := a.Latest()
		require.True(t, ok)
		assert.Equal(t, res.Seq, latest.Seq)
	})

	t.Run("sequence increases", func(t *testing.T) {
		a, _ := newTestApp(t, detector.FistJoints())

		first, err := a.Process(&frame)
		require.NoError(t, err)
		second, err := a.Process(&frame)
		require.NoError(t, err)
		assert.Greater(t, second.Seq, first.Seq)
	})

	t.Run("detector error is returned", func(t *testing.T) {
		a, mock := newTestApp(t)
		mock.SetError(detector.ErrDetection)

		_, err := a.Process(&frame)
		assert.ErrorIs(t, err, detector.ErrDetection)

		_, ok := a.Latest()
		assert.False(t, ok)
	})

	t.Run("no detector", func(t *testing.T) {
		a, _ := newTestApp(t)
		a.SetDetector(nil)

		_, err := a.Process(&frame)
		assert.ErrorIs(t, err, detector.ErrDetection)
	})
}

func TestApp_SetTuning(t *testing.T) {
	a, _ := newTestApp(t)

	t.Run("invalid tuning is rejected", func(t *testing.T) {
		bad := config.Default()
		bad.MaxHands = 0
		assert.Error(t, a.SetTuning(bad))
		assert.Equal(t, config.Default(), a.Tuning())
	})

	t.Run("threshold applies to the next frame", func(t *testing.T) {
		strict := config.Default()
		strict.ConfidenceThreshold = 0.95
		require.NoError(t, a.SetTuning(strict))

		// OpenPalmJoints reports 0.95, which is not above 0.95.
		res, err := a.Classify([]detector.HandJoints{detector.OpenPalmJoints()})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Snapshot.Len())
		assert.Equal(t, gesture.Undefined, res.Gesture)
	})

	t.Run("strict fallback", func(t *testing.T) {
		tuning := config.Default()
		tuning.Fallback = gesture.FallbackStrict
		require.NoError(t, a.SetTuning(tuning))

		res, err := a.Classify([]detector.HandJoints{detector.FistJoints()})
		require.NoError(t, err)
		assert.Equal(t, gesture.Closed, res.Gesture)
		assert.Equal(t, gesture.DistanceUndefined, res.Distance)
	})

	t.Run("layout follows tuning", func(t *testing.T) {
		tuning := config.Default()
		tuning.Layout = joint.Layout{ViewWidth: 100, ViewHeight: 100}
		require.NoError(t, a.SetTuning(tuning))

		res, err := a.Classify([]detector.HandJoints{detector.SyntheticHand(0.9, detector.Wrist)})
		require.NoError(t, err)
		assert.InDelta(t, 50.0, res.Snapshot.Observations[0].Location.X, 1e-9)
		assert.InDelta(t, 80.0, res.Snapshot.Observations[0].Location.Y, 1e-9)
	})
}

func TestApp_TuningIsIsolated(t *testing.T) {
	a, _ := newTestApp(t)

	tuning, err := config.Parse([]byte(`{"gesture_rules": [{"label": "closed", "total": {"min": 0}}]}`))
	require.NoError(t, err)
	require.NoError(t, a.SetTuning(tuning))

	// Neither the caller's copy nor a returned copy reaches the classifier.
	tuning.GestureRules[0].Label = gesture.Open
	*tuning.GestureRules[0].Total.Min = 100
	got := a.Tuning()
	got.GestureRules[0].Label = gesture.Two

	res, err := a.Classify(nil)
	require.NoError(t, err)
	assert.Equal(t, gesture.Closed, res.Gesture)
	assert.Equal(t, gesture.Closed, a.Tuning().GestureRules[0].Label)
}

func TestApp_CustomConverter(t *testing.T) {
	a := New(Config{Tuning: config.Default(), Converter: joint.IdentityConverter{}})
	a.SetDetector(detector.NewMockDetector())

	res, err := a.Classify([]detector.HandJoints{detector.SyntheticHand(0.9, detector.Wrist)})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Snapshot.Observations[0].Location.X, 1e-9)
	assert.InDelta(t, 0.8, res.Snapshot.Observations[0].Location.Y, 1e-9)
}

func TestApp_InvalidTuningFallsBack(t *testing.T) {
	bad := config.Default()
	bad.ConfidenceThreshold = 3

	a := New(Config{Tuning: bad})
	assert.Equal(t, config.Default(), a.Tuning())
}

func TestApp_Enabled(t *testing.T) {
	a, _ := newTestApp(t)
	assert.True(t, a.IsEnabled())
	a.SetEnabled(false)
	assert.False(t, a.IsEnabled())
	assert.Equal(t, StatusIdle, a.Status())
}

func TestDispatcher_LastFrameWins(t *testing.T) {
	entered := make(chan uint64, 8)
	release := make(chan struct{})
	var mu sync.Mutex
	var got []uint64

	d := newDispatcher(ConsumerFuncs{Result: func(r Result) {
		mu.Lock()
		got = append(got, r.Seq)
		mu.Unlock()
		entered <- r.Seq
		if r.Seq == 1 {
			<-release
		}
	}})
	go d.run()
	defer d.close()

	require.True(t, d.post(Result{Seq: 1}))
	require.Equal(t, uint64(1), <-entered)

	// The consumer is busy with 1; only the newest of these survives.
	for seq := uint64(2); seq <= 4; seq++ {
		require.True(t, d.post(Result{Seq: seq}))
	}
	close(release)

	select {
	case seq := <-entered:
		assert.Equal(t, uint64(4), seq)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{1, 4}, got)
}

func TestDispatcher_NeverDeliversOlder(t *testing.T) {
	rec := newRecorder()
	d := newDispatcher(rec)
	go d.run()
	defer d.close()

	d.post(Result{Seq: 5})
	require.Equal(t, uint64(5), (<-rec.resultCh).Seq)

	d.post(Result{Seq: 3})
	d.post(Result{Seq: 6})
	require.Equal(t, uint64(6), (<-rec.resultCh).Seq)

	results, _ := rec.snapshot()
	for i := 1; i < len(results); i++ {
		assert.Greater(t, results[i].Seq, results[i-1].Seq)
	}
}

func TestDispatcher_AlertHalts(t *testing.T) {
	rec := newRecorder()
	d := newDispatcher(rec)
	go d.run()

	d.post(Result{Seq: 1})
	<-rec.resultCh

	boom := errors.New("boom")
	d.raise(Alert{Kind: AlertDetectionFailure, Err: boom})
	d.raise(Alert{Kind: AlertPermissionUnavailable})

	alert := <-rec.alertCh
	assert.Equal(t, AlertDetectionFailure, alert.Kind)
	assert.ErrorIs(t, alert.Err, boom)

	assert.False(t, d.post(Result{Seq: 2}))
	d.close()

	results, alerts := rec.snapshot()
	assert.Len(t, results, 1)
	assert.Len(t, alerts, 1)
}

func TestDispatcher_AlertDropsPendingResult(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	alerted := make(chan struct{})
	var mu sync.Mutex
	var events []string

	d := newDispatcher(ConsumerFuncs{
		Result: func(r Result) {
			mu.Lock()
			events = append(events, fmt.Sprintf("result %d", r.Seq))
			mu.Unlock()
			if r.Seq == 1 {
				close(entered)
				<-release
			}
		},
		Alert: func(a Alert) {
			mu.Lock()
			events = append(events, "alert")
			mu.Unlock()
			close(alerted)
		},
	})
	go d.run()

	require.True(t, d.post(Result{Seq: 1}))
	<-entered

	// Result 2 is still waiting when the alert is raised; it must not
	// reach the consumer after the alert.
	require.True(t, d.post(Result{Seq: 2}))
	d.raise(Alert{Kind: AlertDetectionFailure})
	assert.False(t, d.post(Result{Seq: 3}))
	close(release)

	select {
	case <-alerted:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
	}
	d.close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"result 1", "alert"}, events)
}

func TestDispatcher_CloseDeliversPendingAlert(t *testing.T) {
	rec := newRecorder()
	d := newDispatcher(rec)
	go d.run()

	d.raise(Alert{Kind: AlertPermissionUnavailable})
	d.close()
	d.close()

	_, alerts := rec.snapshot()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertPermissionUnavailable, alerts[0].Kind)
}

func TestAlert_Message(t *testing.T) {
	assert.Equal(t, "Hand detection failed", Alert{Kind: AlertDetectionFailure}.Message())
	assert.Equal(t, "Camera is unavailable", Alert{Kind: AlertPermissionUnavailable}.Message())
	assert.Equal(t, "Unknown error", Alert{}.Message())
}

func TestConsumers_FanOut(t *testing.T) {
	a, b := newRecorder(), newRecorder()
	cs := Consumers{a, b, ConsumerFuncs{}}

	cs.OnResult(Result{Seq: 7})
	cs.OnAlert(Alert{Kind: AlertDetectionFailure})

	for _, rec := range []*recorder{a, b} {
		results, alerts := rec.snapshot()
		require.Len(t, results, 1)
		assert.Equal(t, uint64(7), results[0].Seq)
		require.Len(t, alerts, 1)
	}
}
