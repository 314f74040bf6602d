package joint

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ayusman/handput/internal/detector"
)

// ErrSpaceMismatch is returned when a snapshot is converted from a space it is not in.
var ErrSpaceMismatch = errors.New("snapshot coordinate space mismatch")

// FlipY converts a point from a bottom-left origin to a top-left origin.
func FlipY(p detector.Point) detector.Point {
	return detector.Point{X: p.X, Y: 1 - p.Y}
}

// ViewConverter maps a normalized device-space point to view-space pixels.
// Implementations may depend on the current preview layout.
type ViewConverter interface {
	ToViewSpace(p detector.Point) detector.Point
}

// ConverterFunc adapts a function to ViewConverter.
type ConverterFunc func(detector.Point) detector.Point

// ToViewSpace calls f(p).
func (f ConverterFunc) ToViewSpace(p detector.Point) detector.Point { return f(p) }

// ToView converts every location of a normalized snapshot to view space.
// The input snapshot is not modified.
func ToView(s Snapshot, c ViewConverter) (Snapshot, error) {
	if s.Space != SpaceNormalized {
		return Snapshot{}, fmt.Errorf("%w: want %s, got %s", ErrSpaceMismatch, SpaceNormalized, s.Space)
	}
	if c == nil {
		return Snapshot{}, errors.New("nil view converter")
	}

	out := Snapshot{Space: SpaceView}
	if len(s.Observations) > 0 {
		out.Observations = make([]Observation, len(s.Observations))
	}
	for i, o := range s.Observations {
		o.Location = c.ToViewSpace(o.Location)
		out.Observations[i] = o
	}
	return out, nil
}

// Layout describes a preview: the view's pixel size and the size of the
// captured image shown in it.
type Layout struct {
	ViewWidth   float64 `json:"view_width"`
	ViewHeight  float64 `json:"view_height"`
	ImageWidth  float64 `json:"image_width"`
	ImageHeight float64 `json:"image_height"`
	// Mirrored flips the horizontal axis, as a front camera preview does.
	Mirrored bool `json:"mirrored"`
}

// DefaultLayout is a 360x360 preview of a 640x480 capture.
func DefaultLayout() Layout {
	return Layout{ViewWidth: 360, ViewHeight: 360, ImageWidth: 640, ImageHeight: 480}
}

// AspectFillConverter converts device points for a preview that scales the
// image to fill the view, cropping the overflow and keeping it centered.
type AspectFillConverter struct {
	mu     sync.RWMutex
	layout Layout
}

// NewAspectFillConverter creates a converter for the given layout.
func NewAspectFillConverter(l Layout) *AspectFillConverter {
	return &AspectFillConverter{layout: l}
}

// SetLayout updates the preview layout; later conversions use it.
func (c *AspectFillConverter) SetLayout(l Layout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layout = l
}

// Layout returns the current preview layout.
func (c *AspectFillConverter) Layout() Layout {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.layout
}

// ToViewSpace implements ViewConverter.
func (c *AspectFillConverter) ToViewSpace(p detector.Point) detector.Point {
	c.mu.RLock()
	l := c.layout
	c.mu.RUnlock()

	x := p.X
	if l.Mirrored {
		x = 1 - x
	}

	if l.ImageWidth <= 0 || l.ImageHeight <= 0 {
		return detector.Point{X: x * l.ViewWidth, Y: p.Y * l.ViewHeight}
	}

	scale := l.ViewWidth / l.ImageWidth
	if s := l.ViewHeight / l.ImageHeight; s > scale {
		scale = s
	}
	w := l.ImageWidth * scale
	h := l.ImageHeight * scale

	return detector.Point{
		X: x*w + (l.ViewWidth-w)/2,
		Y: p.Y*h + (l.ViewHeight-h)/2,
	}
}

// IdentityConverter leaves points unchanged. Useful when detections are
// already reported in view pixels.
type IdentityConverter struct{}

// ToViewSpace implements ViewConverter.
func (IdentityConverter) ToViewSpace(p detector.Point) detector.Point { return p }
