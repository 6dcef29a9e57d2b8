package video

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync/atomic"
	"time"
)

// Compile-time assertion that SyntheticSource satisfies FrameSource.
var _ FrameSource = (*SyntheticSource)(nil)

// SyntheticSource generates frames with a bright elliptical region on a dark
// background, approximating a lit face against a room. The region drifts
// horizontally over successive frames so analyzers see movement. Used by
// tests and by demo mode when no camera input is available.
type SyntheticSource struct {
	width  int
	height int
	frame  int
	closed atomic.Bool

	// FaceOffset shifts the bright region horizontally from centre, in
	// pixels. Tests use it to steer the analyzer's centering score.
	FaceOffset int

	// Blank suppresses the bright region entirely, producing a uniform dark
	// frame.
	Blank bool
}

// NewSyntheticSource creates a generator for width x height frames. Zero or
// negative dimensions default to 320x240.
func NewSyntheticSource(width, height int) *SyntheticSource {
	if width <= 0 {
		width = 320
	}
	if height <= 0 {
		height = 240
	}
	return &SyntheticSource{width: width, height: height}
}

// Open implements FrameSource.
func (s *SyntheticSource) Open() error {
	s.closed.Store(false)
	s.frame = 0
	return nil
}

// Read generates the next frame.
func (s *SyntheticSource) Read(ctx context.Context) (Frame, error) {
	if s.closed.Load() {
		return Frame{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, fmt.Errorf("video: read: %w", err)
	}

	img := image.NewGray(image.Rect(0, 0, s.width, s.height))

	// Dark background.
	for i := range img.Pix {
		img.Pix[i] = 30
	}

	if !s.Blank {
		// Bright ellipse roughly one third of frame height, drifting slightly
		// with the frame counter.
		cx := s.width/2 + s.FaceOffset + (s.frame%5 - 2)
		cy := s.height * 2 / 5
		rx := s.width / 6
		ry := s.height / 4

		for y := cy - ry; y <= cy+ry; y++ {
			for x := cx - rx; x <= cx+rx; x++ {
				if x < 0 || y < 0 || x >= s.width || y >= s.height {
					continue
				}
				dx := float64(x-cx) / float64(rx)
				dy := float64(y-cy) / float64(ry)
				if dx*dx+dy*dy <= 1.0 {
					img.SetGray(x, y, color.Gray{Y: 200})
				}
			}
		}
	}

	s.frame++
	return Frame{Image: img, Timestamp: time.Now()}, nil
}

// Close implements FrameSource. Safe to call while a Read is in flight.
func (s *SyntheticSource) Close() error {
	s.closed.Store(true)
	return nil
}
