// Package vision scores candidate video frames for interview body-language
// metrics.
//
// The analyzers here are deliberately heuristic: no ML runtime is available
// in-process, so scores derive from grayscale statistics that approximate
// framing and engagement. The contract that matters to the session loop is
// that Analyze never fails on a decodable frame and every score stays in
// [0, 100]; when a measurement cannot be made the analyzer degrades to fixed
// baseline values rather than erroring.
package vision

import (
	"context"
	"errors"
	"time"

	"github.com/MdSameerBaba/orbmech-interview/pkg/capture/video"
)

// ErrUnavailable marks scores that are baseline constants rather than
// measurements. The static analyzer wraps it so callers can tell the two
// apart.
var ErrUnavailable = errors.New("vision: analyzer unavailable")

// FrameScore is one frame's worth of body-language metrics. All score
// fields are in [0, 100].
type FrameScore struct {
	Timestamp time.Time `json:"timestamp"`

	// EyeContact approximates how directly the candidate faces the camera.
	EyeContact float64 `json:"eye_contact"`

	// Confidence derives from image contrast and framing stability.
	Confidence float64 `json:"confidence"`

	// Posture scores vertical head placement in the frame.
	Posture float64 `json:"posture"`

	// Gesture scores visible movement energy.
	Gesture float64 `json:"gesture"`

	// Attention is a weighted blend of eye contact and confidence.
	Attention float64 `json:"attention"`

	// Professionalism is a weighted blend of posture and eye contact.
	Professionalism float64 `json:"professionalism"`

	// Expression is a coarse label ("neutral", "engaged").
	Expression string `json:"expression"`
}

// Analyzer scores a single frame.
//
// Implementations must be safe for concurrent use.
type Analyzer interface {
	// Analyze scores frame. Implementations degrade to baseline constants
	// instead of failing on poor input; a non-nil error wrapping
	// ErrUnavailable signals that the returned score is a baseline, not a
	// measurement.
	Analyze(ctx context.Context, frame video.Frame) (FrameScore, error)
}

// Baseline values when no face-like region is found in an otherwise valid
// frame.
const (
	noFaceEyeContact = 65
	noFaceConfidence = 70
	noFacePosture    = 75
	noFaceGesture    = 75
)

// derive fills Attention and Professionalism from the primary scores and
// clamps everything into range.
func (s *FrameScore) derive() {
	s.EyeContact = clamp(s.EyeContact, 0, 100)
	s.Confidence = clamp(s.Confidence, 0, 100)
	s.Posture = clamp(s.Posture, 0, 100)
	s.Gesture = clamp(s.Gesture, 0, 100)

	s.Attention = clamp(0.6*s.EyeContact+0.4*s.Confidence, 30, 95)
	s.Professionalism = clamp(0.4*s.Posture+0.6*s.EyeContact, 50, 95)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
