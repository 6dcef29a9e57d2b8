package vision

import (
	"context"
	"fmt"

	"github.com/MdSameerBaba/orbmech-interview/pkg/capture/video"
)

// Static returns the same baseline score for every frame. It serves as the
// analyzer of last resort when no camera or heuristic analyzer is wired up,
// so sessions keep producing frame scores instead of stalling.
type Static struct{}

var _ Analyzer = (*Static)(nil)

// NewStatic returns a static analyzer.
func NewStatic() *Static { return &Static{} }

// Analyze returns the baseline score. The error always wraps ErrUnavailable
// so callers can distinguish the baseline from a real measurement; the score
// is still valid and usable.
func (s *Static) Analyze(_ context.Context, frame video.Frame) (FrameScore, error) {
	score := FrameScore{
		Timestamp:  frame.Timestamp,
		EyeContact: 75,
		Confidence: 70,
		Posture:    80,
		Gesture:    75,
		Expression: "neutral",
	}
	score.derive()
	// Pin the blends to the documented baseline rather than the derived
	// values.
	score.Attention = 75
	score.Professionalism = 78
	return score, fmt.Errorf("vision: static analyzer: %w", ErrUnavailable)
}
