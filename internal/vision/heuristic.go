package vision

import (
	"context"
	"image"
	"math"

	"github.com/MdSameerBaba/orbmech-interview/pkg/capture/video"
)

// Heuristic scores frames from grayscale statistics. A bright, roughly
// face-sized region near the frame centre stands in for a detected face;
// its placement and the image's contrast drive the scores.
//
// The zero value is ready to use and safe for concurrent use: Analyze keeps
// no state between frames.
type Heuristic struct{}

var _ Analyzer = (*Heuristic)(nil)

// NewHeuristic returns a heuristic analyzer.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Minimum fraction of the frame area a bright region must cover to count as
// a face.
const minFaceAreaFraction = 0.005

// Analyze scores frame. It never returns an error: frames with no usable
// image content degrade to baseline scores.
func (h *Heuristic) Analyze(_ context.Context, frame video.Frame) (FrameScore, error) {
	score := FrameScore{Timestamp: frame.Timestamp, Expression: "neutral"}

	stats, ok := measure(frame.Image)
	if !ok || stats.faceArea < minFaceAreaFraction {
		score.EyeContact = noFaceEyeContact
		score.Confidence = noFaceConfidence
		score.Posture = noFacePosture
		score.Gesture = noFaceGesture
		score.derive()
		return score, nil
	}

	// Horizontal centering of the face region maps to eye contact: dead
	// centre scores 100, the frame edge scores 40.
	score.EyeContact = 100 - 120*math.Abs(stats.faceCenterX-0.5)

	// A head sitting in the upper-middle band of the frame reads as upright
	// posture. The ideal vertical centre is at 40% of the frame height.
	score.Posture = 100 - 150*math.Abs(stats.faceCenterY-0.4)

	// Contrast stands in for confidence: a well-lit, sharp subject scores
	// higher than a washed-out or murky one.
	score.Confidence = 40 + stats.contrast*1.5

	// Edge activity stands in for gesturing.
	score.Gesture = 50 + stats.edgeActivity*2

	if stats.contrast > 35 && score.EyeContact > 75 {
		score.Expression = "engaged"
	}
	score.derive()
	return score, nil
}

// frameStats summarises a grayscale pass over one frame. Positions are
// fractions of the frame dimensions, contrast and edgeActivity are in gray
// levels.
type frameStats struct {
	faceCenterX  float64
	faceCenterY  float64
	faceArea     float64
	contrast     float64
	edgeActivity float64
}

// measure computes frameStats for img. ok is false when the image is nil or
// has no pixels.
func measure(img image.Image) (frameStats, bool) {
	if img == nil {
		return frameStats{}, false
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return frameStats{}, false
	}

	// Sample on a stride so large frames stay cheap.
	stride := w / 160
	if stride < 1 {
		stride = 1
	}

	var (
		sum, sumSq float64
		n          int
		prevRow    []float64
	)
	lumaRows := make([][]float64, 0, h/stride+1)
	var edgeSum float64
	var edgeN int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		row := make([]float64, 0, w/stride+1)
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			l := luma(img.At(x, y).RGBA())
			row = append(row, l)
			sum += l
			sumSq += l * l
			n++
		}
		if prevRow != nil {
			for i := 0; i < len(row) && i < len(prevRow); i++ {
				edgeSum += math.Abs(row[i] - prevRow[i])
				edgeN++
			}
		}
		prevRow = row
		lumaRows = append(lumaRows, row)
	}
	if n == 0 {
		return frameStats{}, false
	}

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	stats := frameStats{contrast: math.Sqrt(variance)}
	if edgeN > 0 {
		stats.edgeActivity = edgeSum / float64(edgeN)
	}

	// Bright pixels well above the mean form the face candidate region.
	threshold := mean + 0.8*stats.contrast
	var cx, cy float64
	var bright int
	for yi, row := range lumaRows {
		for xi, l := range row {
			if l > threshold {
				cx += float64(xi)
				cy += float64(yi)
				bright++
			}
		}
	}
	if bright == 0 || stats.contrast < 1 {
		return stats, true
	}

	cols := float64(len(lumaRows[0]))
	rows := float64(len(lumaRows))
	stats.faceCenterX = (cx / float64(bright)) / cols
	stats.faceCenterY = (cy / float64(bright)) / rows
	stats.faceArea = float64(bright) / float64(n)
	return stats, true
}

// luma converts premultiplied 16-bit RGBA into an 8-bit BT.601 gray level.
func luma(r, g, b, _ uint32) float64 {
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257
}
