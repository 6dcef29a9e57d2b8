package vision_test

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/MdSameerBaba/orbmech-interview/internal/vision"
	"github.com/MdSameerBaba/orbmech-interview/pkg/capture/video"
)

func checkRange(t *testing.T, score vision.FrameScore) {
	t.Helper()
	fields := map[string]float64{
		"eye_contact":     score.EyeContact,
		"confidence":      score.Confidence,
		"posture":         score.Posture,
		"gesture":         score.Gesture,
		"attention":       score.Attention,
		"professionalism": score.Professionalism,
	}
	for name, v := range fields {
		if v < 0 || v > 100 {
			t.Errorf("%s = %v, want [0, 100]", name, v)
		}
	}
}

func TestHeuristic_SyntheticFaceScoresInRange(t *testing.T) {
	t.Parallel()
	src := video.NewSyntheticSource(0, 0)
	if err := src.Open(); err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	h := vision.NewHeuristic()
	for i := 0; i < 5; i++ {
		frame, err := src.Read(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		score, err := h.Analyze(context.Background(), frame)
		if err != nil {
			t.Fatalf("frame %d: analyze: %v", i, err)
		}
		checkRange(t, score)
		if score.Expression == "" {
			t.Errorf("frame %d: empty expression", i)
		}
	}
}

func TestHeuristic_CenteredFaceBeatsOffsetFace(t *testing.T) {
	t.Parallel()
	h := vision.NewHeuristic()

	centered := video.NewSyntheticSource(0, 0)
	offset := video.NewSyntheticSource(0, 0)
	offset.FaceOffset = 100
	for _, src := range []*video.SyntheticSource{centered, offset} {
		if err := src.Open(); err != nil {
			t.Fatal(err)
		}
		defer src.Close()
	}

	cFrame, err := centered.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	oFrame, err := offset.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	cScore, err := h.Analyze(context.Background(), cFrame)
	if err != nil {
		t.Fatal(err)
	}
	oScore, err := h.Analyze(context.Background(), oFrame)
	if err != nil {
		t.Fatal(err)
	}
	if cScore.EyeContact <= oScore.EyeContact {
		t.Errorf("centered eye contact %v should exceed offset %v", cScore.EyeContact, oScore.EyeContact)
	}
}

func TestHeuristic_DegenerateFramesNeverFail(t *testing.T) {
	t.Parallel()
	h := vision.NewHeuristic()
	now := time.Now()

	frames := map[string]video.Frame{
		"nil image":   {Timestamp: now},
		"zero size":   {Image: image.NewGray(image.Rect(0, 0, 0, 0)), Timestamp: now},
		"single px":   {Image: image.NewGray(image.Rect(0, 0, 1, 1)), Timestamp: now},
		"uniform":     {Image: image.NewGray(image.Rect(0, 0, 64, 64)), Timestamp: now},
		"blank frame": mustReadBlank(t),
	}
	for name, frame := range frames {
		score, err := h.Analyze(context.Background(), frame)
		if err != nil {
			t.Errorf("%s: analyze: %v", name, err)
			continue
		}
		checkRange(t, score)
	}
}

func mustReadBlank(t *testing.T) video.Frame {
	t.Helper()
	src := video.NewSyntheticSource(0, 0)
	src.Blank = true
	if err := src.Open(); err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	frame, err := src.Read(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return frame
}

func TestStatic_ReturnsBaselineAndUnavailable(t *testing.T) {
	t.Parallel()
	s := vision.NewStatic()

	score, err := s.Analyze(context.Background(), video.Frame{Timestamp: time.Now()})
	if !errors.Is(err, vision.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	checkRange(t, score)
	if score.EyeContact != 75 || score.Confidence != 70 || score.Posture != 80 {
		t.Errorf("baseline = %+v, want 75/70/80", score)
	}
	if score.Attention != 75 || score.Professionalism != 78 {
		t.Errorf("blends = %v/%v, want 75/78", score.Attention, score.Professionalism)
	}
	if score.Expression != "neutral" {
		t.Errorf("expression = %q, want neutral", score.Expression)
	}
}
