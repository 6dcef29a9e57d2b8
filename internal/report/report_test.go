package report_test

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MdSameerBaba/orbmech-interview/internal/report"
)

func uniformResponse(v float64) report.ResponseMetrics {
	return report.ResponseMetrics{
		EyeContact:      v,
		VideoConfidence: v,
		Professionalism: v,
		Attention:       v,
		Clarity:         v,
		AudioConfidence: v,
		Pace:            120,
		FillerCount:     1,
		Quality:         v,
		WordCount:       40,
	}
}

func TestBuild_EmptyResponses(t *testing.T) {
	t.Parallel()
	_, err := report.Build(report.Metadata{SessionID: "s1"}, 5, nil)
	if !errors.Is(err, report.ErrNoResponses) {
		t.Fatalf("err = %v, want ErrNoResponses", err)
	}
}

func TestBuild_UniformEighty(t *testing.T) {
	t.Parallel()
	responses := []report.ResponseMetrics{uniformResponse(80), uniformResponse(80)}

	r, err := report.Build(report.Metadata{SessionID: "s1"}, 2, responses)
	if err != nil {
		t.Fatal(err)
	}

	// Every sub-average is 80, so every composite is 80 and the overall is
	// 0.3*80 + 0.25*80 + 0.2*80 + 0.25*80 = 80.
	for name, got := range map[string]float64{
		"communication":   r.Scores.Communication,
		"confidence":      r.Scores.Confidence,
		"professionalism": r.Scores.Professionalism,
		"technical":       r.Scores.Technical,
		"overall":         r.Scores.Overall,
	} {
		if math.Abs(got-80) > 1e-9 {
			t.Errorf("%s = %v, want 80", name, got)
		}
	}
	if r.ResponsesGiven != 2 || r.QuestionsAsked != 2 {
		t.Errorf("counts = %d/%d, want 2/2", r.ResponsesGiven, r.QuestionsAsked)
	}
}

func TestBuild_CompositeFormulas(t *testing.T) {
	t.Parallel()
	responses := []report.ResponseMetrics{
		{
			EyeContact: 90, Clarity: 70,
			VideoConfidence: 60, AudioConfidence: 80,
			Professionalism: 85, Quality: 75,
		},
	}

	r, err := report.Build(report.Metadata{}, 1, responses)
	if err != nil {
		t.Fatal(err)
	}

	if want := (90.0 + 70.0) / 2; r.Scores.Communication != want {
		t.Errorf("communication = %v, want %v", r.Scores.Communication, want)
	}
	if want := (60.0 + 80.0) / 2; r.Scores.Confidence != want {
		t.Errorf("confidence = %v, want %v", r.Scores.Confidence, want)
	}
	if r.Scores.Professionalism != 85 {
		t.Errorf("professionalism = %v, want 85", r.Scores.Professionalism)
	}
	if r.Scores.Technical != 75 {
		t.Errorf("technical = %v, want 75", r.Scores.Technical)
	}
	want := 0.3*80 + 0.25*70 + 0.2*85 + 0.25*75
	if math.Abs(r.Scores.Overall-want) > 1e-9 {
		t.Errorf("overall = %v, want %v", r.Scores.Overall, want)
	}
}

func TestBuild_StrengthsAndImprovements(t *testing.T) {
	t.Parallel()
	strong := []report.ResponseMetrics{{
		EyeContact: 90, VideoConfidence: 85, Professionalism: 90,
		Clarity: 85, AudioConfidence: 80, Quality: 85, FillerCount: 1,
	}}
	r, err := report.Build(report.Metadata{}, 1, strong)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Strengths) != 5 {
		t.Errorf("strengths = %v, want all five", r.Strengths)
	}
	if len(r.Improvements) != 0 {
		t.Errorf("improvements = %v, want none", r.Improvements)
	}

	weak := []report.ResponseMetrics{{
		EyeContact: 50, VideoConfidence: 50, Professionalism: 60,
		Clarity: 55, AudioConfidence: 60, Quality: 50, FillerCount: 9,
	}}
	r, err = report.Build(report.Metadata{}, 1, weak)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Improvements) != 5 {
		t.Errorf("improvements = %v, want all five", r.Improvements)
	}
	if len(r.Strengths) != 0 {
		t.Errorf("strengths = %v, want none", r.Strengths)
	}
}

func TestWriter_RoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	ended := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	r, err := report.Build(report.Metadata{
		SessionID: "abc123",
		UserID:    "u1",
		Company:   "Acme",
		Role:      "Backend Engineer",
		StartedAt: ended.Add(-20 * time.Minute),
		EndedAt:   ended,
	}, 8, []report.ResponseMetrics{uniformResponse(75)})
	if err != nil {
		t.Fatal(err)
	}

	path, err := report.NewWriter(filepath.Join(dir, "results")).Write(r)
	if err != nil {
		t.Fatal(err)
	}
	if want := "interview_results_abc123_20260314_150926.json"; filepath.Base(path) != want {
		t.Errorf("file name = %q, want %q", filepath.Base(path), want)
	}

	got, err := report.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata.Company != "Acme" || got.Scores.Overall != r.Scores.Overall {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Errorf("path = %q, want .json suffix", path)
	}
}
