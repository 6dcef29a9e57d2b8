// Package report reduces a completed interview session into a scored
// summary and persists it as JSON.
//
// Build is a pure function over per-response metrics; it knows nothing
// about capture, providers, or the orchestrator. The Writer owns the
// on-disk naming and layout of result files.
package report

import (
	"errors"
	"time"
)

// ErrNoResponses is returned by Build when the session recorded no
// responses. Callers decide whether that is fatal; a session stopped before
// the first answer is not an error condition.
var ErrNoResponses = errors.New("report: session has no responses")

// Composite weights for the overall score.
const (
	weightCommunication   = 0.30
	weightConfidence      = 0.25
	weightProfessionalism = 0.20
	weightTechnical       = 0.25
)

// Metadata identifies the session a report describes.
type Metadata struct {
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	Company    string    `json:"company_name"`
	Role       string    `json:"role"`
	Type       string    `json:"interview_type"`
	Difficulty string    `json:"difficulty"`
	StartedAt  time.Time `json:"start_time"`
	EndedAt    time.Time `json:"end_time"`
}

// ResponseMetrics carries the per-response averages the report aggregates.
// All score fields are in [0, 100]; Pace is words per minute.
type ResponseMetrics struct {
	EyeContact      float64
	VideoConfidence float64
	Professionalism float64
	Attention       float64
	Clarity         float64
	AudioConfidence float64
	Pace            float64
	FillerCount     int
	Quality         float64
	WordCount       int
}

// Averages holds the per-metric means across all responses.
type Averages struct {
	EyeContact      float64 `json:"eye_contact"`
	VideoConfidence float64 `json:"video_confidence"`
	Professionalism float64 `json:"professionalism"`
	Attention       float64 `json:"attention"`
	Clarity         float64 `json:"clarity"`
	AudioConfidence float64 `json:"audio_confidence"`
	Pace            float64 `json:"pace"`
	FillerCount     float64 `json:"filler_count"`
	Quality         float64 `json:"quality"`
}

// Scores are the weighted composites derived from the averages.
type Scores struct {
	Communication   float64 `json:"communication"`
	Confidence      float64 `json:"confidence"`
	Professionalism float64 `json:"professionalism"`
	Technical       float64 `json:"technical"`
	Overall         float64 `json:"overall"`
}

// Report is the persisted session summary.
type Report struct {
	Metadata     Metadata `json:"session_metadata"`
	Scores       Scores   `json:"overall_scores"`
	Averages     Averages `json:"detailed_metrics"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvement_areas"`

	QuestionsAsked int `json:"questions_asked"`
	ResponsesGiven int `json:"responses_given"`
}

// Build reduces responses into a Report. It is pure: no clock reads, no
// I/O. An empty responses slice returns ErrNoResponses.
func Build(meta Metadata, questionsAsked int, responses []ResponseMetrics) (Report, error) {
	if len(responses) == 0 {
		return Report{}, ErrNoResponses
	}

	avg := average(responses)
	scores := Scores{
		Communication:   (avg.EyeContact + avg.Clarity) / 2,
		Confidence:      (avg.VideoConfidence + avg.AudioConfidence) / 2,
		Professionalism: avg.Professionalism,
		Technical:       avg.Quality,
	}
	scores.Overall = clip(weightCommunication*scores.Communication +
		weightConfidence*scores.Confidence +
		weightProfessionalism*scores.Professionalism +
		weightTechnical*scores.Technical)

	return Report{
		Metadata:       meta,
		Scores:         scores,
		Averages:       avg,
		Strengths:      strengths(avg),
		Improvements:   improvements(avg),
		QuestionsAsked: questionsAsked,
		ResponsesGiven: len(responses),
	}, nil
}

func average(responses []ResponseMetrics) Averages {
	var a Averages
	for _, r := range responses {
		a.EyeContact += r.EyeContact
		a.VideoConfidence += r.VideoConfidence
		a.Professionalism += r.Professionalism
		a.Attention += r.Attention
		a.Clarity += r.Clarity
		a.AudioConfidence += r.AudioConfidence
		a.Pace += r.Pace
		a.FillerCount += float64(r.FillerCount)
		a.Quality += r.Quality
	}
	n := float64(len(responses))
	a.EyeContact /= n
	a.VideoConfidence /= n
	a.Professionalism /= n
	a.Attention /= n
	a.Clarity /= n
	a.AudioConfidence /= n
	a.Pace /= n
	a.FillerCount /= n
	a.Quality /= n
	return a
}

// strengths lists what the candidate did well, by fixed thresholds.
func strengths(a Averages) []string {
	var out []string
	if a.EyeContact >= 80 {
		out = append(out, "Excellent eye contact throughout the interview")
	}
	if a.VideoConfidence >= 80 {
		out = append(out, "Strong confident body language")
	}
	if a.Professionalism >= 85 {
		out = append(out, "Highly professional presentation")
	}
	if a.Clarity >= 80 {
		out = append(out, "Clear and articulate communication")
	}
	if a.FillerCount <= 2 {
		out = append(out, "Minimal use of filler words")
	}
	return out
}

// improvements lists focus areas, by fixed thresholds.
func improvements(a Averages) []string {
	var out []string
	if a.EyeContact < 70 {
		out = append(out, "Maintain more consistent eye contact with the camera")
	}
	if a.VideoConfidence < 65 {
		out = append(out, "Work on projecting more confidence in posture and delivery")
	}
	if a.Professionalism < 75 {
		out = append(out, "Improve overall professional presentation")
	}
	if a.Clarity < 70 {
		out = append(out, "Structure answers more clearly; slow down if needed")
	}
	if a.FillerCount > 5 {
		out = append(out, "Reduce filler words (um, uh, like) in responses")
	}
	return out
}

func clip(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
