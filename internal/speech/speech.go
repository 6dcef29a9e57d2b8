// Package speech turns one recorded candidate utterance into a transcript
// and a set of delivery scores.
//
// The Sampler is the audio half of the analysis pipeline: it records a
// clip, transcribes it through the configured STT chain, repairs proper
// nouns with the session vocabulary, and scores clarity, pace, volume, and
// filler usage. Every stage degrades instead of failing: a dead microphone
// or STT outage yields a flagged fallback utterance, never an aborted
// question.
package speech

import "time"

// Fallback delivery scores used when recording or transcription fails.
const (
	fallbackClarity     = 75
	fallbackPace        = 120
	fallbackConfidence  = 75
	fallbackFillerCount = 2
	fallbackVolume      = 75
)

// Pace bounds in words per minute.
const (
	minPace     = 60
	maxPace     = 200
	defaultPace = 120
)

// Score is the delivery quality of one utterance. Clarity, Confidence, and
// Volume are in [0, 100]; Pace is words per minute.
type Score struct {
	Timestamp   time.Time `json:"timestamp"`
	Clarity     float64   `json:"clarity"`
	Pace        float64   `json:"pace"`
	Confidence  float64   `json:"confidence"`
	Volume      float64   `json:"volume"`
	FillerCount int       `json:"filler_count"`
	Tone        string    `json:"tone"`

	// ResponseTime is how long after the capture window opened the scored
	// speech was in hand.
	ResponseTime time.Duration `json:"response_time"`
}

// Utterance is one transcribed and scored candidate response.
type Utterance struct {
	// Transcript is the corrected transcript text. Empty when nothing was
	// recognised.
	Transcript string `json:"transcript"`

	// WordCount is the number of words in Transcript.
	WordCount int `json:"word_count"`

	// Duration is the recorded clip length.
	Duration time.Duration `json:"duration"`

	// Score holds the delivery metrics.
	Score Score `json:"score"`

	// RecordingPath is where the clip was archived, if archiving is on.
	RecordingPath string `json:"recording_path,omitempty"`

	// Fallback marks utterances whose scores are the fixed fallback vector
	// rather than measurements.
	Fallback bool `json:"fallback"`
}

// FallbackUtterance is the placeholder-scored utterance Capture returns
// when recording or transcription fails. Skipped questions reuse it.
func FallbackUtterance() Utterance {
	return Utterance{
		Score: Score{
			Timestamp:   time.Now(),
			Clarity:     fallbackClarity,
			Pace:        fallbackPace,
			Confidence:  fallbackConfidence,
			Volume:      fallbackVolume,
			FillerCount: fallbackFillerCount,
			Tone:        "professional",
		},
		Fallback: true,
	}
}

// clarityFromWordCount maps transcript length to a clarity score. Very
// short answers read as unclear, long fluent ones as clear.
func clarityFromWordCount(words int) float64 {
	switch {
	case words == 0:
		return 20
	case words < 5:
		return 60
	case words > 50:
		return 85
	default:
		return 70
	}
}

// paceFromTranscript converts word count and duration to words per minute,
// clamped to the plausible speaking range.
func paceFromTranscript(words int, duration time.Duration) float64 {
	if words == 0 || duration <= 0 {
		return defaultPace
	}
	wpm := float64(words) / duration.Minutes()
	if wpm < minPace {
		return minPace
	}
	if wpm > maxPace {
		return maxPace
	}
	return wpm
}

// volumeFromRMS maps clip energy to [0, 100]. Typical conversational speech
// lands in the middle of the range.
func volumeFromRMS(rms float64) float64 {
	v := rms / 50
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
