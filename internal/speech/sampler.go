package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MdSameerBaba/orbmech-interview/internal/observe"
	"github.com/MdSameerBaba/orbmech-interview/internal/transcript"
	"github.com/MdSameerBaba/orbmech-interview/pkg/capture/audio"
	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/stt"
)

// Sampler records, transcribes, and scores one utterance per Capture call.
type Sampler struct {
	recorder  audio.Recorder
	stt       stt.Provider
	corrector *transcript.Corrector
	metrics   *observe.Metrics

	recordingsDir string
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithCorrector sets the proper-noun corrector applied to transcripts.
func WithCorrector(c *transcript.Corrector) SamplerOption {
	return func(s *Sampler) { s.corrector = c }
}

// WithRecordingsDir archives every captured clip as a WAV file under dir.
func WithRecordingsDir(dir string) SamplerOption {
	return func(s *Sampler) { s.recordingsDir = dir }
}

// WithMetrics sets the metrics sink. Default: observe.DefaultMetrics().
func WithMetrics(m *observe.Metrics) SamplerOption {
	return func(s *Sampler) { s.metrics = m }
}

// NewSampler creates a Sampler. recorder and provider must be non-nil.
func NewSampler(recorder audio.Recorder, provider stt.Provider, opts ...SamplerOption) *Sampler {
	s := &Sampler{recorder: recorder, stt: provider}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Capture records one utterance bounded by maxDuration, transcribes it, and
// scores the delivery. Capture only fails on context cancellation; every
// other failure logs a warning and returns a fallback-scored utterance so
// the session can keep moving.
func (s *Sampler) Capture(ctx context.Context, maxDuration time.Duration) (Utterance, error) {
	opened := time.Now()
	clip, err := s.recorder.Record(ctx, maxDuration)
	if err != nil {
		if ctx.Err() != nil {
			return Utterance{}, fmt.Errorf("speech: capture: %w", ctx.Err())
		}
		if errors.Is(err, audio.ErrNoAudio) {
			slog.Info("no speech captured before deadline")
			u := FallbackUtterance()
			u.Score.Clarity = clarityFromWordCount(0)
			return u, nil
		}
		slog.Warn("recording failed, using fallback scores", "error", err)
		return FallbackUtterance(), nil
	}

	u := Utterance{Duration: clip.Duration()}
	if s.recordingsDir != "" {
		u.RecordingPath = s.archive(clip)
	}

	text, err := s.transcribe(ctx, clip)
	if err != nil {
		if ctx.Err() != nil {
			return Utterance{}, fmt.Errorf("speech: capture: %w", ctx.Err())
		}
		slog.Warn("transcription failed, using fallback scores", "error", err)
		fb := FallbackUtterance()
		fb.Duration = u.Duration
		fb.RecordingPath = u.RecordingPath
		return fb, nil
	}

	if s.corrector != nil {
		text = s.corrector.Correct(text)
	}

	u.Transcript = text
	u.WordCount = len(strings.Fields(text))
	u.Score = scoreUtterance(u, clip)
	u.Score.ResponseTime = time.Since(opened)
	return u, nil
}

// transcribe runs the STT chain with latency recorded.
func (s *Sampler) transcribe(ctx context.Context, clip audio.Clip) (string, error) {
	start := time.Now()
	result, err := s.stt.Transcribe(ctx, stt.Audio{
		PCM:        clip.PCM,
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
	})
	s.metrics.STTDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordProviderError(ctx, "stt", "transcription")
		return "", err
	}
	s.metrics.RecordProviderRequest(ctx, "stt", "transcription", "ok")
	return result.Text, nil
}

// scoreUtterance computes delivery scores from the transcript and clip.
func scoreUtterance(u Utterance, clip audio.Clip) Score {
	return Score{
		Timestamp:   time.Now(),
		Clarity:     clarityFromWordCount(u.WordCount),
		Pace:        paceFromTranscript(u.WordCount, clip.Duration()),
		Confidence:  fallbackConfidence,
		Volume:      volumeFromRMS(clip.RMS()),
		FillerCount: CountFillers(u.Transcript),
		Tone:        "professional",
	}
}

// archive writes the clip to the recordings directory. Failures are logged
// and swallowed; archiving never blocks a session.
func (s *Sampler) archive(clip audio.Clip) string {
	if err := os.MkdirAll(s.recordingsDir, 0o755); err != nil {
		slog.Warn("cannot create recordings dir", "dir", s.recordingsDir, "error", err)
		return ""
	}
	name := fmt.Sprintf("response_%s.wav", clip.StartedAt.Format("20060102_150405.000"))
	path := filepath.Join(s.recordingsDir, name)
	if err := audio.WriteWAV(path, clip); err != nil {
		slog.Warn("cannot archive recording", "path", path, "error", err)
		return ""
	}
	return path
}
