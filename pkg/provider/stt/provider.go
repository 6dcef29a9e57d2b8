// Package stt defines the Provider interface for Speech-To-Text backends.
//
// Interview responses arrive as complete utterances (the capture layer records
// until silence or a deadline), so the interface is a single batch call per
// utterance rather than a streaming session.
package stt

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyAudio is returned by Transcribe when the audio payload contains no
// samples.
var ErrEmptyAudio = errors.New("stt: empty audio")

// Audio is a complete utterance as raw 16-bit signed little-endian PCM.
type Audio struct {
	// PCM is the raw sample data. Two bytes per sample per channel.
	PCM []byte

	// SampleRate is the sample rate in Hz (e.g., 16000).
	SampleRate int

	// Channels is the number of interleaved channels (1 for mono).
	Channels int
}

// Duration returns the playback duration of the audio, or zero when the
// sample rate or channel count is invalid.
func (a Audio) Duration() time.Duration {
	if a.SampleRate <= 0 || a.Channels <= 0 {
		return 0
	}
	bytesPerSec := a.SampleRate * a.Channels * 2
	return time.Duration(len(a.PCM)) * time.Second / time.Duration(bytesPerSec)
}

// Transcript is the result of transcribing one utterance.
type Transcript struct {
	// Text is the transcribed text, whitespace-trimmed. May be empty when the
	// audio contained no recognisable speech.
	Text string

	// Confidence is the backend's confidence in [0.0, 1.0], or 0 when the
	// backend does not report one.
	Confidence float64

	// Duration is the length of the transcribed audio.
	Duration time.Duration
}

// Provider is the abstraction over any STT backend.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type Provider interface {
	// Transcribe converts one complete utterance to text. Returns
	// ErrEmptyAudio when audio.PCM is empty, or an error if the backend fails
	// or ctx is cancelled first.
	Transcribe(ctx context.Context, audio Audio) (Transcript, error)
}
