// Package tts defines the Provider interface for Text-To-Speech backends.
//
// The interviewer voice reads each question aloud before the capture window
// opens. Questions are short, so the interface is one batch synthesis call per
// question rather than a streaming pipeline.
package tts

import "context"

// VoiceProfile identifies a synthesis voice.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier (speaker name, speaker_wav
	// reference). May be empty for single-voice backends.
	ID string

	// Name is a human-readable label for the voice.
	Name string

	// Provider names the backend this profile belongs to (e.g., "coqui").
	Provider string
}

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type Provider interface {
	// Synthesize converts text to raw 16-bit signed little-endian mono PCM.
	// Backends that produce no audio (such as a console printer) return a nil
	// slice and a nil error.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)
}
