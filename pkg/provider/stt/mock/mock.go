// Package mock provides a test double for stt.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/stt"
)

// Compile-time assertion that Provider satisfies stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Provider is a configurable stt.Provider mock. Set TranscribeFunc to control
// behaviour; the zero value returns an empty transcript for non-empty audio
// and stt.ErrEmptyAudio otherwise.
//
// All methods are safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	// TranscribeFunc is invoked by Transcribe when non-nil.
	TranscribeFunc func(ctx context.Context, audio stt.Audio) (stt.Transcript, error)

	// Calls counts Transcribe invocations.
	Calls int
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio) (stt.Transcript, error) {
	p.mu.Lock()
	p.Calls++
	fn := p.TranscribeFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, audio)
	}
	if len(audio.PCM) == 0 {
		return stt.Transcript{}, stt.ErrEmptyAudio
	}
	return stt.Transcript{Duration: audio.Duration()}, nil
}

// CallCount returns how many times Transcribe has been invoked.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Calls
}
