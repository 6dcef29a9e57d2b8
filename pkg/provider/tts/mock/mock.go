// Package mock provides a test double for tts.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// Provider is a configurable tts.Provider mock. Set SynthesizeFunc to control
// behaviour; the zero value records the text and returns nil audio.
//
// All methods are safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	// SynthesizeFunc is invoked by Synthesize when non-nil.
	SynthesizeFunc func(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error)

	// Spoken records every text passed to Synthesize, in call order.
	Spoken []string
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	p.mu.Lock()
	p.Spoken = append(p.Spoken, text)
	fn := p.SynthesizeFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, voice)
	}
	return nil, nil
}

// SpokenTexts returns a copy of all texts synthesized so far.
func (p *Provider) SpokenTexts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Spoken))
	copy(out, p.Spoken)
	return out
}
