// Package console provides a degraded TTS provider that prints the question
// text instead of speaking it. It is the last resort in the TTS fallback
// chain so an interview can always proceed without a synthesis server.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/tts"
)

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// Provider implements tts.Provider by writing the text to an io.Writer
// (stdout by default). Synthesize always returns nil audio.
type Provider struct {
	mu  sync.Mutex
	out io.Writer
}

// Option is a functional option for configuring a console Provider.
type Option func(*Provider)

// WithWriter redirects output away from stdout. Useful for tests.
func WithWriter(w io.Writer) Option {
	return func(p *Provider) { p.out = w }
}

// New creates a console Provider.
func New(opts ...Option) *Provider {
	p := &Provider{out: os.Stdout}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Synthesize prints the text prefixed with the interviewer marker and returns
// no audio.
func (p *Provider) Synthesize(ctx context.Context, text string, _ tts.VoiceProfile) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("console: context already cancelled: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintf(p.out, "Interviewer: %s\n", text); err != nil {
		return nil, fmt.Errorf("console: write: %w", err)
	}
	return nil, nil
}
