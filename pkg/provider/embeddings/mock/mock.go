// Package mock provides a deterministic test double for embeddings.Provider.
package mock

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/embeddings"
)

// Ensure Provider implements the embeddings.Provider interface.
var _ embeddings.Provider = (*Provider)(nil)

// Provider is a deterministic embeddings.Provider mock. Identical texts
// always produce identical vectors, derived from an FNV hash of the text, so
// similarity tests behave reproducibly without a live backend.
//
// All methods are safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	// Dims is the vector dimensionality. Zero means 8.
	Dims int

	// EmbedFunc overrides the hash-based embedding when non-nil.
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	// Calls counts Embed and EmbedBatch text inputs.
	Calls int
}

// Embed implements embeddings.Provider.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.Calls++
	fn := p.EmbedFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return p.hashVector(text), nil
}

// EmbedBatch implements embeddings.Provider.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int {
	if p.Dims > 0 {
		return p.Dims
	}
	return 8
}

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string { return "mock" }

// hashVector derives a unit-range vector from an FNV-1a hash of the text.
func (p *Provider) hashVector(text string) []float32 {
	dims := p.Dimensions()
	v := make([]float32, dims)
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(seed%2000)/1000.0 - 1.0
	}
	return v
}
