// Package mock provides a test double for llm.Provider.
package mock

import (
	"context"
	"sync"

	"github.com/MdSameerBaba/orbmech-interview/pkg/provider/llm"
)

// Compile-time assertion that Provider satisfies llm.Provider.
var _ llm.Provider = (*Provider)(nil)

// Provider is a configurable llm.Provider mock. Set CompleteFunc to control
// behaviour; the zero value returns an empty response.
//
// All methods are safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	// CompleteFunc is invoked by Complete when non-nil.
	CompleteFunc func(ctx context.Context, req llm.Request) (*llm.Response, error)

	// Requests records every request passed to Complete, in call order.
	Requests []llm.Request
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.Requests = append(p.Requests, req)
	fn := p.CompleteFunc
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &llm.Response{}, nil
}

// CallCount returns how many times Complete has been invoked.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Requests)
}
