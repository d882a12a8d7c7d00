package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/meteoright00/diary-quest-sub001/internal/observe"
	"github.com/meteoright00/diary-quest-sub001/pkg/provider/llm"
)

// ErrAllFailed is returned when every provider in a [Chain] fails or sits
// behind an open circuit breaker.
var ErrAllFailed = errors.New("all providers failed")

// ErrNoProviders is returned by an empty [Chain].
var ErrNoProviders = errors.New("no providers configured")

// ChainConfig configures a [Chain].
type ChainConfig struct {
	// CircuitBreaker is the template for each entry's breaker; the entry
	// name overrides its Name.
	CircuitBreaker CircuitBreakerConfig

	// Metrics receives per-provider request and error counts for Complete
	// and StreamCompletion calls. Nil disables recording.
	Metrics *observe.Metrics
}

// chainEntry pairs a provider with its dedicated circuit breaker.
type chainEntry struct {
	name     string
	provider llm.Provider
	breaker  *CircuitBreaker
}

// Chain implements [llm.Provider] with automatic failover across several
// backends. Entries are tried in the order added; each has its own circuit
// breaker, and an entry whose breaker is open is skipped without a call.
//
// Register every provider during wiring. [Chain.Add] must not race the
// provider methods; once registration is done the chain is safe for
// concurrent use. Only the initial attempt is covered by failover: once a
// stream is established, mid-stream errors are the caller's concern.
type Chain struct {
	entries []chainEntry
	cfg     ChainConfig
}

// Compile-time interface assertion.
var _ llm.Provider = (*Chain)(nil)

// NewChain creates an empty [Chain]. Until [Chain.Add] registers a
// provider, every call fails with [ErrNoProviders].
func NewChain(cfg ChainConfig) *Chain {
	return &Chain{cfg: cfg}
}

// Add appends a provider to the end of the chain.
func (c *Chain) Add(name string, p llm.Provider) {
	cbCfg := c.cfg.CircuitBreaker
	cbCfg.Name = name
	c.entries = append(c.entries, chainEntry{
		name:     name,
		provider: p,
		breaker:  NewCircuitBreaker(cbCfg),
	})
}

// Names returns the provider names in chain order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}

// Complete sends the request to the first healthy provider and returns its
// response.
func (c *Chain) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return run(ctx, c, true, func(p llm.Provider) (*llm.CompletionResponse, error) {
		return p.Complete(ctx, req)
	})
}

// StreamCompletion opens a stream against the first healthy provider.
func (c *Chain) StreamCompletion(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	return run(ctx, c, true, func(p llm.Provider) (<-chan llm.Chunk, error) {
		return p.StreamCompletion(ctx, req)
	})
}

// CountTokens delegates to the first healthy provider's token counter.
// Counting is local estimation on most backends, so it does not touch the
// provider metrics.
func (c *Chain) CountTokens(messages []llm.Message) (int, error) {
	return run(context.Background(), c, false, func(p llm.Provider) (int, error) {
		return p.CountTokens(messages)
	})
}

// Capabilities reports the first entry's capabilities. Static metadata does
// not participate in failover.
func (c *Chain) Capabilities() llm.ModelCapabilities {
	if len(c.entries) > 0 {
		return c.entries[0].provider.Capabilities()
	}
	return llm.ModelCapabilities{}
}

// run tries fn against each entry in order until one succeeds. It is a
// package function because methods cannot take type parameters.
func run[R any](ctx context.Context, c *Chain, record bool, fn func(llm.Provider) (R, error)) (R, error) {
	var zero R
	if len(c.entries) == 0 {
		return zero, ErrNoProviders
	}

	var lastErr error
	for i := range c.entries {
		e := &c.entries[i]
		var result R
		err := e.breaker.Execute(func() error {
			var innerErr error
			result, innerErr = fn(e.provider)
			return innerErr
		})
		if err == nil {
			c.recordRequest(ctx, record, e.name, "ok")
			return result, nil
		}
		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			// The breaker rejected without calling the provider.
			slog.Debug("skipping provider, circuit open", "provider", e.name)
			continue
		}
		c.recordRequest(ctx, record, e.name, "error")
		slog.Warn("provider failed, trying next",
			"provider", e.name, "error", err)
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

func (c *Chain) recordRequest(ctx context.Context, record bool, provider, status string) {
	if !record || c.cfg.Metrics == nil {
		return
	}
	c.cfg.Metrics.RecordProviderRequest(ctx, provider, "llm", status)
	if status != "ok" {
		c.cfg.Metrics.RecordProviderError(ctx, provider, "llm")
	}
}
