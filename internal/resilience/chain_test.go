package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/meteoright00/diary-quest-sub001/internal/observe"
	"github.com/meteoright00/diary-quest-sub001/pkg/provider/llm"
	llmmock "github.com/meteoright00/diary-quest-sub001/pkg/provider/llm/mock"
)

func newChain(providers ...*llmmock.Provider) *Chain {
	names := []string{"primary", "secondary", "tertiary"}
	c := NewChain(ChainConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	for i, p := range providers {
		c.Add(names[i], p)
	}
	return c
}

func TestChain_Empty(t *testing.T) {
	c := NewChain(ChainConfig{})

	_, err := c.Complete(context.Background(), llm.CompletionRequest{})
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("Complete err = %v, want ErrNoProviders", err)
	}
	_, err = c.CountTokens(nil)
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("CountTokens err = %v, want ErrNoProviders", err)
	}
	if caps := c.Capabilities(); caps != (llm.ModelCapabilities{}) {
		t.Errorf("Capabilities() = %+v, want zero value", caps)
	}
}

func TestChain_Names(t *testing.T) {
	c := newChain(&llmmock.Provider{}, &llmmock.Provider{})

	names := c.Names()
	if len(names) != 2 || names[0] != "primary" || names[1] != "secondary" {
		t.Errorf("Names() = %v, want [primary secondary]", names)
	}
}

func TestChain_Complete_PrimarySuccess(t *testing.T) {
	primary := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "hello from primary"},
	}
	secondary := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "hello from secondary"},
	}
	c := newChain(primary, secondary)

	resp, err := c.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hello from primary" {
		t.Fatalf("content = %q, want 'hello from primary'", resp.Content)
	}
	if len(primary.CompleteCalls) != 1 {
		t.Fatalf("primary called %d times, want 1", len(primary.CompleteCalls))
	}
	if len(secondary.CompleteCalls) != 0 {
		t.Fatalf("secondary called %d times, want 0", len(secondary.CompleteCalls))
	}
}

func TestChain_Complete_Failover(t *testing.T) {
	primary := &llmmock.Provider{
		CompleteErr: errors.New("primary down"),
	}
	secondary := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "hello from secondary"},
	}
	c := newChain(primary, secondary)

	resp, err := c.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "hello from secondary" {
		t.Fatalf("content = %q, want 'hello from secondary'", resp.Content)
	}
}

func TestChain_Complete_AllFail(t *testing.T) {
	primary := &llmmock.Provider{CompleteErr: errors.New("primary down")}
	secondary := &llmmock.Provider{CompleteErr: errors.New("secondary down")}
	c := newChain(primary, secondary)

	_, err := c.Complete(context.Background(), llm.CompletionRequest{})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestChain_SkipsOpenBreaker(t *testing.T) {
	primary := &llmmock.Provider{CompleteErr: errors.New("primary down")}
	secondary := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "backup"},
	}

	c := NewChain(ChainConfig{
		CircuitBreaker: CircuitBreakerConfig{
			MaxFailures:  2,
			ResetTimeout: time.Hour,
		},
	})
	c.Add("primary", primary)
	c.Add("secondary", secondary)

	// Fail the primary enough to open its breaker; the secondary still
	// serves each request.
	for i := 0; i < 2; i++ {
		if _, err := c.Complete(context.Background(), llm.CompletionRequest{}); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}

	// The open breaker rejects without touching the primary again.
	resp, err := c.Complete(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "backup" {
		t.Fatalf("content = %q, want backup", resp.Content)
	}
	if len(primary.CompleteCalls) != 2 {
		t.Fatalf("primary called %d times, want 2 (circuit should be open)", len(primary.CompleteCalls))
	}
}

func TestChain_StreamCompletion_Failover(t *testing.T) {
	primary := &llmmock.Provider{
		StreamErr: errors.New("stream failed"),
	}
	secondary := &llmmock.Provider{
		StreamChunks: []llm.Chunk{{Text: "chunk1"}, {Text: "chunk2", FinishReason: "stop"}},
	}
	c := newChain(primary, secondary)

	ch, err := c.StreamCompletion(context.Background(), llm.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var chunks []llm.Chunk
	for chunk := range ch {
		chunks = append(chunks, chunk)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Text != "chunk1" {
		t.Fatalf("chunk[0].Text = %q, want chunk1", chunks[0].Text)
	}
}

func TestChain_CountTokens_Failover(t *testing.T) {
	primary := &llmmock.Provider{CountTokensErr: errors.New("count failed")}
	secondary := &llmmock.Provider{TokenCount: 42}
	c := newChain(primary, secondary)

	count, err := c.CountTokens([]llm.Message{{Role: "user", Content: "test"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Fatalf("count = %d, want 42", count)
	}
}

func TestChain_Capabilities(t *testing.T) {
	primary := &llmmock.Provider{
		ModelCapabilities: llm.ModelCapabilities{
			ContextWindow:       128000,
			SupportsToolCalling: true,
		},
	}
	c := newChain(primary)

	caps := c.Capabilities()
	if caps.ContextWindow != 128000 {
		t.Fatalf("ContextWindow = %d, want 128000", caps.ContextWindow)
	}
	if !caps.SupportsToolCalling {
		t.Fatal("SupportsToolCalling should be true")
	}
}

func TestChain_RecordsProviderMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown meter provider: %v", err)
		}
	})
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics() unexpected error: %v", err)
	}

	primary := &llmmock.Provider{CompleteErr: errors.New("primary down")}
	secondary := &llmmock.Provider{
		CompleteResponse: &llm.CompletionResponse{Content: "backup"},
	}
	c := NewChain(ChainConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
		Metrics:        m,
	})
	c.Add("primary", primary)
	c.Add("secondary", secondary)

	if _, err := c.Complete(context.Background(), llm.CompletionRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}

	if got := counterByProvider(t, rm, "diaryquest.provider.requests", "primary"); got != 1 {
		t.Errorf("primary requests = %d, want 1", got)
	}
	if got := counterByProvider(t, rm, "diaryquest.provider.requests", "secondary"); got != 1 {
		t.Errorf("secondary requests = %d, want 1", got)
	}
	if got := counterByProvider(t, rm, "diaryquest.provider.errors", "primary"); got != 1 {
		t.Errorf("primary errors = %d, want 1", got)
	}
	if got := counterByProvider(t, rm, "diaryquest.provider.errors", "secondary"); got != -1 {
		t.Errorf("secondary errors = %d, want none recorded", got)
	}
}

// counterByProvider returns the int64 sum data point whose "provider"
// attribute matches, or -1 when the metric or point is absent.
func counterByProvider(t *testing.T, rm metricdata.ResourceMetrics, name, provider string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is not an int64 sum", name)
			}
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key("provider")); ok && v.AsString() == provider {
					return dp.Value
				}
			}
		}
	}
	return -1
}
