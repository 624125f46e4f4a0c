package embedding

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubProvider struct {
	vectors [][]float32
	err     error
	calls   int
	block   bool
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Embed(ctx context.Context, _ []string) ([][]float32, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.vectors, s.err
}

func TestRequestSuccess(t *testing.T) {
	p := &stubProvider{vectors: [][]float32{{1, 0}, {0, 1}}}

	res := Request(context.Background(), p, []string{"a", "b"}, time.Second)
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(res.Vectors))
	}
	if p.calls != 1 {
		t.Fatalf("expected exactly one provider call, got %d", p.calls)
	}
}

func TestRequestUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
	}{
		{name: "nil provider", provider: nil},
		{name: "provider error", provider: &stubProvider{err: errors.New("boom")}},
		{name: "count mismatch", provider: &stubProvider{vectors: [][]float32{{1}}}},
		{name: "timeout", provider: &stubProvider{block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Request(context.Background(), tt.provider, []string{"a", "b"}, 10*time.Millisecond)
			if res.OK() {
				t.Fatalf("expected failure")
			}
			if !errors.Is(res.Err, ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", res.Err)
			}
			if res.Vectors != nil {
				t.Fatalf("expected no vectors on failure")
			}
		})
	}
}

func TestRequestEmptyBatch(t *testing.T) {
	p := &stubProvider{}
	res := Request(context.Background(), p, nil, 0)
	if !res.OK() || p.calls != 0 {
		t.Fatalf("expected empty batch to succeed without a call, got %v after %d calls", res.Err, p.calls)
	}
}
