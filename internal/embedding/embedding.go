// Package embedding defines the contract between the index and the services
// that turn posting text into dense vectors.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable wraps every reason an embedding batch could not be used.
var ErrUnavailable = errors.New("embedding unavailable")

// Provider produces one vector per input text, in input order.
type Provider interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Result is the outcome of a single batched request. Exactly one of Vectors
// and Err is set.
type Result struct {
	Vectors [][]float32
	Err     error
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Request performs exactly one provider call for the whole batch, bounded by
// timeout when it is positive. Provider errors, a nil provider and a vector
// count that does not match the input are all reported as ErrUnavailable.
func Request(ctx context.Context, p Provider, texts []string, timeout time.Duration) Result {
	if p == nil {
		return Result{Err: fmt.Errorf("%w: no provider configured", ErrUnavailable)}
	}
	if len(texts) == 0 {
		return Result{Vectors: [][]float32{}}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	vectors, err := p.Embed(ctx, texts)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %s: %w", ErrUnavailable, p.Name(), err)}
	}
	if len(vectors) != len(texts) {
		return Result{Err: fmt.Errorf("%w: %s returned %d vectors for %d texts", ErrUnavailable, p.Name(), len(vectors), len(texts))}
	}

	return Result{Vectors: vectors}
}
