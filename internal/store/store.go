// Package store defines the job store the pipeline writes normalized
// postings to and the alert evaluator resolves ids from.
package store

import (
	"context"
	"errors"

	"github.com/spigell/hh-indexer/internal/posting"
)

// ErrNotFound is returned by GetByID for an unknown id.
var ErrNotFound = errors.New("posting not found")

// Reader is the read side consumed by the index and alerting.
type Reader interface {
	List(ctx context.Context) ([]posting.Posting, error)
	GetByID(ctx context.Context, id string) (*posting.Posting, error)
}

type JobStore interface {
	Reader
	// Save upserts postings by id.
	Save(ctx context.Context, postings []posting.Posting) error
	Close() error
}
