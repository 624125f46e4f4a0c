// Package source defines where raw postings come from and implements the
// file-based source.
package source

import (
	"context"

	"github.com/spigell/hh-indexer/internal/posting"
)

// Source fetches a batch of raw postings.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]posting.RawPosting, error)
}
