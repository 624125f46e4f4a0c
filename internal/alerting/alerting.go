// Package alerting re-runs saved searches against the index and reports the
// postings that match them.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-indexer/internal/logger"
	"github.com/spigell/hh-indexer/internal/posting"
	"github.com/spigell/hh-indexer/internal/store"
)

// Searcher runs a keyword query. *index.Index satisfies it.
type Searcher interface {
	Search(query string) []string
}

// SeenTracker remembers which postings were already reported for a saved
// search.
type SeenTracker interface {
	Unseen(ctx context.Context, searchID string, ids []string) ([]string, error)
	MarkSeen(ctx context.Context, searchID string, ids []string) error
}

// Hit lists the postings matching one saved search. IDs is never empty.
type Hit struct {
	SearchID string   `json:"search_id"`
	IDs      []string `json:"hits"`
}

// Failure records a saved search that could not be evaluated.
type Failure struct {
	SearchID string
	Err      error
}

type Result struct {
	Hits     []Hit
	Failures []Failure
}

// Evaluator evaluates saved searches. The zero value is usable: it logs
// nowhere, uses the wall clock and reports every match on every run.
type Evaluator struct {
	Logger *zap.Logger
	Now    func() time.Time
	// Seen, when set, restricts hits to postings not reported before.
	Seen SeenTracker
}

// Evaluate runs every enabled saved search in order. A saved search that is
// malformed or whose postings cannot be resolved is recorded as a failure and
// does not stop the others. Searches without hits are left out.
func (e *Evaluator) Evaluate(ctx context.Context, searches []SavedSearch, searcher Searcher, jobs store.Reader) Result {
	log := logger.WithFields(e.Logger)
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	var res Result
	for i := range searches {
		s := &searches[i]
		// a search that failed to load is reported even when disabled: its
		// enabled flag cannot be trusted
		if s.Err == nil && !s.Alerts.Enabled {
			log.Debug("saved search disabled", zap.String(logger.FieldSearchID, s.ID))
			continue
		}

		ids, err := e.evaluate(ctx, log.With(zap.String(logger.FieldSearchID, s.ID)), s, now(), searcher, jobs)
		if err != nil {
			log.Warn("saved search failed", zap.String(logger.FieldSearchID, s.ID), zap.Error(err))
			res.Failures = append(res.Failures, Failure{SearchID: s.ID, Err: err})
			continue
		}
		if len(ids) == 0 {
			continue
		}
		res.Hits = append(res.Hits, Hit{SearchID: s.ID, IDs: ids})
	}

	log.Info("alerts evaluated",
		zap.Int("searches", len(searches)),
		zap.Int("with_hits", len(res.Hits)),
		zap.Int("failed", len(res.Failures)),
	)

	return res
}

func (e *Evaluator) evaluate(ctx context.Context, log *zap.Logger, s *SavedSearch, now time.Time, searcher Searcher, jobs store.Reader) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if searcher == nil || jobs == nil {
		return nil, errors.New("index and job store are required")
	}

	ids := searcher.Search(s.Query)

	candidates := make([]*posting.Posting, 0, len(ids))
	for _, id := range ids {
		p, err := jobs.GetByID(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			log.Debug("indexed posting is missing from the store", zap.String(logger.FieldPostingID, id))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", id, err)
		}
		candidates = append(candidates, p)
	}

	matched := Apply(BuildFilters(s.Filters, now), candidates, func(f Filter, st Step) {
		log.Debug("filter step",
			zap.String("name", f.Name()),
			zap.Int("initial", st.Initial),
			zap.Int("dropped", st.Dropped),
			zap.Int("left", st.Left),
		)
	})

	hits := make([]string, 0, len(matched))
	for _, p := range matched {
		hits = append(hits, p.ID)
	}

	if e.Seen == nil || len(hits) == 0 {
		return hits, nil
	}

	fresh, err := e.Seen.Unseen(ctx, s.ID, hits)
	if err != nil {
		return nil, fmt.Errorf("checking seen postings: %w", err)
	}
	if len(fresh) > 0 {
		if err := e.Seen.MarkSeen(ctx, s.ID, fresh); err != nil {
			log.Warn("marking postings as seen failed", zap.Error(err))
		}
	}
	log.Debug("new postings", zap.Int("matched", len(hits)), zap.Int("new", len(fresh)))

	return fresh, nil
}
