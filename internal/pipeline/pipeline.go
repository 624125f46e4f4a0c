// Package pipeline moves postings from sources into the job store and from the
// job store into the search index.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hh-indexer/internal/dedupe"
	"github.com/spigell/hh-indexer/internal/index"
	"github.com/spigell/hh-indexer/internal/logger"
	"github.com/spigell/hh-indexer/internal/normalize"
	"github.com/spigell/hh-indexer/internal/posting"
	"github.com/spigell/hh-indexer/internal/source"
	"github.com/spigell/hh-indexer/internal/store"
)

// ErrNoSources is returned when there was nothing to fetch from or every
// source failed.
var ErrNoSources = errors.New("no source produced postings")

type Pipeline struct {
	Logger     *zap.Logger
	Normalizer *normalize.Normalizer
}

// SourceError is a fetch failure of a single source.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e SourceError) Unwrap() error { return e.Err }

type IngestReport struct {
	Fetched int
	Dedupe  dedupe.Stats
	Saved   int
	Failed  []SourceError
}

// Ingest fetches every source concurrently, normalizes and deduplicates the
// union and saves it. A failing source is logged and skipped; the run fails
// only when no source succeeded or the store rejects the batch.
func (p *Pipeline) Ingest(ctx context.Context, sources []source.Source, jobs store.JobStore) (IngestReport, error) {
	log := logger.WithFields(p.Logger)
	report := IngestReport{}

	if len(sources) == 0 {
		return report, ErrNoSources
	}

	fetched := make([][]posting.RawPosting, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			raws, err := src.Fetch(gctx)
			if err != nil {
				errs[i] = err
				return nil
			}
			fetched[i] = raws
			log.Info("fetched postings", zap.String("source", src.Name()), zap.Int("count", len(raws)))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	var raws []posting.RawPosting
	for i, src := range sources {
		if errs[i] != nil {
			report.Failed = append(report.Failed, SourceError{Source: src.Name(), Err: errs[i]})
			log.Warn("skipping source", zap.String("source", src.Name()), zap.Error(errs[i]))
			continue
		}
		raws = append(raws, fetched[i]...)
	}
	report.Fetched = len(raws)

	if len(report.Failed) == len(sources) {
		return report, ErrNoSources
	}

	normalizer := p.Normalizer
	if normalizer == nil {
		normalizer = normalize.New()
	}

	unique, stats := dedupe.DedupeWithStats(normalizer.Normalize(raws))
	report.Dedupe = stats

	log.Info("deduplicated postings",
		zap.Int("input", stats.Input),
		zap.Int("groups", stats.Groups),
		zap.Int("dropped", stats.Dropped),
	)

	if len(unique) > 0 {
		if err := jobs.Save(ctx, unique); err != nil {
			return report, fmt.Errorf("saving postings: %w", err)
		}
	}
	report.Saved = len(unique)

	log.Info("ingest finished", zap.Int("saved", report.Saved), zap.Int("failed sources", len(report.Failed)))

	return report, nil
}

// Reindex rebuilds idx from everything in the job store. Records saved by
// different runs under different ids but with the same fingerprint are
// deduplicated again here, so the index holds one record per fingerprint.
func (p *Pipeline) Reindex(ctx context.Context, jobs store.Reader, idx *index.Index) (index.BuildReport, error) {
	postings, err := jobs.List(ctx)
	if err != nil {
		return index.BuildReport{}, fmt.Errorf("listing postings: %w", err)
	}

	unique, stats := dedupe.DedupeWithStats(postings)
	if stats.Dropped > 0 {
		logger.WithFields(p.Logger).Info("dropped stored duplicates before indexing",
			zap.Int("stored", stats.Input),
			zap.Int("dropped", stats.Dropped),
		)
	}

	return idx.Rebuild(ctx, unique), nil
}
