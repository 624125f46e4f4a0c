// Package scheduler runs a job periodically on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spigell/hh-indexer/internal/logger"
)

const DefaultSpec = "@every 1h"

// Scheduler wraps robfig/cron. Runs never overlap: a tick that arrives while
// the previous run is still going is skipped.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	run    func(ctx context.Context)
	logger *zap.Logger
	wg     sync.WaitGroup
}

// New creates a scheduler that calls run on spec. An empty spec means
// DefaultSpec.
func New(spec string, run func(ctx context.Context), log *zap.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	log = logger.WithFields(log, zap.String("schedule", spec))

	return &Scheduler{
		cron:   cron.New(cron.WithLogger(NewLogger(log))),
		spec:   spec,
		run:    run,
		logger: log,
	}
}

// Start registers the job, starts the cron loop and fires one run right away
// so results do not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	job := cron.NewChain(cron.SkipIfStillRunning(NewLogger(s.logger))).Then(cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		s.run(ctx)
	}))

	if _, err := s.cron.AddJob(s.spec, job); err != nil {
		return fmt.Errorf("parsing schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		job.Run()
	}()

	return nil
}

// Stop stops the cron loop and waits for a run in progress.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Logger adapts zap to cron.Logger. Cron's routine messages go to debug.
type Logger struct {
	sugar *zap.SugaredLogger
}

func NewLogger(log *zap.Logger) Logger {
	return Logger{sugar: logger.WithFields(log).Sugar()}
}

func (l Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l Logger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
