package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-indexer/internal/alerting"
	"github.com/spigell/hh-indexer/internal/index"
	"github.com/spigell/hh-indexer/internal/pipeline"
	"github.com/spigell/hh-indexer/internal/savedsearch"
	"github.com/spigell/hh-indexer/internal/scheduler"
	"github.com/spigell/hh-indexer/internal/store"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Evaluate saved searches and report matching postings",
	Run: func(cmd *cobra.Command, _ []string) {
		alerts(cmd)
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)

	alertsCmd.Flags().StringP("saved-searches", "s", "", "yaml file with saved searches (default is searches.yaml)")
	alertsCmd.Flags().Bool("only-new", false, "report only postings not reported before for the same saved search (sqlite store only)")
	alertsCmd.Flags().BoolP("watch", "w", false, "keep running and evaluate on the alerts.schedule cron spec")
	alertsCmd.Flags().Bool("ingest", false, "ingest from the configured sources before every evaluation")
	alertsCmd.Flags().StringP("output", "o", "text", "output format: text or json")

	viper.BindPFlag("alerts.saved-searches", alertsCmd.Flags().Lookup("saved-searches"))
	viper.BindPFlag("alerts.only-new", alertsCmd.Flags().Lookup("only-new"))
}

type alertRun struct {
	config   *Config
	logger   *zap.Logger
	jobs     store.JobStore
	idx      *index.Index
	pipeline *pipeline.Pipeline
	eval     *alerting.Evaluator
	ingest   bool
	output   string
	out      io.Writer
}

func alerts(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup(cmd)

	jobs, err := openStore(ctx, config.Store)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer jobs.Close()

	idx, err := newIndex(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the index", zap.Error(err))
	}

	eval := &alerting.Evaluator{Logger: logger}
	if config.Alerts.OnlyNew {
		seen, ok := jobs.(alerting.SeenTracker)
		if !ok {
			logger.Fatal("only-new needs a store that tracks reported postings", zap.String("store", config.Store.Driver))
		}
		eval.Seen = seen
	}

	run := &alertRun{
		config:   config,
		logger:   logger,
		jobs:     jobs,
		idx:      idx,
		pipeline: &pipeline.Pipeline{Logger: logger},
		eval:     eval,
		output:   cmd.Flag("output").Value.String(),
		out:      cmd.OutOrStdout(),
	}
	run.ingest, _ = cmd.Flags().GetBool("ingest")

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		failed, err := run.once(ctx)
		if err != nil {
			logger.Fatal("evaluating alerts", zap.Error(err))
		}
		if failed > 0 {
			logger.Fatal("some saved searches failed", zap.Int("failed", failed))
		}
		return
	}

	s := scheduler.New(config.Alerts.Schedule, func(ctx context.Context) {
		if _, err := run.once(ctx); err != nil {
			logger.Error("alert cycle failed", zap.Error(err))
		}
	}, logger)

	if err := s.Run(ctx); err != nil {
		logger.Fatal("running the scheduler", zap.Error(err))
	}
}

// once runs a single alert cycle and returns the number of saved searches
// that failed.
func (r *alertRun) once(ctx context.Context) (int, error) {
	if r.ingest {
		sources, err := newSources(r.config, r.logger)
		if err != nil {
			return 0, err
		}
		if _, err := r.pipeline.Ingest(ctx, sources, r.jobs); err != nil {
			r.logger.Warn("ingest before alerts failed", zap.Error(err))
		}
	}

	searches, err := savedsearch.Load(r.config.Alerts.SavedSearches)
	if err != nil {
		return 0, err
	}

	if _, err := r.pipeline.Reindex(ctx, r.jobs, r.idx); err != nil {
		return 0, err
	}

	result := r.eval.Evaluate(ctx, searches, r.idx, r.jobs)

	names := make(map[string]string, len(searches))
	for _, s := range searches {
		names[s.ID] = s.Name
	}

	if err := r.print(result, names); err != nil {
		return 0, err
	}

	r.logger.Info("alerts evaluated",
		zap.Int("searches", len(searches)),
		zap.Int("with hits", len(result.Hits)),
		zap.Int("failed", len(result.Failures)),
	)

	return len(result.Failures), nil
}

func (r *alertRun) print(result alerting.Result, names map[string]string) error {
	if r.output == "json" {
		enc := json.NewEncoder(r.out)
		for _, hit := range result.Hits {
			if err := enc.Encode(hit); err != nil {
				return err
			}
		}
		return nil
	}

	for _, hit := range result.Hits {
		header := hit.SearchID
		if name := names[hit.SearchID]; name != "" {
			header = fmt.Sprintf("%s (%s)", name, hit.SearchID)
		}
		fmt.Fprintln(r.out, headerStyle.Render(fmt.Sprintf("%s: %d matching", header, len(hit.IDs))))
		printPostings(r.out, lookup(r.idx, hit.IDs))
	}
	return nil
}
