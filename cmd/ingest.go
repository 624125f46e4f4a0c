package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-indexer/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch postings from the configured sources and save them to the store",
	Run: func(cmd *cobra.Command, _ []string) {
		ingest(cmd)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringSliceP("file", "f", nil, "json or jsonl files (globs allowed) with raw postings")

	viper.BindPFlag("sources.files", ingestCmd.Flags().Lookup("file"))
}

func ingest(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, config := setup(cmd)
	logger.Info("starting the ingest", zap.String("version", version))

	sources, err := newSources(config, logger)
	if err != nil {
		logger.Fatal("preparing sources", zap.Error(err))
	}
	if len(sources) == 0 {
		logger.Fatal("no sources configured", zap.String("hint", "pass --file or enable sources.headhunter in the config"))
	}

	jobs, err := openStore(ctx, config.Store)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer jobs.Close()

	p := &pipeline.Pipeline{Logger: logger}
	report, err := p.Ingest(ctx, sources, jobs)
	if err != nil {
		logger.Fatal("ingest failed", zap.Error(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "fetched %d, saved %d, duplicates dropped %d, failed sources %d\n",
		report.Fetched, report.Saved, report.Dedupe.Dropped, len(report.Failed))
}
