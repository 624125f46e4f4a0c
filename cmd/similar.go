package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-indexer/internal/index"
)

var similarCmd = &cobra.Command{
	Use:   "similar <posting-id>",
	Short: "List the postings closest to the given one by meaning",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		similar(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().IntP("limit", "k", index.DefaultK, "how many postings to show")
}

func similar(cmd *cobra.Command, id string) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, config := setup(cmd)

	jobs, idx := loadIndex(ctx, config, logger)
	defer jobs.Close()

	origin, ok := idx.Get(id)
	if !ok {
		logger.Fatal("posting not found", zap.String("posting_id", id))
	}
	if !idx.HasVector(id) {
		logger.Warn("posting has no vector, similarity search is unavailable", zap.String("posting_id", id))
		return
	}

	k, _ := cmd.Flags().GetInt("limit")
	results := lookup(idx, idx.KNN(id, k))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("Similar to: ")+renderPosting(&origin))
	printPostings(out, results)
}
