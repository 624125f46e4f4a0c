package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-indexer/internal/index"
	"github.com/spigell/hh-indexer/internal/pipeline"
	"github.com/spigell/hh-indexer/internal/posting"
	"github.com/spigell/hh-indexer/internal/store"
)

const (
	PromptBack              = "back"
	PromptExit              = "exit"
	PromptReportByCompany   = "Report by company"
	PromptPostingsToFile    = "Dump postings to file"
	defaultSimilarInDetails = 5
)

var errExit = errors.New("exit requested")

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find postings containing every word of the query",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		search(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolP("interactive", "i", false, "browse the results and similar postings interactively")
}

// loadIndex opens the store and builds an index from everything in it.
func loadIndex(ctx context.Context, config *Config, logger *zap.Logger) (store.JobStore, *index.Index) {
	jobs, err := openStore(ctx, config.Store)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}

	idx, err := newIndex(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the index", zap.Error(err))
	}

	p := &pipeline.Pipeline{Logger: logger}
	if _, err := p.Reindex(ctx, jobs, idx); err != nil {
		logger.Fatal("building the index", zap.Error(err))
	}

	return jobs, idx
}

func search(cmd *cobra.Command, query string) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, config := setup(cmd)

	jobs, idx := loadIndex(ctx, config, logger)
	defer jobs.Close()

	ids := idx.Search(query)
	logger.Info("search finished", zap.String("query", query), zap.Int("count", len(ids)))

	results := lookup(idx, ids)

	interactive, _ := cmd.Flags().GetBool("interactive")
	if !interactive || results.Len() == 0 {
		printPostings(cmd.OutOrStdout(), results)
		return
	}

	if err := browse(cmd.OutOrStdout(), logger, idx, results); err != nil && !errors.Is(err, errExit) {
		logger.Fatal("exiting", zap.Error(err))
	}
}

func lookup(idx *index.Index, ids []string) *posting.Postings {
	results := &posting.Postings{Items: make([]*posting.Posting, 0, len(ids))}
	for _, id := range ids {
		if p, ok := idx.Get(id); ok {
			results.Items = append(results.Items, &p)
		}
	}
	return results
}

func printPostings(w io.Writer, postings *posting.Postings) {
	for _, p := range postings.Items {
		fmt.Fprintln(w, renderPosting(p))
	}
}

// browse runs the promptui loop over search results.
func browse(w io.Writer, logger *zap.Logger, idx *index.Index, results *posting.Postings) error {
	for {
		items := make([]string, 0, results.Len()+3)
		for _, p := range results.Items {
			items = append(items, promptLabel(p))
		}
		items = append(items, PromptReportByCompany, PromptPostingsToFile, PromptExit)

		prompt := promptui.Select{
			Label: fmt.Sprintf("Found %d postings. Choose one and press ENTER", results.Len()),
			Items: items,
			Size:  15,
		}

		_, selected, err := prompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptExit:
			return errExit
		case PromptReportByCompany:
			pretty, _ := json.MarshalIndent(results.ReportByCompany(), "", "  ")
			logger.Info(string(pretty), zap.Int("postings count", results.Len()))
		case PromptPostingsToFile:
			filename, err := results.DumpToTmpFile()
			if err != nil {
				return fmt.Errorf("dump results to file: %w", err)
			}
			logger.Info("dumping result to file", zap.String("filename", filename))
		default:
			id := strings.Split(selected, " ")[0]
			p := results.FindByID(id)
			if p == nil {
				return fmt.Errorf("there is no such posting id %s", id)
			}
			if err := showPosting(w, idx, p); err != nil {
				return err
			}
		}
	}
}

// showPosting prints the posting and lets the user jump to a similar one.
func showPosting(w io.Writer, idx *index.Index, p *posting.Posting) error {
	for {
		fmt.Fprintln(w, renderDetails(p))

		neighbours := lookup(idx, idx.KNN(p.ID, defaultSimilarInDetails))
		if neighbours.Len() == 0 {
			fmt.Fprintln(w, dimStyle.Render("no similar postings"))
			return nil
		}

		items := make([]string, 0, neighbours.Len()+1)
		for _, s := range neighbours.Items {
			items = append(items, promptLabel(s))
		}

		prompt := promptui.Select{
			Label: "Similar postings",
			Items: append(items, PromptBack),
		}

		_, selected, err := prompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		next := neighbours.FindByID(strings.Split(selected, " ")[0])
		if next == nil {
			return fmt.Errorf("there is no such posting %s", selected)
		}
		p = next
	}
}
