// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trialscout/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs recorded in the ledger",
	Long: `History reads <output>/trialscout.db and prints the most recent runs with
the row counts of each stage. Runs are only recorded when --ledger (or the
ledger config key) is set.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	cfg := pipelineConfig(viper.GetViper(), loadedSecrets)

	runs, err := recentRuns(cmd.Context(), cfg.OutputDirectory, limit)
	if err != nil {
		return err
	}
	printHistory(cmd.OutOrStdout(), runs)
	return nil
}

// recentRuns reads up to limit runs from the ledger in dir. A missing ledger
// means no runs; it is not created.
func recentRuns(ctx context.Context, dir string, limit int) ([]ledger.Run, error) {
	if _, err := os.Stat(filepath.Join(dir, ledger.DBFile)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking ledger: %w", err)
	}
	led, err := ledger.Open(dir)
	if err != nil {
		return nil, err
	}
	defer led.Close()
	return led.Recent(ctx, limit)
}

func printHistory(w io.Writer, runs []ledger.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-7s  %s  %q\n", r.StartedAt.Local().Format(time.DateTime), r.Status, r.ID, r.Keyword)
		for _, s := range r.Stages {
			line := fmt.Sprintf("    %-8s rows=%d failures=%d", s.Name, s.Rows, s.Failures)
			if s.Error != "" {
				line += "  error: " + s.Error
			}
			fmt.Fprintln(w, line)
		}
	}
}
