package main

import (
	"github.com/spf13/cobra"
)

var summaryFlags struct {
	last int
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Update per-queue trend statistics",
	Long: `Summary runs the lighter trend pipeline: for each queue it fetches the
most recent executions, computes pass/fail counts and duration without any
enrichment, and prepends the new entries to the queue's trend file.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summaryFlags.last, "last", 0, "How many recent executions to summarize per queue (default 10)")
}

func runSummary(cmd *cobra.Command, args []string) error {
	runner, err := newRunner(nil, nil)
	if err != nil {
		return err
	}
	runner.Enricher = nil
	runner.SummaryDepth = summaryFlags.last
	return runner.RunSummaries(cmd.Context())
}
