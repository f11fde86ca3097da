package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"magpie/internal/issuecache"
	"magpie/internal/logging"
)

var collectFlags struct {
	jiraAuthFile string
	jiraProject  string
	cachePath    string
	pageSize     int
	queue        string
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect, enrich, and store new queue executions",
	Long: `Collect runs the full pipeline for every queue in the registry:
list executions, skip the already-collected ones, fetch and enrich the
rest, and write one report artifact per execution.

A listing failure aborts that queue only; the remaining queues still run
and the process exits non-zero at the end. Per-record enrichment failures
never fail the run.`,
	Args: cobra.NoArgs,
	RunE: runCollect,
}

func init() {
	f := collectCmd.Flags()
	f.StringVar(&collectFlags.jiraAuthFile, "jira-auth", ".jira-auth", "Path to Jira credential file (email:token)")
	f.StringVar(&collectFlags.jiraProject, "jira-project", "", "Jira project searched for issue keys (default: $MAGPIE_JIRA_PROJECT)")
	f.StringVar(&collectFlags.cachePath, "cache", "test-name-jira-key-mapping.json", "Path to the test-name to issue-key cache")
	f.IntVar(&collectFlags.pageSize, "page-size", 0, "Result page length per execution (default 100)")
	f.StringVar(&collectFlags.queue, "queue", "", "Collect only the queue with this standardName")
}

func runCollect(cmd *cobra.Command, args []string) error {
	logger := logging.New("collect")

	searcher, err := newIssueFinder(collectFlags.jiraAuthFile, collectFlags.jiraProject)
	if err != nil {
		return err
	}
	if searcher == nil {
		logger.Warn("jira not configured, records will carry no issue keys")
	}

	cache := issuecache.Load(collectFlags.cachePath, logging.New("issuecache"))

	runner, err := newRunner(cache, searcher)
	if err != nil {
		return err
	}
	runner.ResultsPageSize = collectFlags.pageSize

	if collectFlags.queue != "" {
		kept := runner.Queues[:0]
		for _, q := range runner.Queues {
			if q.StandardName == collectFlags.queue {
				kept = append(kept, q)
			}
		}
		if len(kept) == 0 {
			return fmt.Errorf("queue %q not found in registry", collectFlags.queue)
		}
		runner.Queues = kept
	}

	runErr := runner.Run(cmd.Context())

	// The cache is saved even after a partial run: resolved names stay
	// resolved.
	if err := cache.Save(collectFlags.cachePath); err != nil {
		logger.Error("issue cache save failed", "error", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}
