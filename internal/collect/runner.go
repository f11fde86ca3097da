// Package collect drives the collection pipeline: for each configured
// queue it lists executions, drops the already-processed ones, fetches
// and enriches the rest, and hands them to the report writer.
package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"magpie/internal/enrich"
	"magpie/internal/record"
	"magpie/internal/registry"
	"magpie/internal/report"
	"magpie/internal/tms"
	"magpie/internal/track"
)

// Default sizes. Results are fetched as a single page; pageSize must sit
// above the largest known suite (see tms.ExecutionScope.Results).
const (
	DefaultListPageSize    = 20
	DefaultResultsPageSize = 100
	DefaultSummaryDepth    = 10
)

// Runner owns one collection run across all configured queues. Queues are
// processed sequentially; each has its own tracker file, so concurrent
// runs are only safe when they target disjoint queues.
type Runner struct {
	TMS        *tms.Client
	Queues     []registry.WorkQueue
	Enricher   *enrich.Enricher
	ReportsDir string
	Logger     *slog.Logger

	ListPageSize    int
	ResultsPageSize int
	SummaryDepth    int
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (r *Runner) listPageSize() int {
	if r.ListPageSize > 0 {
		return r.ListPageSize
	}
	return DefaultListPageSize
}

func (r *Runner) resultsPageSize() int {
	if r.ResultsPageSize > 0 {
		return r.ResultsPageSize
	}
	return DefaultResultsPageSize
}

func (r *Runner) summaryDepth() int {
	if r.SummaryDepth > 0 {
		return r.SummaryDepth
	}
	return DefaultSummaryDepth
}

// Run collects every configured queue. A queue whose listing fails aborts
// that queue only; the remaining queues still run, and the joined error
// makes the process exit non-zero afterwards.
func (r *Runner) Run(ctx context.Context) error {
	defs, err := r.queueDefs(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, queue := range r.Queues {
		if err := r.collectQueue(ctx, queue, defs); err != nil {
			r.logger().Error("queue collection failed", "queue", queue.StandardName, "error", err)
			errs = append(errs, fmt.Errorf("queue %s: %w", queue.StandardName, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) queueDefs(ctx context.Context) (map[string]string, error) {
	list, err := r.TMS.ListQueueDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect: list queue definitions: %w", err)
	}
	defs := make(map[string]string, len(list))
	for _, d := range list {
		defs[d.Name] = d.ID
	}
	return defs, nil
}

// collectQueue runs the full pipeline for one queue. Listing and result
// fetching are fatal to the queue; enrichment failures degrade records
// only (handled inside the enricher).
func (r *Runner) collectQueue(ctx context.Context, queue registry.WorkQueue, defs map[string]string) error {
	queueID, ok := defs[queue.Name]
	if !ok {
		return fmt.Errorf("collect: queue %q not known to the platform", queue.Name)
	}

	tracker, err := track.Open(filepath.Join(r.ReportsDir, queue.StoreStatusFile))
	if err != nil {
		return err
	}

	page, err := r.TMS.Queue(queueID).ListExecutions(ctx,
		tms.WithPage(1), tms.WithPageSize(r.listPageSize()))
	if err != nil {
		return fmt.Errorf("collect: list executions: %w", err)
	}

	// The listing is newest-first. Keep only unseen executions, then
	// process them oldest-first so the tracker's prepend discipline
	// leaves its file newest-first.
	var fresh []tms.QueueExecution
	for _, exec := range page.Items {
		if tracker.Has(exec.Key) {
			continue
		}
		fresh = append(fresh, exec)
	}
	reverse(fresh)

	r.logger().Info("queue listed", "queue", queue.StandardName,
		"executions", len(page.Items), "new", len(fresh))

	writer := &report.Writer{Dir: r.ReportsDir, Logger: r.Logger}
	for _, exec := range fresh {
		results, err := r.TMS.Execution(exec.Key).Results(ctx, r.resultsPageSize())
		if err != nil {
			return fmt.Errorf("collect: fetch results for %s: %w", exec.Key, err)
		}

		records := toRecords(results)
		if r.Enricher != nil {
			r.Enricher.Enrich(ctx, records)
		}

		if _, err := writer.Write(queue, exec, records, tracker); err != nil {
			return err
		}
	}
	return nil
}

// RunSummaries runs the lighter trend pipeline: per queue, summarize the
// most recent executions without any enrichment and prepend the new ones
// to the queue's trend file. Dedup here is the trend file itself, never
// the tracker.
func (r *Runner) RunSummaries(ctx context.Context) error {
	defs, err := r.queueDefs(ctx)
	if err != nil {
		return err
	}
	store := &report.SummaryStore{Dir: r.ReportsDir}

	var errs []error
	for _, queue := range r.Queues {
		if err := r.summarizeQueue(ctx, queue, defs, store); err != nil {
			r.logger().Error("queue summary failed", "queue", queue.StandardName, "error", err)
			errs = append(errs, fmt.Errorf("queue %s: %w", queue.StandardName, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) summarizeQueue(ctx context.Context, queue registry.WorkQueue, defs map[string]string, store *report.SummaryStore) error {
	queueID, ok := defs[queue.Name]
	if !ok {
		return fmt.Errorf("collect: queue %q not known to the platform", queue.Name)
	}

	page, err := r.TMS.Queue(queueID).ListExecutions(ctx,
		tms.WithPage(1), tms.WithPageSize(r.summaryDepth()))
	if err != nil {
		return fmt.Errorf("collect: list executions: %w", err)
	}

	present, err := store.ExistingIDs(queue)
	if err != nil {
		return err
	}

	var summaries []report.Summary
	for _, exec := range page.Items {
		if present[exec.Key] {
			continue
		}
		results, err := r.TMS.Execution(exec.Key).Results(ctx, r.resultsPageSize())
		if err != nil {
			return fmt.Errorf("collect: fetch results for %s: %w", exec.Key, err)
		}
		summaries = append(summaries, report.Summarize(exec, toRecords(results)))
	}

	added, err := store.Prepend(queue, summaries)
	if err != nil {
		return err
	}
	r.logger().Info("queue summarized", "queue", queue.StandardName, "added", added)
	return nil
}

// toRecords maps platform result items onto domain records, normalizing
// the raw status once at this boundary.
func toRecords(items []tms.ResultItem) []record.ExecutionRecord {
	records := make([]record.ExecutionRecord, 0, len(items))
	for _, it := range items {
		rec := record.ExecutionRecord{
			ID:           it.ID,
			TestName:     it.TestName,
			ScenarioName: it.ScenarioName,
			Key:          it.Key,
			Status:       it.Status,
			Duration:     it.Duration,
			Actor:        it.Actor,
			Outcome:      record.NormalizeOutcome(it.Status),
		}
		if it.StartedAt != nil {
			rec.StartedAt = *it.StartedAt
		}
		if it.FinishedAt != nil {
			rec.FinishedAt = *it.FinishedAt
		}
		records = append(records, rec)
	}
	return records
}

func reverse(execs []tms.QueueExecution) {
	for i, j := 0, len(execs)-1; i < j; i, j = i+1, j-1 {
		execs[i], execs[j] = execs[j], execs[i]
	}
}
