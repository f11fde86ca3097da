// Package enrich attaches issue-tracker keys and failure detail to a
// freshly-collected batch of execution records before it is written out.
package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"magpie/internal/issuecache"
	"magpie/internal/record"
	"magpie/internal/tms"
)

// Platform is the slice of the test-management client the enricher uses.
type Platform interface {
	FailureDetail(ctx context.Context, resultID string) ([]tms.DetailStep, error)
	DownloadAttachment(ctx context.Context, reference string) ([]byte, error)
}

// Enricher drives issue-key resolution and failure-detail/screenshot
// retrieval for one batch. All fields are set by the caller; a single
// Enricher serves the whole run.
type Enricher struct {
	Platform   Platform
	Cache      *issuecache.Cache
	Searcher   issuecache.Searcher
	ReportsDir string
	Logger     *slog.Logger

	// Now stamps screenshot filenames; overridable in tests.
	Now func() time.Time
}

func (e *Enricher) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (e *Enricher) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Enrich mutates records in place. Issue keys are attached to every record
// whose test name resolves, pass or fail, because the front end links
// issues on all tests. Failure detail and screenshots are fetched only for
// failed records, concurrently and uncapped: failing-test counts per batch
// are small, unlike the rate-limited issue search which Resolve bounds.
//
// A detail-fetch or download failure for one record is logged and leaves
// that record's enrichment fields unset; it never aborts the batch.
func (e *Enricher) Enrich(ctx context.Context, records []record.ExecutionRecord) {
	e.attachIssueKeys(ctx, records)

	var wg sync.WaitGroup
	for i := range records {
		if records[i].Outcome != record.OutcomeFailed {
			continue
		}
		wg.Add(1)
		go func(rec *record.ExecutionRecord) {
			defer wg.Done()
			e.enrichFailure(ctx, rec)
		}(&records[i])
	}
	wg.Wait()
}

func (e *Enricher) attachIssueKeys(ctx context.Context, records []record.ExecutionRecord) {
	if e.Cache == nil || e.Searcher == nil {
		return
	}

	names := make([]string, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.TestName == "" || seen[rec.TestName] {
			continue
		}
		seen[rec.TestName] = true
		names = append(names, rec.TestName)
	}

	resolved := e.Cache.Resolve(ctx, e.Searcher, names)
	for i := range records {
		key, ok := resolved[records[i].TestName]
		if !ok {
			continue
		}
		if key != nil {
			records[i].JiraKey = record.FoundIssue(*key)
		} else {
			records[i].JiraKey = record.NoIssue()
		}
	}
}

// enrichFailure fetches the failure detail for one record and fills its
// error fields from the first failed, non-disabled step. Field assignment
// is all-at-once so an error never leaves a half-enriched record.
func (e *Enricher) enrichFailure(ctx context.Context, rec *record.ExecutionRecord) {
	steps, err := e.Platform.FailureDetail(ctx, rec.ID)
	if err != nil {
		e.logger().Warn("failure detail fetch failed, record left unenriched",
			"test", rec.TestName, "result", rec.ID, "error", err)
		return
	}

	var failed *tms.DetailStep
	for i := range steps {
		if steps[i].IsFailure() {
			failed = &steps[i]
			break
		}
	}
	if failed == nil {
		e.logger().Debug("no failed step in detail", "test", rec.TestName, "result", rec.ID)
		return
	}

	rec.ErrorTitle = failed.Title
	rec.ErrorDescription = failed.Description
	if failed.Reference != "" {
		rec.Screenshot = e.fetchScreenshot(ctx, rec.TestName, failed.Reference)
	}
}

// fetchScreenshot downloads the referenced image into the screenshots
// directory and returns its path relative to the reports directory. When
// the download fails, the raw reference is returned instead so the front
// end still has something to link.
func (e *Enricher) fetchScreenshot(ctx context.Context, testName, reference string) string {
	data, err := e.Platform.DownloadAttachment(ctx, reference)
	if err != nil {
		e.logger().Warn("screenshot download failed, storing raw reference",
			"test", testName, "reference", reference, "error", err)
		return reference
	}

	name := fmt.Sprintf("%s_%d.png", sanitizeFileName(testName), e.now().UnixMilli())
	dir := filepath.Join(e.ReportsDir, "screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.logger().Warn("screenshot dir create failed, storing raw reference",
			"test", testName, "error", err)
		return reference
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		e.logger().Warn("screenshot write failed, storing raw reference",
			"test", testName, "error", err)
		return reference
	}
	return "screenshots/" + name
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFileName replaces filesystem-hostile characters with underscores.
func sanitizeFileName(s string) string {
	return unsafeFileChars.ReplaceAllString(s, "_")
}
