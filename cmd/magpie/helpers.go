package main

import (
	"fmt"
	"os"
	"strings"

	"magpie/internal/collect"
	"magpie/internal/enrich"
	"magpie/internal/issuecache"
	"magpie/internal/jira"
	"magpie/internal/logging"
	"magpie/internal/registry"
	"magpie/internal/tms"
)

func tmsBaseURL() (string, error) {
	base := rootFlags.tmsBaseURL
	if base == "" {
		base = os.Getenv("MAGPIE_TMS_URL")
	}
	if base == "" {
		return "", fmt.Errorf("platform base URL is required\n\nSet it via environment variable:\n  export MAGPIE_TMS_URL=https://tms.example.com\n\nOr use the --tms-base-url flag")
	}
	return base, nil
}

// newTMSClient builds the platform client around the session the login
// step left behind. The collector itself never logs in.
func newTMSClient() (*tms.Client, error) {
	base, err := tmsBaseURL()
	if err != nil {
		return nil, err
	}

	opts := []tms.Option{
		tms.WithLogger(logging.New("tms")),
		tms.WithTimeout(rootFlags.timeout),
	}
	if cookie, err := tms.ReadSessionFile(rootFlags.sessionFile); err == nil && cookie != "" {
		opts = append(opts, tms.WithSessionCookie(cookie))
	}

	return tms.New(base, opts...)
}

// newIssueFinder builds the Jira searcher, or returns nil when Jira is
// not configured; the enricher then skips issue-key attachment.
func newIssueFinder(authFile, project string) (issuecache.Searcher, error) {
	base := os.Getenv("MAGPIE_JIRA_URL")
	if base == "" {
		return nil, nil
	}
	if project == "" {
		project = os.Getenv("MAGPIE_JIRA_PROJECT")
	}
	if project == "" {
		return nil, fmt.Errorf("jira project is required when $MAGPIE_JIRA_URL is set (--jira-project or $MAGPIE_JIRA_PROJECT)")
	}

	line, err := tms.ReadSessionFile(authFile)
	if err != nil {
		return nil, fmt.Errorf("read jira auth file %s: %w", authFile, err)
	}
	email, token, ok := strings.Cut(line, ":")
	if !ok {
		return nil, fmt.Errorf("jira auth file %s: want email:token on the first line", authFile)
	}

	client, err := jira.New(base, email, token,
		jira.WithLogger(logging.New("jira")),
		jira.WithTimeout(rootFlags.timeout))
	if err != nil {
		return nil, err
	}
	return &jira.IssueFinder{Client: client, Project: project}, nil
}

func newRunner(cache *issuecache.Cache, searcher issuecache.Searcher) (*collect.Runner, error) {
	client, err := newTMSClient()
	if err != nil {
		return nil, err
	}

	queues, err := registry.LoadFromPath(rootFlags.registry)
	if err != nil {
		return nil, err
	}

	return &collect.Runner{
		TMS:    client,
		Queues: queues,
		Enricher: &enrich.Enricher{
			Platform:   client,
			Cache:      cache,
			Searcher:   searcher,
			ReportsDir: rootFlags.reportsDir,
			Logger:     logging.New("enrich"),
		},
		ReportsDir: rootFlags.reportsDir,
		Logger:     logging.New("collect"),
	}, nil
}
