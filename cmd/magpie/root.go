// magpie collects automated-test execution results from the test
// management platform, enriches them with Jira issue keys and failure
// screenshots, and writes immutable date-partitioned JSON reports.
//
// Usage:
//
//	magpie collect --registry queues.yaml
//	magpie summary --registry queues.yaml --last 10
//	magpie queues
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"magpie/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	tmsBaseURL  string
	sessionFile string
	reportsDir  string
	registry    string
	timeout     time.Duration
	logLevel    string
	logFormat   string
}

var rootCmd = &cobra.Command{
	Use:   "magpie",
	Short: "Collect and enrich automated-test execution reports",
	Long: "Magpie pulls test execution results from the test-management platform,\n" +
		"attaches Jira issue keys and failure screenshots, and stores them as\n" +
		"date-partitioned JSON reports for the dashboard.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(rootFlags.logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, rootFlags.logFormat)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.tmsBaseURL, "tms-base-url", "", "Platform base URL (default: $MAGPIE_TMS_URL)")
	pf.StringVar(&rootFlags.sessionFile, "session-file", ".tms-session", "Path to session cookie file written by the login step")
	pf.StringVar(&rootFlags.reportsDir, "reports-dir", "reports", "Directory for report artifacts and tracker files")
	pf.StringVar(&rootFlags.registry, "registry", "queues.yaml", "Path to queue registry file (YAML/JSON)")
	pf.DurationVar(&rootFlags.timeout, "timeout", 30*time.Second, "HTTP timeout per API call")
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(queuesCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
