package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rjwalters/loom-sub003/internal/gitutil"
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/repo"
	"github.com/rjwalters/loom-sub003/internal/statestore"
	"github.com/rjwalters/loom-sub003/internal/timeutil"
	"github.com/spf13/cobra"
)

var (
	reportStatus string
	reportTests  []string
	reportIssue  string
	reportTTL    int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report the current baseline health status",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportStatus, "status", "", "healthy, failing, or unknown")
	reportCmd.Flags().StringArrayVar(&reportTests, "test", nil, "name of a failing test (repeatable)")
	reportCmd.Flags().StringVar(&reportIssue, "issue", "", "issue tracking the failure, e.g. #2042")
	reportCmd.Flags().IntVar(&reportTTL, "ttl", 15, "cache TTL in minutes")
	_ = reportCmd.MarkFlagRequired("status") // only fails if no "status" flag is defined
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	status := model.BaselineHealthStatus(reportStatus)
	switch status {
	case model.BaselineHealthy, model.BaselineFailing, model.BaselineUnknown:
	default:
		return fmt.Errorf("loom-baseline-health report: --status must be healthy, failing, or unknown, got %q", reportStatus)
	}

	var locator repo.Locator
	root, err := locator.Root("")
	if err != nil {
		return err
	}
	store := statestore.New(filepath.Join(root, ".loom"))

	failingTests := make([]model.FailingTest, 0, len(reportTests))
	for _, name := range reportTests {
		failingTests = append(failingTests, model.FailingTest{Name: name})
	}

	health := &model.BaselineHealth{
		Status:       status,
		FailingTests: failingTests,
		Issue:        reportIssue,
		ReportedAt:   timeutil.FormatTimestamp(timeutil.NowUTC()),
		TTLSeconds:   reportTTL * 60,
		MainCommit:   gitutil.HeadCommit(root),
	}

	if err := store.WriteBaselineHealth(health); err != nil {
		return fmt.Errorf("loom-baseline-health report: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Baseline health: %s\n", health.Status)
	for _, t := range failingTests {
		fmt.Fprintf(os.Stderr, "  - %s\n", t.Name)
	}
	if health.Issue != "" {
		fmt.Fprintf(os.Stderr, "Tracking: %s\n", health.Issue)
	}
	return nil
}
