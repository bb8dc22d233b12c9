package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/repo"
	"github.com/rjwalters/loom-sub003/internal/statestore"
	"github.com/rjwalters/loom-sub003/internal/timeutil"
	"github.com/spf13/cobra"
)

var showSince string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current baseline health in human-readable form",
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showSince, "since", "", `only print failing-test detail from reports newer than this (e.g. "2 hours ago")`)
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	var locator repo.Locator
	root, err := locator.Root("")
	if err != nil {
		return err
	}
	store := statestore.New(filepath.Join(root, ".loom"))
	health := store.BaselineHealth()

	var sinceAt time.Time
	if showSince != "" {
		sinceAt, err = parseSince(showSince)
		if err != nil {
			return fmt.Errorf("loom-baseline-health show: %w", err)
		}
	}

	out, err := renderHealth(health, sinceAt)
	if err != nil {
		return fmt.Errorf("loom-baseline-health show: %w", err)
	}
	fmt.Print(out)
	return nil
}

// parseSince resolves a natural-language relative time like "2 hours ago"
// against the current moment.
func parseSince(text string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(text, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --since %q: %w", text, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not understand --since %q", text)
	}
	return r.Time, nil
}

// renderHealth builds the markdown report show prints, rendered through
// glamour so failing-test lists and the commit hash read cleanly in a
// terminal. A non-zero sinceAt suppresses the failing-tests section when
// the report predates it.
func renderHealth(health *model.BaselineHealth, sinceAt time.Time) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Baseline health: %s\n\n", health.Status)

	if health.ReportedAt != "" {
		fmt.Fprintf(&b, "- Reported at: %s\n", health.ReportedAt)
	}
	if health.MainCommit != "" {
		commit := health.MainCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		fmt.Fprintf(&b, "- Main commit: `%s`\n", commit)
	}
	if health.Issue != "" {
		fmt.Fprintf(&b, "- Tracking: %s\n", health.Issue)
	}
	fmt.Fprintf(&b, "- Cache TTL: %dmin\n", health.TTLSeconds/60)

	if !sinceAt.IsZero() {
		reportedAt, err := timeutil.ParseISOTimestamp(health.ReportedAt)
		if err != nil || reportedAt.Before(sinceAt) {
			fmt.Fprintf(&b, "\n_report predates %s, omitting failing-test detail_\n", sinceAt.Format(time.RFC3339))
			return renderMarkdown(b.String())
		}
	}

	if len(health.FailingTests) > 0 {
		b.WriteString("\n## Failing tests\n\n")
		for _, t := range health.FailingTests {
			if t.Detail != "" {
				fmt.Fprintf(&b, "- %s (%s)\n", t.Name, t.Detail)
			} else {
				fmt.Fprintf(&b, "- %s\n", t.Name)
			}
		}
	}

	return renderMarkdown(b.String())
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
