package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rjwalters/loom-sub003/internal/repo"
	"github.com/spf13/cobra"
)

// supportRolePrompts holds the one-shot instruction each periodic support
// role is invoked with; these roles have no phase pipeline of their own,
// so a single worker invocation is the whole job.
var supportRolePrompts = map[string]string{
	"guide":    "Act as the guide: review open issues lacking guidance and help shape them into buildable work.",
	"champion": "Act as the champion: review approved PRs awaiting merge and merge the ones that are ready.",
	"doctor":   "Act as the repo doctor: check out the repository's overall health and report anything that needs attention.",
	"auditor":  "Act as the auditor: review recently merged PRs for quality regressions.",
	"judge":    "Act as the judge: review open PRs awaiting review and leave a verdict.",
	"curator":  "Act as the curator: review uncurated issues and add implementation guidance.",
}

var supportTimeout int

var supportCmd = &cobra.Command{
	Use:    "support <role>",
	Short:  "Run one periodic support role invocation (internal)",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE:   runSupport,
}

func init() {
	supportCmd.Flags().IntVar(&supportTimeout, "timeout", 1800, "seconds to allow the worker before giving up")
	rootCmd.AddCommand(supportCmd)
}

func runSupport(cmd *cobra.Command, args []string) error {
	role := args[0]
	prompt, ok := supportRolePrompts[role]
	if !ok {
		return fmt.Errorf("loom-daemon support: unknown role %q", role)
	}

	var locator repo.Locator
	root, err := locator.Root("")
	if err != nil {
		return exitFailure
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(supportTimeout)*time.Second)
	defer cancel()

	worker := exec.CommandContext(ctx, runWorkerBinary(), "--dangerously-skip-permissions", "-p", prompt)
	worker.Dir = root
	worker.Stdout = os.Stdout
	worker.Stderr = os.Stderr
	if err := worker.Run(); err != nil {
		return fmt.Errorf("loom-daemon support %s: %w", role, err)
	}
	return nil
}
