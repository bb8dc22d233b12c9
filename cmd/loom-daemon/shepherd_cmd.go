package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rjwalters/loom-sub003/internal/launcher"
	"github.com/rjwalters/loom-sub003/internal/platform"
	"github.com/rjwalters/loom-sub003/internal/repo"
	"github.com/rjwalters/loom-sub003/internal/shepherd"
	"github.com/rjwalters/loom-sub003/internal/statestore"
	"github.com/spf13/cobra"
)

var (
	shepherdMerge          bool
	shepherdAllowDirtyMain bool
	shepherdForce          bool
	shepherdTaskID         string
	shepherdStartFrom      string
)

var shepherdCmd = &cobra.Command{
	Use:    "shepherd <issue>",
	Short:  "Drive one issue through the shepherd phase pipeline (internal)",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE:   runShepherd,
}

func init() {
	shepherdCmd.Flags().BoolVar(&shepherdMerge, "merge", true, "merge the PR once review passes")
	shepherdCmd.Flags().BoolVar(&shepherdAllowDirtyMain, "allow-dirty-main", false, "tolerate an already-dirty working tree")
	shepherdCmd.Flags().BoolVar(&shepherdForce, "force", false, "run this shepherd in force mode (auto-approve, auto-merge)")
	shepherdCmd.Flags().StringVar(&shepherdTaskID, "task-id", "", "task id this run reports progress under")
	shepherdCmd.Flags().StringVar(&shepherdStartFrom, "from", "", "resume from this phase name, skipping everything before it")
	rootCmd.AddCommand(shepherdCmd)
}

func runShepherd(cmd *cobra.Command, args []string) error {
	issue, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("loom-daemon shepherd: issue must be a number, got %q", args[0])
	}

	var locator repo.Locator
	root, err := locator.Root("")
	if err != nil {
		return exitFailure
	}
	stateDir := filepath.Join(root, ".loom")

	client := platform.NewClient()
	store := statestore.New(stateDir)
	runner := &launcher.AgentWorker{
		Binary:    runWorkerBinary(),
		RepoRoot:  root,
		PromptFor: phasePrompt,
	}

	opts := shepherd.Options{
		Issue:             issue,
		TaskID:            shepherdTaskID,
		IsForceMode:       shepherdForce,
		ShouldAutoApprove: true, // approval is auto-approved in both default and force mode (§4.G)
		ApprovalTimeout:   time.Duration(lookupEnvInt("LOOM_APPROVAL_TIMEOUT", 3600)) * time.Second,
		PollInterval:      time.Duration(lookupEnvInt("LOOM_POLL_INTERVAL", 30)) * time.Second,
		CuratorTimeout:    lookupEnvInt("LOOM_CURATOR_TIMEOUT", 600),
		JudgeTimeout:      lookupEnvInt("LOOM_JUDGE_TIMEOUT", 600),
		StuckMaxRetries:   lookupEnvInt("LOOM_STUCK_MAX_RETRIES", 2),
		StartFrom:         shepherdStartFrom,
	}

	shutdownFn := func() bool {
		_, statErr := os.Stat(filepath.Join(stateDir, "stop-daemon"))
		return statErr == nil
	}

	sctx := shepherd.NewContext(client, store, runner, nil, opts, shutdownFn)
	code := shepherd.Run(sctx, shepherd.DefaultPhases(issueBodyFetcher))

	if code != shepherd.ExitSuccess {
		os.Exit(int(code))
	}
	return nil
}

// issueBodyFetcher retrieves the issue body the builder phase works from.
func issueBodyFetcher(ctx *shepherd.Context) string {
	view := ctx.Client.View(platform.Issue, ctx.Config.Issue, []string{"body"})
	if view == nil {
		return ""
	}
	body, _ := view["body"].(string)
	return body
}

// phasePrompt builds the instruction text handed to the worker agent for
// one phase invocation.
func phasePrompt(role string, issue, prNumber int) string {
	switch role {
	case "curator":
		return fmt.Sprintf("Act as the curator for issue #%d: review it and add implementation guidance a builder can follow.", issue)
	case "builder":
		return fmt.Sprintf("Act as the builder for issue #%d: implement the change it describes and open a pull request.", issue)
	case "judge":
		return fmt.Sprintf("Act as the judge for issue #%d, PR #%d: review the PR for correctness and completeness.", issue, prNumber)
	case "doctor":
		return fmt.Sprintf("Act as the doctor for issue #%d, PR #%d: diagnose and fix any failing tests.", issue, prNumber)
	default:
		return fmt.Sprintf("Act as the %s worker for issue #%d.", role, issue)
	}
}
