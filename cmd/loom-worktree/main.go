// Command loom-worktree is the external worktree helper §7 treats as a
// collaborator: it gives one issue its own git worktree and branch so a
// shepherd's builder phase never mutates the primary checkout, and tears
// the worktree back down (with an interactive confirmation, unless
// scripted via --json) when the caller is done with it.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rjwalters/loom-sub003/internal/repo"
	"github.com/rjwalters/loom-sub003/internal/worktree"
)

var (
	flagReturnTo string
	flagJSON     bool
	flagCheck    bool
)

var rootCmd = &cobra.Command{
	Use:           "loom-worktree [issue]",
	Short:         "Create, check, or tear down a per-issue git worktree",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&flagReturnTo, "return-to", "", "tear the issue's worktree down instead of creating one; the path must exist and is reported as returnTo in --json output")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "emit a WorktreeResult as JSON instead of plain text")
	rootCmd.Flags().BoolVar(&flagCheck, "check", false, "report whether the current directory is a linked worktree, without creating one")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// exitCode lets run's RunE (which cobra only inspects for nil-vs-error)
// communicate loom-worktree's richer 0/1 contract back to main.
var exitCode int

func run(cmd *cobra.Command, args []string) error {
	if flagCheck {
		exitCode = runCheck()
		return nil
	}

	if len(args) == 0 {
		cmd.Println(cmd.UsageString())
		exitCode = 0
		return nil
	}

	issue, err := strconv.Atoi(args[0])
	if err != nil {
		exitCode = emit(&worktree.Result{Success: false, Error: fmt.Sprintf("issue number must be numeric, got %q", args[0])})
		return nil
	}

	var locator repo.Locator
	root, err := locator.Root("")
	if err != nil {
		exitCode = emit(&worktree.Result{Success: false, Error: err.Error()})
		return nil
	}

	if flagReturnTo != "" {
		if _, statErr := os.Stat(flagReturnTo); statErr != nil {
			exitCode = emit(&worktree.Result{Success: false, Error: fmt.Sprintf("--return-to path %q does not exist", flagReturnTo)})
			return nil
		}
		exitCode = runTeardown(root, issue)
		return nil
	}

	result := worktree.Ensure(root, issue)
	exitCode = emit(result)
	return nil
}

func runCheck() int {
	cwd, err := os.Getwd()
	if err != nil {
		return emit(&worktree.Result{Success: false, Error: err.Error()})
	}
	result := worktree.Check(cwd)
	if !flagJSON {
		if result.Success {
			fmt.Printf("in worktree %s (branch %s)\n", result.WorktreePath, result.BranchName)
		} else {
			fmt.Println("not in a worktree")
		}
	}
	return emit(result)
}

func runTeardown(root string, issue int) int {
	path := worktree.Path(root, issue)
	if _, err := os.Stat(path); err != nil {
		return emit(&worktree.Result{Success: false, Error: fmt.Sprintf("no worktree exists for issue #%d", issue)})
	}

	if !flagJSON && !confirmTeardown(path) {
		return emit(&worktree.Result{Success: false, Error: "teardown cancelled"})
	}

	if err := worktree.Remove(root, path); err != nil {
		return emit(&worktree.Result{Success: false, Error: err.Error()})
	}
	return emit(&worktree.Result{Success: true, WorktreePath: path, IssueNumber: issue, ReturnTo: flagReturnTo})
}

// confirmTeardown asks the operator before removing a worktree; skipped
// entirely in --json mode, since a scripted caller has already decided.
func confirmTeardown(path string) bool {
	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Remove worktree at %s?", path)).
				Affirmative("Remove").
				Negative("Cancel").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return false
	}
	return confirmed
}

// emit prints result (JSON if --json, else a plain success/error line) and
// returns the process exit code: 0 on success, 1 otherwise.
func emit(result *worktree.Result) int {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		_ = enc.Encode(result)
	} else if !result.Success {
		fmt.Fprintln(os.Stderr, "error:", result.Error)
	} else if result.WorktreePath != "" {
		fmt.Printf("worktree: %s (branch %s)\n", result.WorktreePath, result.BranchName)
	}

	if result.Success {
		return 0
	}
	return 1
}
