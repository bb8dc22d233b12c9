// Command loom-daemon runs Loom's orchestration loop: it claims ready
// issues, spawns shepherds to drive them through the phase pipeline,
// triggers periodic support roles, and reconciles daemon state every tick
// until a stop signal arrives.
//
// It also carries two internal subcommands, shepherd and support, which
// are not meant to be invoked by a human directly: the daemon launches
// them itself, inside a tmux session, to run one shepherd's phase pipeline
// or one periodic support role.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagForce      bool
	flagAutoBuild  bool
	flagDebug      bool
	flagTimeoutMin int
)

var rootCmd = &cobra.Command{
	Use:   "loom-daemon",
	Short: "Run Loom's orchestration loop",
	Long: `loom-daemon polls the configured platform for ready issues and open
PRs, reconciles daemon state, and spawns shepherds and support roles
according to the recommendations its snapshot computes each tick.

It runs until it receives a stop signal, loses a session-conflict race to
another instance, or hits an unrecoverable error.`,
	RunE:          runDaemon,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().BoolVar(&flagForce, "force", false, "enable force mode (auto-approve, auto-promote, auto-merge)")
	rootCmd.Flags().BoolVar(&flagAutoBuild, "auto-build", false, "spawn shepherds for ready issues automatically")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().IntVar(&flagTimeoutMin, "timeout-min", 0, "exit after this many minutes (0 disables the timeout)")
}

func main() {
	err := rootCmd.Execute()
	code := exitCodeForError(err)
	if err != nil && !errors.Is(err, errSignalShutdown) && !errors.Is(err, errSessionConflict) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}
