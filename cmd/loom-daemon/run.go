package main

import (
	"errors"
	"path/filepath"

	"github.com/rjwalters/loom-sub003/internal/config"
	"github.com/rjwalters/loom-sub003/internal/daemon"
	"github.com/rjwalters/loom-sub003/internal/launcher"
	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/platform"
	"github.com/rjwalters/loom-sub003/internal/repo"
	"github.com/rjwalters/loom-sub003/internal/statestore"
	"github.com/spf13/cobra"
)

// exitFailure is returned by runDaemon for a startup failure (exit code 1);
// a genuine error during the loop itself maps to exit code 4 via
// exitCodeForError's default case.
var exitFailure = errors.New("loom-daemon: startup failure")

func runDaemon(cmd *cobra.Command, args []string) error {
	var locator repo.Locator
	root, err := locator.Root("")
	if err != nil {
		return exitFailure
	}

	cfg, err := config.Load(root, config.Overrides{
		ForceMode:  flagForce,
		AutoBuild:  flagAutoBuild,
		DebugMode:  flagDebug,
		TimeoutMin: flagTimeoutMin,
	})
	if err != nil {
		return exitFailure
	}

	stateDir := filepath.Join(root, ".loom")
	log := logging.New().WithFile(filepath.Join(stateDir, "daemon.log"))

	ctx := daemon.NewContext(cfg, root, nowFunc())
	ctx.OrchestrationActive = cfg.AutoBuild || cfg.ForceMode

	store := statestore.New(stateDir)
	client := platform.NewClient()

	selfPath, err := selfExecutable()
	if err != nil {
		return exitFailure
	}

	loop := &daemon.Loop{
		Store:  store,
		Client: client,
		Log:    log,
		Launcher: &launcher.Tmux{
			RepoRoot:           root,
			StateDir:           stateDir,
			WorkerCommand:      shepherdCommandLine(selfPath, cfg.ForceMode),
			SupportRoleCommand: supportCommandLine(selfPath),
		},
	}

	if err := loop.Run(ctx); err != nil {
		return err
	}

	switch ctx.ExitReason {
	case daemon.ExitReasonSignal:
		return errSignalShutdown
	case daemon.ExitReasonConflict:
		return errSessionConflict
	default:
		return nil
	}
}

// errSignalShutdown and errSessionConflict are sentinels distinguishing the
// two non-error ways Run can stop from a genuine error, so main's exit-code
// mapping can tell clean shutdown (0), a stop signal (3), and a lost
// session-conflict race (2) apart without Loop.Run itself needing to carry
// CLI exit-code knowledge.
var (
	errSignalShutdown  = errors.New("loom-daemon: stop signal received")
	errSessionConflict = errors.New("loom-daemon: session conflict")
)

func exitCodeForError(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, exitFailure):
		return 1
	case errors.Is(err, errSessionConflict):
		return 2
	case errors.Is(err, errSignalShutdown):
		return 3
	default:
		return 4
	}
}
