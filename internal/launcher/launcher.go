// Package launcher wires internal/session and internal/claudeconfig into
// the two collaborators the daemon and the shepherd pipeline depend on as
// interfaces: actions.SessionLauncher (one tmux session per shepherd run)
// and shepherd.CommandRunner (one synchronous worker-agent invocation per
// phase, inside that session).
package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rjwalters/loom-sub003/internal/claudeconfig"
	"github.com/rjwalters/loom-sub003/internal/session"
	"github.com/rjwalters/loom-sub003/internal/shepherd"
)

// Tmux implements actions.SessionLauncher: every shepherd run gets its own
// long-lived tmux session (named after its task id, on the shared "loom"
// socket per internal/session's convention), so the daemon's stale-session
// reclaim can probe its liveness the same way it probes any other worker
// session.
type Tmux struct {
	RepoRoot string
	StateDir string

	// WorkerCommand builds the shell command that session.Start runs for a
	// claimed issue — normally this process re-invoked as its hidden
	// "shepherd" subcommand. Injected rather than hardcoded so the cmd/ entry point supplies
	// its own argv without launcher importing cmd.
	WorkerCommand func(taskID string, issue int) string

	// SupportRoleCommand builds the shell command for a periodic support
	// role (guide, champion, doctor, auditor, judge, curator) with no
	// associated issue.
	SupportRoleCommand func(role string) string
}

// LaunchShepherd starts taskID's tmux session running the configured
// worker command, redirecting its output to a per-task log file under
// StateDir/logs/ so a human (or the daemon's own tail) can inspect
// progress without attaching to the session.
func (t *Tmux) LaunchShepherd(taskID string, issue int) (outputFile string, err error) {
	if _, err := claudeconfig.Setup(t.StateDir, "shepherd-"+taskID); err != nil {
		return "", fmt.Errorf("launcher: claude config setup: %w", err)
	}

	outputFile = filepath.Join(t.StateDir, "logs", "shepherd-"+taskID+".log")
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return "", fmt.Errorf("launcher: create log dir: %w", err)
	}
	cmd := redirectToLog(t.WorkerCommand(taskID, issue), outputFile)

	sess := session.New(taskID)
	if err := sess.Start(t.RepoRoot, cmd); err != nil {
		return "", fmt.Errorf("launcher: start session %s: %w", taskID, err)
	}
	return outputFile, nil
}

// LaunchSupportRole starts (or restarts) a periodic support role's session,
// named after the role itself since only one instance of each runs at a
// time.
func (t *Tmux) LaunchSupportRole(role string) error {
	if _, err := claudeconfig.Setup(t.StateDir, "support-"+role); err != nil {
		return fmt.Errorf("launcher: claude config setup: %w", err)
	}
	outputFile := filepath.Join(t.StateDir, "logs", "support-"+role+".log")
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o755); err != nil {
		return fmt.Errorf("launcher: create log dir: %w", err)
	}
	cmd := redirectToLog(t.SupportRoleCommand(role), outputFile)

	sess := session.New("support-" + role)
	if err := sess.Start(t.RepoRoot, cmd); err != nil {
		return fmt.Errorf("launcher: start session support-%s: %w", role, err)
	}
	return nil
}

// redirectToLog appends an output-redirection suffix to cmd so a
// detached tmux session's stdout/stderr survive after the pane is no
// longer being watched.
func redirectToLog(cmd, outputFile string) string {
	return cmd + " >> " + shellQuote(outputFile) + " 2>&1"
}

func shellQuote(s string) string {
	return "'" + s + "'"
}

// AgentWorker implements shepherd.CommandRunner by invoking the worker CLI
// synchronously (one process per phase attempt, not a nested tmux
// session), since a phase already runs inside the outer shepherd session
// Tmux started — nesting tmux again would only add a layer the daemon
// never needs to see.
type AgentWorker struct {
	// Binary is the worker CLI to invoke; "claude" in production, a stub
	// in tests.
	Binary   string
	RepoRoot string

	// PromptFor builds the role-specific prompt text passed to Binary.
	PromptFor func(role string, issue, prNumber int) string
}

// RunPhaseWithRetry runs role's worker, retrying up to maxRetries times
// whenever an attempt exceeds timeoutSeconds without completing. A
// completed run (zero or nonzero exit, but not a timeout) ends the retry
// loop immediately — only a stuck agent is worth retrying. Exhausting all
// retries without a single non-timeout completion reports
// shepherd.ExitNeedsIntervention so the calling phase can treat it as
// "stuck", matching the phases' own interpretation of that code. A
// timeoutSeconds of zero or less runs each attempt without a deadline.
func (w *AgentWorker) RunPhaseWithRetry(role string, issue, prNumber, timeoutSeconds, maxRetries int) (int, error) {
	prompt := w.PromptFor(role, issue, prNumber)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		ctx, cancel := context.Background(), context.CancelFunc(func() {})
		if timeoutSeconds > 0 {
			ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
		}
		cmd := exec.CommandContext(ctx, w.Binary, "--dangerously-skip-permissions", "-p", prompt)
		cmd.Dir = w.RepoRoot
		err := cmd.Run()
		timedOut := ctx.Err() == context.DeadlineExceeded
		cancel()

		if timedOut {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("launcher: %s worker: %w", role, err)
		}
		return int(shepherd.ExitSuccess), nil
	}
	return int(shepherd.ExitNeedsIntervention), nil
}
