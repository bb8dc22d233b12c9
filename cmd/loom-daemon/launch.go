package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// nowFunc returns the wall-clock time used to derive the daemon's session
// id.
func nowFunc() time.Time { return time.Now() }

// selfExecutable resolves this binary's own path, so the tmux sessions it
// launches re-invoke the same loom-daemon build rather than whatever
// "loom-daemon" happens to resolve to on PATH.
func selfExecutable() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("loom-daemon: resolve own executable: %w", err)
	}
	return path, nil
}

// shepherdCommandLine builds launcher.Tmux.WorkerCommand: the shell command
// a shepherd's tmux session runs to drive one issue through the phase
// pipeline, always passing --merge per the claimed-issue contract.
func shepherdCommandLine(selfPath string, forceMode bool) func(taskID string, issue int) string {
	return func(taskID string, issue int) string {
		cmd := fmt.Sprintf("%s shepherd %d --merge --allow-dirty-main --task-id %s",
			shellQuoteArg(selfPath), issue, shellQuoteArg(taskID))
		if forceMode {
			cmd += " --force"
		}
		return cmd
	}
}

// supportCommandLine builds launcher.Tmux.SupportRoleCommand: the shell
// command a periodic support role's tmux session runs.
func supportCommandLine(selfPath string) func(role string) string {
	return func(role string) string {
		return fmt.Sprintf("%s support %s", shellQuoteArg(selfPath), shellQuoteArg(role))
	}
}

func shellQuoteArg(s string) string { return "'" + s + "'" }

// runWorkerBinary is the agent CLI the shepherd and support subcommands
// shell out to: $LOOM_AGENT_BINARY when set, otherwise "claude", which exec
// resolves on PATH when the worker is started.
func runWorkerBinary() string {
	if bin := os.Getenv("LOOM_AGENT_BINARY"); bin != "" {
		return bin
	}
	return "claude"
}

// lookupEnvInt reads an environment variable as an int, falling back to def
// on an unset or unparsable value.
func lookupEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
