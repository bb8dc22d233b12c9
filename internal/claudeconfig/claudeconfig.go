// Package claudeconfig isolates each worker's Claude Code configuration
// directory so concurrent shepherds don't fight over sessions, lock files,
// and temp directories in a shared home-directory config tree.
package claudeconfig

import (
	"os"
	"path/filepath"
)

// sharedConfigFiles are symlinked read-only from the user's home config.
var sharedConfigFiles = []string{"settings.json", "config.json", "mcp.json", ".mcp.json"}

// sharedConfigDirs are symlinked read-only caches.
var sharedConfigDirs = []string{"statsig"}

// mutableDirs get a fresh, empty directory per agent.
var mutableDirs = []string{
	"projects", "todos", "debug", "file-history", "session-env",
	"tasks", "plans", "shell-snapshots", "tmp",
}

// BaseDir returns the claude-config root under a state directory.
func BaseDir(stateDir string) string {
	return filepath.Join(stateDir, "claude-config")
}

// AgentDir returns one agent's config directory under a state directory.
func AgentDir(stateDir, agentName string) string {
	return filepath.Join(BaseDir(stateDir), agentName)
}

// resolveStateFile mirrors claude_config.py's two-step lookup: the
// preferred ~/.claude/.config.json, falling back to ~/.claude.json.
func resolveStateFile(home string) string {
	preferred := filepath.Join(home, ".claude", ".config.json")
	if _, err := os.Stat(preferred); err == nil {
		return preferred
	}
	return filepath.Join(home, ".claude.json")
}

// Setup materializes an idempotent, isolated CLAUDE_CONFIG_DIR for
// agentName under stateDir/claude-config/<agentName>/, symlinking shared
// read-only config from the user's home directory and creating empty
// mutable-state directories. Calling it twice leaves the directory
// unchanged (the round-trip/idempotence testable property in §8).
func Setup(stateDir, agentName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := AgentDir(stateDir, agentName)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", err
	}

	homeClaude := filepath.Join(home, ".claude")
	for _, name := range sharedConfigFiles {
		symlinkIfMissing(filepath.Join(homeClaude, name), filepath.Join(configDir, name))
	}

	stateSrc := resolveStateFile(home)
	symlinkIfMissing(stateSrc, filepath.Join(configDir, ".claude.json"))

	for _, name := range sharedConfigDirs {
		symlinkIfMissing(filepath.Join(homeClaude, name), filepath.Join(configDir, name))
	}

	for _, name := range mutableDirs {
		if err := os.MkdirAll(filepath.Join(configDir, name), 0o755); err != nil {
			return "", err
		}
	}

	return configDir, nil
}

// symlinkIfMissing creates dst -> src only when src exists and dst does
// not, so repeated Setup calls are idempotent.
func symlinkIfMissing(src, dst string) {
	if _, err := os.Lstat(dst); err == nil {
		return
	}
	if _, err := os.Stat(src); err != nil {
		return
	}
	_ = os.Symlink(src, dst)
}

// Cleanup removes one agent's config directory. Returns true if a
// directory was actually removed.
func Cleanup(stateDir, agentName string) (bool, error) {
	configDir := AgentDir(stateDir, agentName)
	info, err := os.Stat(configDir)
	if err != nil || !info.IsDir() {
		return false, nil
	}
	if err := os.RemoveAll(configDir); err != nil {
		return false, err
	}
	return true, nil
}

// CleanupAll removes every per-agent config directory under stateDir,
// returning the count removed.
func CleanupAll(stateDir string) (int, error) {
	base := BaseDir(stateDir)
	entries, err := os.ReadDir(base)
	if err != nil {
		return 0, nil
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(base, e.Name())); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
