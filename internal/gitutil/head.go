package gitutil

import (
	"os/exec"
	"strings"
)

// HeadCommit returns repoRoot's current HEAD commit hash, or "" if git
// fails (detached worktree mid-operation, not yet a repo, etc).
func HeadCommit(repoRoot string) string {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
