// Package doctor runs preflight health checks against the repo and its
// toolchain: the gh CLI version, git working-tree cleanliness, the .loom
// state directory, and the cached baseline-health classification a
// shepherd's builder phase consults before running tests.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/timeutil"
)

// Status is the traffic-light classification of one check's result.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Check is one named health finding, the Go analogue of bd doctor's
// DoctorCheck result shape.
type Check struct {
	Name    string
	Status  Status
	Message string
	Detail  string
	Fix     string
}

// MinGHVersion is the oldest gh CLI version Loom's label-swap claiming and
// CI-status checks are known to work against.
const MinGHVersion = "v2.20.0"

var ghVersionLine = regexp.MustCompile(`gh version (\S+)`)

// CheckGHInstalled verifies the gh CLI is on PATH and meets MinGHVersion.
func CheckGHInstalled() Check {
	out, err := exec.Command("gh", "--version").Output()
	if err != nil {
		return Check{
			Name:    "GitHub CLI",
			Status:  StatusError,
			Message: "gh not found on PATH",
			Fix:     "Install the GitHub CLI: https://cli.github.com",
		}
	}

	match := ghVersionLine.FindStringSubmatch(string(out))
	if match == nil {
		return Check{
			Name:    "GitHub CLI",
			Status:  StatusWarning,
			Message: "could not parse gh version",
			Detail:  strings.TrimSpace(string(out)),
		}
	}

	version := "v" + strings.TrimPrefix(match[1], "v")
	if !semver.IsValid(version) {
		return Check{
			Name:    "GitHub CLI",
			Status:  StatusWarning,
			Message: fmt.Sprintf("unrecognized gh version %q", match[1]),
		}
	}

	if semver.Compare(version, MinGHVersion) < 0 {
		return Check{
			Name:    "GitHub CLI",
			Status:  StatusWarning,
			Message: fmt.Sprintf("gh %s is older than the minimum %s", version, MinGHVersion),
			Fix:     "Upgrade gh: https://cli.github.com",
		}
	}

	return Check{
		Name:    "GitHub CLI",
		Status:  StatusOK,
		Message: fmt.Sprintf("gh %s", version),
	}
}

// CheckGHAuth verifies gh is authenticated against some host.
func CheckGHAuth() Check {
	if err := exec.Command("gh", "auth", "status").Run(); err != nil {
		return Check{
			Name:    "GitHub Auth",
			Status:  StatusError,
			Message: "gh is not authenticated",
			Fix:     "Run 'gh auth login'",
		}
	}
	return Check{Name: "GitHub Auth", Status: StatusOK, Message: "authenticated"}
}

// CheckGitWorkingTree reports whether repoRoot's working tree is clean,
// the same invariant the daemon's merge phase relies on not being dirty
// underneath it mid-run.
func CheckGitWorkingTree(repoRoot string) Check {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return Check{
			Name:    "Git Working Tree",
			Status:  StatusWarning,
			Message: "unable to check git status",
			Detail:  err.Error(),
		}
	}
	status := strings.TrimSpace(string(out))
	if status == "" {
		return Check{Name: "Git Working Tree", Status: StatusOK, Message: "clean"}
	}

	lines := strings.Split(status, "\n")
	const maxLines = 8
	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}
	return Check{
		Name:    "Git Working Tree",
		Status:  StatusWarning,
		Message: "uncommitted changes present",
		Detail:  strings.Join(lines, "\n"),
		Fix:     "commit or stash changes before starting the daemon",
	}
}

// CheckLoomStateDir verifies repoRoot/.loom exists, matching the
// daemon's assumption that repo.Locator already found it.
func CheckLoomStateDir(repoRoot string) Check {
	dir := filepath.Join(repoRoot, ".loom")
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return Check{
			Name:    "Loom State Directory",
			Status:  StatusError,
			Message: ".loom directory not found",
			Fix:     "Run from inside a repo with an initialized .loom/ directory",
		}
	}
	return Check{Name: "Loom State Directory", Status: StatusOK, Message: dir}
}

// CheckBaselineHealth classifies the cached baseline-health report: healthy
// and fresh is ok, failing is error, and unknown/stale is a warning so the
// next builder phase knows a fresh baseline run is overdue.
func CheckBaselineHealth(b *model.BaselineHealth) Check {
	ttlSeconds := b.TTLSeconds
	if ttlSeconds <= 0 {
		ttlSeconds = 15 * 60
	}
	stale := b.ReportedAt == "" || timeutil.ElapsedSeconds(b.ReportedAt) > ttlSeconds

	switch {
	case b.Status == model.BaselineFailing:
		msg := "main branch baseline is failing"
		if b.Issue != "" {
			msg += " (tracked by " + b.Issue + ")"
		}
		return Check{
			Name:    "Baseline Health",
			Status:  StatusError,
			Message: msg,
			Detail:  joinFailingTests(b.FailingTests),
			Fix:     "wait for the auditor role to restore a healthy baseline, or inspect the tracked issue",
		}
	case stale || b.Status == model.BaselineUnknown:
		return Check{
			Name:    "Baseline Health",
			Status:  StatusWarning,
			Message: "baseline health is stale or unknown",
			Fix:     "trigger the auditor role to refresh STATE/baseline-health.json",
		}
	default:
		return Check{Name: "Baseline Health", Status: StatusOK, Message: "main branch baseline is healthy"}
	}
}

func joinFailingTests(tests []model.FailingTest) string {
	if len(tests) == 0 {
		return ""
	}
	names := make([]string, len(tests))
	for i, t := range tests {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}

// RunAll runs every check in a fixed order, the order a human reading
// `loom-daemon doctor` output would expect: toolchain first, then repo
// state, then the cached baseline classification.
func RunAll(repoRoot string, baseline *model.BaselineHealth) []Check {
	return []Check{
		CheckGHInstalled(),
		CheckGHAuth(),
		CheckGitWorkingTree(repoRoot),
		CheckLoomStateDir(repoRoot),
		CheckBaselineHealth(baseline),
	}
}

// BaselineCheckExitCode mirrors loom-baseline-health's `check` subcommand:
// 0 for a healthy baseline, 1 for failing, 2 for unknown (including a
// missing or corrupt state file, which Store.BaselineHealth already
// defaults to BaselineUnknown).
func BaselineCheckExitCode(b *model.BaselineHealth) int {
	switch b.Status {
	case model.BaselineHealthy:
		return 0
	case model.BaselineFailing:
		return 1
	default:
		return 2
	}
}

// WorstStatus reduces a check list to the single most severe status,
// error outranking warning outranking ok — used to pick the CLI's exit
// code.
func WorstStatus(checks []Check) Status {
	worst := StatusOK
	for _, c := range checks {
		if c.Status == StatusError {
			return StatusError
		}
		if c.Status == StatusWarning {
			worst = StatusWarning
		}
	}
	return worst
}
