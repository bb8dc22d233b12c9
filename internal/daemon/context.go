// Package daemon runs the long-lived orchestration loop: PID-file
// discipline, stop/conflict signal checks, inbound signal-file consumption,
// and the per-tick snapshot/action cycle described in §4.H-I.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rjwalters/loom-sub003/internal/config"
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/snapshot"
)

// PendingSpawn is a queued spawn_shepherd signal. Each tick's
// reconciliation tries it while a slot is free; it stays queued until a
// spawn for it succeeds.
type PendingSpawn struct {
	Issue int      `json:"issue"`
	Mode  string   `json:"mode,omitempty"`
	Flags []string `json:"flags,omitempty"`
}

// Context is the daemon's per-process runtime state: configuration, repo
// paths, loop counters, and the pending-spawn retry queue. It is the Go
// analogue of the Python daemon's per-loop context object.
type Context struct {
	Config   *config.DaemonConfig
	RepoRoot string
	SessionID string

	Iteration          int
	Running            bool
	ConsecutiveStalled int

	Snapshot *snapshot.Snapshot
	State    *model.DaemonState

	OrchestrationActive bool
	PendingSpawns       []PendingSpawn

	// ExitReason records why Run stopped, for the cmd layer to translate
	// into the CLI's documented exit code. Empty means Run has not yet
	// returned, or returned because of a genuine error.
	ExitReason ExitReason
}

// ExitReason is the non-error way Loop.Run can stop.
type ExitReason string

const (
	// ExitReasonNone means Run has not returned, or returned an error.
	ExitReasonNone ExitReason = ""
	// ExitReasonSignal means a stop-signal file asked the loop to exit.
	ExitReasonSignal ExitReason = "signal"
	// ExitReasonConflict means another daemon instance holds the PID file
	// or has taken over the state file's session id.
	ExitReasonConflict ExitReason = "conflict"
)

// NewContext builds a fresh Context with a session ID derived the same way
// the original daemon derives its own: unix-seconds-dash-pid, unique enough
// to detect a takeover via session-conflict checking.
func NewContext(cfg *config.DaemonConfig, repoRoot string, now time.Time) *Context {
	return &Context{
		Config:    cfg,
		RepoRoot:  repoRoot,
		SessionID: fmt.Sprintf("%d-%d", now.Unix(), os.Getpid()),
		Running:   true,
	}
}

func (c *Context) stateDir() string { return filepath.Join(c.RepoRoot, ".loom") }

// LogFile is STATE/daemon.log.
func (c *Context) LogFile() string { return filepath.Join(c.stateDir(), "daemon.log") }

// StateFile is STATE/daemon-state.json.
func (c *Context) StateFile() string { return filepath.Join(c.stateDir(), "daemon-state.json") }

// MetricsFile is STATE/daemon-metrics.json.
func (c *Context) MetricsFile() string { return filepath.Join(c.stateDir(), "daemon-metrics.json") }

// StopSignal is STATE/stop-daemon, whose mere existence asks the daemon to
// exit gracefully.
func (c *Context) StopSignal() string { return filepath.Join(c.stateDir(), "stop-daemon") }

// PIDFile is STATE/daemon-loop.pid.
func (c *Context) PIDFile() string { return filepath.Join(c.stateDir(), "daemon-loop.pid") }

// SignalsDir is the directory external tools (the /loom skill) write
// command files into for the daemon to consume each tick.
func (c *Context) SignalsDir() string { return filepath.Join(c.stateDir(), "signals") }

// RecommendedActions reads the current snapshot's computed recommendations,
// or nil if no snapshot has been built yet this iteration.
func (c *Context) RecommendedActions() []string {
	if c.Snapshot == nil {
		return nil
	}
	return c.Snapshot.Computed.RecommendedActions
}

// AvailableShepherdSlots reads the current snapshot's idle-slot count. This
// is a snapshot of the tick's start and does not reflect shepherds spawned
// or reclaimed by earlier actions within the same tick; use
// LiveAvailableShepherdSlots for anything that runs after other
// state-mutating actions.
func (c *Context) AvailableShepherdSlots() int {
	if c.Snapshot == nil {
		return 0
	}
	return c.Snapshot.Computed.AvailableShepherdSlots
}

// LiveAvailableShepherdSlots recomputes max_shepherds - count(working)
// directly from ctx.State, rather than the cached per-tick snapshot value.
// Multiple actions within a single tick (reclaim-stale, check-completions,
// spawn-shepherds, drain pending_spawns) all consume and mutate the same
// slot pool, so every consumer must recount against the live state to keep
// count(shepherds.status==working) <= max_shepherds.
func (c *Context) LiveAvailableShepherdSlots() int {
	if c.State == nil {
		return 0
	}
	working := 0
	for _, entry := range c.State.Shepherds {
		if entry.Working() {
			working++
		}
	}
	avail := c.Config.MaxShepherds - working
	if avail < 0 {
		return 0
	}
	return avail
}

// ReadyIssueNumbers reads the current snapshot's ready-issue numbers.
func (c *Context) ReadyIssueNumbers() []int {
	if c.Snapshot == nil {
		return nil
	}
	nums := make([]int, 0, len(c.Snapshot.ReadyIssues))
	for _, issue := range c.Snapshot.ReadyIssues {
		nums = append(nums, issue.Number)
	}
	return nums
}

// PromotableProposals reads the current snapshot's promotable-proposal
// issue numbers.
func (c *Context) PromotableProposals() []int {
	if c.Snapshot == nil {
		return nil
	}
	return c.Snapshot.Computed.PromotableProposals
}
