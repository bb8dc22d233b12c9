package daemon

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rjwalters/loom-sub003/internal/logging"
	"golang.org/x/sys/unix"
)

// CheckStopSignal reports whether the stop-signal file exists.
func CheckStopSignal(ctx *Context) bool {
	_, err := os.Stat(ctx.StopSignal())
	return err == nil
}

// ClearStopSignal removes the stop-signal file if present.
func ClearStopSignal(ctx *Context) {
	_ = os.Remove(ctx.StopSignal())
}

// CheckSessionConflict reports whether another daemon instance has taken
// over the state file (its daemon_session_id no longer matches ours),
// meaning this process should yield.
func CheckSessionConflict(log *logging.Logger, ctx *Context, fileSessionID string) bool {
	if fileSessionID == "" || fileSessionID == ctx.SessionID {
		return false
	}
	log.Warn("SESSION CONFLICT: another daemon has taken over the state file")
	log.Warn("  our session:  %s", ctx.SessionID)
	log.Warn("  file session: %s", fileSessionID)
	log.Warn("  yielding to the other daemon instance")
	return true
}

// CheckExistingPID reports whether a live daemon process is already
// running, per the PID file, removing it if stale (process no longer
// exists or the file content is unparseable).
func CheckExistingPID(log *logging.Logger, ctx *Context) (running bool, pid int) {
	raw, err := os.ReadFile(ctx.PIDFile())
	if err != nil {
		return false, 0
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		_ = os.Remove(ctx.PIDFile())
		return false, 0
	}
	if unix.Kill(parsed, 0) == nil {
		return true, parsed
	}
	log.Info("removing stale PID file")
	_ = os.Remove(ctx.PIDFile())
	return false, 0
}

// WritePIDFile records this process's PID, creating the state directory if
// needed.
func WritePIDFile(ctx *Context) error {
	if err := os.MkdirAll(ctx.stateDir(), 0o755); err != nil {
		return err
	}
	return os.WriteFile(ctx.PIDFile(), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// CleanupOnExit removes the stop-signal and PID files on daemon exit,
// best-effort.
func CleanupOnExit(ctx *Context) {
	_ = os.Remove(ctx.StopSignal())
	_ = os.Remove(ctx.PIDFile())
}

// Signal is one inbound command file written under SignalsDir by an
// external tool (the /loom skill).
type Signal struct {
	Kind  string   `json:"kind"` // start_orchestration, stop_orchestration, spawn_shepherd
	Issue int      `json:"issue,omitempty"`
	Mode  string   `json:"mode,omitempty"`
	Flags []string `json:"flags,omitempty"`

	path string
}

// ReadPendingSignals lists and parses every signal file in SignalsDir, in
// filename order (oldest-first, assuming lexically sortable names).
// Malformed files are deleted here; well-formed ones stay on disk until
// ConsumeSignal removes them after they have been applied.
func ReadPendingSignals(ctx *Context) []Signal {
	entries, err := os.ReadDir(ctx.SignalsDir())
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var signals []Signal
	for _, name := range names {
		path := ctx.SignalsDir() + string(os.PathSeparator) + name
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var s Signal
		if err := json.Unmarshal(raw, &s); err != nil {
			_ = os.Remove(path)
			continue
		}
		s.path = path
		signals = append(signals, s)
	}
	return signals
}

// ConsumeSignal removes the signal's backing file once it has been
// processed.
func ConsumeSignal(s Signal) {
	if s.path != "" {
		_ = os.Remove(s.path)
	}
}

// ApplySignal updates ctx according to one inbound signal. A spawn_shepherd
// request is appended to PendingSpawns, which each tick's reconciliation
// drains while shepherd slots are free.
func ApplySignal(ctx *Context, s Signal) {
	switch s.Kind {
	case "start_orchestration":
		ctx.OrchestrationActive = true
		if ctx.State != nil {
			ctx.State.OrchestrationOn = true
		}
	case "stop_orchestration":
		ctx.OrchestrationActive = false
		if ctx.State != nil {
			ctx.State.OrchestrationOn = false
		}
	case "spawn_shepherd":
		ctx.PendingSpawns = append(ctx.PendingSpawns, PendingSpawn{Issue: s.Issue, Mode: s.Mode, Flags: s.Flags})
	}
}
