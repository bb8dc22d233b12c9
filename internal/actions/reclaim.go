package actions

import (
	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/session"
	"github.com/rjwalters/loom-sub003/internal/timeutil"
)

// ReclaimStale frees shepherd slots in either of two conditions: the
// backing tmux session has died or its shell process is no longer alive,
// or the session is alive but has produced no heartbeat for longer than
// noProgressGraceSeconds (a stuck agent). Each reclaimed slot logs a
// warning. sessionFor resolves a slot's session handle for liveness
// checks; it is injected so this has no hard dependency on a live tmux.
// progressBySlot supplies the per-slot ShepherdProgress used for the
// no-progress check; a slot missing from progressBySlot is judged on
// session liveness alone.
func ReclaimStale(log *logging.Logger, state *model.DaemonState, progressBySlot map[string]*model.ShepherdProgress, noProgressGraceSeconds int, sessionFor func(taskID string) *session.Session) int {
	reclaimed := 0
	for slotName, entry := range state.Shepherds {
		if !entry.Working() {
			continue
		}
		sess := sessionFor(entry.TaskID)
		sessionAlive := sess != nil && sess.Exists() && sess.IsShellAlive()

		reason := ""
		switch {
		case !sessionAlive:
			reason = "stale_session"
		case noProgressStale(progressBySlot[slotName], noProgressGraceSeconds):
			reason = "no_progress"
		default:
			continue
		}

		log.Warn("reclaiming stale shepherd %s (issue #%d, task %s): %s", slotName, entry.Issue, entry.TaskID, reason)
		state.Shepherds[slotName] = &model.ShepherdEntry{
			Status:     model.ShepherdIdle,
			LastIssue:  entry.Issue,
			IdleSince:  timeutil.FormatTimestamp(timeutil.NowUTC()),
			IdleReason: reason,
		}
		reclaimed++
	}
	return reclaimed
}

// noProgressStale reports whether progress's last recorded activity
// predates the no-progress grace period. A missing progress record is not
// itself grounds for reclaiming a session that is still alive.
func noProgressStale(progress *model.ShepherdProgress, graceSeconds int) bool {
	if progress == nil || graceSeconds <= 0 {
		return false
	}
	last := progress.LastHeartbeat
	if last == "" {
		last = progress.StartedAt
	}
	if last == "" {
		return false
	}
	return timeutil.ElapsedSeconds(last) > graceSeconds
}
