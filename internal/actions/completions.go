package actions

import (
	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/timeutil"
)

// CheckCompletions scans active shepherd slots for progress records that
// have reached a terminal status (completed or errored) and reconciles
// daemon state for each: frees the slot, records the outcome, and returns
// the slot names handled this tick.
func CheckCompletions(log *logging.Logger, state *model.DaemonState, progressBySlot map[string]*model.ShepherdProgress) []string {
	var handled []string
	for slotName, entry := range state.Shepherds {
		if !entry.Working() {
			continue
		}
		progress, ok := progressBySlot[slotName]
		if !ok {
			continue
		}
		switch progress.Status {
		case model.ProgressCompleted:
			handleCompletion(log, state, slotName, entry, progress)
			handled = append(handled, slotName)
		case model.ProgressErrored:
			handleErrored(log, state, slotName, entry, progress)
			handled = append(handled, slotName)
		}
	}
	return handled
}

func handleCompletion(log *logging.Logger, state *model.DaemonState, slotName string, entry *model.ShepherdEntry, progress *model.ShepherdProgress) {
	issue := entry.Issue
	state.CompletedIssues = append(state.CompletedIssues, issue)
	if progress.PRMerged {
		state.TotalPRsMerged++
	}
	log.Success("shepherd %s completed issue #%d", slotName, issue)
	freeSlot(state, slotName, issue)
}

func handleErrored(log *logging.Logger, state *model.DaemonState, slotName string, entry *model.ShepherdEntry, progress *model.ShepherdProgress) {
	log.Warn("shepherd %s errored on issue #%d", slotName, entry.Issue)
	freeSlot(state, slotName, entry.Issue)
}

func freeSlot(state *model.DaemonState, slotName string, lastIssue int) {
	state.Shepherds[slotName] = &model.ShepherdEntry{
		Status:        model.ShepherdIdle,
		LastIssue:     lastIssue,
		LastCompleted: timeutil.FormatTimestamp(timeutil.NowUTC()),
	}
}
