package actions

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/platform"
	"github.com/rjwalters/loom-sub003/internal/timeutil"
)

// SessionLauncher starts the tmux-backed shepherd session for a claimed
// issue or a periodic support role, returning the output file path a
// shepherd launch will write to. Implemented by internal/launcher; kept as
// an interface here so actions has no import cycle on it.
type SessionLauncher interface {
	LaunchShepherd(taskID string, issue int) (outputFile string, err error)
	LaunchSupportRole(role string) error
}

// ClaimIssue attempts the atomic loom:issue -> loom:building label swap that
// gives one shepherd exclusive ownership of issue. A false return means the
// swap lost a race (or the platform call failed) and the caller must not
// proceed to spawn a session for it.
func ClaimIssue(client *platform.Client, issue int) bool {
	return client.EditLabels(platform.Issue, issue, []string{"loom:building"}, []string{"loom:issue"})
}

// SpawnShepherds fills every idle shepherd slot with a ready issue, up to
// the number of available slots, claiming each issue via the atomic label
// swap before launching its session. Issues whose claim loses the race are
// skipped without consuming a slot.
func SpawnShepherds(client *platform.Client, launcher SessionLauncher, log *logging.Logger, state *model.DaemonState, readyIssues []int, availableSlots int) int {
	spawned := 0
	idleNames := idleSlotNames(state, availableSlots)

	for _, issue := range readyIssues {
		if spawned >= availableSlots || spawned >= len(idleNames) {
			break
		}
		if !ClaimIssue(client, issue) {
			log.Warn("lost claim race for issue #%d", issue)
			continue
		}

		taskID := uuid.NewString()
		slotName := idleNames[spawned]

		outputFile, err := launcher.LaunchShepherd(taskID, issue)
		if err != nil {
			log.Error("failed to launch shepherd for #%d: %v", issue, err)
			client.EditLabels(platform.Issue, issue, []string{"loom:issue"}, []string{"loom:building"})
			continue
		}

		state.Shepherds[slotName] = &model.ShepherdEntry{
			Status:     model.ShepherdWorking,
			TaskID:     taskID,
			Issue:      issue,
			OutputFile: outputFile,
		}
		log.Success("spawned shepherd %s for issue #%d (task %s)", slotName, issue, taskID)
		spawned++
	}
	return spawned
}

// idleSlotNames returns the names of currently-idle shepherd slots, minting
// fresh "shepherd-N" names as needed so at least minCount are available —
// covers both a never-before-seen slot and a fully-idle fresh daemon state.
func idleSlotNames(state *model.DaemonState, minCount int) []string {
	var idle []string
	for name, entry := range state.Shepherds {
		if !entry.Working() {
			idle = append(idle, name)
		}
	}
	next := 1
	for len(idle) < minCount {
		name := fmt.Sprintf("shepherd-%d", next)
		if _, exists := state.Shepherds[name]; !exists {
			idle = append(idle, name)
		}
		next++
	}
	return idle
}

// SpawnSupportRole starts a periodic support-role session (guide, champion,
// doctor, auditor, judge, curator) and records the spawn timestamp so the
// snapshot builder's interval gating sees it on the next tick.
func SpawnSupportRole(launcher SessionLauncher, log *logging.Logger, state *model.DaemonState, role string) bool {
	if err := launcher.LaunchSupportRole(role); err != nil {
		log.Error("failed to launch support role %s: %v", role, err)
		return false
	}
	entry, ok := state.SupportRoles[role]
	if !ok {
		entry = &model.SupportRoleEntry{}
		state.SupportRoles[role] = entry
	}
	entry.LastSpawned = timeutil.FormatTimestamp(timeutil.NowUTC())
	log.Info("triggered support role %s", role)
	return true
}
