package shepherd

import (
	"strconv"

	"github.com/rjwalters/loom-sub003/internal/model"
	"github.com/rjwalters/loom-sub003/internal/platform"
)

// terminalBlockReasons is the blocked-reason tag recorded for each terminal
// exit code the §4.G blocking transition applies to.
var terminalBlockReasons = map[ExitCode]string{
	ExitNeedsIntervention: "needs_intervention",
	ExitNoChangesNeeded:   "no_changes_needed",
	ExitBudgetExhausted:   "budget_exhausted",
}

// blockForTerminalCode applies the blocking transition for any terminal
// code in {4, 6, 8}: loom:building -> loom:blocked, a blocked-reason record
// in the progress file, an explanatory comment on the issue, and the
// systematic-failure counter the snapshot builder watches to recommend an
// architect decomposition once the same issue blocks repeatedly. Codes
// outside {4, 6, 8} are a no-op.
func blockForTerminalCode(ctx *Context, phaseName string, code ExitCode, details string) {
	reason, ok := terminalBlockReasons[code]
	if !ok {
		return
	}

	ctx.Client.EditLabels(platform.Issue, ctx.Config.Issue, []string{"loom:blocked"}, []string{"loom:building"})
	ctx.Client.Comment(platform.Issue, ctx.Config.Issue, "**Shepherd blocked** ("+phaseName+"): "+details+" (`"+reason+"`).")
	ctx.InvalidateIssueLabels()

	progress := ctx.Progress()
	progress.BlockedReason = reason
	if ctx.Store != nil {
		_ = ctx.Store.WriteProgress(progress)
	}

	incrementSystematicFailure(ctx)
}

// incrementSystematicFailure records one more blocking transition against
// ctx.Config.Issue in the daemon's persisted state: it reads the state,
// increments the counter, and writes it back. Only the write takes
// WriteDaemonState's lock; the read is not under it.
func incrementSystematicFailure(ctx *Context) {
	if ctx.Store == nil {
		return
	}
	state := ctx.Store.DaemonState("")
	if state.SystematicFailure == nil {
		state.SystematicFailure = map[string]int{}
	}
	key := strconv.Itoa(ctx.Config.Issue)
	state.SystematicFailure[key]++
	if err := ctx.Store.WriteDaemonState(state); err != nil {
		ctx.ReportMilestone(model.MilestoneHeartbeat, map[string]interface{}{
			"action": "systematic_failure_write_failed", "message": err.Error(),
		})
	}
}
