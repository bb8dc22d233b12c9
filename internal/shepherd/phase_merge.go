package shepherd

import (
	"strconv"

	"github.com/rjwalters/loom-sub003/internal/platform"
)

// MergePhase auto-merges the approved PR in force mode, or leaves it at
// loom:pr for a human (Champion) to merge in default mode.
type MergePhase struct{}

func (MergePhase) Name() string { return "merge" }

// MergePhase never skips via --from.
func (MergePhase) ShouldSkip(*Context) (bool, string) { return false, "" }

func (p MergePhase) Run(ctx *Context) PhaseResult {
	if ctx.PRNumber == 0 {
		return failedResult(p.Name(), "no PR number available for merge phase")
	}
	if ctx.CheckShutdown() {
		return shutdownResult(p.Name())
	}

	if !ctx.Config.IsForceMode {
		return successResult(p.Name(), "PR approved, ready for Champion to merge", map[string]interface{}{"awaiting_merge": true})
	}

	if !ctx.Client.MergePR(ctx.PRNumber, true) {
		return failedResult(p.Name(), "failed to merge PR #"+strconv.Itoa(ctx.PRNumber))
	}
	return successResult(p.Name(), "PR merged successfully", map[string]interface{}{"merged": true})
}

func (p MergePhase) validate(ctx *Context) bool {
	if ctx.PRNumber == 0 {
		return false
	}
	if ctx.Config.IsForceMode {
		view := ctx.Client.View(platform.PR, ctx.PRNumber, []string{"state"})
		state, _ := view["state"].(string)
		return state == "MERGED"
	}
	ctx.InvalidatePRLabels()
	return ctx.HasPRLabel("loom:pr")
}
