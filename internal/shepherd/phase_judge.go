package shepherd

import "github.com/rjwalters/loom-sub003/internal/model"

// JudgePhase reviews the builder's PR and either approves it (loom:pr) or
// requests changes (loom:changes-requested).
type JudgePhase struct{}

func (JudgePhase) Name() string { return "judge" }

func (JudgePhase) ShouldSkip(ctx *Context) (bool, string) {
	if ctx.Config.StartFrom == "merge" {
		if ctx.PRNumber != 0 && ctx.HasPRLabel("loom:pr") {
			return true, "skipped via --from merge"
		}
	}
	return false, ""
}

func (p JudgePhase) Run(ctx *Context) PhaseResult {
	if ctx.Config.StartFrom == "merge" {
		if ctx.PRNumber == 0 || !ctx.HasPRLabel("loom:pr") {
			return failedResult(p.Name(), "cannot skip judge: PR is not approved")
		}
		return skippedResult(p.Name(), "skipped via --from, PR already approved")
	}

	if ctx.PRNumber == 0 {
		return failedResult(p.Name(), "no PR number available for judge phase")
	}
	if ctx.CheckShutdown() {
		return shutdownResult(p.Name())
	}
	ctx.ReportMilestone(model.MilestonePhaseEntered, map[string]interface{}{"phase": "judge"})

	exitCode, err := ctx.Runner.RunPhaseWithRetry("judge", ctx.Config.Issue, ctx.PRNumber, ctx.Config.JudgeTimeout, ctx.Config.StuckMaxRetries)
	if err != nil {
		return stuckResult(p.Name(), "judge agent error: "+err.Error())
	}

	switch ExitCode(exitCode) {
	case ExitShutdown:
		return shutdownResult(p.Name())
	case ExitNeedsIntervention:
		return stuckResult(p.Name(), "judge stuck after retry")
	case ExitBudgetExhausted:
		return PhaseResult{Status: PhaseSuccess, Message: "judge exhausted its session budget", PhaseName: p.Name(), Data: map[string]interface{}{"budget_exhausted": true}}
	}

	ctx.InvalidatePRLabels()
	if ctx.HasPRLabel("loom:pr") {
		return successResult(p.Name(), "PR approved by Judge", map[string]interface{}{"approved": true})
	}
	if ctx.HasPRLabel("loom:changes-requested") {
		return successResult(p.Name(), "Judge requested changes on PR", map[string]interface{}{"changes_requested": true})
	}
	return failedResult(p.Name(), "unexpected state: PR has neither loom:pr nor loom:changes-requested")
}
