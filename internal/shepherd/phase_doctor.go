package shepherd

import "github.com/rjwalters/loom-sub003/internal/model"

// DoctorPhase fixes a PR that Judge requested changes on, handing control
// back to Judge for re-review once it reports success.
//
// No Python source for this phase survived distillation; it follows
// JudgePhase's structure and §4.G's description of Doctor as "runs only
// when the PR carries loom:changes-requested".
type DoctorPhase struct{}

func (DoctorPhase) Name() string { return "doctor" }

func (DoctorPhase) ShouldSkip(ctx *Context) (bool, string) {
	if ctx.PRNumber == 0 {
		return true, "no PR to fix"
	}
	if !ctx.HasPRLabel("loom:changes-requested") {
		return true, "PR does not need fixes"
	}
	return false, ""
}

func (p DoctorPhase) Run(ctx *Context) PhaseResult {
	if ctx.CheckShutdown() {
		return shutdownResult(p.Name())
	}
	ctx.ReportMilestone(model.MilestonePhaseEntered, map[string]interface{}{"phase": "doctor"})

	exitCode, err := ctx.Runner.RunPhaseWithRetry("doctor", ctx.Config.Issue, ctx.PRNumber, 0, ctx.Config.StuckMaxRetries)
	if err != nil {
		return stuckResult(p.Name(), "doctor agent error: "+err.Error())
	}

	switch ExitCode(exitCode) {
	case ExitShutdown:
		return shutdownResult(p.Name())
	case ExitNeedsIntervention:
		return stuckResult(p.Name(), "doctor stuck after retry")
	case ExitPRTestsFailed:
		return failedResult(p.Name(), "doctor exhausted retries, tests still failing")
	case ExitBudgetExhausted:
		return PhaseResult{Status: PhaseSuccess, Message: "doctor exhausted its session budget", PhaseName: p.Name(), Data: map[string]interface{}{"budget_exhausted": true}}
	}

	ctx.InvalidatePRLabels()
	return successResult(p.Name(), "doctor pushed fixes, handing back to judge", map[string]interface{}{"commit_pushed": true})
}
