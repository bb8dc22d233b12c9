package shepherd

import "github.com/rjwalters/loom-sub003/internal/model"

// DefaultPhases returns the pipeline's leading and trailing stages in
// order; the judge/doctor review cycle between them is driven separately by
// Run, since a PR can bounce between them multiple times before merging.
func DefaultPhases(issueBody func(ctx *Context) string) []Phase {
	return []Phase{
		CuratorPhase{},
		ApprovalPhase{},
		BuilderPhase{IssueBody: issueBody},
	}
}

// maxReviewCycles bounds the judge/doctor retry loop so a pathologically
// uncooperative PR doesn't spin a shepherd forever; the daemon's own
// spinning-PR escalation (§4.F) is the backstop above this per-run cap.
const maxReviewCycles = 10

// Run drives ctx through curator, approval, and builder, then the
// judge/doctor review cycle, then merge, returning the exit code the daemon
// uses to decide what happens next.
func Run(ctx *Context, leading []Phase) ExitCode {
	for _, phase := range leading {
		if skip, reason := phase.ShouldSkip(ctx); skip {
			ctx.ReportMilestone(model.MilestoneHeartbeat, map[string]interface{}{
				"action": "phase_skipped", "phase": phase.Name(), "reason": reason,
			})
			continue
		}
		if code, done := runOne(ctx, phase); done {
			return code
		}
	}

	judge := JudgePhase{}
	doctor := DoctorPhase{}
	for cycle := 0; cycle < maxReviewCycles; cycle++ {
		if skip, reason := judge.ShouldSkip(ctx); skip {
			ctx.ReportMilestone(model.MilestoneHeartbeat, map[string]interface{}{
				"action": "phase_skipped", "phase": judge.Name(), "reason": reason,
			})
			break
		}
		result := judge.Run(ctx)
		if code, done := exitForResult(ctx, judge.Name(), result); done {
			return code
		}
		if result.Data != nil {
			if _, approved := result.Data["approved"]; approved {
				break
			}
		}

		if skip, reason := doctor.ShouldSkip(ctx); skip {
			ctx.ReportMilestone(model.MilestoneHeartbeat, map[string]interface{}{
				"action": "phase_skipped", "phase": doctor.Name(), "reason": reason,
			})
			break
		}
		doctorResult := doctor.Run(ctx)
		if code, done := exitForResult(ctx, doctor.Name(), doctorResult); done {
			return code
		}
	}

	merge := MergePhase{}
	if code, done := runOne(ctx, merge); done {
		return code
	}

	ctx.ReportMilestone(model.MilestoneCompleted, map[string]interface{}{"outcome": "success"})
	return ExitSuccess
}

func runOne(ctx *Context, phase Phase) (ExitCode, bool) {
	result := phase.Run(ctx)
	if code, done := exitForResult(ctx, phase.Name(), result); done {
		return code, done
	}
	if cv, ok := phase.(contractValidator); ok && !cv.validate(ctx) {
		ctx.ReportMilestone(model.MilestoneErrored, map[string]interface{}{
			"phase": phase.Name(), "message": "post-condition validation failed",
		})
		code := phaseFailureExitCode(phase.Name())
		if code == ExitNeedsIntervention {
			blockForTerminalCode(ctx, phase.Name(), code, "post-condition validation failed")
		}
		return code, true
	}
	return ExitSuccess, false
}

func exitForResult(ctx *Context, phaseName string, result PhaseResult) (ExitCode, bool) {
	switch result.Status {
	case PhaseShutdown:
		ctx.ReportMilestone(model.MilestoneErrored, map[string]interface{}{"phase": phaseName, "reason": "shutdown"})
		return ExitShutdown, true
	case PhaseStuck:
		ctx.ReportMilestone(model.MilestoneErrored, map[string]interface{}{"phase": phaseName, "reason": "stuck"})
		blockForTerminalCode(ctx, phaseName, ExitNeedsIntervention, "stuck after retry, needs a human")
		return ExitNeedsIntervention, true
	case PhaseFailed:
		ctx.ReportMilestone(model.MilestoneErrored, map[string]interface{}{"phase": phaseName, "message": result.Message})
		code := phaseFailureExitCode(phaseName)
		if code == ExitNeedsIntervention {
			blockForTerminalCode(ctx, phaseName, code, result.Message)
		}
		return code, true
	}
	if result.Data != nil {
		if _, noChanges := result.Data["no_changes"]; noChanges {
			ctx.ReportMilestone(model.MilestoneCompleted, map[string]interface{}{"phase": phaseName, "outcome": "no_changes_needed"})
			blockForTerminalCode(ctx, phaseName, ExitNoChangesNeeded, "builder determined no changes are needed")
			return ExitNoChangesNeeded, true
		}
		if _, budgetExhausted := result.Data["budget_exhausted"]; budgetExhausted {
			ctx.ReportMilestone(model.MilestoneErrored, map[string]interface{}{"phase": phaseName, "outcome": "budget_exhausted"})
			blockForTerminalCode(ctx, phaseName, ExitBudgetExhausted, "ran out of session budget")
			return ExitBudgetExhausted, true
		}
	}
	return ExitSuccess, false
}

func phaseFailureExitCode(phaseName string) ExitCode {
	switch phaseName {
	case "builder":
		return ExitBuilderFailed
	case "doctor":
		return ExitPRTestsFailed
	default:
		return ExitNeedsIntervention
	}
}
