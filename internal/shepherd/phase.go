package shepherd

// PhaseStatus is the outcome a phase reports to the runner. Using a plain
// result value rather than exceptions for normal control flow lets the
// runner decide what happens next without a type switch over panics.
type PhaseStatus string

const (
	PhaseSuccess  PhaseStatus = "success"
	PhaseFailed   PhaseStatus = "failed"
	PhaseSkipped  PhaseStatus = "skipped"
	PhaseShutdown PhaseStatus = "shutdown"
	PhaseStuck    PhaseStatus = "stuck"
)

// PhaseResult is the value every Phase.Run returns.
type PhaseResult struct {
	Status    PhaseStatus
	Message   string
	PhaseName string
	Data      map[string]interface{}
}

// CommandRunner abstracts the external worker invocation (spawning a
// curator/builder/judge/doctor agent session and waiting for its exit
// code) so the phase runner can be tested without a live session or
// platform credentials.
type CommandRunner interface {
	// RunPhaseWithRetry launches role's worker for issue (and, where
	// relevant, prNumber), retrying up to maxRetries times on a stuck
	// agent, and returns the worker's exit code.
	RunPhaseWithRetry(role string, issue, prNumber int, timeoutSeconds, maxRetries int) (int, error)
}

// PhaseValidator confirms a phase's post-condition contract was satisfied,
// standing in for validate-phase.sh's consistency checks.
type PhaseValidator interface {
	Validate(ctx *Context, phaseName string) bool
}

// Phase is one stage of the shepherd pipeline.
type Phase interface {
	Name() string
	ShouldSkip(ctx *Context) (skip bool, reason string)
	Run(ctx *Context) PhaseResult
}

// contractValidator is implemented by phases with a post-condition check
// beyond "Run didn't fail" — the runner calls it after a successful Run to
// confirm the phase actually left the expected label/PR state behind.
type contractValidator interface {
	validate(ctx *Context) bool
}

func shutdownResult(phase string) PhaseResult {
	return PhaseResult{Status: PhaseShutdown, Message: "shutdown signal detected", PhaseName: phase}
}

func successResult(phase, message string, data map[string]interface{}) PhaseResult {
	return PhaseResult{Status: PhaseSuccess, Message: message, PhaseName: phase, Data: data}
}

func failedResult(phase, message string) PhaseResult {
	return PhaseResult{Status: PhaseFailed, Message: message, PhaseName: phase}
}

func skippedResult(phase, message string) PhaseResult {
	return PhaseResult{Status: PhaseSkipped, Message: message, PhaseName: phase}
}

func stuckResult(phase, message string) PhaseResult {
	return PhaseResult{Status: PhaseStuck, Message: message, PhaseName: phase}
}
