package actions

import (
	"fmt"

	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/platform"
	"github.com/rjwalters/loom-sub003/internal/snapshot"
)

// EscalateSpinningIssues posts a standardized comment on each spinning PR
// and blocks its linked issue with loom:blocked so the pipeline stops
// reassigning it, returning the count of issues blocked this tick. A PR
// with no linked issue is commented on but nothing is blocked.
func EscalateSpinningIssues(client *platform.Client, log *logging.Logger, spinning []snapshot.SpinningPR) int {
	blocked := 0
	for _, pr := range spinning {
		comment := fmt.Sprintf(
			"## Spinning PR Detected\n\n"+
				"This PR has gone through %d review cycles without converging. "+
				"A human should take a look before further automated attempts are made.",
			pr.ReviewCycles,
		)
		client.Comment(platform.PR, pr.PRNumber, comment)
		client.Close(platform.PR, pr.PRNumber)

		if pr.LinkedIssue == 0 {
			continue
		}
		if blockIssue(client, pr.LinkedIssue, pr.PRNumber) {
			log.Warn("escalated spinning PR #%d, blocked issue #%d", pr.PRNumber, pr.LinkedIssue)
			blocked++
		}
	}
	return blocked
}

func blockIssue(client *platform.Client, issue, prNumber int) bool {
	if !client.EditLabels(platform.Issue, issue, []string{"loom:blocked"}, []string{"loom:building"}) {
		return false
	}
	comment := fmt.Sprintf(
		"Blocked: linked PR #%d has spun through multiple review cycles without "+
			"converging. Needs human attention before this issue can proceed.",
		prNumber,
	)
	client.Comment(platform.Issue, issue, comment)
	return true
}
