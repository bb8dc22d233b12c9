// Package actions implements the §4.F pure-intent reconciliation actions:
// promote-proposal, spawn-shepherd, spawn-support-role, reclaim-completed,
// reclaim-stale, escalate-spinning.
package actions

import (
	"fmt"

	"github.com/rjwalters/loom-sub003/internal/logging"
	"github.com/rjwalters/loom-sub003/internal/platform"
)

var proposalLabelOrder = []string{"loom:architect", "loom:hermit", "loom:curated"}

// PromoteProposals promotes every promotable proposal to loom:issue. It
// only runs when force mode is on; the caller is expected to gate the call
// on cfg.ForceMode, matching §4.F's "only runs when force mode is on".
// Individual failures are logged and skipped; the count of proposals
// actually promoted is returned.
func PromoteProposals(client *platform.Client, log *logging.Logger, proposalIssues []int) int {
	promoted := 0
	for _, issueNum := range proposalIssues {
		if promoteOne(client, log, issueNum) {
			promoted++
		}
	}
	return promoted
}

func promoteOne(client *platform.Client, log *logging.Logger, issueNum int) bool {
	view := client.View(platform.Issue, issueNum, []string{"labels"})
	if view == nil {
		log.Warn("failed to get labels for #%d", issueNum)
		return false
	}

	var toRemove []string
	if rawLabels, ok := view["labels"].([]interface{}); ok {
		present := map[string]bool{}
		for _, raw := range rawLabels {
			if m, ok := raw.(map[string]interface{}); ok {
				if name, ok := m["name"].(string); ok {
					present[name] = true
				}
			}
		}
		for _, label := range proposalLabelOrder {
			if present[label] {
				toRemove = append(toRemove, label)
			}
		}
	}
	if len(toRemove) == 0 {
		log.Warn("issue #%d has no proposal labels", issueNum)
		return false
	}

	if !client.EditLabels(platform.Issue, issueNum, []string{"loom:issue"}, toRemove) {
		log.Warn("failed to promote #%d", issueNum)
		return false
	}

	comment := fmt.Sprintf(
		"## Auto-Promoted [force-mode]\n\n"+
			"This proposal was automatically promoted to `loom:issue` by the "+
			"Loom daemon running in force mode.\n\n"+
			"**Labels removed**: %s\n**Label added**: `loom:issue`\n\n"+
			"The issue is now available for a shepherd to pick up.",
		joinBackticked(toRemove),
	)
	client.Comment(platform.Issue, issueNum, comment)
	log.Success("promoted proposal #%d", issueNum)
	return true
}

func joinBackticked(labels []string) string {
	out := ""
	for i, l := range labels {
		if i > 0 {
			out += ", "
		}
		out += "`" + l + "`"
	}
	return out
}
