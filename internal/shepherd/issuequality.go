package shepherd

import "regexp"

// Severity is the level of an issue-quality finding.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// QualityFinding is one observation about an issue body's readiness for the
// builder phase.
type QualityFinding struct {
	Severity Severity
	Message  string
}

// QualityReport holds every finding from ValidateIssueQuality.
type QualityReport struct {
	Findings []QualityFinding
}

// Warnings returns only the warning-level findings.
func (r QualityReport) Warnings() []QualityFinding {
	return r.bySeverity(SeverityWarning)
}

// Infos returns only the info-level findings.
func (r QualityReport) Infos() []QualityFinding {
	return r.bySeverity(SeverityInfo)
}

func (r QualityReport) bySeverity(s Severity) []QualityFinding {
	var out []QualityFinding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

var vaguePatterns = []struct {
	re          *regexp.Regexp
	description string
}{
	{regexp.MustCompile(`(?i)\bmake\s+it\s+better\b`), "make it better"},
	{regexp.MustCompile(`(?i)\bimprove\s+(?:the\s+)?performance\b`), "improve performance"},
	{regexp.MustCompile(`(?i)\bfix\s+the\s+issues?\b`), "fix the issue(s)"},
	{regexp.MustCompile(`(?i)\bshould\s+work\s+(?:well|properly|correctly)\b`), "should work well"},
	{regexp.MustCompile(`(?i)\bclean\s*up\s+the\s+code\b`), "clean up the code"},
}

var acHeadingRE = regexp.MustCompile(`(?im)^#{1,3}\s+(?:acceptance\s+criteria|requirements|expected\s+behavio(?:u?r))`)
var checkboxRE = regexp.MustCompile(`(?m)^\s*-\s*\[[ x]\]`)
var testPlanRE = regexp.MustCompile(`(?im)^#{1,3}\s+test(?:ing)?\s+plan`)
var fileRefRE = regexp.MustCompile("(?:[\\w/]+\\.(?:py|ts|tsx|js|jsx|sh|rs|go|json|yaml|yml|toml|md)|`[^`]+\\.(?:py|ts|tsx|js|jsx|sh|rs|go|json|yaml|yml|toml|md)`)")

// ValidateIssueQuality inspects an issue body for quality indicators before
// the builder phase starts. This is advisory only: the builder proceeds
// regardless of findings, which exist for observability, not enforcement.
func ValidateIssueQuality(body string) QualityReport {
	if trimmedEmpty(body) {
		return QualityReport{Findings: []QualityFinding{
			{Severity: SeverityWarning, Message: "Issue body is empty"},
		}}
	}

	var findings []QualityFinding

	if !acHeadingRE.MatchString(body) && !checkboxRE.MatchString(body) {
		findings = append(findings, QualityFinding{
			Severity: SeverityWarning,
			Message:  "No acceptance criteria section found",
		})
	}

	for _, p := range vaguePatterns {
		if p.re.MatchString(body) {
			findings = append(findings, QualityFinding{
				Severity: SeverityWarning,
				Message:  "Potentially vague criterion: '" + p.description + "'",
			})
		}
	}

	if !testPlanRE.MatchString(body) {
		findings = append(findings, QualityFinding{
			Severity: SeverityInfo,
			Message:  "No test plan section found",
		})
	}

	if !fileRefRE.MatchString(body) {
		findings = append(findings, QualityFinding{
			Severity: SeverityInfo,
			Message:  "No specific file or component references found",
		})
	}

	return QualityReport{Findings: findings}
}

func trimmedEmpty(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
