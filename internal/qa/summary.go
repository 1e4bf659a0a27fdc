package qa

import (
	"fmt"
	"strings"
)

// buildSummary renders a one-line human-readable verdict for a result.
func buildSummary(r Result) string {
	var b strings.Builder
	switch {
	case r.IsPublishable:
		b.WriteString("publishable")
	case r.Passed:
		b.WriteString("passed, needs review before publishing")
	default:
		b.WriteString("failed validation")
	}
	fmt.Fprintf(&b, " (score %.0f", r.Score)
	if len(r.Issues) == 0 {
		b.WriteString(", no issues)")
		return b.String()
	}
	fmt.Fprintf(&b, "; %d critical, %d major, %d minor)", r.CriticalCount, r.MajorCount, r.MinorCount)

	if worst := worstIssue(r.Issues); worst != nil {
		fmt.Fprintf(&b, ": %s", worst.Message)
	}
	return b.String()
}

func worstIssue(issues []Issue) *Issue {
	var worst *Issue
	for i := range issues {
		if worst == nil || issues[i].Severity.Rank() < worst.Severity.Rank() {
			worst = &issues[i]
		}
	}
	return worst
}
