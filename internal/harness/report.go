package harness

import (
	"fmt"
	"strings"
)

// Report renders the result for people and for golden comparison. The run
// ID is left out so equal runs render identically.
func (r *Result) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n\n", r.Scenario)
	b.WriteString(r.Explanation)
	b.WriteString("\n\n")

	if len(r.Actions) == 0 {
		b.WriteString("Suggested actions: none\n")
	} else {
		b.WriteString("Suggested actions:\n")
		for i, a := range r.Actions {
			fmt.Fprintf(&b, "  %d. %s [%s]\n", i+1, a, a.Relation)
		}
	}

	if r.Optimal != nil {
		fmt.Fprintf(&b, "\nOptimal action: %s\n", r.Optimal.Action)
		b.WriteString(indent(r.Optimal.Explanation, "  "))
		b.WriteString("\n")
	}
	if r.Tradeoffs != "" {
		fmt.Fprintf(&b, "\nPareto front: %d solution(s)\n", len(r.Pareto))
		b.WriteString(r.Tradeoffs)
		b.WriteString("\n")
	}

	if len(r.RefreshErrors) > 0 {
		b.WriteString("\nRefresh errors:\n")
		for _, e := range r.RefreshErrors {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}

	if r.Pass {
		b.WriteString("\nAssertions: PASS\n")
	} else {
		fmt.Fprintf(&b, "\nAssertions: FAIL (%d)\n", len(r.Errors))
		for _, e := range r.Errors {
			b.WriteString(indent(e, "  "))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
