package engine

import (
	"fmt"
	"strings"
)

// maxExplainedActions bounds the actions listed per relation.
const maxExplainedActions = 3

// ExplainState renders every relation with its per-anchor significance and
// qualifier and up to three suggested actions.
func (c *Context) ExplainState() string {
	var b strings.Builder
	b.WriteString("Current Relational State:\n")
	b.WriteString(strings.Repeat("=", 50))

	if len(c.order) == 0 {
		b.WriteString("\nNo relational variables defined.")
		return b.String()
	}

	for _, name := range c.order {
		rel := c.relations[name]
		fmt.Fprintf(&b, "\n\n%s: %s", name, rel.Expression())

		for _, anchorName := range rel.AnchorNames() {
			q, _ := rel.QualifierTo(anchorName)
			fmt.Fprintf(&b, "\n  -> %s: %s (%s)", anchorName, rel.SignificanceTo(anchorName), q)
		}

		actions := rel.SuggestedActions()
		if len(actions) == 0 {
			continue
		}
		b.WriteString("\n  Suggested actions:")
		for _, a := range actions[:min(len(actions), maxExplainedActions)] {
			fmt.Fprintf(&b, "\n    - %s", a)
		}
	}
	return b.String()
}
