package optimize

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/giant/internal/ir"
)

// ParetoFront returns the recorded solutions not dominated by any other
// recorded solution, in history order.
func (e *Engine) ParetoFront() []Scored {
	values := make([]map[string]float64, len(e.history))
	for i, s := range e.history {
		values[i] = e.objectiveValues(s.Outcome)
	}

	var front []Scored
	for i, candidate := range e.history {
		dominated := false
		for j := range e.history {
			if i != j && e.dominates(values[j], values[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, candidate)
		}
	}
	return front
}

// Dominates reports whether a dominates b: at least as good on every
// objective both resolve and strictly better on at least one.
// No solution dominates itself.
func (e *Engine) Dominates(a, b ir.Solution) bool {
	return e.dominates(e.objectiveValues(a), e.objectiveValues(b))
}

func (e *Engine) objectiveValues(s ir.Solution) map[string]float64 {
	out := make(map[string]float64, len(e.order))
	for _, name := range e.order {
		if v, ok, err := e.objectives[name].value(s); err == nil && ok {
			out[name] = v
		}
	}
	return out
}

func (e *Engine) dominates(a, b map[string]float64) bool {
	better := false
	for _, name := range e.order {
		va, okA := a[name]
		vb, okB := b[name]
		if !okA || !okB {
			continue
		}
		if e.objectives[name].Goal == ir.GoalMinimize {
			va, vb = -va, -vb
		}
		switch {
		case va < vb:
			return false
		case va > vb:
			better = true
		}
	}
	return better
}

// ExplainTradeoffs describes conflicting objective groups, objective
// weights in descending order, and active constraints.
func (e *Engine) ExplainTradeoffs() string {
	if len(e.order) < 2 {
		return "No tradeoffs (only one objective defined)"
	}

	objectives := e.Objectives()
	lines := []string{"Optimization Tradeoffs:", strings.Repeat("=", 50)}

	var minimize, maximize []string
	for _, o := range objectives {
		if o.Goal == ir.GoalMinimize {
			minimize = append(minimize, o.Name)
		} else {
			maximize = append(maximize, o.Name)
		}
	}
	if len(minimize) > 0 && len(maximize) > 0 {
		lines = append(lines,
			"",
			"Conflicting objectives detected:",
			"  Minimizing: "+strings.Join(minimize, ", "),
			"  Maximizing: "+strings.Join(maximize, ", "),
		)
	}

	slices.SortStableFunc(objectives, func(a, b Objective) int {
		return cmp.Compare(b.Weight, a.Weight)
	})
	lines = append(lines, "", "Objective weights (importance):")
	for _, o := range objectives {
		lines = append(lines, fmt.Sprintf("  %s: %.2f (%s)", o.Name, o.Weight, o.Goal))
	}

	if len(e.constraints) > 0 {
		lines = append(lines, "", fmt.Sprintf("Active constraints: %d", len(e.constraints)))
		for _, c := range e.constraints {
			lines = append(lines, "  - "+c.Description)
		}
	}
	return strings.Join(lines, "\n")
}
