package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/giant/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Subject  string // What was checked, e.g. "temp -> optimal"
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Subject != "" {
		fmt.Fprintf(&buf, " (%s)", e.Subject)
	}
	buf.WriteString("\n")

	// Expected vs Actual
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// evaluateAssertions checks each assertion against the finished run and
// returns the failure messages in assertion order.
func (x *execution) evaluateAssertions(assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := x.check(a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func (x *execution) check(a Assertion) error {
	switch a.Type {
	case AssertCondition:
		want, _ := a.Expect.(bool)
		got := x.ctx.EvaluateCondition(a.Relation, a.Condition, a.Anchor)
		return expectEqual(a, fmt.Sprintf("%s %s %s", a.Relation, a.Condition, a.Anchor),
			fmt.Sprint(want), fmt.Sprint(got))

	case AssertQualifier:
		return x.checkRelation(a, func() (string, error) {
			rel, err := x.ctx.Relation(a.Relation)
			if err != nil {
				return "", err
			}
			q, err := rel.QualifierTo(a.Anchor)
			return string(q), err
		})

	case AssertSignificance:
		return x.checkRelation(a, func() (string, error) {
			rel, err := x.ctx.Relation(a.Relation)
			if err != nil {
				return "", err
			}
			return string(rel.SignificanceTo(a.Anchor)), nil
		})

	case AssertRelationTo:
		return x.checkRelation(a, func() (string, error) {
			rel, err := x.ctx.Relation(a.Relation)
			if err != nil {
				return "", err
			}
			return rel.RelationTo(a.Anchor)
		})

	case AssertActionCount:
		want, _ := asCount(a.Expect)
		return expectEqual(a, actionScope(a), fmt.Sprint(want), fmt.Sprint(len(x.actionsFor(a.Relation))))

	case AssertTopAction:
		got := NoAction
		if actions := x.actionsFor(a.Relation); len(actions) > 0 {
			got = actions[0].String()
		}
		return expectEqual(a, actionScope(a), fmt.Sprint(a.Expect), got)

	case AssertOptimalAction:
		got := NoAction
		if opt := x.result.Optimal; opt != nil && opt.Action != nil {
			got = opt.Action.String()
		}
		return expectEqual(a, "", fmt.Sprint(a.Expect), got)

	case AssertParetoSize:
		want, _ := asCount(a.Expect)
		return expectEqual(a, "", fmt.Sprint(want), fmt.Sprint(len(x.result.Pareto)))

	default:
		return &AssertionError{
			Type:     a.Type,
			Expected: "known assertion type",
			Actual:   fmt.Sprintf("unknown assertion type %q", a.Type),
		}
	}
}

// checkRelation compares a per-anchor observation with the expected string.
// An observation error is reported as the actual value.
func (x *execution) checkRelation(a Assertion, observe func() (string, error)) error {
	subject := a.Relation + " -> " + a.Anchor
	got, err := observe()
	if err != nil {
		return &AssertionError{
			Type:     a.Type,
			Subject:  subject,
			Expected: fmt.Sprint(a.Expect),
			Actual:   "error: " + err.Error(),
		}
	}
	return expectEqual(a, subject, fmt.Sprint(a.Expect), got)
}

// actionsFor returns the run's suggested actions, restricted to one relation
// when name is set.
func (x *execution) actionsFor(name string) []ir.Action {
	if name == "" {
		return x.result.Actions
	}
	var out []ir.Action
	for _, action := range x.result.Actions {
		if action.Relation == name {
			out = append(out, action)
		}
	}
	return out
}

func actionScope(a Assertion) string {
	if a.Relation == "" {
		return "all relations"
	}
	return a.Relation
}

func expectEqual(a Assertion, subject, want, got string) error {
	if want == got {
		return nil
	}
	return &AssertionError{Type: a.Type, Subject: subject, Expected: want, Actual: got}
}
