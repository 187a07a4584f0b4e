package ir

import (
	"cmp"
	"fmt"
	"slices"
)

// ActionType is the direction of a suggested correction.
type ActionType string

const (
	ActionReduce   ActionType = "reduce"
	ActionIncrease ActionType = "increase"
)

// Action is a suggested correction derived from a relation/anchor pair.
//
// Relation is empty when the action comes straight from a Relation and is
// filled in by the context when actions are aggregated.
type Action struct {
	Type         ActionType   `json:"type"`
	Target       string       `json:"target"`
	Amount       float64      `json:"amount"`
	Priority     Priority     `json:"priority"`
	Reason       string       `json:"reason"`
	Significance Significance `json:"significance"`
	Qualifier    Qualifier    `json:"qualifier"`
	Relation     string       `json:"relation,omitempty"`
}

// String renders the action as "reduce optimal by 17.70 (priority: critical)".
func (a Action) String() string {
	return fmt.Sprintf("%s %s by %.2f (priority: %s)", a.Type, a.Target, a.Amount, a.Priority)
}

// SortByPriority orders actions by priority rank, highest first.
// The sort is stable: actions of equal priority keep their relative order.
func SortByPriority(actions []Action) {
	slices.SortStableFunc(actions, func(a, b Action) int {
		return cmp.Compare(b.Priority.Rank(), a.Priority.Rank())
	})
}
