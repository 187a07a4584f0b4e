package ir

import "fmt"

// Qualifier describes where a relation value sits relative to an anchor.
type Qualifier string

const (
	QualifierEqualTo       Qualifier = "equal_to"
	QualifierOver          Qualifier = "over"
	QualifierUnder         Qualifier = "under"
	QualifierNear          Qualifier = "near"
	QualifierFarFrom       Qualifier = "far_from"
	QualifierWithin        Qualifier = "within"
	QualifierApproaching   Qualifier = "approaching"
	QualifierRecedingFrom  Qualifier = "receding_from"
	QualifierApproximately Qualifier = "approximately"
)

// Significance is the categorical severity of a deviation from an anchor.
type Significance string

const (
	SignificanceNegligible  Significance = "negligible"
	SignificanceNoticeable  Significance = "noticeable"
	SignificanceSignificant Significance = "significant"
	SignificanceCritical    Significance = "critical"
	SignificanceExtreme     Significance = "extreme"
)

// Rank returns the ordinal of s: negligible=1 through extreme=5.
// Unknown values rank 0 so they never pass a threshold.
func (s Significance) Rank() int {
	switch s {
	case SignificanceNegligible:
		return 1
	case SignificanceNoticeable:
		return 2
	case SignificanceSignificant:
		return 3
	case SignificanceCritical:
		return 4
	case SignificanceExtreme:
		return 5
	default:
		return 0
	}
}

// AtLeast reports whether s ranks at or above threshold.
func (s Significance) AtLeast(threshold Significance) bool {
	return s.Rank() >= threshold.Rank()
}

// ParseSignificance converts a lowercase name into a Significance.
func ParseSignificance(name string) (Significance, error) {
	s := Significance(name)
	if s.Rank() == 0 {
		return "", fmt.Errorf("invalid significance %q: must be negligible, noticeable, significant, critical, or extreme", name)
	}
	return s, nil
}

// Priority ranks competing actions.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank returns the numeric value used for sorting: low=1 through critical=4.
// Unknown priorities rank as normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityNormal:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 2
	}
}

// PriorityFor maps a significance to the priority of the action it triggers.
// Only significant and above produce actions; anything else maps to normal.
func PriorityFor(s Significance) Priority {
	switch s {
	case SignificanceCritical:
		return PriorityHigh
	case SignificanceExtreme:
		return PriorityCritical
	default:
		return PriorityNormal
	}
}

// Goal is the direction of an optimization objective.
type Goal string

const (
	GoalMinimize Goal = "minimize"
	GoalMaximize Goal = "maximize"
)

// Valid reports whether g is minimize or maximize.
func (g Goal) Valid() bool {
	return g == GoalMinimize || g == GoalMaximize
}
