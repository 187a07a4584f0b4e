package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/giant/internal/ir"
)

func TestParetoFront(t *testing.T) {
	e := costQuality(t)
	a := ir.Solution{"cost": 10, "quality": 5}
	b := ir.Solution{"cost": 5, "quality": 5}
	c := ir.Solution{"cost": 5, "quality": 8}
	e.Record(a, "A")
	e.Record(b, "B")
	e.Record(c, "C")

	assert.True(t, e.Dominates(c, a), "cost 5<=10 and quality 8>=5")
	assert.True(t, e.Dominates(c, b))
	assert.True(t, e.Dominates(b, a))
	assert.False(t, e.Dominates(a, c))

	front := e.ParetoFront()
	require.Len(t, front, 1)
	assert.Equal(t, "C", front[0].Note)
}

func TestParetoFront_Irreflexive(t *testing.T) {
	e := costQuality(t)
	a := ir.Solution{"cost": 10, "quality": 5}
	assert.False(t, e.Dominates(a, a))

	// Equal duplicates never eliminate each other.
	e.Record(a, "first")
	e.Record(ir.Solution{"quality": 5, "cost": 10}, "second")
	assert.Len(t, e.ParetoFront(), 2)
}

func TestParetoFront_Tradeoff(t *testing.T) {
	e := costQuality(t)
	e.Record(ir.Solution{"cost": 1, "quality": 1}, "cheap")
	e.Record(ir.Solution{"cost": 9, "quality": 9}, "good")
	e.Record(ir.Solution{"cost": 9, "quality": 1}, "bad")

	var notes []string
	for _, s := range e.ParetoFront() {
		notes = append(notes, s.Note)
	}
	assert.Equal(t, []string{"cheap", "good"}, notes)

	// No front member is dominated by another member.
	front := e.ParetoFront()
	for i := range front {
		for j := range front {
			if i != j {
				assert.False(t, e.Dominates(front[j].Outcome, front[i].Outcome))
			}
		}
	}
}

func TestParetoFront_Empty(t *testing.T) {
	assert.Empty(t, costQuality(t).ParetoFront())
}

func TestExplainTradeoffs(t *testing.T) {
	assert.Equal(t, "No tradeoffs (only one objective defined)", New().ExplainTradeoffs())

	e := New()
	require.NoError(t, e.AddObjective("cost", ir.GoalMinimize, 1, nil))
	require.NoError(t, e.AddObjective("safety", ir.GoalMaximize, 3, nil))
	require.NoError(t, e.AddObjective("energy", ir.GoalMinimize, 1, nil))
	c, err := ThresholdConstraint(ir.ConstraintDecl{Name: "budget", Key: "cost", Op: "<=", Bound: 5})
	require.NoError(t, err)
	require.NoError(t, e.AddConstraint(c.Name, c.Validator, c.Penalty, c.Description))
	require.NoError(t, e.AddConstraint("named", func(ir.Solution) (bool, error) { return true, nil }, 1, ""))

	want := "Optimization Tradeoffs:\n" +
		"==================================================\n" +
		"\n" +
		"Conflicting objectives detected:\n" +
		"  Minimizing: cost, energy\n" +
		"  Maximizing: safety\n" +
		"\n" +
		"Objective weights (importance):\n" +
		"  safety: 3.00 (maximize)\n" +
		"  cost: 1.00 (minimize)\n" +
		"  energy: 1.00 (minimize)\n" +
		"\n" +
		"Active constraints: 2\n" +
		"  - cost <= 5\n" +
		"  - Constraint: named"
	assert.Equal(t, want, e.ExplainTradeoffs())
}
