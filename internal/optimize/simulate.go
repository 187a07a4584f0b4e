package optimize

import (
	"math"

	"github.com/roach88/giant/internal/ir"
)

// Outcome keys produced by Simulate.
const (
	KeyActionType        = "action_type"
	KeyAmount            = "amount"
	KeyPriorityValue     = "priority_value"
	KeyEnergyImpact      = "energy_impact"
	KeyCost              = "cost"
	KeySafetyImprovement = "safety_improvement"
	KeyResponseTime      = "response_time"
)

// impact holds the per-unit effects of an action type.
type impact struct {
	energy, cost, safety float64
}

var impacts = map[ir.ActionType]impact{
	ir.ActionReduce:   {energy: -0.1, cost: 0.05, safety: 0.3},
	ir.ActionIncrease: {energy: 0.15, cost: 0.08, safety: -0.1},
}

// Simulate predicts the outcome of an action with a fixed heuristic: each
// effect is proportional to |amount|, unknown action types have no effect,
// and response time is 10 / priority rank so higher priorities finish
// faster. It is a deliberate simplification, not a physical model.
func Simulate(a ir.Action) ir.Solution {
	rank := a.Priority.Rank()
	amount := math.Abs(a.Amount)
	eff := impacts[a.Type]

	return ir.Solution{
		KeyActionType:        string(a.Type),
		KeyAmount:            a.Amount,
		KeyPriorityValue:     rank,
		KeyEnergyImpact:      amount * eff.energy,
		KeyCost:              amount * eff.cost,
		KeySafetyImprovement: amount * eff.safety,
		KeyResponseTime:      10.0 / float64(rank),
	}
}
