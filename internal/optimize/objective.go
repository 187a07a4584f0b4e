package optimize

import (
	"fmt"

	"github.com/roach88/giant/internal/ir"
)

// DefaultPenalty is subtracted from the score of a solution violating a
// constraint when no penalty is given.
const DefaultPenalty = 1000.0

// DefaultWeight is the weight of an objective declared without one.
const DefaultWeight = 1.0

// Evaluator computes an objective value from a solution.
type Evaluator func(ir.Solution) (float64, error)

// Validator reports whether a solution satisfies a constraint.
type Validator func(ir.Solution) (bool, error)

// Objective is a weighted, directional scoring term. Without an Evaluator
// the value is read from the solution key equal to Name.
type Objective struct {
	Name      string
	Goal      ir.Goal
	Weight    float64
	Evaluator Evaluator
}

// Constraint penalizes solutions its Validator rejects.
type Constraint struct {
	Name        string
	Validator   Validator
	Penalty     float64
	Description string
}

// value resolves the objective's value for s. ok is false when the
// objective does not apply to s.
func (o *Objective) value(s ir.Solution) (v float64, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, ok, err = 0, false, fmt.Errorf("evaluator panicked: %v", r)
		}
	}()

	if o.Evaluator != nil {
		v, err = o.Evaluator(s)
		if err != nil {
			return 0, false, err
		}
		return v, true, nil
	}
	raw, present := s[o.Name]
	if !present {
		return 0, false, nil
	}
	v, ok = ir.Number(raw)
	if !ok {
		return 0, false, fmt.Errorf("value %v of key %q is not numeric", raw, o.Name)
	}
	return v, true, nil
}

// contribution is the signed score term of value.
func (o *Objective) contribution(value float64) float64 {
	if o.Goal == ir.GoalMinimize {
		return -value * o.Weight
	}
	return value * o.Weight
}

// satisfied runs the validator, converting a panic into an error.
func (c *Constraint) satisfied(s ir.Solution) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("validator panicked: %v", r)
		}
	}()
	return c.Validator(s)
}

// ThresholdConstraint builds a constraint requiring solution[decl.Key]
// decl.Op decl.Bound. A missing or non-numeric key violates the constraint.
func ThresholdConstraint(decl ir.ConstraintDecl) (Constraint, error) {
	cmp, err := comparator(decl.Op)
	if err != nil {
		return Constraint{}, err
	}
	penalty := decl.Penalty
	if penalty == 0 {
		penalty = DefaultPenalty
	}
	desc := decl.Description
	if desc == "" {
		desc = fmt.Sprintf("%s %s %s", decl.Key, decl.Op, ir.FormatValue(decl.Bound))
	}

	key, bound := decl.Key, decl.Bound
	return Constraint{
		Name:        decl.Name,
		Penalty:     penalty,
		Description: desc,
		Validator: func(s ir.Solution) (bool, error) {
			v, ok := ir.Number(s[key])
			if !ok {
				return false, fmt.Errorf("key %q missing or not numeric", key)
			}
			return cmp(v, bound), nil
		},
	}, nil
}

func comparator(op string) (func(a, b float64) bool, error) {
	switch op {
	case "<":
		return func(a, b float64) bool { return a < b }, nil
	case "<=":
		return func(a, b float64) bool { return a <= b }, nil
	case ">":
		return func(a, b float64) bool { return a > b }, nil
	case ">=":
		return func(a, b float64) bool { return a >= b }, nil
	case "==":
		return func(a, b float64) bool { return a == b }, nil
	case "!=":
		return func(a, b float64) bool { return a != b }, nil
	default:
		return nil, ir.NewOptimizationError("unknown constraint operator %q", op)
	}
}
