package engine

import (
	"fmt"

	"github.com/roach88/giant/internal/ir"
	"github.com/roach88/giant/internal/metrics"
	"github.com/roach88/giant/internal/relation"
)

// conditions is the qualifier vocabulary EvaluateCondition understands.
var conditions = map[ir.Qualifier]func(c *Context, r *relation.Relation, anchor string) (bool, error){
	ir.QualifierOver: func(_ *Context, r *relation.Relation, a string) (bool, error) {
		return r.IsOver(a), nil
	},
	ir.QualifierUnder: func(_ *Context, r *relation.Relation, a string) (bool, error) {
		return r.IsUnder(a), nil
	},
	ir.QualifierApproaching: func(c *Context, r *relation.Relation, a string) (bool, error) {
		return r.IsApproaching(a, c.approach), nil
	},
	ir.QualifierWithin: func(_ *Context, r *relation.Relation, a string) (bool, error) {
		return r.IsWithinRange(a, true), nil
	},
	ir.QualifierEqualTo: qualifierIs(ir.QualifierEqualTo),
	ir.QualifierNear:    qualifierIs(ir.QualifierNear),
}

func qualifierIs(want ir.Qualifier) func(*Context, *relation.Relation, string) (bool, error) {
	return func(_ *Context, r *relation.Relation, a string) (bool, error) {
		q, err := r.QualifierTo(a)
		if err != nil {
			return false, err
		}
		return q == want, nil
	}
}

// UnknownQualifierLabel is the metric label recorded for qualifier words
// outside the condition vocabulary.
const UnknownQualifierLabel = "unknown"

// EvaluateCondition answers "is relation <qualifier> anchor" for the
// qualifiers over, under, approaching, within, equal_to and near.
//
// It never fails: an unknown relation, anchor or qualifier, or a panic
// inside evaluation, is logged as an evaluation_error event and yields
// false.
func (c *Context) EvaluateCondition(relationName, qualifier, anchorName string) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			result = false
			c.conditionFailed(relationName, qualifier, anchorName, fmt.Errorf("condition panicked: %v", r))
		}
	}()

	rel, err := c.Relation(relationName)
	if err != nil {
		c.conditionFailed(relationName, qualifier, anchorName, err)
		return false
	}
	eval, ok := conditions[ir.Qualifier(qualifier)]
	if !ok {
		c.conditionFailed(relationName, qualifier, anchorName, fmt.Errorf("unknown qualifier %q", qualifier))
		return false
	}
	result, err = eval(c, rel, anchorName)
	if err != nil {
		c.conditionFailed(relationName, qualifier, anchorName, err)
		return false
	}

	metrics.ObserveCondition(qualifierLabel(qualifier), result, nil)
	c.Log(EventConditionEvaluated, map[string]any{
		"relation":   relationName,
		"qualifier":  qualifier,
		"anchor":     anchorName,
		"result":     result,
		"expression": rel.Expression(),
	})
	return result
}

func (c *Context) conditionFailed(relationName, qualifier, anchorName string, err error) {
	metrics.ObserveCondition(qualifierLabel(qualifier), false, err)
	c.logger.Debug("condition evaluation failed",
		"relation", relationName,
		"qualifier", qualifier,
		"anchor", anchorName,
		"error", err,
	)
	c.Log(EventEvaluationError, map[string]any{
		"relation":  relationName,
		"qualifier": qualifier,
		"anchor":    anchorName,
		"error":     err.Error(),
	})
}

// qualifierLabel bounds the metric label set to the known vocabulary.
func qualifierLabel(qualifier string) string {
	if _, ok := conditions[ir.Qualifier(qualifier)]; ok {
		return qualifier
	}
	return UnknownQualifierLabel
}
