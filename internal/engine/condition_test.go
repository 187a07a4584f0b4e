package engine

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/giant/internal/anchor"
)

func TestEvaluateCondition_Vocabulary(t *testing.T) {
	c := New()
	c.AddAnchor(anchor.MustNew("ref", 50, anchor.WithTolerance(5), anchor.WithRange(40, 60), anchor.WithBufferZone(2)))
	c.AddAnchor(anchor.MustNew("exact", 53))
	c.CreateRelation("v", 53, nil, nil)

	tests := []struct {
		qualifier string
		anchor    string
		want      bool
	}{
		{"over", "ref", true},
		{"under", "ref", false},
		{"approaching", "ref", true},
		{"within", "ref", true},
		{"near", "ref", false},
		{"equal_to", "ref", false},
		{"equal_to", "exact", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.EvaluateCondition("v", tt.qualifier, tt.anchor), "%s %s", tt.qualifier, tt.anchor)
	}
	assert.Len(t, c.ExecutionLog(EventConditionEvaluated), len(tests))
}

func TestEvaluateCondition_ApproachThreshold(t *testing.T) {
	c := New(WithApproachThreshold(0.5))
	c.AddAnchor(anchor.MustNew("ref", 50, anchor.WithTolerance(5)))
	c.CreateRelation("v", 53, nil, nil)

	assert.False(t, c.EvaluateCondition("v", "approaching", "ref"))
	require.NoError(t, c.UpdateRelation("v", 52))
	assert.True(t, c.EvaluateCondition("v", "approaching", "ref"))
}

func TestEvaluateCondition_NeverFails(t *testing.T) {
	c := New()
	c.AddAnchor(anchor.MustNew("ref", 50))
	c.CreateRelation("v", 53, nil, nil)

	tests := []struct {
		name      string
		relation  string
		qualifier string
		anchor    string
		errSubstr string
	}{
		{"missing relation", "ghost", "over", "ref", "not found"},
		{"unknown qualifier", "v", "sideways", "ref", "unknown qualifier"},
		{"missing anchor", "v", "equal_to", "ghost", "ANCHOR_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(c.ExecutionLog(EventEvaluationError))
			assert.False(t, c.EvaluateCondition(tt.relation, tt.qualifier, tt.anchor))

			errs := c.ExecutionLog(EventEvaluationError)
			require.Len(t, errs, before+1)
			assert.Contains(t, errs[len(errs)-1].Fields["error"], tt.errSubstr)
		})
	}

	// Predicates on a missing anchor answer false without an error event.
	before := len(c.ExecutionLog(EventEvaluationError))
	assert.False(t, c.EvaluateCondition("v", "over", "ghost"))
	assert.Len(t, c.ExecutionLog(EventEvaluationError), before)
}

func TestEvaluateCondition_UnknownQualifierMetricLabel(t *testing.T) {
	c := New()
	c.AddAnchor(anchor.MustNew("ref", 50))
	c.CreateRelation("v", 53, nil, nil)

	assert.False(t, c.EvaluateCondition("v", "label-cardinality-word", "ref"))
	assert.Equal(t, UnknownQualifierLabel, qualifierLabel("label-cardinality-word"))
	assert.Equal(t, "near", qualifierLabel("near"))

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	var seenUnknown bool
	for _, mf := range families {
		if mf.GetName() != "giant_context_condition_evaluations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() != "qualifier" {
					continue
				}
				assert.NotEqual(t, "label-cardinality-word", lp.GetValue())
				if lp.GetValue() == UnknownQualifierLabel {
					seenUnknown = true
				}
			}
		}
	}
	assert.True(t, seenUnknown)
}
