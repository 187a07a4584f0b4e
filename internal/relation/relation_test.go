package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/giant/internal/anchor"
	"github.com/roach88/giant/internal/ir"
	"github.com/roach88/giant/internal/testutil"
)

func temperature(t *testing.T) *Relation {
	t.Helper()
	optimal := anchor.MustNew("optimal", 75, anchor.WithTolerance(2))
	danger := anchor.MustNew("danger", 100, anchor.WithTolerance(1))
	return New(92.7, []*anchor.Anchor{optimal, danger}, nil)
}

func TestRelation_EndToEnd(t *testing.T) {
	r := temperature(t)

	over, err := r.RelationTo("optimal")
	require.NoError(t, err)
	assert.Equal(t, "17.70 over optimal", over)

	under, err := r.RelationTo("danger")
	require.NoError(t, err)
	assert.Equal(t, "7.30 under danger", under)

	// 17.7/2 = 8.85 and 7.3/1 = 7.3, both beyond 5x tolerance.
	assert.Equal(t, ir.SignificanceExtreme, r.SignificanceTo("optimal"))
	assert.Equal(t, ir.SignificanceExtreme, r.SignificanceTo("danger"))

	q, err := r.QualifierTo("optimal")
	require.NoError(t, err)
	assert.Equal(t, ir.QualifierFarFrom, q)

	assert.Equal(t, "92.7 (17.70 over optimal, 7.30 under danger)", r.Expression())
	assert.Equal(t, r.Expression(), r.String())

	actions := r.SuggestedActions()
	require.Len(t, actions, 2)
	assert.Equal(t, ir.ActionReduce, actions[0].Type)
	assert.Equal(t, "optimal", actions[0].Target)
	assert.InDelta(t, 17.7, actions[0].Amount, 1e-9)
	assert.Equal(t, ir.PriorityCritical, actions[0].Priority)
	assert.Equal(t, "Value is 17.70 over optimal", actions[0].Reason)
	assert.Equal(t, ir.QualifierFarFrom, actions[0].Qualifier)
	assert.Equal(t, ir.ActionIncrease, actions[1].Type)
	assert.Equal(t, "danger", actions[1].Target)
	assert.InDelta(t, 7.3, actions[1].Amount, 1e-9)
	assert.Equal(t, ir.PriorityCritical, actions[1].Priority)
}

func TestSignificanceTo_Tiers(t *testing.T) {
	ref := anchor.MustNew("ref", 0, anchor.WithTolerance(2))

	tests := []struct {
		distance float64
		want     ir.Significance
	}{
		{0, ir.SignificanceNegligible},
		{0.1, ir.SignificanceNegligible},
		{0.2, ir.SignificanceNegligible},
		{2, ir.SignificanceNoticeable},
		{3, ir.SignificanceSignificant},
		{4, ir.SignificanceSignificant},
		{5, ir.SignificanceCritical},
		{10, ir.SignificanceCritical},
		{11, ir.SignificanceExtreme},
		{20, ir.SignificanceExtreme},
	}

	prev := 0
	for _, tt := range tests {
		r := New(tt.distance, []*anchor.Anchor{ref}, nil)
		got := r.SignificanceTo("ref")
		assert.Equal(t, tt.want, got, "distance=%v", tt.distance)
		assert.GreaterOrEqual(t, got.Rank(), prev, "significance must not decrease with distance")
		prev = got.Rank()
	}
}

func TestSignificanceTo_ZeroToleranceGuard(t *testing.T) {
	ref := anchor.MustNew("ref", 0)
	// ratio = 0.0005 / 0.01 = 0.05
	assert.Equal(t, ir.SignificanceNegligible, New(0.0005, []*anchor.Anchor{ref}, nil).SignificanceTo("ref"))
	assert.Equal(t, ir.SignificanceExtreme, New(1, []*anchor.Anchor{ref}, nil).SignificanceTo("ref"))
}

func TestSignificanceTo_MissingAnchor(t *testing.T) {
	r := temperature(t)
	assert.Equal(t, ir.SignificanceNegligible, r.SignificanceTo("missing"))
}

func TestQualifierTo_Tiers(t *testing.T) {
	ref := anchor.MustNew("ref", 75, anchor.WithTolerance(2))

	tests := []struct {
		value any
		want  ir.Qualifier
	}{
		{75, ir.QualifierEqualTo},
		{76.5, ir.QualifierApproximately},
		{77, ir.QualifierApproximately},
		{78, ir.QualifierNear},
		{72, ir.QualifierNear},
		{84, ir.QualifierOver},
		{66, ir.QualifierUnder},
		{86, ir.QualifierFarFrom},
		{"warm", ir.QualifierApproximately},
	}
	for _, tt := range tests {
		q, err := New(tt.value, []*anchor.Anchor{ref}, nil).QualifierTo("ref")
		require.NoError(t, err)
		assert.Equal(t, tt.want, q, "value=%v", tt.value)
	}
}

func TestQualifierTo_MissingAnchor(t *testing.T) {
	_, err := temperature(t).QualifierTo("missing")
	require.Error(t, err)
	assert.True(t, ir.IsAnchorNotFound(err))
}

func TestUpdateValue_InvalidatesCaches(t *testing.T) {
	ref := anchor.MustNew("ref", 75, anchor.WithTolerance(2))
	r := New(78, []*anchor.Anchor{ref}, nil)

	q, err := r.QualifierTo("ref")
	require.NoError(t, err)
	require.Equal(t, ir.QualifierNear, q)
	require.Equal(t, ir.SignificanceSignificant, r.SignificanceTo("ref"))

	r.UpdateValue(84)

	q, err = r.QualifierTo("ref")
	require.NoError(t, err)
	assert.Equal(t, ir.QualifierOver, q)
	assert.Equal(t, ir.SignificanceCritical, r.SignificanceTo("ref"))
	d, ok := r.Distance("ref")
	require.True(t, ok)
	assert.Equal(t, 9.0, d)
}

func TestRelationTo(t *testing.T) {
	ref := anchor.MustNew("ref", 10)
	label := anchor.MustNew("label", "warm")

	r := New(10, []*anchor.Anchor{ref, label}, nil)
	s, err := r.RelationTo("ref")
	require.NoError(t, err)
	assert.Equal(t, "equal to ref", s)

	s, err = r.RelationTo("label")
	require.NoError(t, err)
	assert.Equal(t, "related to label", s)

	_, err = r.RelationTo("missing")
	assert.True(t, ir.IsAnchorNotFound(err))
}

func TestExpression_NoAnchors(t *testing.T) {
	assert.Equal(t, "value: 42", New(42, nil, nil).Expression())
}

func TestPredicates(t *testing.T) {
	ref := anchor.MustNew("ref", 50, anchor.WithTolerance(5), anchor.WithRange(40, 60), anchor.WithBufferZone(2))
	label := anchor.MustNew("label", "x")
	r := New(53, []*anchor.Anchor{ref, label}, nil)

	assert.True(t, r.IsOver("ref"))
	assert.False(t, r.IsUnder("ref"))
	assert.True(t, r.IsApproaching("ref", DefaultApproachThreshold))
	assert.False(t, r.IsApproaching("ref", 0.5))
	assert.True(t, r.IsWithinRange("ref", false))

	// Non-numeric and missing anchors never error.
	assert.False(t, r.IsOver("label"))
	assert.False(t, r.IsUnder("label"))
	assert.False(t, r.IsOver("missing"))
	assert.False(t, r.IsApproaching("missing", 1))
	assert.False(t, r.IsWithinRange("missing", true))

	r.UpdateValue(61)
	assert.False(t, r.IsWithinRange("ref", false))
	assert.True(t, r.IsWithinRange("ref", true))

	r.UpdateValue("text")
	assert.False(t, r.IsWithinRange("ref", true))
}

func TestSuggestedActions_FiltersAndSorts(t *testing.T) {
	// distances: 3 (significant), 7 (critical), 0.5 (noticeable), 12 (extreme)
	anchors := []*anchor.Anchor{
		anchor.MustNew("a", 97, anchor.WithTolerance(2)),
		anchor.MustNew("b", 107, anchor.WithTolerance(2)),
		anchor.MustNew("c", 100.5, anchor.WithTolerance(2)),
		anchor.MustNew("d", 88, anchor.WithTolerance(2)),
	}
	actions := New(100, anchors, nil).SuggestedActions()

	require.Len(t, actions, 3)
	var targets []string
	for _, a := range actions {
		targets = append(targets, a.Target)
		assert.True(t, a.Significance.AtLeast(ir.SignificanceSignificant))
	}
	assert.Equal(t, []string{"d", "b", "a"}, targets)
	assert.Equal(t, ir.PriorityCritical, actions[0].Priority)
	assert.Equal(t, ir.PriorityHigh, actions[1].Priority)
	assert.Equal(t, ir.PriorityNormal, actions[2].Priority)
	assert.Equal(t, ir.ActionReduce, actions[0].Type)
	assert.Equal(t, ir.ActionIncrease, actions[1].Type)
}

func TestSuggestedActions_SkipsUnknownDirection(t *testing.T) {
	label := anchor.MustNew("label", "cold")
	assert.Empty(t, New("hot", []*anchor.Anchor{label}, nil).SuggestedActions())
}

func TestNew_DuplicateAnchorReplacesInPlace(t *testing.T) {
	first := anchor.MustNew("x", 1)
	other := anchor.MustNew("y", 2)
	second := anchor.MustNew("x", 10)

	r := New(10, []*anchor.Anchor{first, other, second}, map[string]any{"unit": "C"})
	assert.Equal(t, []string{"x", "y"}, r.AnchorNames())
	s, _ := r.RelationTo("x")
	assert.Equal(t, "equal to x", s)
	assert.Equal(t, "C", r.Metadata()["unit"])
}

func TestRebindAndDetach(t *testing.T) {
	r := temperature(t)

	assert.False(t, r.Rebind(anchor.MustNew("unrelated", 0)))

	_, _ = r.QualifierTo("optimal")
	require.True(t, r.Rebind(anchor.MustNew("optimal", 92.7, anchor.WithTolerance(2))))
	q, err := r.QualifierTo("optimal")
	require.NoError(t, err)
	assert.Equal(t, ir.QualifierEqualTo, q)
	assert.Equal(t, []string{"optimal", "danger"}, r.AnchorNames())

	require.True(t, r.Detach("optimal"))
	assert.False(t, r.Detach("optimal"))
	assert.Equal(t, []string{"danger"}, r.AnchorNames())
	assert.False(t, r.HasAnchor("optimal"))
	_, err = r.RelationTo("optimal")
	assert.True(t, ir.IsAnchorNotFound(err))
	s, err := r.RelationTo("danger")
	require.NoError(t, err)
	assert.Equal(t, "7.30 under danger", s)
}

func TestRecompute_ReadsDynamicAnchor(t *testing.T) {
	clock := testutil.NewManualClock()
	sensor := anchor.MustNew("sensor", 10,
		anchor.WithClock(clock),
		anchor.WithTolerance(1),
		anchor.WithManualRefresh(anchor.NewSequence(20)),
	)
	r := New(10, []*anchor.Anchor{sensor}, nil)
	q, _ := r.QualifierTo("sensor")
	require.Equal(t, ir.QualifierEqualTo, q)

	require.NoError(t, sensor.Refresh())
	// Cached until recomputed.
	q, _ = r.QualifierTo("sensor")
	assert.Equal(t, ir.QualifierEqualTo, q)

	r.Recompute()
	q, _ = r.QualifierTo("sensor")
	assert.Equal(t, ir.QualifierFarFrom, q)
	assert.True(t, r.IsUnder("sensor"))
}
