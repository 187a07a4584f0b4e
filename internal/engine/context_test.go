package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/giant/internal/anchor"
	"github.com/roach88/giant/internal/ir"
	"github.com/roach88/giant/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func newTemperatureContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	c := New(opts...)
	_, err := c.DeclareAnchor(ir.AnchorDecl{Name: "optimal", Value: 75, Tolerance: 2})
	require.NoError(t, err)
	_, err = c.DeclareAnchor(ir.AnchorDecl{Name: "danger", Value: 100, Tolerance: 1})
	require.NoError(t, err)
	expr, err := c.DeclareRelation(ir.RelationDecl{Name: "temp", Value: 92.7, Anchors: []string{"optimal", "danger"}})
	require.NoError(t, err)
	require.Equal(t, "92.7 (17.70 over optimal, 7.30 under danger)", expr)
	return c
}

func TestContext_EndToEndActions(t *testing.T) {
	c := newTemperatureContext(t)

	actions := c.SuggestedActions()
	require.Len(t, actions, 2)
	assert.Equal(t, "reduce optimal by 17.70 (priority: critical)", actions[0].String())
	assert.Equal(t, "increase danger by 7.30 (priority: critical)", actions[1].String())
	for _, a := range actions {
		assert.Equal(t, "temp", a.Relation)
	}

	assert.Equal(t, actions, c.SuggestedActionsFor("temp"))
	assert.Empty(t, c.SuggestedActionsFor("missing"))
}

func TestContext_ExplainState(t *testing.T) {
	c := newTemperatureContext(t)

	want := "Current Relational State:\n" +
		"==================================================\n" +
		"\n" +
		"temp: 92.7 (17.70 over optimal, 7.30 under danger)\n" +
		"  -> optimal: extreme (far_from)\n" +
		"  -> danger: extreme (far_from)\n" +
		"  Suggested actions:\n" +
		"    - reduce optimal by 17.70 (priority: critical)\n" +
		"    - increase danger by 7.30 (priority: critical)"
	assert.Equal(t, want, c.ExplainState())
}

func TestContext_ExplainStateEmpty(t *testing.T) {
	want := "Current Relational State:\n" +
		"==================================================\n" +
		"No relational variables defined."
	assert.Equal(t, want, New().ExplainState())
}

func TestContext_SignificanceThreshold(t *testing.T) {
	c := New(WithSignificanceThreshold(ir.SignificanceExtreme))
	c.AddAnchor(anchor.MustNew("near", 97, anchor.WithTolerance(2)))  // distance 3: significant
	c.AddAnchor(anchor.MustNew("far", 80, anchor.WithTolerance(2)))   // distance 20: extreme
	c.AddAnchor(anchor.MustNew("mid", 107, anchor.WithTolerance(2)))  // distance 7: critical
	c.CreateRelation("v", 100, []string{"near", "far", "mid"}, nil)

	actions := c.SuggestedActions()
	require.Len(t, actions, 1)
	assert.Equal(t, "far", actions[0].Target)

	c = New()
	c.AddAnchor(anchor.MustNew("near", 97, anchor.WithTolerance(2)))
	c.AddAnchor(anchor.MustNew("mid", 107, anchor.WithTolerance(2)))
	c.CreateRelation("v", 100, []string{"near", "mid"}, nil)
	c.CreateRelation("w", 100, []string{"mid"}, nil)

	var got []string
	for _, a := range c.SuggestedActions() {
		got = append(got, a.Relation+"/"+a.Target)
	}
	// High priority first, ties keep relation order.
	assert.Equal(t, []string{"v/mid", "w/mid", "v/near"}, got)
}

func TestContext_AnchorPropagation(t *testing.T) {
	c := newTemperatureContext(t)
	rel, err := c.Relation("temp")
	require.NoError(t, err)

	q, err := rel.QualifierTo("optimal")
	require.NoError(t, err)
	require.Equal(t, ir.QualifierFarFrom, q)

	_, err = c.DeclareAnchor(ir.AnchorDecl{Name: "optimal", Value: 90, Tolerance: 2})
	require.NoError(t, err)

	q, err = rel.QualifierTo("optimal")
	require.NoError(t, err)
	assert.Equal(t, ir.QualifierNear, q)

	events := c.ExecutionLog(EventAnchorAdded)
	last := events[len(events)-1]
	assert.Equal(t, []string{"temp"}, last.Fields["relations"])
}

func TestContext_AutoDetectAnchors(t *testing.T) {
	c := New()
	c.AddAnchor(anchor.MustNew("low", 10))
	c.AddAnchor(anchor.MustNew("label", "warm", anchor.WithContextTag("climate")))
	c.AddAnchor(anchor.MustNew("high", 20.5))
	c.AddAnchor(anchor.MustNew("flag", true, anchor.WithContextTag("climate")))

	assert.Equal(t, []string{"low", "high"}, c.CreateRelation("n", 15, nil, nil).AnchorNames())
	assert.Equal(t, []string{"label"}, c.CreateRelation("s", "cold", nil, nil).AnchorNames())

	// Type matches first, then scope-tag matches not already included.
	c.PushScope("room", "climate", nil)
	assert.Equal(t, []string{"low", "high", "label", "flag"}, c.CreateRelation("scoped", 15, nil, nil).AnchorNames())
	_, err := c.PopScope()
	require.NoError(t, err)

	expr, err := c.DeclareRelation(ir.RelationDecl{Name: "decl", Value: "hot", Scope: "climate"})
	require.NoError(t, err)
	assert.Equal(t, "hot (related to label, related to flag)", expr)
	assert.Equal(t, 0, c.ScopeDepth())

	// An explicit empty list is not auto-detected.
	assert.Empty(t, c.CreateRelation("bare", 15, []string{}, nil).AnchorNames())
}

func TestContext_UntaggedScopeMatchesDefault(t *testing.T) {
	c := New()
	c.AddAnchor(anchor.MustNew("label", "x"))
	c.PushScope("outer", "", map[string]any{"k": "v"})

	top, ok := c.CurrentScope()
	require.True(t, ok)
	assert.Equal(t, anchor.DefaultContext, top.ContextTag())
	assert.Equal(t, "v", top.Metadata["k"])

	assert.Equal(t, []string{"label"}, c.CreateRelation("n", 1, nil, nil).AnchorNames())
}

func TestContext_MissingAnchorsDropped(t *testing.T) {
	c := newTemperatureContext(t)
	rel := c.CreateRelation("partial", 80, []string{"ghost", "optimal"}, nil)
	assert.Equal(t, []string{"optimal"}, rel.AnchorNames())
}

func TestContext_RelationLookupErrors(t *testing.T) {
	c := New()

	_, err := c.Relation("missing")
	assert.True(t, ir.IsContextError(err))

	err = c.UpdateRelation("missing", 1)
	assert.True(t, ir.IsContextError(err))

	_, err = c.PopScope()
	assert.True(t, ir.IsContextError(err))

	_, err = c.Anchor("missing")
	assert.True(t, ir.IsAnchorNotFound(err))

	_, err = c.DeclareRelation(ir.RelationDecl{})
	assert.True(t, ir.IsContextError(err))
}

func TestContext_UpdateRelation(t *testing.T) {
	c := New()
	c.AddAnchor(anchor.MustNew("ref", 75, anchor.WithTolerance(2)))
	c.CreateRelation("v", 78, nil, nil)
	require.True(t, c.EvaluateCondition("v", "near", "ref"))

	require.NoError(t, c.UpdateRelation("v", 84))
	assert.False(t, c.EvaluateCondition("v", "near", "ref"))
	assert.True(t, c.EvaluateCondition("v", "over", "ref"))

	updates := c.ExecutionLog(EventRelationUpdated)
	require.Len(t, updates, 1)
	assert.Equal(t, 78, updates[0].Fields["old_value"])
	assert.Equal(t, 84, updates[0].Fields["new_value"])
	assert.Equal(t, "84 (9.00 over ref)", updates[0].Fields["expression"])
}

func TestContext_DeclareAnchorErrors(t *testing.T) {
	c := New()

	_, err := c.DeclareAnchor(ir.AnchorDecl{Name: "bad", Value: 1, RangeStart: ptr(10.0), RangeEnd: ptr(5.0)})
	assert.True(t, ir.IsInvalidRange(err))

	_, err = c.DeclareAnchor(ir.AnchorDecl{Name: "bad", Value: 1, Confidence: ptr(2.0)})
	assert.True(t, ir.IsInvalidConfidence(err))

	_, err = c.DeclareAnchor(ir.AnchorDecl{Name: "bad", Value: 1, Tolerance: -1})
	assert.True(t, ir.IsInvalidTolerance(err))

	_, err = c.DeclareAnchor(ir.AnchorDecl{Name: "bad", Value: 1, Dynamic: true, UpdateInterval: "soon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse update interval")

	assert.False(t, c.HasAnchor("bad"))
	assert.Equal(t, 0, c.Registry().Len())
}

func TestContext_DeclareAnchorFields(t *testing.T) {
	c := New()
	a, err := c.DeclareAnchor(ir.AnchorDecl{
		Name:         "band",
		Value:        50,
		Description:  "comfort band",
		Unit:         "C",
		Context:      "climate",
		Source:       "sensor",
		Confidence:   ptr(0.9),
		RangeStart:   ptr(40.0),
		RangeEnd:     ptr(60.0),
		BufferZone:   2,
		Dependencies: []string{"base"},
		Related:      []string{"other"},
	})
	require.NoError(t, err)

	m := a.Metadata()
	assert.Equal(t, "comfort band", m.Description)
	assert.Equal(t, "C", m.Unit)
	assert.Equal(t, "climate", m.Context)
	assert.Equal(t, "sensor", m.Source)
	assert.Equal(t, 0.9, m.Confidence)
	assert.Equal(t, []string{"other"}, m.Related)
	rng, ok := a.Range()
	require.True(t, ok)
	assert.Equal(t, anchor.Range{Start: 40, End: 60}, rng)
	assert.Equal(t, []string{"band"}, c.Registry().Dependents("base"))

	// A half-specified range is no range.
	b, err := c.DeclareAnchor(ir.AnchorDecl{Name: "half", Value: 1, RangeStart: ptr(0.0)})
	require.NoError(t, err)
	_, ok = b.Range()
	assert.False(t, ok)
}

func TestContext_RemoveAnchorDetaches(t *testing.T) {
	c := newTemperatureContext(t)

	assert.True(t, c.RemoveAnchor("danger"))
	assert.False(t, c.RemoveAnchor("danger"))

	rel, err := c.Relation("temp")
	require.NoError(t, err)
	assert.Equal(t, []string{"optimal"}, rel.AnchorNames())
	assert.False(t, c.EvaluateCondition("temp", "under", "danger"))
}

func TestContext_RemoveRelation(t *testing.T) {
	c := newTemperatureContext(t)
	c.CreateRelation("other", 1, nil, nil)

	assert.True(t, c.RemoveRelation("temp"))
	assert.False(t, c.RemoveRelation("temp"))
	assert.Equal(t, []string{"other"}, c.RelationNames())
}

func TestContext_UpdateDynamicAnchors(t *testing.T) {
	clock := testutil.NewManualClock()
	c := New(WithAnchorClock(clock))
	_, err := c.DeclareAnchor(ir.AnchorDecl{
		Name:           "setpoint",
		Value:          70,
		Tolerance:      2,
		Dynamic:        true,
		UpdateInterval: "1m",
		Sequence:       []any{80},
	})
	require.NoError(t, err)
	c.CreateRelation("temp", 80, nil, nil)
	require.False(t, c.EvaluateCondition("temp", "equal_to", "setpoint"))

	clock.Advance(time.Minute)
	assert.Empty(t, c.UpdateDynamicAnchors())
	assert.True(t, c.EvaluateCondition("temp", "equal_to", "setpoint"))

	// The sequence is exhausted: failure is reported, last value kept.
	clock.Advance(time.Minute)
	errs := c.UpdateDynamicAnchors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], anchor.ErrSequenceExhausted)
	assert.True(t, c.EvaluateCondition("temp", "equal_to", "setpoint"))
	assert.Len(t, c.ExecutionLog(EventRefreshError), 1)
}

func TestContext_LogRingDropsOldest(t *testing.T) {
	c := New(WithLogCap(3))
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		c.CreateRelation(name, 1, []string{}, nil)
	}

	events := c.ExecutionLog("")
	require.Len(t, events, 3)
	var names []any
	var seqs []int64
	for _, e := range events {
		names = append(names, e.Fields["name"])
		seqs = append(seqs, e.Seq)
	}
	assert.Equal(t, []any{"c", "d", "e"}, names)
	assert.Equal(t, []int64{3, 4, 5}, seqs)
}

func TestContext_ExplanationModeOff(t *testing.T) {
	c := newTemperatureContext(t, WithExplanationMode(false))
	c.EvaluateCondition("temp", "over", "optimal")
	c.Log(EventActionSelected, nil)
	assert.Empty(t, c.ExecutionLog(""))
}

func TestContext_LogCustomEvent(t *testing.T) {
	c := New(WithClock(NewClockAt(41)))
	c.Log(EventActionSelected, map[string]any{"target": "optimal"})

	events := c.ExecutionLog(EventActionSelected)
	require.Len(t, events, 1)
	assert.Equal(t, int64(42), events[0].Seq)
	assert.Equal(t, "optimal", events[0].Fields["target"])
}

func TestNew_NilOptionsKeepDefaults(t *testing.T) {
	c := New(WithLogger(nil), WithClock(nil), WithAnchorClock(nil))

	assert.NotPanics(t, func() {
		_, err := c.DeclareAnchor(ir.AnchorDecl{Name: "setpoint", Value: 70, Dynamic: true, Sequence: []any{71, 72}})
		require.NoError(t, err)
		c.CreateRelation("temp", 70, []string{"setpoint"}, nil)
		assert.Empty(t, c.UpdateDynamicAnchors())
		assert.False(t, c.EvaluateCondition("ghost", "over", "setpoint"))
	})
	assert.NotEmpty(t, c.ExecutionLog(""))
}
