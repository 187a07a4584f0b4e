package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/roach88/giant/internal/anchor"
	"github.com/roach88/giant/internal/ir"
	"github.com/roach88/giant/internal/metrics"
	"github.com/roach88/giant/internal/relation"
)

// Context owns one anchor registry and an insertion-ordered set of named
// relations.
type Context struct {
	registry  *anchor.Registry
	relations map[string]*relation.Relation
	order     []string
	scopes    []Frame
	log       *executionLog

	logCap      int
	threshold   ir.Significance
	explain     bool
	approach    float64
	clock       *Clock
	anchorClock anchor.Clock
	logger      *slog.Logger
}

// New creates an empty context.
func New(opts ...Option) *Context {
	c := &Context{
		registry:  anchor.NewRegistry(),
		relations: make(map[string]*relation.Relation),
	}
	defaults(c)
	for _, opt := range opts {
		opt(c)
	}
	c.log = newExecutionLog(c.logCap)
	return c
}

// Registry returns the anchor registry owned by the context.
func (c *Context) Registry() *anchor.Registry { return c.registry }

// SignificanceThreshold returns the action filter threshold.
func (c *Context) SignificanceThreshold() ir.Significance { return c.threshold }

// AddAnchor registers a and rebinds every relation referencing its name.
func (c *Context) AddAnchor(a *anchor.Anchor) {
	c.registry.Register(a)

	var rebound []string
	for _, name := range c.order {
		if c.relations[name].Rebind(a) {
			rebound = append(rebound, name)
		}
	}

	c.Log(EventAnchorAdded, map[string]any{
		"name":      a.Name(),
		"value":     a.BaseValue(),
		"relations": rebound,
	})
}

// DeclareAnchor builds an anchor from decl and adds it.
//
// Dynamic declarations read successive values from decl.Sequence. A
// construction error leaves the context unchanged.
func (c *Context) DeclareAnchor(decl ir.AnchorDecl) (*anchor.Anchor, error) {
	opts := []anchor.Option{
		anchor.WithTolerance(decl.Tolerance),
		anchor.WithBufferZone(decl.BufferZone),
		anchor.WithDescription(decl.Description),
		anchor.WithUnit(decl.Unit),
		anchor.WithContextTag(decl.Context),
		anchor.WithOrigin(decl.Source),
		anchor.WithClock(c.anchorClock),
		anchor.WithLogger(c.logger),
	}
	if decl.Confidence != nil {
		opts = append(opts, anchor.WithConfidence(*decl.Confidence))
	}
	if decl.RangeStart != nil && decl.RangeEnd != nil {
		opts = append(opts, anchor.WithRange(*decl.RangeStart, *decl.RangeEnd))
	}
	if len(decl.Dependencies) > 0 {
		opts = append(opts, anchor.WithDependencies(decl.Dependencies...))
	}
	if len(decl.Related) > 0 {
		opts = append(opts, anchor.WithRelated(decl.Related...))
	}
	if decl.Dynamic {
		src := anchor.NewSequence(decl.Sequence...)
		if decl.UpdateInterval == "" {
			opts = append(opts, anchor.WithManualRefresh(src))
		} else {
			every, err := time.ParseDuration(decl.UpdateInterval)
			if err != nil {
				return nil, fmt.Errorf("anchor %s: parse update interval: %w", decl.Name, err)
			}
			opts = append(opts, anchor.WithRefresh(src, every))
		}
	}

	a, err := anchor.New(decl.Name, decl.Value, opts...)
	if err != nil {
		return nil, fmt.Errorf("declare anchor: %w", err)
	}
	c.AddAnchor(a)
	return a, nil
}

// Anchor returns the named anchor or ANCHOR_NOT_FOUND.
func (c *Context) Anchor(name string) (*anchor.Anchor, error) {
	return c.registry.Lookup(name)
}

// HasAnchor reports whether name is registered.
func (c *Context) HasAnchor(name string) bool {
	return c.registry.Has(name)
}

// RemoveAnchor unregisters name and detaches it from every relation.
// It reports whether the anchor existed.
func (c *Context) RemoveAnchor(name string) bool {
	if !c.registry.Remove(name) {
		return false
	}
	var detached []string
	for _, rel := range c.order {
		if c.relations[rel].Detach(name) {
			detached = append(detached, rel)
		}
	}
	c.Log(EventAnchorRemoved, map[string]any{
		"name":      name,
		"relations": detached,
	})
	return true
}

// CreateRelation creates or overwrites the relation name.
//
// A nil anchorNames auto-detects anchors: first those whose value kind
// matches value, then those tagged with the top scope frame's context tag
// that are not already included. Names not present in the registry are
// dropped silently.
func (c *Context) CreateRelation(name string, value any, anchorNames []string, metadata map[string]any) *relation.Relation {
	if anchorNames == nil {
		anchorNames = c.relevantAnchors(value)
	}

	var anchors []*anchor.Anchor
	for _, n := range anchorNames {
		if a, ok := c.registry.Get(n); ok {
			anchors = append(anchors, a)
		}
	}

	rel := relation.New(value, anchors, metadata)
	if _, exists := c.relations[name]; !exists {
		c.order = append(c.order, name)
	}
	c.relations[name] = rel

	c.Log(EventRelationCreated, map[string]any{
		"name":       name,
		"value":      value,
		"anchors":    rel.AnchorNames(),
		"expression": rel.Expression(),
	})
	return rel
}

// DeclareRelation creates the relation described by decl and returns its
// expression. A non-empty decl.Scope is pushed as a scope frame for the
// duration of the creation.
func (c *Context) DeclareRelation(decl ir.RelationDecl) (string, error) {
	if decl.Name == "" {
		return "", ir.NewContextError("", "relation name is required")
	}
	if decl.Scope != "" {
		c.PushScope(decl.Name, decl.Scope, nil)
		defer func() { _, _ = c.PopScope() }()
	}
	return c.CreateRelation(decl.Name, decl.Value, decl.Anchors, decl.Metadata).Expression(), nil
}

func (c *Context) relevantAnchors(value any) []string {
	var names []string
	for _, a := range c.registry.FindByKind(ir.KindOf(value)) {
		names = append(names, a.Name())
	}
	if top, ok := c.CurrentScope(); ok {
		for _, a := range c.registry.FindByContext(top.ContextTag()) {
			if !slices.Contains(names, a.Name()) {
				names = append(names, a.Name())
			}
		}
	}
	return names
}

// UpdateRelation replaces the value of an existing relation.
func (c *Context) UpdateRelation(name string, value any) error {
	rel, err := c.Relation(name)
	if err != nil {
		return err
	}
	old := rel.Value()
	rel.UpdateValue(value)

	c.Log(EventRelationUpdated, map[string]any{
		"name":       name,
		"old_value":  old,
		"new_value":  value,
		"expression": rel.Expression(),
	})
	return nil
}

// Relation returns the named relation or CONTEXT_ERROR.
func (c *Context) Relation(name string) (*relation.Relation, error) {
	rel, ok := c.relations[name]
	if !ok {
		return nil, ir.NewContextError(name, fmt.Sprintf("variable %q not found in context", name))
	}
	return rel, nil
}

// RelationNames returns relation names in creation order.
func (c *Context) RelationNames() []string {
	return slices.Clone(c.order)
}

// RemoveRelation deletes the named relation. It reports whether it existed.
func (c *Context) RemoveRelation(name string) bool {
	if _, ok := c.relations[name]; !ok {
		return false
	}
	delete(c.relations, name)
	c.order = slices.DeleteFunc(c.order, func(n string) bool { return n == name })
	c.Log(EventRelationRemoved, map[string]any{"name": name})
	return true
}

// PushScope pushes a scope frame. tag selects anchors for auto-detection.
func (c *Context) PushScope(name, tag string, metadata map[string]any) {
	c.scopes = append(c.scopes, Frame{Name: name, Tag: tag, Metadata: maps.Clone(metadata)})
}

// PopScope removes and returns the top scope frame. Popping an empty stack
// is a CONTEXT_ERROR.
func (c *Context) PopScope() (Frame, error) {
	if len(c.scopes) == 0 {
		return Frame{}, ir.NewContextError("", "no context to pop")
	}
	top := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	return top, nil
}

// CurrentScope returns the top scope frame, if any.
func (c *Context) CurrentScope() (Frame, bool) {
	if len(c.scopes) == 0 {
		return Frame{}, false
	}
	return c.scopes[len(c.scopes)-1], true
}

// ScopeDepth returns the number of pushed frames.
func (c *Context) ScopeDepth() int { return len(c.scopes) }

// UpdateDynamicAnchors refreshes every due dynamic anchor and recomputes all
// relations. Refresh failures are logged and returned; the anchors involved
// keep their last good value.
func (c *Context) UpdateDynamicAnchors() []error {
	errs := c.registry.UpdateDynamicAnchors()
	for _, err := range errs {
		c.Log(EventRefreshError, map[string]any{"error": err.Error()})
	}
	for _, name := range c.order {
		c.relations[name].Recompute()
	}
	return errs
}

// Log appends an event to the execution log. Nothing is recorded when
// explanation mode is off.
func (c *Context) Log(typ EventType, fields map[string]any) {
	if !c.explain {
		return
	}
	c.log.append(Event{Seq: c.clock.Next(), Type: typ, Fields: fields})
}

// ExecutionLog returns logged events in append order, filtered by type
// unless typ is empty.
func (c *Context) ExecutionLog(typ EventType) []Event {
	return c.log.snapshot(typ)
}

// SuggestedActions returns the actions of every relation, tagged with their
// relation name, filtered by the significance threshold and stably sorted
// by priority.
func (c *Context) SuggestedActions() []ir.Action {
	var all []ir.Action
	for _, name := range c.order {
		all = append(all, c.relationActions(name)...)
	}
	return c.finishActions(all)
}

// SuggestedActionsFor is SuggestedActions restricted to one relation. An
// unknown relation yields no actions.
func (c *Context) SuggestedActionsFor(name string) []ir.Action {
	if _, ok := c.relations[name]; !ok {
		return nil
	}
	return c.finishActions(c.relationActions(name))
}

func (c *Context) relationActions(name string) []ir.Action {
	actions := c.relations[name].SuggestedActions()
	for i := range actions {
		actions[i].Relation = name
	}
	return actions
}

func (c *Context) finishActions(actions []ir.Action) []ir.Action {
	actions = slices.DeleteFunc(actions, func(a ir.Action) bool {
		return !a.Significance.AtLeast(c.threshold)
	})
	ir.SortByPriority(actions)
	for _, a := range actions {
		metrics.ObserveSuggestedAction(string(a.Priority))
	}
	return actions
}
