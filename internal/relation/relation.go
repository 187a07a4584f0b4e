package relation

import (
	"fmt"
	"maps"
	"math"
	"strings"

	"github.com/roach88/giant/internal/anchor"
	"github.com/roach88/giant/internal/ir"
)

// Significance tiers, as multiples of an anchor's tolerance.
const (
	negligibleRatio  = 0.1
	noticeableRatio  = 1.0
	significantRatio = 2.0
	criticalRatio    = 5.0

	// minTolerance guards the ratio against a zero tolerance.
	minTolerance = 0.01
)

// Qualifier tiers, as multiples of an anchor's tolerance.
const (
	nearFactor      = 2.0
	directionFactor = 5.0
)

// DefaultApproachThreshold is the fraction of tolerance within which a value
// counts as approaching an anchor.
const DefaultApproachThreshold = 0.8

// Relation is a value that knows its position relative to a set of anchors.
type Relation struct {
	value    any
	anchors  []*anchor.Anchor
	index    map[string]int
	metadata map[string]any
	cache    cache
}

// New creates a relation over anchors, in the given order. A later anchor
// with a name already seen replaces the earlier one in place.
func New(value any, anchors []*anchor.Anchor, metadata map[string]any) *Relation {
	r := &Relation{
		value:    value,
		index:    make(map[string]int, len(anchors)),
		metadata: maps.Clone(metadata),
		cache:    newCache(),
	}
	if r.metadata == nil {
		r.metadata = make(map[string]any)
	}
	for _, a := range anchors {
		if a == nil {
			continue
		}
		if i, ok := r.index[a.Name()]; ok {
			r.anchors[i] = a
			continue
		}
		r.index[a.Name()] = len(r.anchors)
		r.anchors = append(r.anchors, a)
	}
	r.compute()
	return r
}

// Value returns the current value.
func (r *Relation) Value() any { return r.value }

// Metadata returns the free-form metadata map. The map is owned by the
// relation.
func (r *Relation) Metadata() map[string]any { return r.metadata }

// Anchors returns the related anchors in order.
func (r *Relation) Anchors() []*anchor.Anchor {
	return append([]*anchor.Anchor(nil), r.anchors...)
}

// AnchorNames returns the related anchor names in order.
func (r *Relation) AnchorNames() []string {
	names := make([]string, len(r.anchors))
	for i, a := range r.anchors {
		names[i] = a.Name()
	}
	return names
}

// HasAnchor reports whether name is related.
func (r *Relation) HasAnchor(name string) bool {
	_, ok := r.index[name]
	return ok
}

// UpdateValue replaces the value and recomputes every derived result.
func (r *Relation) UpdateValue(v any) {
	r.value = v
	r.compute()
}

// Rebind replaces the anchor reference that shares a's name and recomputes.
// It reports whether the relation referenced that name; unrelated anchors
// are ignored.
func (r *Relation) Rebind(a *anchor.Anchor) bool {
	i, ok := r.index[a.Name()]
	if !ok {
		return false
	}
	r.anchors[i] = a
	r.compute()
	return true
}

// Detach drops the anchor named name and recomputes. It reports whether the
// anchor was related.
func (r *Relation) Detach(name string) bool {
	i, ok := r.index[name]
	if !ok {
		return false
	}
	r.anchors = append(r.anchors[:i], r.anchors[i+1:]...)
	delete(r.index, name)
	for j := i; j < len(r.anchors); j++ {
		r.index[r.anchors[j].Name()] = j
	}
	r.compute()
	return true
}

// Recompute re-reads every anchor's current value and clears the caches.
func (r *Relation) Recompute() {
	r.compute()
}

// compute is the single cache refill path shared by every mutator.
func (r *Relation) compute() {
	r.cache.invalidate()
	for _, a := range r.anchors {
		v := a.Value()
		r.cache.values[a.Name()] = v
		r.cache.distances[a.Name()] = distance(r.value, v)
	}
}

// distance is the absolute difference for numeric operands and 0 otherwise.
// Non-numeric distance is the extension point for custom metrics.
func distance(value, anchorValue any) float64 {
	x, y, ok := ir.Numbers(value, anchorValue)
	if !ok {
		return 0
	}
	return math.Abs(x - y)
}

// Distance returns the cached distance to the anchor named name.
func (r *Relation) Distance(name string) (float64, bool) {
	d, ok := r.cache.distances[name]
	return d, ok
}

// compare orders the value against the last-read anchor value: 1 over,
// -1 under, 0 equal. ok is false for a missing anchor or non-numeric
// operands.
func (r *Relation) compare(name string) (int, bool) {
	av, ok := r.cache.values[name]
	if !ok {
		return 0, false
	}
	x, y, ok := ir.Numbers(r.value, av)
	if !ok {
		return 0, false
	}
	switch {
	case x > y:
		return 1, true
	case x < y:
		return -1, true
	default:
		return 0, true
	}
}

func (r *Relation) lookup(name string) (*anchor.Anchor, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, ir.NewAnchorNotFound(name)
	}
	return r.anchors[i], nil
}

// RelationTo describes the position against an anchor, for example
// "17.70 over optimal", "equal to optimal" or, for non-numeric operands,
// "related to label".
func (r *Relation) RelationTo(name string) (string, error) {
	if _, err := r.lookup(name); err != nil {
		return "", err
	}
	cmp, ok := r.compare(name)
	if !ok {
		return "related to " + name, nil
	}
	d := r.cache.distances[name]
	switch cmp {
	case 1:
		return fmt.Sprintf("%.2f over %s", d, name), nil
	case -1:
		return fmt.Sprintf("%.2f under %s", d, name), nil
	default:
		return "equal to " + name, nil
	}
}

// QualifierTo classifies the position against an anchor by distance in
// multiples of the anchor's tolerance:
//
//	0            equal_to
//	<= 1x        approximately
//	<= 2x        near
//	<= 5x        over / under
//	beyond       far_from
//
// Non-numeric operands are always approximately.
func (r *Relation) QualifierTo(name string) (ir.Qualifier, error) {
	if q, ok := r.cache.qualifiers[name]; ok {
		return q, nil
	}
	a, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	cmp, numeric := r.compare(name)
	d := r.cache.distances[name]
	tol := a.Tolerance()

	var q ir.Qualifier
	switch {
	case !numeric:
		q = ir.QualifierApproximately
	case d == 0:
		q = ir.QualifierEqualTo
	case d <= tol:
		q = ir.QualifierApproximately
	case d <= tol*nearFactor:
		q = ir.QualifierNear
	case d <= tol*directionFactor:
		if cmp > 0 {
			q = ir.QualifierOver
		} else {
			q = ir.QualifierUnder
		}
	default:
		q = ir.QualifierFarFrom
	}

	r.cache.qualifiers[name] = q
	return q, nil
}

// SignificanceTo grades the deviation from an anchor by
// ratio = distance / max(tolerance, 0.01). A missing anchor is negligible.
func (r *Relation) SignificanceTo(name string) ir.Significance {
	if s, ok := r.cache.significance[name]; ok {
		return s
	}
	a, err := r.lookup(name)
	if err != nil {
		return ir.SignificanceNegligible
	}

	s := SignificanceForRatio(r.cache.distances[name] / max(a.Tolerance(), minTolerance))
	r.cache.significance[name] = s
	return s
}

// SignificanceForRatio maps a distance/tolerance ratio onto its tier.
func SignificanceForRatio(ratio float64) ir.Significance {
	switch {
	case ratio <= negligibleRatio:
		return ir.SignificanceNegligible
	case ratio <= noticeableRatio:
		return ir.SignificanceNoticeable
	case ratio <= significantRatio:
		return ir.SignificanceSignificant
	case ratio <= criticalRatio:
		return ir.SignificanceCritical
	default:
		return ir.SignificanceExtreme
	}
}

// IsApproaching reports whether the distance is within threshold × tolerance.
func (r *Relation) IsApproaching(name string, threshold float64) bool {
	a, err := r.lookup(name)
	if err != nil {
		return false
	}
	return r.cache.distances[name] <= a.Tolerance()*threshold
}

// IsOver reports whether the value is strictly greater than the anchor.
func (r *Relation) IsOver(name string) bool {
	cmp, ok := r.compare(name)
	return ok && cmp > 0
}

// IsUnder reports whether the value is strictly less than the anchor.
func (r *Relation) IsUnder(name string) bool {
	cmp, ok := r.compare(name)
	return ok && cmp < 0
}

// IsWithinRange reports whether a numeric value lies in the anchor's range,
// widened by its buffer zone when useBuffer is set.
func (r *Relation) IsWithinRange(name string, useBuffer bool) bool {
	a, err := r.lookup(name)
	if err != nil {
		return false
	}
	v, ok := ir.Number(r.value)
	if !ok {
		return false
	}
	return a.IsWithinRange(v, useBuffer)
}

// SuggestedActions emits one action per anchor whose significance is at
// least significant and whose direction is known, ordered by priority
// (stable, so ties keep anchor order).
func (r *Relation) SuggestedActions() []ir.Action {
	var actions []ir.Action
	for _, a := range r.anchors {
		name := a.Name()
		sig := r.SignificanceTo(name)
		if !sig.AtLeast(ir.SignificanceSignificant) {
			continue
		}

		var typ ir.ActionType
		switch {
		case r.IsOver(name):
			typ = ir.ActionReduce
		case r.IsUnder(name):
			typ = ir.ActionIncrease
		default:
			continue
		}

		desc, _ := r.RelationTo(name)
		q, _ := r.QualifierTo(name)
		actions = append(actions, ir.Action{
			Type:         typ,
			Target:       name,
			Amount:       r.cache.distances[name],
			Priority:     ir.PriorityFor(sig),
			Reason:       "Value is " + desc,
			Significance: sig,
			Qualifier:    q,
		})
	}
	ir.SortByPriority(actions)
	return actions
}

// Expression renders the value with every anchor position, for example
// "92.7 (17.70 over optimal, 7.30 under danger)".
func (r *Relation) Expression() string {
	if len(r.anchors) == 0 {
		return "value: " + ir.FormatValue(r.value)
	}
	parts := make([]string, 0, len(r.anchors))
	for _, a := range r.anchors {
		desc, _ := r.RelationTo(a.Name())
		parts = append(parts, desc)
	}
	return fmt.Sprintf("%s (%s)", ir.FormatValue(r.value), strings.Join(parts, ", "))
}

// String returns Expression.
func (r *Relation) String() string {
	return r.Expression()
}
