package anchor

import (
	"slices"

	"github.com/roach88/giant/internal/ir"
)

// Registry owns anchors by name in insertion order and tracks declared
// dependencies between them.
//
// Re-registering a name replaces the anchor in place and keeps its original
// position. Nothing is ever removed automatically.
type Registry struct {
	anchors map[string]*Anchor
	order   []string
	deps    map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		anchors: make(map[string]*Anchor),
		deps:    make(map[string][]string),
	}
}

// Register upserts a by name and records its declared dependencies.
func (r *Registry) Register(a *Anchor) {
	name := a.Name()
	if _, exists := r.anchors[name]; !exists {
		r.order = append(r.order, name)
	}
	r.anchors[name] = a

	if deps := a.meta.Dependencies; len(deps) > 0 {
		r.deps[name] = append([]string(nil), deps...)
	} else {
		delete(r.deps, name)
	}
}

// Get returns the anchor registered under name.
func (r *Registry) Get(name string) (*Anchor, bool) {
	a, ok := r.anchors[name]
	return a, ok
}

// Lookup is like Get but reports a missing anchor as ANCHOR_NOT_FOUND.
func (r *Registry) Lookup(name string) (*Anchor, error) {
	a, ok := r.anchors[name]
	if !ok {
		return nil, ir.NewAnchorNotFound(name)
	}
	return a, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.anchors[name]
	return ok
}

// Remove deletes the anchor and its dependency entry. It reports whether the
// anchor was present.
func (r *Registry) Remove(name string) bool {
	if _, ok := r.anchors[name]; !ok {
		return false
	}
	delete(r.anchors, name)
	delete(r.deps, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })
	return true
}

// Len returns the number of registered anchors.
func (r *Registry) Len() int { return len(r.order) }

// Names returns anchor names in insertion order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// All returns anchors in insertion order.
func (r *Registry) All() []*Anchor {
	out := make([]*Anchor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.anchors[name])
	}
	return out
}

// FindByContext returns anchors whose metadata context tag equals tag.
func (r *Registry) FindByContext(tag string) []*Anchor {
	return r.filter(func(a *Anchor) bool { return a.meta.Context == tag })
}

// FindByKind returns anchors whose current value has the given kind.
// Integer and float anchors both match KindNumber.
func (r *Registry) FindByKind(kind ir.Kind) []*Anchor {
	return r.filter(func(a *Anchor) bool { return a.Kind() == kind })
}

func (r *Registry) filter(keep func(*Anchor) bool) []*Anchor {
	var out []*Anchor
	for _, name := range r.order {
		if a := r.anchors[name]; keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// UpdateDynamicAnchors refreshes every dynamic anchor whose cache is due and
// returns the refresh failures. Failed anchors keep their last good value.
func (r *Registry) UpdateDynamicAnchors() []error {
	var errs []error
	for _, name := range r.order {
		a := r.anchors[name]
		if !a.RefreshDue() {
			continue
		}
		if err := a.refresh(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Dependencies returns the declared dependencies of name.
func (r *Registry) Dependencies(name string) []string {
	return slices.Clone(r.deps[name])
}

// Dependents returns, in insertion order, the anchors that declare name as a
// dependency.
func (r *Registry) Dependents(name string) []string {
	var out []string
	for _, n := range r.order {
		if slices.Contains(r.deps[n], name) {
			out = append(out, n)
		}
	}
	return out
}
