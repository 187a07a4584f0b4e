package relation

import "github.com/roach88/giant/internal/ir"

// cache holds everything a Relation derives from its anchors.
//
// values and distances are filled eagerly by compute; qualifiers and
// significance are filled lazily on first query.
type cache struct {
	values       map[string]any
	distances    map[string]float64
	qualifiers   map[string]ir.Qualifier
	significance map[string]ir.Significance
}

func newCache() cache {
	return cache{
		values:       make(map[string]any),
		distances:    make(map[string]float64),
		qualifiers:   make(map[string]ir.Qualifier),
		significance: make(map[string]ir.Significance),
	}
}

// invalidate drops every derived result.
func (c *cache) invalidate() {
	clear(c.values)
	clear(c.distances)
	clear(c.qualifiers)
	clear(c.significance)
}
