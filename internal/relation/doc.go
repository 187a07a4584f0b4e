// Package relation pairs a value with a set of anchors and derives
// distance, qualifier and significance against each of them.
//
// A Relation holds non-owning references to anchors owned by a registry.
// Derived results are cached per anchor name and every mutator clears the
// whole cache before returning, so reads always reflect the current value
// and the anchor values last read by the relation.
//
// Lifecycle per anchor key:
//
//	stale -> computed (distance) -> classified (qualifier, significance)
//
// Any value or anchor change collapses every key back to computed.
package relation
