// Package ir provides the shared vocabulary of the GIANT relational runtime.
//
// This package contains value classification, the categorical enums
// (qualifier, significance, priority, goal), action descriptors,
// declaration records and the error taxonomy. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Ordered enums are compared through explicit Rank methods, never through
//     declaration order or string comparison
//   - Values are plain Go values (any); KindOf decides numeric vs non-numeric
//   - Solution maps are keyed by their canonical JSON form (sorted keys, NFC
//     normalized strings) for caching and content-addressed identity
//   - All JSON tags use snake_case
package ir
