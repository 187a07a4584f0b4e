// Package anchor implements anchors, the named reference values that give
// relation values their meaning, and the registry that owns them.
//
// An anchor carries a base value plus tolerance, optional range and buffer
// zone. Dynamic anchors hold a cached current value that is refreshed from a
// value source lazily, when the value is read and the update interval has
// elapsed. There is no background timer: staleness is bounded only by how
// often callers read.
//
// Refresh failures are never fatal. The previous cached value is kept, a
// warning is logged and the failure is counted.
//
// Nothing in this package is safe for concurrent mutation; a single logical
// actor drives the runtime.
package anchor
