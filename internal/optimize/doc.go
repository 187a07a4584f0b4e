// Package optimize picks among competing actions by scoring their
// simulated outcomes against weighted objectives and penalized constraints.
//
// Scores are "higher is better": maximize objectives add value × weight,
// minimize objectives subtract it, and every violated constraint subtracts
// its penalty. Failing callbacks never abort scoring: a failing objective
// is skipped and a failing constraint counts as violated.
//
// Every scored candidate is kept in a bounded history (oldest evicted
// first) from which the Pareto front is computed on demand. The front is an
// O(n²) scan, which the history cap keeps small.
package optimize
