// Package engine implements the relational context: the runtime object that
// owns an anchor registry and a set of named relations.
//
// The context is the single entry point collaborators use to declare
// anchors, create and update relations, evaluate relational conditions,
// collect suggested actions and read the execution trail.
//
// SINGLE ACTOR:
// One logical caller drives a Context. Nothing here is safe for concurrent
// mutation; state changes happen synchronously inside each call.
//
// PROPAGATION:
// Relations never poll the registry. When an anchor is (re)declared, every
// relation referencing its name is rebound and recomputed before the call
// returns. UpdateDynamicAnchors refreshes due anchors and then recomputes
// every relation.
//
// ORDERING:
// Anchors and relations iterate in insertion order. The execution log is a
// bounded ring in append order, each event stamped with a strictly
// increasing seq from the logical Clock. Action lists are stably sorted by
// priority rank.
//
// RECOVERY:
// Declaration errors are returned to the caller. Query-time failures
// (condition evaluation, refresh callbacks) are logged and replaced by a
// safe default so a bad anchor never halts the surrounding program.
package engine
