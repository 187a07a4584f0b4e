// Package harness runs declarative scenarios against the relational runtime.
//
// A scenario declares anchors and relations, applies update steps, and
// optionally asks the optimizer to choose among candidate actions. The
// harness then renders the context's explanation and checks assertions.
//
// # Scenario Format
//
// Scenarios are YAML (or CUE, validated against the compiler's schema):
//
//	name: thermostat
//	description: "Temperature drifting above its optimum"
//	anchors:
//	  - name: optimal
//	    value: 75.0
//	    tolerance: 2.0
//	    context: temperature
//	relations:
//	  - name: temp
//	    value: 92.7
//	    anchors: [optimal]
//	updates:
//	  - relation: temp
//	    value: 80.0
//	  - advance: 5s
//	    refresh: true
//	objectives:
//	  - name: safety_improvement
//	    goal: maximize
//	assertions:
//	  - type: qualifier
//	    relation: temp
//	    anchor: optimal
//	    expect: near
//
// # Assertion Types
//
//   - condition: EvaluateCondition(relation, condition, anchor) equals expect
//   - qualifier, significance, relation_to: per relation/anchor observations
//   - action_count, top_action: suggested actions, optionally for one relation
//   - optimal_action, pareto_size: optimizer outcome
//
// # Deterministic Runs
//
// Dynamic anchors read a scenario clock that only moves on advance steps.
// With WithStartTime and a fixed IDGenerator, equal scenarios produce equal
// results, which golden comparison relies on.
package harness
