package optimize

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/roach88/giant/internal/engine"
	"github.com/roach88/giant/internal/ir"
	"github.com/roach88/giant/internal/metrics"
)

// DefaultMaxSolutions is the default history capacity.
const DefaultMaxSolutions = 1000

// Scored is one entry of the solution history.
type Scored struct {
	// ID is the content hash of Outcome; empty when Outcome cannot be
	// canonicalized.
	ID string `json:"id"`

	// Action is the candidate that produced Outcome, nil for recorded
	// solutions.
	Action *ir.Action `json:"action,omitempty"`

	Score       float64     `json:"score"`
	Outcome     ir.Solution `json:"outcome"`
	Explanation string      `json:"explanation"`
	Note        string      `json:"note,omitempty"`
}

// term is one objective's share of a score.
type term struct {
	objective    *Objective
	value        float64
	contribution float64
}

// breakdown is a full score computation, cached per solution.
type breakdown struct {
	total    float64
	terms    []term
	violated []string
}

// Engine holds objectives, constraints, the score cache and the solution
// history.
type Engine struct {
	objectives  map[string]*Objective
	order       []string
	constraints []*Constraint
	cache       map[string]breakdown
	history     []Scored
	maxHistory  int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxSolutions caps the history. Values below 1 keep the default.
func WithMaxSolutions(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxHistory = n
		}
	}
}

// WithLogger sets the logger for callback failures. A nil logger keeps the
// default.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine with no objectives or constraints.
func New(opts ...Option) *Engine {
	e := &Engine{
		objectives: make(map[string]*Objective),
		cache:      make(map[string]breakdown),
		maxHistory: DefaultMaxSolutions,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddObjective adds or replaces an objective. A replaced objective keeps its
// position. The score cache is cleared.
func (e *Engine) AddObjective(name string, goal ir.Goal, weight float64, evaluator Evaluator) error {
	if name == "" {
		return ir.NewOptimizationError("objective name is required")
	}
	if !goal.Valid() {
		return ir.NewOptimizationError("objective %s: invalid goal %q", name, goal)
	}
	if _, exists := e.objectives[name]; !exists {
		e.order = append(e.order, name)
	}
	e.objectives[name] = &Objective{Name: name, Goal: goal, Weight: weight, Evaluator: evaluator}
	clear(e.cache)
	return nil
}

// AddConstraint appends a constraint. An empty description becomes
// "Constraint: <name>". The score cache is cleared.
func (e *Engine) AddConstraint(name string, validator Validator, penalty float64, description string) error {
	if validator == nil {
		return ir.NewOptimizationError("constraint %s: validator is required", name)
	}
	if description == "" {
		description = "Constraint: " + name
	}
	e.constraints = append(e.constraints, &Constraint{
		Name:        name,
		Validator:   validator,
		Penalty:     penalty,
		Description: description,
	})
	clear(e.cache)
	return nil
}

// Objectives returns the objectives in declaration order.
func (e *Engine) Objectives() []Objective {
	out := make([]Objective, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, *e.objectives[name])
	}
	return out
}

// Constraints returns the constraints in declaration order.
func (e *Engine) Constraints() []Constraint {
	out := make([]Constraint, 0, len(e.constraints))
	for _, c := range e.constraints {
		out = append(out, *c)
	}
	return out
}

// EvaluateSolution scores s. Repeated calls for an equal solution hit the
// cache until objectives or constraints change.
func (e *Engine) EvaluateSolution(s ir.Solution) float64 {
	return e.evaluate(s).total
}

func (e *Engine) evaluate(s ir.Solution) breakdown {
	key, err := ir.CanonicalKey(s)
	if err == nil {
		if b, ok := e.cache[key]; ok {
			metrics.ObserveEvaluation(true)
			return b
		}
	}
	metrics.ObserveEvaluation(false)

	b := e.compute(s)
	if err == nil {
		e.cache[key] = b
	}
	return b
}

func (e *Engine) compute(s ir.Solution) breakdown {
	var b breakdown
	for _, name := range e.order {
		obj := e.objectives[name]
		v, ok, err := obj.value(s)
		if err != nil {
			metrics.ObserveCallbackError("objective")
			e.logger.Warn("error evaluating objective", "objective", name, "error", err)
			continue
		}
		if !ok {
			continue
		}
		c := obj.contribution(v)
		b.total += c
		b.terms = append(b.terms, term{objective: obj, value: v, contribution: c})
	}

	for _, c := range e.constraints {
		ok, err := c.satisfied(s)
		if err != nil {
			metrics.ObserveCallbackError("constraint")
			e.logger.Warn("error evaluating constraint", "constraint", c.Name, "error", err)
		}
		if err != nil || !ok {
			b.total -= c.Penalty
			b.violated = append(b.violated, c.Name)
		}
	}
	return b
}

// Explain renders how s scores: the total, each objective's value and
// signed contribution, and the violated constraints.
func (e *Engine) Explain(s ir.Solution) string {
	return explain(e.evaluate(s))
}

func explain(b breakdown) string {
	lines := []string{fmt.Sprintf("Overall score: %.2f", b.total)}
	for _, t := range b.terms {
		lines = append(lines, fmt.Sprintf("  %s: %.2f -> %.2f (%s)", t.objective.Name, t.value, t.contribution, t.objective.Goal))
	}
	if len(b.violated) > 0 {
		lines = append(lines, "  Violated constraints: "+strings.Join(b.violated, ", "))
	}
	return strings.Join(lines, "\n")
}

// FindOptimalAction simulates and scores every candidate and returns the
// one with the highest score; ties keep the first. Every scored candidate
// is recorded in history. ok is false when no candidate could be scored.
//
// When ctx is non-nil the choice is logged to it as an action_selected
// event.
func (e *Engine) FindOptimalAction(ctx *engine.Context, candidates []ir.Action) (ir.Action, bool) {
	best, ok := e.FindOptimal(ctx, candidates)
	if !ok {
		return ir.Action{}, false
	}
	return *best.Action, true
}

// FindOptimal is FindOptimalAction returning the full history entry of the
// winner.
func (e *Engine) FindOptimal(ctx *engine.Context, candidates []ir.Action) (Scored, bool) {
	var (
		best  Scored
		found bool
	)
	for i := range candidates {
		action := candidates[i]
		outcome := Simulate(action)
		b := e.evaluate(outcome)
		if math.IsNaN(b.total) {
			e.logger.Warn("error evaluating action", "action", action.String(), "error", "score is NaN")
			continue
		}

		entry := e.record(outcome, b, &action, "")
		if !found || entry.Score > best.Score {
			best, found = entry, true
		}
	}
	if !found {
		return Scored{}, false
	}

	if ctx != nil {
		ctx.Log(engine.EventActionSelected, map[string]any{
			"type":        string(best.Action.Type),
			"target":      best.Action.Target,
			"relation":    best.Action.Relation,
			"amount":      best.Action.Amount,
			"priority":    string(best.Action.Priority),
			"score":       best.Score,
			"solution_id": best.ID,
			"candidates":  len(candidates),
		})
	}
	return best, true
}

// Record scores an arbitrary solution into history.
func (e *Engine) Record(s ir.Solution, note string) Scored {
	return e.record(s, e.evaluate(s), nil, note)
}

func (e *Engine) record(s ir.Solution, b breakdown, action *ir.Action, note string) Scored {
	id, err := ir.SolutionID(s)
	if err != nil {
		id = ""
	}
	entry := Scored{
		ID:          id,
		Action:      action,
		Score:       b.total,
		Outcome:     maps.Clone(s),
		Explanation: explain(b),
		Note:        note,
	}

	e.history = append(e.history, entry)
	if over := len(e.history) - e.maxHistory; over > 0 {
		e.history = slices.Delete(e.history, 0, over)
	}
	metrics.SetHistorySize(len(e.history))
	return entry
}

// History returns scored solutions, oldest first.
func (e *Engine) History() []Scored {
	return slices.Clone(e.history)
}

// ClearHistory drops every recorded solution.
func (e *Engine) ClearHistory() {
	e.history = nil
	metrics.SetHistorySize(0)
}
