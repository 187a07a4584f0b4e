package harness

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/giant/internal/engine"
	"github.com/roach88/giant/internal/ir"
	"github.com/roach88/giant/internal/optimize"
)

// Harness executes scenarios against a fresh relational context and
// optimizer per run.
type Harness struct {
	ids     IDGenerator
	start   time.Time
	logger  *slog.Logger
	ctxOpts []engine.Option
	optOpts []optimize.Option
}

// Option configures a Harness.
type Option func(*Harness)

// WithIDGenerator sets the run ID generator. Tests pass a fixed generator
// so results are reproducible.
func WithIDGenerator(g IDGenerator) Option {
	return func(h *Harness) { h.ids = g }
}

// WithStartTime fixes the instant the scenario clock starts at. The zero
// time means the wall clock at the start of each run.
func WithStartTime(t time.Time) Option {
	return func(h *Harness) { h.start = t }
}

// WithLogger sets the logger handed to the context and optimizer.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithContextOptions appends options for every run's context.
func WithContextOptions(opts ...engine.Option) Option {
	return func(h *Harness) { h.ctxOpts = append(h.ctxOpts, opts...) }
}

// WithOptimizerOptions appends options for every run's optimizer.
func WithOptimizerOptions(opts ...optimize.Option) Option {
	return func(h *Harness) { h.optOpts = append(h.optOpts, opts...) }
}

// New creates a harness. Logs are discarded unless WithLogger is given.
func New(opts ...Option) *Harness {
	h := &Harness{
		ids:    UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes s with a harness built from opts.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	return New(opts...).Run(s)
}

// execution is the state of one run.
type execution struct {
	ctx    *engine.Context
	opt    *optimize.Engine
	clock  *scenarioClock
	result *Result
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Declare anchors, then relations
// 2. Apply update steps in order
// 3. Collect suggested actions and, with objectives, run the optimizer
// 4. Render the explanation and evaluate assertions
//
// Declaration and update failures are returned as errors; assertion
// failures are recorded on the result.
func (h *Harness) Run(s *Scenario) (*Result, error) {
	start := h.start
	if start.IsZero() {
		start = time.Now()
	}
	x := &execution{
		clock:  newScenarioClock(start),
		result: NewResult(h.ids.Generate(), s.Name),
	}

	ctxOpts := append([]engine.Option{
		engine.WithAnchorClock(x.clock),
		engine.WithLogger(h.logger),
	}, h.ctxOpts...)
	x.ctx = engine.New(ctxOpts...)

	optOpts := append([]optimize.Option{optimize.WithLogger(h.logger)}, h.optOpts...)
	x.opt = optimize.New(optOpts...)

	if err := x.declare(s); err != nil {
		return nil, err
	}
	if err := x.apply(s.Updates); err != nil {
		return nil, err
	}
	if err := x.configureOptimizer(s); err != nil {
		return nil, err
	}

	x.result.Actions = x.ctx.SuggestedActions()
	if x.result.Actions == nil {
		x.result.Actions = []ir.Action{}
	}

	if len(s.Objectives) > 0 {
		candidates := s.Candidates
		if len(candidates) == 0 {
			candidates = x.result.Actions
		}
		if best, ok := x.opt.FindOptimal(x.ctx, candidates); ok {
			x.result.Optimal = &best
		}
		x.result.Pareto = x.opt.ParetoFront()
		x.result.Tradeoffs = x.opt.ExplainTradeoffs()
	}

	x.result.Explanation = x.ctx.ExplainState()

	for _, msg := range x.evaluateAssertions(s.Assertions) {
		x.result.AddError(msg)
	}
	x.result.Events = x.ctx.ExecutionLog("")

	h.logger.Debug("scenario executed",
		"scenario", s.Name,
		"run_id", x.result.RunID,
		"pass", x.result.Pass,
		"actions", len(x.result.Actions))
	return x.result, nil
}

func (x *execution) declare(s *Scenario) error {
	for _, decl := range s.Anchors {
		if _, err := x.ctx.DeclareAnchor(decl); err != nil {
			return fmt.Errorf("failed to declare anchor: %w", err)
		}
	}
	for _, decl := range s.Relations {
		if _, err := x.ctx.DeclareRelation(decl); err != nil {
			return fmt.Errorf("failed to declare relation: %w", err)
		}
	}
	return nil
}

// apply runs update steps in order. Refresh failures are kept on the
// result; the anchors involved keep their last good value.
func (x *execution) apply(steps []Step) error {
	for i, step := range steps {
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("updates[%d]: parse advance: %w", i, err)
			}
			x.clock.advance(d)
		}
		if step.Refresh {
			for _, err := range x.ctx.UpdateDynamicAnchors() {
				x.result.RefreshErrors = append(x.result.RefreshErrors, err.Error())
			}
		}
		if step.Relation != "" {
			if err := x.ctx.UpdateRelation(step.Relation, step.Value); err != nil {
				return fmt.Errorf("updates[%d]: %w", i, err)
			}
		}
	}
	return nil
}

// configureOptimizer adds objectives read from solution keys and threshold
// constraints. An objective without a weight gets the default weight.
func (x *execution) configureOptimizer(s *Scenario) error {
	for _, decl := range s.Objectives {
		weight := decl.Weight
		if weight == 0 {
			weight = optimize.DefaultWeight
		}
		if err := x.opt.AddObjective(decl.Name, decl.Goal, weight, nil); err != nil {
			return fmt.Errorf("failed to add objective: %w", err)
		}
	}
	for _, decl := range s.Constraints {
		c, err := optimize.ThresholdConstraint(decl)
		if err != nil {
			return fmt.Errorf("failed to build constraint %s: %w", decl.Name, err)
		}
		if err := x.opt.AddConstraint(c.Name, c.Validator, c.Penalty, c.Description); err != nil {
			return fmt.Errorf("failed to add constraint: %w", err)
		}
	}
	return nil
}
