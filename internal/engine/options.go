package engine

import (
	"log/slog"

	"github.com/roach88/giant/internal/anchor"
	"github.com/roach88/giant/internal/ir"
	"github.com/roach88/giant/internal/relation"
)

// Option configures a Context.
type Option func(*Context)

// WithLogCap sets how many events the execution log retains.
// Values below 1 keep the default of 1000.
func WithLogCap(n int) Option {
	return func(c *Context) {
		if n >= 1 {
			c.logCap = n
		}
	}
}

// WithSignificanceThreshold sets the minimum significance an action needs to
// be returned by SuggestedActions. Default: significant.
func WithSignificanceThreshold(s ir.Significance) Option {
	return func(c *Context) { c.threshold = s }
}

// WithExplanationMode turns event logging on or off. Default: on.
func WithExplanationMode(on bool) Option {
	return func(c *Context) { c.explain = on }
}

// WithApproachThreshold sets the fraction of tolerance used by the
// "approaching" condition. Default: 0.8.
func WithApproachThreshold(f float64) Option {
	return func(c *Context) { c.approach = f }
}

// WithClock sets the logical clock stamping log events. nil keeps the
// default.
func WithClock(clock *Clock) Option {
	return func(c *Context) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithAnchorClock sets the wall clock given to dynamic anchors declared
// through DeclareAnchor. nil keeps the system clock.
func WithAnchorClock(clock anchor.Clock) Option {
	return func(c *Context) {
		if clock != nil {
			c.anchorClock = clock
		}
	}
}

// WithLogger sets the logger for recovered failures. nil keeps
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.logger = l
		}
	}
}

func defaults(c *Context) {
	c.logCap = DefaultLogCap
	c.threshold = ir.SignificanceSignificant
	c.explain = true
	c.approach = relation.DefaultApproachThreshold
	c.clock = NewClock()
	c.anchorClock = anchor.SystemClock{}
	c.logger = slog.Default()
}
