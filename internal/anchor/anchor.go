package anchor

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/roach88/giant/internal/ir"
	"github.com/roach88/giant/internal/metrics"
)

// Default metadata values.
const (
	DefaultContext    = "default"
	DefaultSource     = "program"
	DefaultConfidence = 1.0
)

// criticalTolerance is the tolerance below which an anchor is treated as a
// critical threshold.
const criticalTolerance = 0.01

// Metadata describes what an anchor represents and how it is refreshed.
type Metadata struct {
	Description string
	Unit        string
	Context     string
	Source      string
	CreatedAt   time.Time
	Confidence  float64

	// Dynamic anchors read their current value from Updater.
	// A nil UpdateInterval disables automatic refresh; a zero interval
	// refreshes on every read.
	Dynamic        bool
	Updater        Source
	UpdateInterval *time.Duration
	LastUpdated    time.Time

	Related      []string
	Dependencies []string
}

// Range is an inclusive acceptable band [Start, End].
type Range struct {
	Start float64
	End   float64
}

// valueCache holds the current value of a dynamic anchor.
type valueCache struct {
	value any
	stamp time.Time
	valid bool
}

func (c *valueCache) store(v any, at time.Time) {
	c.value = v
	c.stamp = at
	c.valid = true
}

// invalidate marks the cache stale so the next read refreshes.
// The last value is kept as the fallback for a failing refresh.
func (c *valueCache) invalidate() {
	c.valid = false
}

// Anchor is a named reference value with tolerance, range and buffer
// semantics. Anchors are immutable after construction except for the cached
// current value of dynamic anchors, which only refresh mutates.
type Anchor struct {
	name      string
	value     any
	meta      Metadata
	tolerance float64
	rng       *Range
	buffer    float64

	cache   valueCache
	lastErr error
	clock   Clock
	logger  *slog.Logger
}

// Option configures an Anchor at construction.
type Option func(*Anchor)

// WithTolerance sets the acceptable deviation. Must be >= 0.
func WithTolerance(tolerance float64) Option {
	return func(a *Anchor) { a.tolerance = tolerance }
}

// WithRange sets the acceptable range [start, end]. start must be <= end.
func WithRange(start, end float64) Option {
	return func(a *Anchor) { a.rng = &Range{Start: start, End: end} }
}

// WithBufferZone sets the safety margin around the range. Must be >= 0.
func WithBufferZone(buffer float64) Option {
	return func(a *Anchor) { a.buffer = buffer }
}

// WithMetadata replaces the whole metadata record.
// Empty Context and Source fall back to their defaults.
func WithMetadata(m Metadata) Option {
	return func(a *Anchor) { a.meta = m }
}

// WithDescription sets the human-readable description.
func WithDescription(description string) Option {
	return func(a *Anchor) { a.meta.Description = description }
}

// WithUnit sets the unit of the anchor value.
func WithUnit(unit string) Option {
	return func(a *Anchor) { a.meta.Unit = unit }
}

// WithContextTag sets the context tag used by scope-based anchor matching.
func WithContextTag(tag string) Option {
	return func(a *Anchor) { a.meta.Context = tag }
}

// WithOrigin sets the metadata source label (where the anchor came from).
func WithOrigin(source string) Option {
	return func(a *Anchor) { a.meta.Source = source }
}

// WithConfidence sets the confidence. Must be within [0, 1].
func WithConfidence(confidence float64) Option {
	return func(a *Anchor) { a.meta.Confidence = confidence }
}

// WithRefresh makes the anchor dynamic, refreshing from src whenever every
// has elapsed since the last refresh.
func WithRefresh(src Source, every time.Duration) Option {
	return func(a *Anchor) {
		a.meta.Dynamic = true
		a.meta.Updater = src
		a.meta.UpdateInterval = &every
	}
}

// WithManualRefresh makes the anchor dynamic without automatic refresh;
// only Refresh or an invalidated cache pulls from src.
func WithManualRefresh(src Source) Option {
	return func(a *Anchor) {
		a.meta.Dynamic = true
		a.meta.Updater = src
		a.meta.UpdateInterval = nil
	}
}

// WithDependencies declares anchors this anchor depends on.
func WithDependencies(names ...string) Option {
	return func(a *Anchor) { a.meta.Dependencies = append([]string(nil), names...) }
}

// WithRelated declares loosely related anchors.
func WithRelated(names ...string) Option {
	return func(a *Anchor) { a.meta.Related = append([]string(nil), names...) }
}

// WithClock sets the clock used for refresh intervals.
func WithClock(c Clock) Option {
	return func(a *Anchor) { a.clock = c }
}

// WithLogger sets the logger used for refresh warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Anchor) { a.logger = l }
}

// New creates an anchor, rejecting invalid invariants:
//   - negative tolerance (INVALID_TOLERANCE)
//   - negative buffer zone (INVALID_BUFFER)
//   - confidence outside [0, 1] (INVALID_CONFIDENCE)
//   - range start > end (INVALID_ANCHOR_RANGE)
func New(name string, value any, opts ...Option) (*Anchor, error) {
	if name == "" {
		return nil, fmt.Errorf("anchor name is required")
	}

	a := &Anchor{
		name:  name,
		value: value,
		meta: Metadata{
			Context:    DefaultContext,
			Source:     DefaultSource,
			Confidence: DefaultConfidence,
		},
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.meta.Context == "" {
		a.meta.Context = DefaultContext
	}
	if a.meta.Source == "" {
		a.meta.Source = DefaultSource
	}

	if err := a.validate(); err != nil {
		return nil, err
	}

	now := a.clock.Now()
	if a.meta.CreatedAt.IsZero() {
		a.meta.CreatedAt = now
	}
	a.cache.store(value, now)
	return a, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNew(name string, value any, opts ...Option) *Anchor {
	a, err := New(name, value, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Anchor) validate() error {
	if !(a.tolerance >= 0) {
		return &ir.Error{
			Code:    ir.ErrCodeInvalidTolerance,
			Message: fmt.Sprintf("tolerance must be non-negative, got %v", a.tolerance),
			Anchor:  a.name,
		}
	}
	if !(a.buffer >= 0) {
		return &ir.Error{
			Code:    ir.ErrCodeInvalidBuffer,
			Message: fmt.Sprintf("buffer zone must be non-negative, got %v", a.buffer),
			Anchor:  a.name,
		}
	}
	if !(a.meta.Confidence >= 0 && a.meta.Confidence <= 1) {
		return &ir.Error{
			Code:    ir.ErrCodeInvalidConfidence,
			Message: fmt.Sprintf("confidence must be between 0.0 and 1.0, got %v", a.meta.Confidence),
			Anchor:  a.name,
		}
	}
	if a.rng != nil && a.rng.Start > a.rng.End {
		return ir.NewInvalidRange(a.name, a.rng.Start, a.rng.End)
	}
	return nil
}

// Name returns the anchor's registry key.
func (a *Anchor) Name() string { return a.name }

// BaseValue returns the declared value, ignoring any dynamic refresh.
func (a *Anchor) BaseValue() any { return a.value }

// Tolerance returns the acceptable deviation.
func (a *Anchor) Tolerance() float64 { return a.tolerance }

// BufferZone returns the safety margin around the range.
func (a *Anchor) BufferZone() float64 { return a.buffer }

// Range returns the configured range, if any.
func (a *Anchor) Range() (Range, bool) {
	if a.rng == nil {
		return Range{}, false
	}
	return *a.rng, true
}

// Metadata returns a copy of the anchor's metadata.
func (a *Anchor) Metadata() Metadata {
	m := a.meta
	m.Related = append([]string(nil), a.meta.Related...)
	m.Dependencies = append([]string(nil), a.meta.Dependencies...)
	return m
}

// IsDynamic reports whether the anchor refreshes from a value source.
func (a *Anchor) IsDynamic() bool { return a.meta.Dynamic }

// LastRefreshError returns the error of the most recent failed refresh, or
// nil if the last refresh succeeded.
func (a *Anchor) LastRefreshError() error { return a.lastErr }

// Value returns the current value. Static anchors return their base value.
// Dynamic anchors refresh first when due; a failed refresh keeps the
// previous cached value.
func (a *Anchor) Value() any {
	if !a.meta.Dynamic {
		return a.value
	}
	if a.RefreshDue() {
		_ = a.refresh()
	}
	return a.cache.value
}

// Kind classifies the current value.
func (a *Anchor) Kind() ir.Kind {
	return ir.KindOf(a.Value())
}

// RefreshDue reports whether the next read of a dynamic anchor will refresh.
func (a *Anchor) RefreshDue() bool {
	if !a.meta.Dynamic {
		return false
	}
	if !a.cache.valid {
		return true
	}
	if a.meta.UpdateInterval == nil {
		return false
	}
	return a.clock.Now().Sub(a.cache.stamp) >= *a.meta.UpdateInterval
}

// Refresh pulls a new value from the value source now, regardless of the
// interval. It returns the source's error; the cached value is kept on
// failure. Static anchors and anchors without a source are a no-op.
func (a *Anchor) Refresh() error {
	if !a.meta.Dynamic {
		return nil
	}
	return a.refresh()
}

// Invalidate marks the cached value stale; the next read refreshes.
func (a *Anchor) Invalidate() {
	a.cache.invalidate()
}

func (a *Anchor) refresh() error {
	if a.meta.Updater == nil {
		return nil
	}

	v, err := fetch(a.meta.Updater)
	metrics.ObserveRefresh(a.name, err)
	if err != nil {
		a.lastErr = err
		a.logger.Warn("failed to update dynamic anchor",
			"anchor", a.name,
			"error", err,
		)
		return fmt.Errorf("refresh anchor %s: %w", a.name, err)
	}

	now := a.clock.Now()
	a.cache.store(v, now)
	a.meta.LastUpdated = now
	a.lastErr = nil
	return nil
}

// Evaluate returns the anchor value under env.
//
// A dynamic anchor whose source also implements ContextSource receives env;
// otherwise the current value is returned. Evaluation does not touch the
// cache. A failing context source falls back to the current value.
func (a *Anchor) Evaluate(env Env) any {
	if !a.meta.Dynamic || a.meta.Updater == nil {
		return a.Value()
	}
	if cs, ok := a.meta.Updater.(ContextSource); ok && env != nil {
		v, err := fetchWith(cs, env)
		if err != nil {
			a.logger.Warn("context evaluation of dynamic anchor failed",
				"anchor", a.name,
				"error", err,
			)
			return a.Value()
		}
		return v
	}
	return a.Value()
}

// DistanceTo returns the absolute difference between this anchor's current
// value and other, which may be an *Anchor or a plain value.
//
// Non-numeric operands yield 0. This is the extension point for custom
// metrics on non-numeric anchors.
func (a *Anchor) DistanceTo(other any) float64 {
	if o, ok := other.(*Anchor); ok {
		other = o.Value()
	}
	x, y, ok := ir.Numbers(a.Value(), other)
	if !ok {
		return 0
	}
	return math.Abs(x - y)
}

// IsWithinRange reports whether value falls within the range, widened by
// the buffer zone when useBuffer is set. Anchors without a range accept
// every value.
func (a *Anchor) IsWithinRange(value float64, useBuffer bool) bool {
	if a.rng == nil {
		return true
	}
	buffer := 0.0
	if useBuffer {
		buffer = a.buffer
	}
	return a.rng.Start-buffer <= value && value <= a.rng.End+buffer
}

// IsCriticalThreshold is a heuristic classification: anchors with a tiny
// tolerance or no buffer zone are strict boundaries.
func (a *Anchor) IsCriticalThreshold() bool {
	return a.tolerance < criticalTolerance || a.buffer == 0
}

// String renders "name: value".
func (a *Anchor) String() string {
	return fmt.Sprintf("%s: %s", a.name, ir.FormatValue(a.Value()))
}
