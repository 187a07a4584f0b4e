package anchor

import (
	"errors"
	"fmt"
	"time"
)

// Env is the evaluation environment handed to context-aware value sources.
type Env map[string]any

// Source produces a fresh value for a dynamic anchor.
// It is the capability every refresh uses.
type Source interface {
	Fetch() (any, error)
}

// ContextSource is an optional capability of a Source: producing a value
// from an evaluation environment. Anchor.Evaluate probes for it.
type ContextSource interface {
	FetchWith(env Env) (any, error)
}

// SourceFunc adapts a zero-argument function to Source.
type SourceFunc func() (any, error)

// Fetch calls f.
func (f SourceFunc) Fetch() (any, error) {
	return f()
}

// ContextSourceFunc adapts an environment-aware function to both Source and
// ContextSource. Fetch calls f with a nil Env.
type ContextSourceFunc func(env Env) (any, error)

// Fetch calls f with no environment.
func (f ContextSourceFunc) Fetch() (any, error) {
	return f(nil)
}

// FetchWith calls f with env.
func (f ContextSourceFunc) FetchWith(env Env) (any, error) {
	return f(env)
}

// Sequence is a Source that yields its values in order and then fails with
// ErrSequenceExhausted, so the anchor keeps its last good value.
type Sequence struct {
	values []any
	next   int
}

// ErrSequenceExhausted is returned by Sequence after its last value.
var ErrSequenceExhausted = errors.New("value sequence exhausted")

// NewSequence creates a Sequence over values.
func NewSequence(values ...any) *Sequence {
	return &Sequence{values: values}
}

// Fetch returns the next value.
func (s *Sequence) Fetch() (any, error) {
	if s.next >= len(s.values) {
		return nil, ErrSequenceExhausted
	}
	v := s.values[s.next]
	s.next++
	return v, nil
}

// Clock supplies wall time for refresh intervals.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current wall time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// fetch calls src.Fetch, converting a panic into an error.
func fetch(src Source) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("value source panicked: %v", r)
		}
	}()
	return src.Fetch()
}

// fetchWith calls src.FetchWith, converting a panic into an error.
func fetchWith(src ContextSource, env Env) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("value source panicked: %v", r)
		}
	}()
	return src.FetchWith(env)
}
