package engine

import "github.com/roach88/giant/internal/anchor"

// Frame is one entry of the scope stack.
//
// Tag is the anchor context tag used when a relation is created without an
// explicit anchor list. An empty tag matches anchors tagged "default".
type Frame struct {
	Name     string
	Tag      string
	Metadata map[string]any
}

// ContextTag returns the tag anchors are matched against.
func (f Frame) ContextTag() string {
	if f.Tag == "" {
		return anchor.DefaultContext
	}
	return f.Tag
}
