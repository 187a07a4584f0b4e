package ir

// AnchorDecl is a request to declare an anchor, as handed over by the
// interpreter or read from a scenario file.
type AnchorDecl struct {
	Name        string   `yaml:"name" json:"name" validate:"required"`
	Value       any      `yaml:"value" json:"value"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Unit        string   `yaml:"unit,omitempty" json:"unit,omitempty"`
	Context     string   `yaml:"context,omitempty" json:"context,omitempty"`
	Source      string   `yaml:"source,omitempty" json:"source,omitempty"`
	Confidence  *float64 `yaml:"confidence,omitempty" json:"confidence,omitempty"`
	Tolerance   float64  `yaml:"tolerance,omitempty" json:"tolerance,omitempty"`
	RangeStart  *float64 `yaml:"range_start,omitempty" json:"range_start,omitempty"`
	RangeEnd    *float64 `yaml:"range_end,omitempty" json:"range_end,omitempty"`
	BufferZone  float64  `yaml:"buffer_zone,omitempty" json:"buffer_zone,omitempty"`

	// Dynamic anchors read successive values from Sequence, refreshing
	// whenever UpdateInterval (a Go duration string) has elapsed.
	// An empty UpdateInterval disables automatic refresh.
	Dynamic        bool   `yaml:"dynamic,omitempty" json:"dynamic,omitempty"`
	UpdateInterval string `yaml:"update_interval,omitempty" json:"update_interval,omitempty"`
	Sequence       []any  `yaml:"sequence,omitempty" json:"sequence,omitempty"`

	Related      []string `yaml:"related,omitempty" json:"related,omitempty"`
	Dependencies []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

// RelationDecl is a request to create (or overwrite) a named relation.
//
// A nil Anchors list asks the context to auto-detect anchors; an empty,
// non-nil list creates a relation with no anchors. Scope, when set, pushes a
// scope frame with that context tag for the duration of the creation.
type RelationDecl struct {
	Name     string         `yaml:"name" json:"name" validate:"required"`
	Value    any            `yaml:"value" json:"value"`
	Anchors  []string       `yaml:"anchors,omitempty" json:"anchors,omitempty"`
	Scope    string         `yaml:"scope,omitempty" json:"scope,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// UpdateDecl replaces the value of an existing relation.
type UpdateDecl struct {
	Relation string `yaml:"relation" json:"relation" validate:"required"`
	Value    any    `yaml:"value" json:"value"`
}

// ObjectiveDecl configures an optimizer objective read from a solution key.
type ObjectiveDecl struct {
	Name   string  `yaml:"name" json:"name" validate:"required"`
	Goal   Goal    `yaml:"goal" json:"goal" validate:"required,oneof=minimize maximize"`
	Weight float64 `yaml:"weight,omitempty" json:"weight,omitempty" validate:"gte=0"`
}

// ConstraintDecl configures a threshold constraint: Key Op Bound must hold.
type ConstraintDecl struct {
	Name        string  `yaml:"name" json:"name" validate:"required"`
	Key         string  `yaml:"key" json:"key" validate:"required"`
	Op          string  `yaml:"op" json:"op" validate:"required,oneof=< <= > >= == !="`
	Bound       float64 `yaml:"bound" json:"bound"`
	Penalty     float64 `yaml:"penalty,omitempty" json:"penalty,omitempty" validate:"gte=0"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
}
