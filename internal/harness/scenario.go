package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/giant/internal/compiler"
	"github.com/roach88/giant/internal/ir"
)

// Scenario declares anchors and relations, drives them through update
// steps, optionally asks the optimizer to choose an action, and asserts on
// the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Anchors are declared in order before any relation.
	Anchors []ir.AnchorDecl `yaml:"anchors,omitempty" json:"anchors,omitempty"`

	// Relations are created in order after every anchor.
	Relations []ir.RelationDecl `yaml:"relations,omitempty" json:"relations,omitempty"`

	// Updates run in order after every relation.
	Updates []Step `yaml:"updates,omitempty" json:"updates,omitempty"`

	// Objectives and Constraints configure the optimizer. With no
	// objectives the optimizer is not run.
	Objectives  []ir.ObjectiveDecl  `yaml:"objectives,omitempty" json:"objectives,omitempty"`
	Constraints []ir.ConstraintDecl `yaml:"constraints,omitempty" json:"constraints,omitempty"`

	// Candidates are the actions the optimizer chooses from. When empty the
	// context's suggested actions are used.
	Candidates []ir.Action `yaml:"candidates,omitempty" json:"candidates,omitempty"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty" json:"assertions,omitempty"`
}

// Step is one update. Advance moves the scenario clock first, Refresh then
// re-reads due dynamic anchors, and finally Relation, when set, is given
// Value.
type Step struct {
	Relation string `yaml:"relation,omitempty" json:"relation,omitempty"`
	Value    any    `yaml:"value,omitempty" json:"value,omitempty"`
	Advance  string `yaml:"advance,omitempty" json:"advance,omitempty"`
	Refresh  bool   `yaml:"refresh,omitempty" json:"refresh,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "condition": EvaluateCondition(relation, condition, anchor) == expect
	// - "qualifier": the relation's qualifier to anchor
	// - "significance": the relation's significance to anchor
	// - "relation_to": the relation's description against anchor
	// - "action_count": number of suggested actions, for one relation if set
	// - "top_action": the first suggested action, rendered, or "none"
	// - "optimal_action": the optimizer's choice, rendered, or "none"
	// - "pareto_size": size of the Pareto front
	Type string `yaml:"type" json:"type"`

	Relation  string `yaml:"relation,omitempty" json:"relation,omitempty"`
	Anchor    string `yaml:"anchor,omitempty" json:"anchor,omitempty"`
	Condition string `yaml:"condition,omitempty" json:"condition,omitempty"`

	// Expect is a bool for condition, an integer for the counts, and a
	// string otherwise.
	Expect any `yaml:"expect" json:"expect"`
}

// Assertion type constants.
const (
	AssertCondition     = "condition"
	AssertQualifier     = "qualifier"
	AssertSignificance  = "significance"
	AssertRelationTo    = "relation_to"
	AssertActionCount   = "action_count"
	AssertTopAction     = "top_action"
	AssertOptimalAction = "optimal_action"
	AssertParetoSize    = "pareto_size"
)

// NoAction is the expected rendering when no action exists.
const NoAction = "none"

// InvalidScenarioError lists every validation failure of a scenario.
type InvalidScenarioError struct {
	Errors []compiler.ValidationError
}

func (e *InvalidScenarioError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "invalid scenario: " + strings.Join(msgs, "; ")
}

// LoadScenario reads, parses and validates a scenario file. Files ending in
// .cue are compiled against the scenario schema; anything else is YAML.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, path)
}

// ParseScenario parses and validates scenario source. filename selects the
// format and appears in error positions.
func ParseScenario(data []byte, filename string) (*Scenario, error) {
	var scenario Scenario
	if filepath.Ext(filename) == ".cue" {
		if err := compiler.Decode(data, filename, &scenario); err != nil {
			return nil, fmt.Errorf("failed to compile CUE: %w", err)
		}
	} else {
		// Parse YAML with strict field validation (catches typos like "tolerence:" vs "tolerance:")
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&scenario); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if errs := ValidateScenario(&scenario); len(errs) > 0 {
		return nil, &InvalidScenarioError{Errors: errs}
	}
	return &scenario, nil
}

// Declarations extracts what the scenario asks the runtime to build, for
// compiler validation. Steps that only move the clock are left out.
func (s *Scenario) Declarations() compiler.Declarations {
	d := compiler.Declarations{
		Anchors:     s.Anchors,
		Relations:   s.Relations,
		Objectives:  s.Objectives,
		Constraints: s.Constraints,
	}
	for _, step := range s.Updates {
		if step.Relation != "" {
			d.Updates = append(d.Updates, ir.UpdateDecl{Relation: step.Relation, Value: step.Value})
		}
	}
	return d
}

// ValidateScenario checks the scenario and its declarations.
// Returns all errors found (does not fail-fast).
func ValidateScenario(s *Scenario) []compiler.ValidationError {
	var errs []compiler.ValidationError
	if s.Name == "" {
		errs = append(errs, compiler.ValidationError{
			Field:   "name",
			Message: "is required",
			Code:    compiler.ErrInvalidField,
		})
	}

	errs = append(errs, compiler.Validate(s.Declarations())...)

	for i, step := range s.Updates {
		errs = append(errs, validateStep(i, step)...)
	}

	relations := make(map[string]bool, len(s.Relations))
	for _, r := range s.Relations {
		relations[r.Name] = true
	}
	for i, a := range s.Assertions {
		errs = append(errs, validateAssertion(i, a, relations)...)
	}
	return errs
}

func validateStep(index int, step Step) []compiler.ValidationError {
	field := fmt.Sprintf("updates[%d]", index)
	var errs []compiler.ValidationError

	if step.Relation == "" && step.Advance == "" && !step.Refresh {
		errs = append(errs, compiler.ValidationError{
			Field:   field,
			Message: "step needs a relation, advance or refresh",
			Code:    ErrEmptyStep,
		})
	}
	if step.Relation != "" && step.Value == nil {
		errs = append(errs, compiler.ValidationError{
			Field:   field + ".value",
			Message: fmt.Sprintf("value is required to update relation %q", step.Relation),
			Code:    ErrEmptyStep,
		})
	}
	if step.Advance != "" {
		if d, err := time.ParseDuration(step.Advance); err != nil || d <= 0 {
			errs = append(errs, compiler.ValidationError{
				Field:   field + ".advance",
				Message: fmt.Sprintf("invalid advance %q: must be a positive duration", step.Advance),
				Code:    compiler.ErrInvalidInterval,
			})
		}
	}
	return errs
}

// Scenario-level validation codes, continuing the compiler's E1xx range.
const (
	ErrEmptyStep        = "E130" // update step does nothing
	ErrInvalidAssertion = "E131" // assertion missing fields or of unknown type
	ErrAssertionTarget  = "E132" // assertion names an undeclared relation
	ErrAssertionExpect  = "E133" // expect has the wrong shape for the type
)

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion, relations map[string]bool) []compiler.ValidationError {
	field := fmt.Sprintf("assertions[%d]", index)
	invalid := func(sub, code, format string, args ...any) compiler.ValidationError {
		return compiler.ValidationError{Field: field + sub, Message: fmt.Sprintf(format, args...), Code: code}
	}

	var errs []compiler.ValidationError
	needsAnchor := func() {
		if a.Relation == "" {
			errs = append(errs, invalid(".relation", ErrInvalidAssertion, "relation is required for %s", a.Type))
		}
		if a.Anchor == "" {
			errs = append(errs, invalid(".anchor", ErrInvalidAssertion, "anchor is required for %s", a.Type))
		}
	}
	expectString := func() {
		if _, ok := a.Expect.(string); !ok {
			errs = append(errs, invalid(".expect", ErrAssertionExpect, "expect must be a string for %s, got %v", a.Type, a.Expect))
		}
	}
	expectCount := func() {
		if _, ok := asCount(a.Expect); !ok {
			errs = append(errs, invalid(".expect", ErrAssertionExpect, "expect must be a non-negative integer for %s, got %v", a.Type, a.Expect))
		}
	}

	switch a.Type {
	case "":
		return []compiler.ValidationError{invalid(".type", ErrInvalidAssertion, "type is required")}
	case AssertCondition:
		needsAnchor()
		if a.Condition == "" {
			errs = append(errs, invalid(".condition", ErrInvalidAssertion, "condition is required for condition"))
		}
		if _, ok := a.Expect.(bool); !ok {
			errs = append(errs, invalid(".expect", ErrAssertionExpect, "expect must be a bool for condition, got %v", a.Expect))
		}
	case AssertQualifier, AssertRelationTo:
		needsAnchor()
		expectString()
	case AssertSignificance:
		needsAnchor()
		if s, ok := a.Expect.(string); !ok {
			expectString()
		} else if _, err := ir.ParseSignificance(s); err != nil {
			errs = append(errs, invalid(".expect", ErrAssertionExpect, "%v", err))
		}
	case AssertActionCount:
		expectCount()
	case AssertTopAction, AssertOptimalAction:
		expectString()
	case AssertParetoSize:
		expectCount()
	default:
		return []compiler.ValidationError{invalid(".type", ErrInvalidAssertion, "unknown assertion type %q", a.Type)}
	}

	if a.Relation != "" && !relations[a.Relation] {
		errs = append(errs, invalid(".relation", ErrAssertionTarget, "assertion targets undeclared relation %q", a.Relation))
	}
	return errs
}

// asCount returns v as a non-negative integer. YAML and CUE both decode
// whole numbers into Go integers, but a float with no fraction is accepted
// too.
func asCount(v any) (int, bool) {
	f, ok := ir.Number(v)
	if !ok || f < 0 || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}
