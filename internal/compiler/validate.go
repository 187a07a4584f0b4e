package compiler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/giant/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Field errors (E100)
	ErrInvalidField = "E100" // struct tag constraint failed

	// Anchor errors (E101-E109)
	ErrDuplicateAnchor    = "E101" // anchor name declared twice
	ErrInvalidRange       = "E102" // range_start > range_end
	ErrIncompleteRange    = "E103" // only one end of the range set
	ErrInvalidInterval    = "E104" // update_interval unparseable or not positive
	ErrStaticInterval     = "E105" // update_interval on a non-dynamic anchor
	ErrUnknownDependency  = "E106" // dependency names no declared anchor
	ErrInvalidConfidence  = "E107" // confidence outside [0,1]
	ErrNegativeTolerance  = "E108" // tolerance or buffer_zone below zero
	ErrEmptyDynamicSource = "E109" // dynamic anchor without a sequence

	// Relation and update errors (E110-E119)
	ErrUnknownAnchorRef   = "E110" // relation lists an undeclared anchor
	ErrUnknownRelationRef = "E111" // update targets an undeclared relation

	// Optimizer errors (E120-E129)
	ErrDuplicateObjective  = "E120" // objective name declared twice
	ErrDuplicateConstraint = "E121" // constraint name declared twice
)

// ValidationError represents a declaration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Declarations is everything a scenario asks the runtime to build.
type Declarations struct {
	Anchors     []ir.AnchorDecl
	Relations   []ir.RelationDecl
	Updates     []ir.UpdateDecl
	Objectives  []ir.ObjectiveDecl
	Constraints []ir.ConstraintDecl
}

var validate = newValidator()

// newValidator reports fields under their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks declarations for consistency.
// Returns all errors found (does not fail-fast).
//
// Relations may only name declared anchors and updates may only target
// declared relations, even though the runtime tolerates both.
func Validate(d Declarations) []ValidationError {
	var errs []ValidationError

	anchors := make(map[string]bool, len(d.Anchors))
	for i, a := range d.Anchors {
		field := fmt.Sprintf("anchors[%d]", i)
		errs = append(errs, checkStruct(field, a)...)

		// E101: duplicate anchor name
		if anchors[a.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate anchor name: %q", a.Name),
				Code:    ErrDuplicateAnchor,
			})
		}
		anchors[a.Name] = true

		errs = append(errs, validateAnchor(field, a)...)
	}

	// Dependencies may point forward, so they are checked once every anchor
	// is known.
	for i, a := range d.Anchors {
		for j, dep := range a.Dependencies {
			if !anchors[dep] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("anchors[%d].dependencies[%d]", i, j),
					Message: fmt.Sprintf("anchor %q depends on undeclared anchor %q", a.Name, dep),
					Code:    ErrUnknownDependency,
				})
			}
		}
	}

	relations := make(map[string]bool, len(d.Relations))
	for i, r := range d.Relations {
		field := fmt.Sprintf("relations[%d]", i)
		errs = append(errs, checkStruct(field, r)...)
		relations[r.Name] = true

		for j, name := range r.Anchors {
			if !anchors[name] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.anchors[%d]", field, j),
					Message: fmt.Sprintf("relation %q references undeclared anchor %q", r.Name, name),
					Code:    ErrUnknownAnchorRef,
				})
			}
		}
	}

	for i, u := range d.Updates {
		field := fmt.Sprintf("updates[%d]", i)
		errs = append(errs, checkStruct(field, u)...)
		if u.Relation != "" && !relations[u.Relation] {
			errs = append(errs, ValidationError{
				Field:   field + ".relation",
				Message: fmt.Sprintf("update targets undeclared relation %q", u.Relation),
				Code:    ErrUnknownRelationRef,
			})
		}
	}

	objectives := make(map[string]bool, len(d.Objectives))
	for i, o := range d.Objectives {
		field := fmt.Sprintf("objectives[%d]", i)
		errs = append(errs, checkStruct(field, o)...)
		if objectives[o.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate objective name: %q", o.Name),
				Code:    ErrDuplicateObjective,
			})
		}
		objectives[o.Name] = true
	}

	constraints := make(map[string]bool, len(d.Constraints))
	for i, c := range d.Constraints {
		field := fmt.Sprintf("constraints[%d]", i)
		errs = append(errs, checkStruct(field, c)...)
		if constraints[c.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate constraint name: %q", c.Name),
				Code:    ErrDuplicateConstraint,
			})
		}
		constraints[c.Name] = true
	}

	return errs
}

// validateAnchor checks the construction invariants of one anchor.
func validateAnchor(field string, a ir.AnchorDecl) []ValidationError {
	var errs []ValidationError

	switch {
	case a.RangeStart != nil && a.RangeEnd != nil:
		if *a.RangeStart > *a.RangeEnd {
			errs = append(errs, ValidationError{
				Field:   field + ".range_start",
				Message: fmt.Sprintf("range start %v is greater than range end %v", *a.RangeStart, *a.RangeEnd),
				Code:    ErrInvalidRange,
			})
		}
	case a.RangeStart != nil || a.RangeEnd != nil:
		errs = append(errs, ValidationError{
			Field:   field + ".range_start",
			Message: "range_start and range_end must be set together",
			Code:    ErrIncompleteRange,
		})
	}

	if a.Confidence != nil && (*a.Confidence < 0 || *a.Confidence > 1) {
		errs = append(errs, ValidationError{
			Field:   field + ".confidence",
			Message: fmt.Sprintf("confidence %v is outside [0, 1]", *a.Confidence),
			Code:    ErrInvalidConfidence,
		})
	}
	if a.Tolerance < 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".tolerance",
			Message: fmt.Sprintf("tolerance %v is negative", a.Tolerance),
			Code:    ErrNegativeTolerance,
		})
	}
	if a.BufferZone < 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".buffer_zone",
			Message: fmt.Sprintf("buffer zone %v is negative", a.BufferZone),
			Code:    ErrNegativeTolerance,
		})
	}

	if a.UpdateInterval != "" {
		if !a.Dynamic {
			errs = append(errs, ValidationError{
				Field:   field + ".update_interval",
				Message: "update_interval requires dynamic: true",
				Code:    ErrStaticInterval,
			})
		}
		if d, err := time.ParseDuration(a.UpdateInterval); err != nil || d <= 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".update_interval",
				Message: fmt.Sprintf("invalid update interval %q: must be a positive duration", a.UpdateInterval),
				Code:    ErrInvalidInterval,
			})
		}
	}
	if a.Dynamic && len(a.Sequence) == 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".sequence",
			Message: "dynamic anchor needs at least one sequence value",
			Code:    ErrEmptyDynamicSource,
		})
	}
	return errs
}

// checkStruct runs the struct tag rules of v and reports each failure under
// field.
func checkStruct(field string, v any) []ValidationError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Field: field, Message: err.Error(), Code: ErrInvalidField}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   field + "." + fe.Field(),
			Message: ruleMessage(fe),
			Code:    ErrInvalidField,
		})
	}
	return out
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}
