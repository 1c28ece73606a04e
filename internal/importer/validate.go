package importer

import (
	"fmt"
	"strings"

	"bahaibot/internal/services"
	"bahaibot/internal/wbtime"
)

// Rules lists the required-field constraints for one record type.
type Rules struct {
	// Required fields must all be non-empty.
	Required []string
	// AnyOf groups need at least one non-empty member each.
	AnyOf [][]string
	// Dates are optional fields that must parse with wbtime when present.
	Dates []string
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string
	Problem string
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Problem)
}

// Validate checks rec against rules and returns every violation. An empty
// result means the record passes.
func Validate(rec Record, rules Rules) []FieldError {
	var problems []FieldError
	for _, field := range rules.Required {
		if !rec.Has(field) {
			problems = append(problems, FieldError{Field: field, Problem: "missing"})
		}
	}
	for _, group := range rules.AnyOf {
		satisfied := false
		for _, field := range group {
			if rec.Has(field) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			problems = append(problems, FieldError{Field: strings.Join(group, "|"), Problem: "at least one required"})
		}
	}
	for _, field := range rules.Dates {
		if _, _, err := wbtime.Parse(field, rec.Get(field)); err != nil {
			problems = append(problems, FieldError{Field: field, Problem: err.Error()})
		}
	}
	return problems
}

// ValidationError rejects a record before any write.
type ValidationError struct {
	Problems []string
}

// NewValidationError joins field errors into one rejection.
func NewValidationError(fields []FieldError) *ValidationError {
	problems := make([]string, 0, len(fields))
	for _, f := range fields {
		problems = append(problems, f.String())
	}
	return &ValidationError{Problems: problems}
}

// Rejectf builds a single-message rejection.
func Rejectf(format string, args ...any) *ValidationError {
	return &ValidationError{Problems: []string{fmt.Sprintf(format, args...)}}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return services.ErrValidation
}
