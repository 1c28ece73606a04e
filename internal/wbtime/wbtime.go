// Package wbtime converts free-form date strings from import sources into
// Wikibase time values with an explicit precision.
package wbtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"bahaibot/internal/services"
)

// Precision is the Wikibase time precision code.
type Precision int

const (
	PrecisionYear Precision = 9
	PrecisionDay  Precision = 11
)

func (p Precision) String() string {
	switch p {
	case PrecisionYear:
		return "year"
	case PrecisionDay:
		return "day"
	default:
		return fmt.Sprintf("precision(%d)", int(p))
	}
}

// Time is a Wikibase time literal such as +1982-05-18T00:00:00Z.
type Time struct {
	Value     string
	Precision Precision
}

// Year returns the year component of the literal.
func (t Time) Year() int {
	var year int
	fmt.Sscanf(strings.TrimPrefix(t.Value, "+"), "%d", &year)
	return year
}

// FormatError names the source field and the input that could not be parsed.
type FormatError struct {
	Field string
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Invalid format for '%s': '%s'", e.Field, e.Input)
}

// Unwrap tags format errors as validation failures.
func (e *FormatError) Unwrap() error {
	return services.ErrValidation
}

// Parse converts input into a time literal. Blank input yields ok=false and no
// error. A four-digit year gets year precision anchored at month and day 00;
// any other date string accepted by the natural-language parser gets day
// precision. Everything else, including digit strings that are not a year, is a
// *FormatError.
func Parse(field, input string) (Time, bool, error) {
	clean := strings.TrimSpace(input)
	if clean == "" {
		return Time{}, false, nil
	}

	if isDigits(clean) {
		if len(clean) != 4 {
			return Time{}, false, &FormatError{Field: field, Input: input}
		}
		return Time{Value: "+" + clean + "-00-00T00:00:00Z", Precision: PrecisionYear}, true, nil
	}

	parsed, err := dateparse.ParseIn(clean, time.UTC)
	if err != nil {
		return Time{}, false, &FormatError{Field: field, Input: input}
	}
	return Day(parsed), true, nil
}

// MustParse is Parse for inputs known to be valid, such as test fixtures.
func MustParse(field, input string) Time {
	t, ok, err := Parse(field, input)
	if err != nil {
		panic(err)
	}
	if !ok {
		panic(fmt.Sprintf("wbtime: blank input for %s", field))
	}
	return t
}

// Day formats t with day precision, discarding the time of day.
func Day(t time.Time) Time {
	return Time{
		Value:     fmt.Sprintf("+%04d-%02d-%02dT00:00:00Z", t.Year(), int(t.Month()), t.Day()),
		Precision: PrecisionDay,
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
