package importlog

import (
	"fmt"
	"regexp"
	"strings"
)

// Created formats an entity-creation line: "Created <label> (<id>)".
func Created(label, id string) string {
	return fmt.Sprintf("Created %s (%s)", label, id)
}

// CreatedKind formats a creation line tagged with a kind, e.g.
// "Created author Jane Doe (Q12)".
func CreatedKind(kind, label, id string) string {
	if kind == "" {
		return Created(label, id)
	}
	return fmt.Sprintf("Created %s %s (%s)", kind, label, id)
}

// Updated formats a person-update success line.
func Updated(label, id string) string {
	return fmt.Sprintf("Success: Updated %s (%s)", label, id)
}

// Fatal formats the line written before a fail-fast abort.
func Fatal(row int, label string, err error) string {
	return fmt.Sprintf("FATAL ERROR on row %d ('%s'): %v", row, label, err)
}

// Unexpected formats the line written before a fail-fast abort caused by a
// remote or internal error rather than bad data.
func Unexpected(row int, label string, err error) string {
	return fmt.Sprintf("UNEXPECTED ERROR on row %d ('%s'): %v", row, label, err)
}

// Failed formats a per-record failure in best-effort runs.
func Failed(label string, err error) string {
	return fmt.Sprintf("Failed %s: %v", label, err)
}

// Entry is a parsed creation line.
type Entry struct {
	Line  string
	Label string
	ID    string
}

var createdPattern = regexp.MustCompile(`Created (.*?) \((Q\d+)\)`)

// ParseCreated extracts the label and identifier from a creation line. When
// kind is non-empty only lines of that kind match and the kind prefix is
// stripped from the label.
func ParseCreated(line, kind string) (Entry, bool) {
	m := createdPattern.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}
	label := m[1]
	if kind != "" {
		prefix := kind + " "
		if !strings.HasPrefix(label, prefix) {
			return Entry{}, false
		}
		label = strings.TrimPrefix(label, prefix)
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return Entry{}, false
	}
	return Entry{Line: line, Label: label, ID: m[2]}, true
}

// ParseAll splits lines into parsed entries and the lines that did not parse.
func ParseAll(lines []string, kind string) ([]Entry, []string) {
	var (
		entries  []Entry
		unparsed []string
	)
	for _, line := range lines {
		if entry, ok := ParseCreated(line, kind); ok {
			entries = append(entries, entry)
			continue
		}
		unparsed = append(unparsed, line)
	}
	return entries, unparsed
}
