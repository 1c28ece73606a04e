package importer

import (
	"sort"
	"strings"
)

// Record is one source row. Row is the 1-based line number in the source
// (header is row 1 for CSV inputs).
type Record struct {
	Row    int
	Fields map[string]string
	Lists  map[string][]string
}

// Get returns the trimmed value of a scalar field.
func (r Record) Get(name string) string {
	return strings.TrimSpace(r.Fields[name])
}

// Has reports whether a scalar field or list is non-empty.
func (r Record) Has(name string) bool {
	if r.Get(name) != "" {
		return true
	}
	return len(r.List(name)) > 0
}

// List returns the non-blank trimmed entries of a list field.
func (r Record) List(name string) []string {
	var out []string
	for _, v := range r.Lists[name] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// FieldNames returns the populated field names in sorted order.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(r.Fields)+len(r.Lists))
	for name := range r.Fields {
		names = append(names, name)
	}
	for name := range r.Lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
