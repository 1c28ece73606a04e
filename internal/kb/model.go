package kb

import (
	"fmt"
	"slices"
	"strings"

	"bahaibot/internal/wbtime"
)

// ValueKind is the Wikibase datatype of a claim value.
type ValueKind string

const (
	KindItem        ValueKind = "wikibase-item"
	KindString      ValueKind = "string"
	KindMonolingual ValueKind = "monolingualtext"
	KindTime        ValueKind = "time"
)

// Value is a typed claim value. Only the fields relevant to Kind are set.
type Value struct {
	Kind      ValueKind
	ID        string
	Text      string
	Language  string
	Time      string
	Precision wbtime.Precision
}

func ItemValue(id string) Value { return Value{Kind: KindItem, ID: id} }

func StringValue(s string) Value { return Value{Kind: KindString, Text: s} }

func MonolingualValue(text, language string) Value {
	return Value{Kind: KindMonolingual, Text: text, Language: language}
}

func TimeValue(t wbtime.Time) Value {
	return Value{Kind: KindTime, Time: t.Value, Precision: t.Precision}
}

// Equal reports whether two values denote the same datum.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindItem:
		return v.ID == o.ID
	case KindString:
		return v.Text == o.Text
	case KindMonolingual:
		return v.Text == o.Text && v.Language == o.Language
	case KindTime:
		return v.Time == o.Time && v.Precision == o.Precision
	default:
		return v == o
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindItem:
		return v.ID
	case KindMonolingual:
		return fmt.Sprintf("%s@%s", v.Text, v.Language)
	case KindTime:
		return fmt.Sprintf("%s/%d", v.Time, int(v.Precision))
	default:
		return v.Text
	}
}

// Snak is a property-value pair, used for qualifiers.
type Snak struct {
	Property string
	Value    Value
}

// Claim is a property-value assertion on an entity. ID is assigned by the store.
type Claim struct {
	ID         string
	Property   string
	Value      Value
	Qualifiers []Snak
}

// NewClaim builds a claim without qualifiers.
func NewClaim(property string, value Value, qualifiers ...Snak) Claim {
	return Claim{Property: property, Value: value, Qualifiers: qualifiers}
}

// SameQualifiers reports whether both claims carry the same qualifier set,
// ignoring order.
func (c Claim) SameQualifiers(o Claim) bool {
	if len(c.Qualifiers) != len(o.Qualifiers) {
		return false
	}
	for _, q := range c.Qualifiers {
		if !slices.ContainsFunc(o.Qualifiers, func(other Snak) bool {
			return other.Property == q.Property && other.Value.Equal(q.Value)
		}) {
			return false
		}
	}
	return true
}

func (c Claim) clone() Claim {
	if len(c.Qualifiers) > 0 {
		c.Qualifiers = slices.Clone(c.Qualifiers)
	}
	return c
}

// Entity is a node in the knowledge base.
type Entity struct {
	ID        string
	Label     string
	Claims    map[string][]Claim
	Sitelinks map[string]string
}

// Values returns the main values of every claim on property.
func (e *Entity) Values(property string) []Value {
	if e == nil {
		return nil
	}
	claims := e.Claims[property]
	values := make([]Value, 0, len(claims))
	for _, c := range claims {
		values = append(values, c.Value)
	}
	return values
}

// HasValue reports whether any claim on property carries value.
func (e *Entity) HasValue(property string, value Value) bool {
	return slices.ContainsFunc(e.Values(property), value.Equal)
}

// ClaimCount returns the total number of claims across all properties.
func (e *Entity) ClaimCount() int {
	total := 0
	for _, claims := range e.Claims {
		total += len(claims)
	}
	return total
}

// Clone returns a deep copy.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	out := &Entity{ID: e.ID, Label: e.Label, Claims: make(map[string][]Claim, len(e.Claims)), Sitelinks: make(map[string]string, len(e.Sitelinks))}
	for prop, claims := range e.Claims {
		copied := make([]Claim, len(claims))
		for i, c := range claims {
			copied[i] = c.clone()
		}
		out.Claims[prop] = copied
	}
	for site, title := range e.Sitelinks {
		out.Sitelinks[site] = title
	}
	return out
}

// NormalizeLabel folds a label for case-insensitive comparison.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}
