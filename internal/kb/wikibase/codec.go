package wikibase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bahaibot/internal/kb"
	"bahaibot/internal/wbtime"
)

const gregorianCalendar = "http://www.wikidata.org/entity/Q1985727"

// Statement is the JSON shape of a Wikibase statement.
type Statement struct {
	ID              string            `json:"id,omitempty"`
	Type            string            `json:"type,omitempty"`
	Rank            string            `json:"rank,omitempty"`
	Mainsnak        Snak              `json:"mainsnak"`
	Qualifiers      map[string][]Snak `json:"qualifiers,omitempty"`
	QualifiersOrder []string          `json:"qualifiers-order,omitempty"`
	Remove          *string           `json:"remove,omitempty"`
}

// Snak is the JSON shape of a property-value pair.
type Snak struct {
	SnakType  string     `json:"snaktype"`
	Property  string     `json:"property"`
	DataValue *DataValue `json:"datavalue,omitempty"`
}

// DataValue holds a typed value; Value is decoded according to Type.
type DataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type entityIDValue struct {
	EntityType string `json:"entity-type"`
	NumericID  int    `json:"numeric-id"`
	ID         string `json:"id"`
}

type monolingualValue struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type timeValue struct {
	Time          string `json:"time"`
	Timezone      int    `json:"timezone"`
	Before        int    `json:"before"`
	After         int    `json:"after"`
	Precision     int    `json:"precision"`
	CalendarModel string `json:"calendarmodel"`
}

// EncodeValue converts a claim value into its datavalue JSON.
func EncodeValue(v kb.Value) (*DataValue, error) {
	var (
		kind    string
		payload any
	)
	switch v.Kind {
	case kb.KindItem:
		num, _ := strconv.Atoi(strings.TrimPrefix(v.ID, "Q"))
		kind, payload = "wikibase-entityid", entityIDValue{EntityType: "item", NumericID: num, ID: v.ID}
	case kb.KindString:
		kind, payload = "string", v.Text
	case kb.KindMonolingual:
		kind, payload = "monolingualtext", monolingualValue{Text: v.Text, Language: v.Language}
	case kb.KindTime:
		kind, payload = "time", timeValue{Time: v.Time, Precision: int(v.Precision), CalendarModel: gregorianCalendar}
	default:
		return nil, fmt.Errorf("unsupported value kind %q", v.Kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &DataValue{Type: kind, Value: raw}, nil
}

// DecodeValue converts a datavalue back into a claim value.
func DecodeValue(dv *DataValue) (kb.Value, error) {
	if dv == nil {
		return kb.Value{}, fmt.Errorf("snak has no value")
	}
	switch dv.Type {
	case "wikibase-entityid":
		var v entityIDValue
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return kb.Value{}, err
		}
		id := v.ID
		if id == "" {
			id = "Q" + strconv.Itoa(v.NumericID)
		}
		return kb.ItemValue(id), nil
	case "string":
		var s string
		if err := json.Unmarshal(dv.Value, &s); err != nil {
			return kb.Value{}, err
		}
		return kb.StringValue(s), nil
	case "monolingualtext":
		var v monolingualValue
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return kb.Value{}, err
		}
		return kb.MonolingualValue(v.Text, v.Language), nil
	case "time":
		var v timeValue
		if err := json.Unmarshal(dv.Value, &v); err != nil {
			return kb.Value{}, err
		}
		return kb.TimeValue(wbtime.Time{Value: v.Time, Precision: wbtime.Precision(v.Precision)}), nil
	default:
		return kb.Value{}, fmt.Errorf("unsupported datavalue type %q", dv.Type)
	}
}

func encodeSnak(property string, value kb.Value) (Snak, error) {
	dv, err := EncodeValue(value)
	if err != nil {
		return Snak{}, fmt.Errorf("encode %s: %w", property, err)
	}
	return Snak{SnakType: "value", Property: property, DataValue: dv}, nil
}

// EncodeClaim converts a claim into statement JSON. withID controls whether
// the claim's ID is sent, which only applies to statements that already exist.
func EncodeClaim(c kb.Claim, withID bool) (Statement, error) {
	main, err := encodeSnak(c.Property, c.Value)
	if err != nil {
		return Statement{}, err
	}
	st := Statement{Type: "statement", Rank: "normal", Mainsnak: main}
	if withID {
		st.ID = c.ID
	}
	for _, q := range c.Qualifiers {
		snak, err := encodeSnak(q.Property, q.Value)
		if err != nil {
			return Statement{}, err
		}
		if st.Qualifiers == nil {
			st.Qualifiers = make(map[string][]Snak)
		}
		if _, seen := st.Qualifiers[q.Property]; !seen {
			st.QualifiersOrder = append(st.QualifiersOrder, q.Property)
		}
		st.Qualifiers[q.Property] = append(st.Qualifiers[q.Property], snak)
	}
	return st, nil
}

// RemoveStatement builds the marker that deletes an existing statement.
func RemoveStatement(id string) Statement {
	empty := ""
	return Statement{ID: id, Remove: &empty}
}

// DecodeStatement converts statement JSON into a claim. Snaks without a value
// (somevalue/novalue) are reported as an error.
func DecodeStatement(st Statement) (kb.Claim, error) {
	value, err := DecodeValue(st.Mainsnak.DataValue)
	if err != nil {
		return kb.Claim{}, fmt.Errorf("statement %s: %w", st.ID, err)
	}
	claim := kb.Claim{ID: st.ID, Property: st.Mainsnak.Property, Value: value}
	order := st.QualifiersOrder
	if len(order) == 0 {
		for prop := range st.Qualifiers {
			order = append(order, prop)
		}
	}
	for _, prop := range order {
		for _, snak := range st.Qualifiers[prop] {
			qv, err := DecodeValue(snak.DataValue)
			if err != nil {
				continue
			}
			claim.Qualifiers = append(claim.Qualifiers, kb.Snak{Property: prop, Value: qv})
		}
	}
	return claim, nil
}

// EntityDocument is the JSON shape of one entity in a wbgetentities response
// and of the data payload sent to wbeditentity.
type EntityDocument struct {
	ID        string                     `json:"id,omitempty"`
	Missing   *string                    `json:"missing,omitempty"`
	Labels    map[string]LanguageValue   `json:"labels,omitempty"`
	Claims    json.RawMessage            `json:"claims,omitempty"`
	Sitelinks map[string]SitelinkPayload `json:"sitelinks,omitempty"`
}

type LanguageValue struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type SitelinkPayload struct {
	Site  string `json:"site"`
	Title string `json:"title"`
}

// DecodeClaims accepts both shapes Wikibase uses for claims: a map keyed by
// property (read responses) and a flat list (edit payloads).
func DecodeClaims(raw json.RawMessage) ([]Statement, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "[]" || trimmed == "{}" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []Statement
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var byProp map[string][]Statement
	if err := json.Unmarshal(raw, &byProp); err != nil {
		return nil, err
	}
	var list []Statement
	for _, statements := range byProp {
		list = append(list, statements...)
	}
	return list, nil
}

// ToEntity converts a document into the kb model using language for the label.
func (d EntityDocument) ToEntity(language string) (*kb.Entity, error) {
	entity := &kb.Entity{ID: d.ID, Claims: make(map[string][]kb.Claim), Sitelinks: make(map[string]string)}
	if label, ok := d.Labels[language]; ok {
		entity.Label = label.Value
	}
	statements, err := DecodeClaims(d.Claims)
	if err != nil {
		return nil, fmt.Errorf("decode claims of %s: %w", d.ID, err)
	}
	for _, st := range statements {
		claim, err := DecodeStatement(st)
		if err != nil {
			continue
		}
		entity.Claims[claim.Property] = append(entity.Claims[claim.Property], claim)
	}
	for site, link := range d.Sitelinks {
		entity.Sitelinks[site] = link.Title
	}
	return entity, nil
}
