package importer

import (
	"context"
	"fmt"

	"bahaibot/internal/config"
	"bahaibot/internal/importlog"
	"bahaibot/internal/kb"
	"bahaibot/internal/wbtime"
)

// Person CSV columns. Position columns are numbered: pos1_label, pos1_start,
// pos1_end, and so on.
const (
	FieldName      = "Name"
	FieldImage     = "image"
	FieldBirthDate = "birth date"
	FieldDeathDate = "death date"
)

// PositionField returns the column name of position n's part ("label",
// "start", or "end").
func PositionField(n int, part string) string {
	return fmt.Sprintf("pos%d_%s", n, part)
}

// Persons updates existing person entities with image, dates, and positions
// held. Persons and positions are looked up, never created.
type Persons struct {
	Props        config.Properties
	Items        config.Items
	MaxPositions int
}

// NewPersons builds the persons workflow from configuration.
func NewPersons(cfg *config.Config) *Persons {
	return &Persons{Props: cfg.Properties, Items: cfg.Items, MaxPositions: cfg.Import.MaxPositions}
}

func (p *Persons) Name() string { return "persons" }

func (p *Persons) Label(rec Record) string { return rec.Get(FieldName) }

// Prepare parses every field of the row before returning, so a bad value
// anywhere means nothing is written for the row.
func (p *Persons) Prepare(ctx context.Context, rec Record, lookup Lookuper) (*Plan, error) {
	name := rec.Get(FieldName)
	if name == "" {
		return nil, nil
	}
	personID, found, err := lookup.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, Rejectf("Person '%s' not found in Wikibase.", name)
	}

	birth, hasBirth, err := wbtime.Parse(FieldBirthDate, rec.Get(FieldBirthDate))
	if err != nil {
		return nil, err
	}
	death, hasDeath, err := wbtime.Parse(FieldDeathDate, rec.Get(FieldDeathDate))
	if err != nil {
		return nil, err
	}

	var positions []Ref
	for i := 1; i <= p.MaxPositions; i++ {
		label := rec.Get(PositionField(i, "label"))
		if label == "" {
			continue
		}
		positionID, found, err := lookup.Lookup(ctx, label)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, Rejectf("Position '%s' not found for '%s'.", label, name)
		}
		ref := Ref{Kind: "position", Label: label, ID: positionID, Property: p.Props.PositionHeld, Policy: kb.AppendOrReplace}
		for _, q := range []struct{ part, prop string }{{"start", p.Props.StartTime}, {"end", p.Props.EndTime}} {
			field := PositionField(i, q.part)
			t, ok, err := wbtime.Parse(field, rec.Get(field))
			if err != nil {
				return nil, err
			}
			if ok && q.prop != "" {
				ref.Qualifiers = append(ref.Qualifiers, kb.Snak{Property: q.prop, Value: kb.TimeValue(t)})
			}
		}
		positions = append(positions, ref)
	}

	plan := &Plan{Label: name, Target: personID, Refs: positions, Audit: importlog.Updated}
	if p.Props.InstanceOf != "" {
		plan.Claims = append(plan.Claims, kb.Append(kb.NewClaim(p.Props.InstanceOf, kb.ItemValue(p.Items.Human))))
	}
	if image := rec.Get(FieldImage); image != "" && p.Props.Image != "" {
		plan.Claims = append(plan.Claims, kb.Replace(kb.NewClaim(p.Props.Image, kb.StringValue(image))))
	}
	if hasBirth && p.Props.BirthDate != "" {
		plan.Claims = append(plan.Claims, kb.Replace(kb.NewClaim(p.Props.BirthDate, kb.TimeValue(birth))))
	}
	if hasDeath && p.Props.DeathDate != "" {
		plan.Claims = append(plan.Claims, kb.Replace(kb.NewClaim(p.Props.DeathDate, kb.TimeValue(death))))
	}
	return plan, nil
}
