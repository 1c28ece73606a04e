package importer

import (
	"context"

	"bahaibot/internal/config"
	"bahaibot/internal/importlog"
	"bahaibot/internal/kb"
	"bahaibot/internal/wbtime"
)

// Book CSV columns.
const (
	FieldTitle      = "TITLE"
	FieldFullTitle  = "FULL_TITLE"
	FieldAuthor     = "AUTHOR"
	FieldCoverImage = "COVER_IMAGE"
	FieldTranslator = "TRANSLATOR"
	FieldEditor     = "EDITOR"
	FieldPublisher  = "PUBLISHER"
	FieldCountry    = "COUNTRY"
	FieldPubYear    = "PUBYEAR"
	FieldPages      = "PAGES"
	FieldISBN10     = "ISBN10"
	FieldISBN13     = "ISBN13"
)

// BookRules are the required-field constraints for a book row.
var BookRules = Rules{
	Required: []string{FieldTitle, FieldCoverImage, FieldPublisher, FieldCountry, FieldPubYear, FieldPages},
	AnyOf: [][]string{
		{FieldISBN10, FieldISBN13},
		{FieldAuthor, FieldEditor, FieldTranslator},
	},
	Dates: []string{FieldPubYear},
}

// Books imports book rows as written-work entities.
type Books struct {
	Props    config.Properties
	Items    config.Items
	Language string
}

// NewBooks builds the books workflow from configuration.
func NewBooks(cfg *config.Config) *Books {
	return &Books{Props: cfg.Properties, Items: cfg.Items, Language: cfg.Wikibase.Language}
}

func (b *Books) Name() string { return "books" }

func (b *Books) Label(rec Record) string { return rec.Get(FieldTitle) }

func (b *Books) Prepare(_ context.Context, rec Record, _ Lookuper) (*Plan, error) {
	if problems := Validate(rec, BookRules); len(problems) > 0 {
		return nil, NewValidationError(problems)
	}
	if rec.Has(FieldTranslator) && b.Props.Translator == "" {
		return nil, Rejectf("%s given but properties.translator is not configured", FieldTranslator)
	}
	pubYear, _, err := wbtime.Parse(FieldPubYear, rec.Get(FieldPubYear))
	if err != nil {
		return nil, err
	}

	label := rec.Get(FieldTitle)
	title := rec.Get(FieldFullTitle)
	if title == "" {
		title = label
	}

	plan := &Plan{Label: label, Audit: importlog.Created}
	add := func(prop string, value kb.Value) {
		if prop != "" {
			plan.Claims = append(plan.Claims, kb.Replace(kb.NewClaim(prop, value)))
		}
	}
	add(b.Props.InstanceOf, kb.ItemValue(b.Items.WrittenWork))
	add(b.Props.Title, kb.MonolingualValue(title, b.Language))
	add(b.Props.Image, kb.StringValue(rec.Get(FieldCoverImage)))
	add(b.Props.PublicationDate, kb.TimeValue(pubYear))
	add(b.Props.Pages, kb.StringValue(rec.Get(FieldPages)))
	if v := rec.Get(FieldISBN10); v != "" {
		add(b.Props.ISBN10, kb.StringValue(v))
	}
	if v := rec.Get(FieldISBN13); v != "" {
		add(b.Props.ISBN13, kb.StringValue(v))
	}

	person := func(kind, field, prop, reverse string) {
		if v := rec.Get(field); v != "" {
			plan.Refs = append(plan.Refs, Ref{Kind: kind, Label: v, Property: prop, Reverse: reverse, Policy: kb.AppendOrReplace})
		}
	}
	person("author", FieldAuthor, b.Props.Author, b.Props.Authored)
	person("editor", FieldEditor, b.Props.Editor, b.Props.Edited)
	person("translator", FieldTranslator, b.Props.Translator, b.Props.Translated)
	plan.Refs = append(plan.Refs,
		Ref{Kind: "publisher", Label: rec.Get(FieldPublisher), Property: b.Props.Publisher, Policy: kb.ReplaceAll},
		Ref{Kind: "country", Label: rec.Get(FieldCountry), Property: b.Props.Country, Policy: kb.ReplaceAll},
	)
	return plan, nil
}
