package importer

import (
	"context"
	"fmt"

	"bahaibot/internal/kb"
)

// Writer creates or updates the target entity of a plan.
type Writer struct {
	Store kb.Store
}

// Write applies the plan's claims and resolved forward references. New
// entities are created in one call, with the edit policies applied to an empty
// entity first so duplicate references collapse the same way they would on an
// update.
func (w Writer) Write(ctx context.Context, plan *Plan, refs []Ref) (string, error) {
	edits := forwardEdits(plan, refs)
	if plan.Target != "" {
		if err := w.Store.AddClaims(ctx, plan.Target, edits...); err != nil {
			return "", fmt.Errorf("update %s: %w", plan.Target, err)
		}
		return plan.Target, nil
	}

	scratch := &kb.Entity{}
	kb.ApplyEdits(scratch, func() string { return "" }, edits...)
	claims := make([]kb.Claim, 0, scratch.ClaimCount())
	seen := make(map[string]bool)
	for _, edit := range edits {
		prop := edit.Claim.Property
		if seen[prop] {
			continue
		}
		seen[prop] = true
		claims = append(claims, scratch.Claims[prop]...)
	}
	id, err := w.Store.Create(ctx, plan.Label, claims...)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", plan.Label, err)
	}
	return id, nil
}

func forwardEdits(plan *Plan, refs []Ref) []kb.ClaimEdit {
	edits := make([]kb.ClaimEdit, 0, len(plan.Claims)+len(refs))
	edits = append(edits, plan.Claims...)
	for _, ref := range refs {
		if ref.Property == "" {
			continue
		}
		edits = append(edits, kb.ClaimEdit{
			Claim:  kb.NewClaim(ref.Property, kb.ItemValue(ref.ID), ref.Qualifiers...),
			Policy: ref.Policy,
		})
	}
	return edits
}

// BackLinker appends reverse claims to referenced entities.
type BackLinker struct {
	Store kb.Store
}

// Link adds ref.Reverse -> recordID on every referenced entity that has a
// reverse property. Each link is a read followed by a write with no locking.
func (b BackLinker) Link(ctx context.Context, recordID string, refs []Ref) error {
	for _, ref := range refs {
		if ref.Reverse == "" || ref.ID == "" {
			continue
		}
		edit := kb.Append(kb.NewClaim(ref.Reverse, kb.ItemValue(recordID)))
		if err := b.Store.AddClaims(ctx, ref.ID, edit); err != nil {
			return fmt.Errorf("link %s -> %s: %w", ref.ID, recordID, err)
		}
	}
	return nil
}
