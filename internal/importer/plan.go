package importer

import (
	"context"

	"bahaibot/internal/kb"
)

// Ref is a forward reference from the record to another entity.
type Ref struct {
	// Kind tags entity creations in the audit log.
	Kind string
	// Label is resolved with lookup-or-create when ID is empty.
	Label string
	// ID is set when the identifier is already known.
	ID string
	// Property is the forward claim on the record.
	Property string
	// Reverse is the claim added to the referenced entity; empty disables the
	// back-link.
	Reverse    string
	Policy     kb.Policy
	Qualifiers []kb.Snak
}

// Plan is a validated record ready to execute.
type Plan struct {
	// Label is the record's display label.
	Label string
	// Target is the entity to update; empty means create a new entity.
	Target string
	// Claims are the record's own scalar claims.
	Claims []kb.ClaimEdit
	// Refs are resolved, written as forward claims, then back-linked.
	Refs []Ref
	// Audit formats the success line for the workflow log.
	Audit func(label, id string) string
}

// Workflow converts source records into plans.
type Workflow interface {
	// Name identifies the workflow in logs and summaries.
	Name() string
	// Label returns a record's display label, for logging before validation.
	Label(rec Record) string
	// Prepare validates rec and builds its plan. It may search the store but
	// must not write. A nil plan with a nil error skips the record.
	Prepare(ctx context.Context, rec Record, lookup Lookuper) (*Plan, error)
}

// Lookuper is the read-only half of the resolver.
type Lookuper interface {
	Lookup(ctx context.Context, label string) (string, bool, error)
}
