package kb

import "context"

// Store is the narrow interface the import pipeline needs from the knowledge
// base. Implementations: MemStore (tests, dry runs), sqlitekb.Store (local
// rehearsal), wikibase.Store (remote API).
type Store interface {
	// Find performs a label search and returns the first hit, if any. There is
	// no disambiguation or scoring.
	Find(ctx context.Context, label string) (id string, found bool, err error)
	// Create writes a new entity with label and the given claims and returns
	// its freshly assigned identifier.
	Create(ctx context.Context, label string, claims ...Claim) (string, error)
	// Get returns the current state of an entity. A missing entity yields an
	// error wrapping services.ErrNotFound.
	Get(ctx context.Context, id string) (*Entity, error)
	// AddClaims reads the entity, applies each edit's policy, and writes the
	// result back. The read and write are separate round trips with no locking.
	AddClaims(ctx context.Context, id string, edits ...ClaimEdit) error
}

// SitelinkSetter links an entity to a page on another wiki.
type SitelinkSetter interface {
	SetSitelink(ctx context.Context, id, site, title string) error
}
