package importer

import (
	"context"
	"log/slog"
	"strings"

	"bahaibot/internal/importlog"
	"bahaibot/internal/kb"
	"bahaibot/internal/logging"
)

// Created describes an entity the resolver had to create.
type Created struct {
	Row   int
	Kind  string
	Label string
	ID    string
}

// Resolver maps labels to entity identifiers: first search hit wins, otherwise
// a minimal entity is created. Results are memoized for the current record
// only; there is no deduplication across records or runs.
type Resolver struct {
	store   kb.Store
	created *importlog.Log
	logger  *slog.Logger

	memo    map[string]string
	row     int
	history []Created
}

// NewResolver creates a resolver writing creation lines to createdLog, which
// may be nil.
func NewResolver(store kb.Store, createdLog *importlog.Log, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:   store,
		created: createdLog,
		logger:  logging.NewComponentLogger(logger, "resolver"),
		memo:    make(map[string]string),
	}
}

// BeginRecord clears the per-record memo.
func (r *Resolver) BeginRecord(row int) {
	r.row = row
	clear(r.memo)
}

// Lookup returns the first search hit for label without creating anything.
func (r *Resolver) Lookup(ctx context.Context, label string) (string, bool, error) {
	key := kb.NormalizeLabel(label)
	if key == "" {
		return "", false, nil
	}
	if id, ok := r.memo[key]; ok {
		return id, true, nil
	}
	id, found, err := r.store.Find(ctx, strings.TrimSpace(label))
	if err != nil {
		return "", false, err
	}
	if found {
		r.memo[key] = id
	}
	return id, found, nil
}

// Resolve returns the identifier for label, creating a label-only entity when
// the search finds nothing. kind ("author", "publisher", ...) only tags the
// audit line.
func (r *Resolver) Resolve(ctx context.Context, kind, label string) (string, bool, error) {
	label = strings.TrimSpace(label)
	id, found, err := r.Lookup(ctx, label)
	if err != nil {
		return "", false, err
	}
	if found {
		return id, false, nil
	}
	id, err = r.store.Create(ctx, label)
	if err != nil {
		return "", false, err
	}
	r.memo[kb.NormalizeLabel(label)] = id
	r.history = append(r.history, Created{Row: r.row, Kind: kind, Label: label, ID: id})

	logging.WithContext(ctx, r.logger).Info("entity created",
		logging.String("kind", kind),
		logging.String(logging.FieldLabel, label),
		logging.String(logging.FieldEntityID, id),
	)
	if err := r.created.Append(ctx, importlog.CreatedKind(kind, label, id)); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "audit append failed", "audit_log",
			logging.Error(err),
			logging.String(logging.FieldImpact, "creation not recorded for follow-up commands"),
		)
	}
	return id, true, nil
}

// Created returns every entity created so far, in order.
func (r *Resolver) Created() []Created {
	return append([]Created(nil), r.history...)
}
