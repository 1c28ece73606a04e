package sqlitekb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bahaibot/internal/kb"
	"bahaibot/internal/services"
	"bahaibot/internal/wbtime"
)

// Find returns the oldest entity whose label equals the query, falling back to
// the oldest label that starts with it. Matching is case-insensitive.
func (s *Store) Find(ctx context.Context, label string) (string, bool, error) {
	ctx = ensureContext(ctx)
	needle := kb.NormalizeLabel(label)
	if needle == "" {
		return "", false, nil
	}
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM entities
		WHERE label_norm = ? OR substr(label_norm, 1, length(?)) = ?
		ORDER BY CASE WHEN label_norm = ? THEN 0 ELSE 1 END, num
		LIMIT 1`, needle, needle, needle, needle).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find %q: %w", label, err)
	}
	return id, true, nil
}

// Create inserts a new entity and returns its Q identifier.
func (s *Store) Create(ctx context.Context, label string, claims ...kb.Claim) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", services.Wrap(services.ErrValidation, "sqlitekb", "create", "label is empty", nil)
	}
	var id string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO entities (id, label, label_norm, created_at) VALUES (?, ?, ?, ?)",
			"pending:"+uuid.NewString(), label, kb.NormalizeLabel(label), time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("insert entity: %w", err)
		}
		num, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("entity rowid: %w", err)
		}
		id = fmt.Sprintf("Q%d", num)
		if _, err := tx.ExecContext(ctx, "UPDATE entities SET id = ? WHERE num = ?", id, num); err != nil {
			return fmt.Errorf("assign entity id: %w", err)
		}
		entity := &kb.Entity{ID: id, Label: label}
		edits := make([]kb.ClaimEdit, 0, len(claims))
		for _, c := range claims {
			edits = append(edits, kb.ClaimEdit{Claim: c, Policy: kb.ForceAppend})
		}
		changes := kb.ApplyEdits(entity, func() string { return kb.ClaimID(id) }, edits...)
		return writeChanges(ctx, tx, id, changes)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Get loads an entity with its claims and sitelinks.
func (s *Store) Get(ctx context.Context, id string) (*kb.Entity, error) {
	ctx = ensureContext(ctx)
	return loadEntity(ctx, s.db, id)
}

// AddClaims applies edits to an entity and persists the resulting changes in
// one transaction.
func (s *Store) AddClaims(ctx context.Context, id string, edits ...kb.ClaimEdit) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		entity, err := loadEntity(ctx, tx, id)
		if err != nil {
			return err
		}
		changes := kb.ApplyEdits(entity, func() string { return kb.ClaimID(id) }, edits...)
		if changes.Empty() {
			return nil
		}
		return writeChanges(ctx, tx, id, changes)
	})
}

// SetSitelink records a link from the entity to a page on site.
func (s *Store) SetSitelink(ctx context.Context, id, site, title string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireEntity(ctx, tx, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sitelinks (entity_id, site, title) VALUES (?, ?, ?)
			ON CONFLICT(entity_id, site) DO UPDATE SET title = excluded.title`, id, site, title)
		if err != nil {
			return fmt.Errorf("set sitelink: %w", err)
		}
		return nil
	})
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func requireEntity(ctx context.Context, q querier, id string) error {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(1) FROM entities WHERE id = ?", id).Scan(&n); err != nil {
		return fmt.Errorf("lookup entity %s: %w", id, err)
	}
	if n == 0 {
		return services.Wrap(services.ErrNotFound, "sqlitekb", "get", "entity "+id, nil)
	}
	return nil
}

func loadEntity(ctx context.Context, q querier, id string) (*kb.Entity, error) {
	entity := &kb.Entity{ID: id, Claims: make(map[string][]kb.Claim), Sitelinks: make(map[string]string)}
	err := q.QueryRowContext(ctx, "SELECT label FROM entities WHERE id = ?", id).Scan(&entity.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "sqlitekb", "get", "entity "+id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load entity %s: %w", id, err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, property, kind, item_id, text_value, language, time_value, precision, qualifiers_json
		FROM claims WHERE entity_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("load claims for %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c          kb.Claim
			kind       string
			precision  int
			qualifiers string
		)
		if err := rows.Scan(&c.ID, &c.Property, &kind, &c.Value.ID, &c.Value.Text, &c.Value.Language,
			&c.Value.Time, &precision, &qualifiers); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		c.Value.Kind = kb.ValueKind(kind)
		c.Value.Precision = wbtime.Precision(precision)
		if c.Qualifiers, err = decodeQualifiers(qualifiers); err != nil {
			return nil, fmt.Errorf("decode qualifiers for %s: %w", c.ID, err)
		}
		entity.Claims[c.Property] = append(entity.Claims[c.Property], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}

	links, err := q.QueryContext(ctx, "SELECT site, title FROM sitelinks WHERE entity_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("load sitelinks for %s: %w", id, err)
	}
	defer links.Close()
	for links.Next() {
		var site, title string
		if err := links.Scan(&site, &title); err != nil {
			return nil, fmt.Errorf("scan sitelink: %w", err)
		}
		entity.Sitelinks[site] = title
	}
	return entity, links.Err()
}

func writeChanges(ctx context.Context, tx *sql.Tx, entityID string, changes kb.Changes) error {
	for _, claimID := range changes.Removed {
		if _, err := tx.ExecContext(ctx, "DELETE FROM claims WHERE id = ?", claimID); err != nil {
			return fmt.Errorf("remove claim %s: %w", claimID, err)
		}
	}
	for _, c := range changes.Upserts {
		qualifiers, err := encodeQualifiers(c.Qualifiers)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO claims (id, entity_id, property, kind, item_id, text_value, language, time_value, precision, qualifiers_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				kind = excluded.kind,
				item_id = excluded.item_id,
				text_value = excluded.text_value,
				language = excluded.language,
				time_value = excluded.time_value,
				precision = excluded.precision,
				qualifiers_json = excluded.qualifiers_json`,
			c.ID, entityID, c.Property, string(c.Value.Kind), c.Value.ID, c.Value.Text, c.Value.Language,
			c.Value.Time, int(c.Value.Precision), qualifiers)
		if err != nil {
			return fmt.Errorf("write claim %s: %w", c.ID, err)
		}
	}
	return nil
}

type qualifierRow struct {
	Property  string `json:"property"`
	Kind      string `json:"kind"`
	ID        string `json:"id,omitempty"`
	Text      string `json:"text,omitempty"`
	Language  string `json:"language,omitempty"`
	Time      string `json:"time,omitempty"`
	Precision int    `json:"precision,omitempty"`
}

func encodeQualifiers(snaks []kb.Snak) (string, error) {
	rows := make([]qualifierRow, 0, len(snaks))
	for _, q := range snaks {
		rows = append(rows, qualifierRow{
			Property:  q.Property,
			Kind:      string(q.Value.Kind),
			ID:        q.Value.ID,
			Text:      q.Value.Text,
			Language:  q.Value.Language,
			Time:      q.Value.Time,
			Precision: int(q.Value.Precision),
		})
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode qualifiers: %w", err)
	}
	return string(data), nil
}

func decodeQualifiers(raw string) ([]kb.Snak, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var rows []qualifierRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	snaks := make([]kb.Snak, 0, len(rows))
	for _, r := range rows {
		snaks = append(snaks, kb.Snak{Property: r.Property, Value: kb.Value{
			Kind:      kb.ValueKind(r.Kind),
			ID:        r.ID,
			Text:      r.Text,
			Language:  r.Language,
			Time:      r.Time,
			Precision: wbtime.Precision(r.Precision),
		}})
	}
	return snaks, nil
}
