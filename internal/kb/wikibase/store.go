package wikibase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"cgt.name/pkg/go-mwclient/params"
	"github.com/antonholmquist/jason"

	"bahaibot/internal/kb"
	"bahaibot/internal/logging"
	"bahaibot/internal/services"
)

// API is the subset of mediawiki.Session the store needs.
type API interface {
	Get(ctx context.Context, p params.Values) (*jason.Object, error)
	GetRaw(ctx context.Context, p params.Values) ([]byte, error)
	Write(ctx context.Context, p params.Values) (*jason.Object, error)
}

// Store is a kb.Store backed by the Wikibase action API.
type Store struct {
	api      API
	language string
	summary  string
	logger   *slog.Logger
}

var (
	_ kb.Store          = (*Store)(nil)
	_ kb.SitelinkSetter = (*Store)(nil)
)

// Option customizes a Store.
type Option func(*Store)

// WithSummary sets the edit summary attached to every write.
func WithSummary(summary string) Option {
	return func(s *Store) { s.summary = summary }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logging.NewComponentLogger(logger, "wikibase") }
}

// New creates a store that reads and writes labels in language.
func New(api API, language string, opts ...Option) *Store {
	if language == "" {
		language = "en"
	}
	s := &Store{api: api, language: language, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Find returns the first wbsearchentities hit for label.
func (s *Store) Find(ctx context.Context, label string) (string, bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", false, nil
	}
	resp, err := s.api.Get(ctx, params.Values{
		"action":   "wbsearchentities",
		"search":   label,
		"language": s.language,
		"type":     "item",
		"limit":    "1",
	})
	if err != nil {
		return "", false, fmt.Errorf("search %q: %w", label, err)
	}
	hits, err := resp.GetObjectArray("search")
	if err != nil {
		return "", false, services.Wrap(services.ErrRemote, "wikibase", "search", "response has no search results", err)
	}
	if len(hits) == 0 {
		return "", false, nil
	}
	id, err := hits[0].GetString("id")
	if err != nil || id == "" {
		return "", false, services.Wrap(services.ErrRemote, "wikibase", "search", "hit without id", err)
	}
	return id, true, nil
}

// Create submits a new item with label and claims.
func (s *Store) Create(ctx context.Context, label string, claims ...kb.Claim) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", services.Wrap(services.ErrValidation, "wikibase", "create", "label is empty", nil)
	}
	statements := make([]Statement, 0, len(claims))
	for _, c := range claims {
		st, err := EncodeClaim(c, false)
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "wikibase", "create", label, err)
		}
		statements = append(statements, st)
	}
	data, err := s.payload(map[string]any{
		"labels": map[string]LanguageValue{s.language: {Language: s.language, Value: label}},
		"claims": statements,
	})
	if err != nil {
		return "", err
	}
	p := params.Values{"action": "wbeditentity", "new": "item", "data": data, "bot": ""}
	s.addSummary(p)
	resp, err := s.api.Write(ctx, p)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", label, err)
	}
	id, err := resp.GetString("entity", "id")
	if err != nil || id == "" {
		return "", services.Wrap(services.ErrRemote, "wikibase", "create", "response has no entity id", err)
	}
	s.logger.Debug("entity created", logging.String(logging.FieldEntityID, id), logging.String(logging.FieldLabel, label))
	return id, nil
}

type getEntitiesResponse struct {
	Entities map[string]EntityDocument `json:"entities"`
}

// Get fetches the current entity document.
func (s *Store) Get(ctx context.Context, id string) (*kb.Entity, error) {
	body, err := s.api.GetRaw(ctx, params.Values{
		"action":    "wbgetentities",
		"ids":       id,
		"props":     "labels|claims|sitelinks",
		"languages": s.language,
		"format":    "json",
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	var resp getEntitiesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, services.Wrap(services.ErrRemote, "wikibase", "get", id, err)
	}
	doc, ok := resp.Entities[id]
	if !ok || doc.Missing != nil {
		return nil, services.Wrap(services.ErrNotFound, "wikibase", "get", "entity "+id, nil)
	}
	return doc.ToEntity(s.language)
}

// AddClaims reads the entity, applies the edits locally, and submits only the
// resulting statement changes. Nothing is sent when the edits change nothing.
func (s *Store) AddClaims(ctx context.Context, id string, edits ...kb.ClaimEdit) error {
	entity, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, entity.ClaimCount())
	for _, claims := range entity.Claims {
		for _, c := range claims {
			existing[c.ID] = true
		}
	}
	changes := kb.ApplyEdits(entity, func() string { return "" }, edits...)
	if changes.Empty() {
		return nil
	}

	statements := make([]Statement, 0, len(changes.Upserts)+len(changes.Removed))
	for _, c := range changes.Upserts {
		st, err := EncodeClaim(c, c.ID != "" && existing[c.ID])
		if err != nil {
			return services.Wrap(services.ErrValidation, "wikibase", "add claims", id, err)
		}
		statements = append(statements, st)
	}
	for _, claimID := range changes.Removed {
		statements = append(statements, RemoveStatement(claimID))
	}
	data, err := s.payload(map[string]any{"claims": statements})
	if err != nil {
		return err
	}
	p := params.Values{"action": "wbeditentity", "id": id, "data": data, "bot": ""}
	s.addSummary(p)
	if _, err := s.api.Write(ctx, p); err != nil {
		return fmt.Errorf("edit %s: %w", id, err)
	}
	return nil
}

// SetSitelink links id to title on site.
func (s *Store) SetSitelink(ctx context.Context, id, site, title string) error {
	p := params.Values{
		"action":    "wbsetsitelink",
		"id":        id,
		"linksite":  site,
		"linktitle": title,
		"bot":       "",
	}
	s.addSummary(p)
	if _, err := s.api.Write(ctx, p); err != nil {
		return fmt.Errorf("set sitelink %s -> %s:%s: %w", id, site, title, err)
	}
	return nil
}

func (s *Store) payload(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "wikibase", "encode", "entity data", err)
	}
	return string(data), nil
}

func (s *Store) addSummary(p params.Values) {
	if s.summary != "" {
		p["summary"] = s.summary
	}
}
