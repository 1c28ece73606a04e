package kb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"bahaibot/internal/services"
)

// CallCounts records how many times each Store operation reached a MemStore.
type CallCounts struct {
	Find      int
	Create    int
	Get       int
	AddClaims int
	Sitelink  int
}

// MemStore is an in-memory Store. Entities receive sequential Q identifiers.
// It is safe for concurrent use.
type MemStore struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	order    []string
	next     int
	calls    CallCounts
	failures map[string]error
}

// NewMemStore creates an empty store whose first entity will be Q1.
func NewMemStore() *MemStore {
	return &MemStore{
		entities: make(map[string]*Entity),
		next:     1,
		failures: make(map[string]error),
	}
}

// Seed inserts an entity with the given label and claims, returning its ID.
// It does not count as a Create call.
func (s *MemStore) Seed(label string, claims ...Claim) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(label, claims)
}

// FailNext makes the next call to op ("find", "create", "get", "add_claims",
// "sitelink") return err.
func (s *MemStore) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Calls returns a snapshot of the per-operation call counters.
func (s *MemStore) Calls() CallCounts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// Len returns the number of stored entities.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *MemStore) Find(_ context.Context, label string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Find++
	if err := s.takeFailure("find"); err != nil {
		return "", false, err
	}
	needle := NormalizeLabel(label)
	if needle == "" {
		return "", false, nil
	}
	prefixHit := ""
	for _, id := range s.order {
		have := NormalizeLabel(s.entities[id].Label)
		if have == needle {
			return id, true, nil
		}
		if prefixHit == "" && strings.HasPrefix(have, needle) {
			prefixHit = id
		}
	}
	return prefixHit, prefixHit != "", nil
}

func (s *MemStore) Create(_ context.Context, label string, claims ...Claim) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Create++
	if err := s.takeFailure("create"); err != nil {
		return "", err
	}
	if strings.TrimSpace(label) == "" {
		return "", services.Wrap(services.ErrValidation, "memstore", "create", "label is empty", nil)
	}
	return s.insertLocked(label, claims), nil
}

func (s *MemStore) Get(_ context.Context, id string) (*Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Get++
	if err := s.takeFailure("get"); err != nil {
		return nil, err
	}
	entity, ok := s.entities[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "memstore", "get", fmt.Sprintf("entity %s", id), nil)
	}
	return entity.Clone(), nil
}

func (s *MemStore) AddClaims(_ context.Context, id string, edits ...ClaimEdit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.AddClaims++
	if err := s.takeFailure("add_claims"); err != nil {
		return err
	}
	entity, ok := s.entities[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "memstore", "add claims", fmt.Sprintf("entity %s", id), nil)
	}
	ApplyEdits(entity, claimIDFunc(id), edits...)
	return nil
}

// Commit applies a precomputed change set: removed claim IDs are dropped,
// upserts with a known ID replace that claim, and the rest are appended with
// fresh IDs. It counts as an AddClaims call.
func (s *MemStore) Commit(_ context.Context, id string, changes Changes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.AddClaims++
	if err := s.takeFailure("add_claims"); err != nil {
		return err
	}
	entity, ok := s.entities[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "memstore", "commit", fmt.Sprintf("entity %s", id), nil)
	}
	removed := make(map[string]bool, len(changes.Removed))
	for _, claimID := range changes.Removed {
		removed[claimID] = true
	}
	for prop, claims := range entity.Claims {
		kept := claims[:0]
		for _, c := range claims {
			if !removed[c.ID] {
				kept = append(kept, c)
			}
		}
		entity.Claims[prop] = kept
	}
	for _, upsert := range changes.Upserts {
		c := upsert.clone()
		replaced := false
		if c.ID != "" {
			claims := entity.Claims[c.Property]
			for i := range claims {
				if claims[i].ID == c.ID {
					claims[i] = c
					replaced = true
					break
				}
			}
		}
		if !replaced {
			c.ID = ClaimID(id)
			entity.Claims[c.Property] = append(entity.Claims[c.Property], c)
		}
	}
	return nil
}

func (s *MemStore) SetSitelink(_ context.Context, id, site, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls.Sitelink++
	if err := s.takeFailure("sitelink"); err != nil {
		return err
	}
	entity, ok := s.entities[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "memstore", "set sitelink", fmt.Sprintf("entity %s", id), nil)
	}
	if entity.Sitelinks == nil {
		entity.Sitelinks = make(map[string]string)
	}
	entity.Sitelinks[site] = title
	return nil
}

func (s *MemStore) insertLocked(label string, claims []Claim) string {
	id := "Q" + strconv.Itoa(s.next)
	s.next++
	entity := &Entity{ID: id, Label: strings.TrimSpace(label), Claims: make(map[string][]Claim), Sitelinks: make(map[string]string)}
	edits := make([]ClaimEdit, 0, len(claims))
	for _, c := range claims {
		edits = append(edits, ClaimEdit{Claim: c, Policy: ForceAppend})
	}
	ApplyEdits(entity, claimIDFunc(id), edits...)
	s.entities[id] = entity
	s.order = append(s.order, id)
	return id
}

func (s *MemStore) takeFailure(op string) error {
	err, ok := s.failures[op]
	if !ok {
		return nil
	}
	delete(s.failures, op)
	return err
}

// ClaimID builds a Wikibase-style statement GUID for entity id.
func ClaimID(id string) string {
	return id + "$" + uuid.NewString()
}

func claimIDFunc(id string) func() string {
	return func() string { return ClaimID(id) }
}
