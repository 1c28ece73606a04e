package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"bahaibot/internal/kb"
	"bahaibot/internal/kb/wikibase"
)

// FakeWiki is an httptest MediaWiki + Wikibase API backed by a kb.MemStore and
// an in-memory page table. It understands just enough of the action API for
// go-mwclient and the wikibase store.
type FakeWiki struct {
	Server   *httptest.Server
	Store    *kb.MemStore
	Language string

	mu         sync.Mutex
	pages      map[string]string
	categories map[string][]string
	requests   []url.Values
	failures   map[string][]fakeFailure
}

type fakeFailure struct {
	status  int
	code    string
	warning string
}

// NewFakeWiki starts a fake API server and registers cleanup.
func NewFakeWiki(t testing.TB) *FakeWiki {
	t.Helper()
	f := &FakeWiki{
		Store:      kb.NewMemStore(),
		Language:   "en",
		pages:      make(map[string]string),
		categories: make(map[string][]string),
		failures:   make(map[string][]fakeFailure),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the api.php endpoint.
func (f *FakeWiki) URL() string { return f.Server.URL + "/api.php" }

// SetPage stores wikitext for title.
func (f *FakeWiki) SetPage(title, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[title] = text
}

// Page returns the stored wikitext of title.
func (f *FakeWiki) Page(title string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	text, ok := f.pages[title]
	return text, ok
}

// AddCategoryMember registers title as a member of category.
func (f *FakeWiki) AddCategoryMember(category, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories[category] = append(f.categories[category], title)
}

// FailNext queues a failure for the next request with the given action. A
// non-200 status is written as-is; otherwise code is returned as an API error.
func (f *FakeWiki) FailNext(action string, status int, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[action] = append(f.failures[action], fakeFailure{status: status, code: code})
}

// WarnNext attaches a warning to the next successful response for action.
func (f *FakeWiki) WarnNext(action, info string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[action] = append(f.failures[action], fakeFailure{warning: info})
}

// Requests returns the parameters of every request with the given action.
func (f *FakeWiki) Requests(action string) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []url.Values
	for _, r := range f.requests {
		if r.Get("action") == action {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeWiki) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := r.Form
	action := form.Get("action")

	f.mu.Lock()
	f.requests = append(f.requests, cloneValues(form))
	var failure *fakeFailure
	if queue := f.failures[action]; len(queue) > 0 {
		failure = &queue[0]
		f.failures[action] = queue[1:]
	}
	f.mu.Unlock()

	if failure != nil && failure.warning == "" {
		if failure.status != 0 && failure.status != http.StatusOK {
			w.WriteHeader(failure.status)
			_, _ = w.Write([]byte("fake failure"))
			return
		}
		writeJSON(w, apiError(failure.code, "injected failure"))
		return
	}

	ctx := r.Context()
	var resp any
	switch action {
	case "query":
		resp = f.query(form)
	case "login":
		resp = map[string]any{"login": map[string]any{"result": "Success", "lgusername": form.Get("lgname")}}
	case "logout":
		resp = map[string]any{}
	case "edit":
		resp = f.edit(form)
	case "wbsearchentities":
		resp = f.search(ctx, form)
	case "wbgetentities":
		resp = f.getEntities(ctx, form)
	case "wbeditentity":
		resp = f.editEntity(ctx, form)
	case "wbsetsitelink":
		if err := f.Store.SetSitelink(ctx, form.Get("id"), form.Get("linksite"), form.Get("linktitle")); err != nil {
			resp = apiError("no-such-entity", err.Error())
		} else {
			resp = map[string]any{"success": 1}
		}
	default:
		resp = apiError("badvalue", "unrecognized action "+action)
	}
	if body, ok := resp.(map[string]any); ok && failure != nil && failure.warning != "" {
		body["warnings"] = map[string]any{action: map[string]any{"warnings": failure.warning}}
	}
	writeJSON(w, resp)
}

func (f *FakeWiki) query(form url.Values) any {
	switch {
	case form.Get("meta") == "tokens":
		return map[string]any{"query": map[string]any{"tokens": map[string]string{
			"csrftoken":  "fake-csrf+\\",
			"logintoken": "fake-login+\\",
		}}}
	case form.Get("list") == "categorymembers":
		f.mu.Lock()
		titles := append([]string(nil), f.categories[form.Get("cmtitle")]...)
		f.mu.Unlock()
		members := make([]map[string]any, 0, len(titles))
		for _, title := range titles {
			members = append(members, map[string]any{"title": title, "ns": 6})
		}
		return map[string]any{"query": map[string]any{"categorymembers": members}}
	case form.Get("prop") == "revisions":
		title := form.Get("titles")
		text, ok := f.Page(title)
		if !ok {
			return map[string]any{"query": map[string]any{"pages": []map[string]any{{"title": title, "missing": true}}}}
		}
		return map[string]any{"query": map[string]any{"pages": []map[string]any{{
			"title": title,
			"revisions": []map[string]any{{
				"slots": map[string]any{"main": map[string]any{"content": text, "contentmodel": "wikitext"}},
			}},
		}}}}
	default:
		return map[string]any{"batchcomplete": true}
	}
}

func (f *FakeWiki) edit(form url.Values) any {
	title := form.Get("title")
	text := form.Get("text")
	f.mu.Lock()
	previous, existed := f.pages[title]
	f.pages[title] = text
	f.mu.Unlock()
	result := map[string]any{"result": "Success", "title": title}
	if existed && previous == text {
		result["nochange"] = ""
	}
	return map[string]any{"edit": result}
}

func (f *FakeWiki) search(ctx context.Context, form url.Values) any {
	id, found, err := f.Store.Find(ctx, form.Get("search"))
	if err != nil {
		return apiError("internal_api_error", err.Error())
	}
	hits := []map[string]any{}
	if found {
		hits = append(hits, map[string]any{"id": id, "label": form.Get("search")})
	}
	return map[string]any{"search": hits, "success": 1}
}

func (f *FakeWiki) getEntities(ctx context.Context, form url.Values) any {
	entities := make(map[string]any)
	for _, id := range strings.Split(form.Get("ids"), "|") {
		entity, err := f.Store.Get(ctx, id)
		if err != nil {
			entities[id] = map[string]any{"id": id, "missing": ""}
			continue
		}
		claims := make(map[string][]wikibase.Statement)
		for prop, list := range entity.Claims {
			for _, c := range list {
				st, err := wikibase.EncodeClaim(c, true)
				if err != nil {
					return apiError("internal_api_error", err.Error())
				}
				claims[prop] = append(claims[prop], st)
			}
		}
		sitelinks := make(map[string]wikibase.SitelinkPayload)
		for site, title := range entity.Sitelinks {
			sitelinks[site] = wikibase.SitelinkPayload{Site: site, Title: title}
		}
		entities[id] = map[string]any{
			"id":        id,
			"labels":    map[string]wikibase.LanguageValue{f.Language: {Language: f.Language, Value: entity.Label}},
			"claims":    claims,
			"sitelinks": sitelinks,
		}
	}
	return map[string]any{"entities": entities, "success": 1}
}

func (f *FakeWiki) editEntity(ctx context.Context, form url.Values) any {
	var doc wikibase.EntityDocument
	if err := json.Unmarshal([]byte(form.Get("data")), &doc); err != nil {
		return apiError("invalid-json", err.Error())
	}
	statements, err := wikibase.DecodeClaims(doc.Claims)
	if err != nil {
		return apiError("invalid-claim", err.Error())
	}

	if form.Has("new") {
		claims := make([]kb.Claim, 0, len(statements))
		for _, st := range statements {
			c, err := wikibase.DecodeStatement(st)
			if err != nil {
				return apiError("invalid-claim", err.Error())
			}
			claims = append(claims, c)
		}
		id, err := f.Store.Create(ctx, doc.Labels[f.Language].Value, claims...)
		if err != nil {
			return apiError("modification-failed", err.Error())
		}
		return map[string]any{"entity": map[string]any{"id": id, "type": "item"}, "success": 1}
	}

	id := form.Get("id")
	var changes kb.Changes
	for _, st := range statements {
		if st.Remove != nil {
			changes.Removed = append(changes.Removed, st.ID)
			continue
		}
		c, err := wikibase.DecodeStatement(st)
		if err != nil {
			return apiError("invalid-claim", err.Error())
		}
		changes.Upserts = append(changes.Upserts, c)
	}
	if err := f.Store.Commit(ctx, id, changes); err != nil {
		return apiError("no-such-entity", err.Error())
	}
	return map[string]any{"entity": map[string]any{"id": id, "type": "item"}, "success": 1}
}

func apiError(code, info string) map[string]any {
	return map[string]any{"error": map[string]any{"code": code, "info": info}}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
