package quotes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahaibot/internal/quotes"
	"bahaibot/internal/retry"
	"bahaibot/internal/services"
	"bahaibot/internal/testsupport"
)

type searchCall struct {
	Keyword string
	From    int
	Size    int
	Auth    string
}

// library serves hits for each keyword in pages of the requested size.
type library struct {
	mu      sync.Mutex
	hits    map[string][]quotes.Quote
	calls   []searchCall
	limited int
	status  map[string]int
}

func (l *library) serve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		From       int `json:"from"`
		Size       int `json:"size"`
		PostFilter struct {
			Bool struct {
				Filter []struct {
					Term struct {
						Keywords string `json:"keywords"`
					} `json:"term"`
				} `json:"filter"`
			} `json:"bool"`
		} `json:"post_filter"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	keyword := body.PostFilter.Bool.Filter[0].Term.Keywords

	l.mu.Lock()
	l.calls = append(l.calls, searchCall{Keyword: keyword, From: body.From, Size: body.Size, Auth: r.Header.Get("Authorization")})
	limited := l.limited > 0
	if limited {
		l.limited--
	}
	status := l.status[keyword]
	all := l.hits[keyword]
	l.mu.Unlock()

	if limited {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	end := min(body.From+body.Size, len(all))
	page := []map[string]any{}
	for i := body.From; i < end; i++ {
		page = append(page, map[string]any{"_source": map[string]any{
			"title":      all[i].Title,
			"location":   all[i].Location,
			"content_en": all[i].Quote,
			"unit":       "para",
		}})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"hits": map[string]any{"hits": page}})
}

type waits struct{ got []time.Duration }

func (w *waits) sleep(_ context.Context, d time.Duration) error {
	w.got = append(w.got, d)
	return nil
}

func newSearcher(t *testing.T, lib *library) (*quotes.Searcher, *waits) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(lib.serve))
	t.Cleanup(server.Close)
	cfg := testsupport.NewConfig(t, testsupport.WithQuotes(server.URL))
	cfg.Quotes.BatchSize = 2
	s := quotes.New(cfg, nil)
	rec := &waits{}
	s.BatchPacer = &retry.Pacer{Interval: 10 * time.Second, Sleeper: rec.sleep}
	s.KeywordPacer = &retry.Pacer{Interval: 15 * time.Second, Sleeper: rec.sleep}
	return s, rec
}

func TestRunPagesThroughHitsAndSavesPerKeyword(t *testing.T) {
	lib := &library{hits: map[string][]quotes.Quote{
		"hidden-words": {
			{Title: "Hidden Words", Location: "Arabic 1", Quote: "O Son of Spirit!"},
			{Title: "Hidden Words", Location: "Arabic 2", Quote: "The best beloved of all things"},
			{Title: "Hidden Words", Location: "Persian 3", Quote: "O Friends! Abide not"},
		},
	}}
	s, rec := newSearcher(t, lib)

	summary, err := s.Run(context.Background(), "justice", []string{"hidden-words", "kitab-i-iqan"})
	require.NoError(t, err)
	require.Len(t, summary.Keywords, 2)
	assert.Equal(t, 3, summary.Saved())
	assert.Empty(t, summary.Failed())

	hw := summary.Keywords[0]
	assert.Equal(t, filepath.Join(s.OutputDir, "justice_hidden-words.txt"), hw.Path)
	data, err := os.ReadFile(hw.Path)
	require.NoError(t, err)
	var saved []quotes.Quote
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, lib.hits["hidden-words"], saved)
	assert.Empty(t, summary.Keywords[1].Path, "no file without hits")

	var froms []int
	for _, c := range lib.calls {
		if c.Keyword == "hidden-words" {
			froms = append(froms, c.From)
			assert.Equal(t, 2, c.Size)
			assert.Equal(t, "Basic dGVzdDp0ZXN0", c.Auth)
		}
	}
	assert.Equal(t, []int{0, 2, 4}, froms)
	// two page waits, one keyword wait, none after the last keyword
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second, 15 * time.Second}, rec.got)
}

func TestRateLimitedSearchBacksOff(t *testing.T) {
	lib := &library{limited: 1, hits: map[string][]quotes.Quote{
		"paris-talks": {{Title: "Paris Talks", Location: "p. 5", Quote: "Be kind"}},
	}}
	s, _ := newSearcher(t, lib)
	backoff := &waits{}
	s.Retry = retry.Policy{MaxAttempts: 3, BaseDelay: time.Second, Sleeper: backoff.sleep}

	found, err := s.Search(context.Background(), "kindness", "paris-talks")
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, []time.Duration{2 * time.Second}, backoff.got)
}

func TestFailedKeywordIsRecordedAndRunContinues(t *testing.T) {
	lib := &library{
		status: map[string]int{"tablets-bahaullah": http.StatusForbidden},
		hits: map[string][]quotes.Quote{
			"paris-talks": {{Title: "Paris Talks", Location: "p. 5", Quote: "Be kind"}},
		},
	}
	s, _ := newSearcher(t, lib)

	summary, err := s.Run(context.Background(), "kind", []string{"tablets-bahaullah", "paris-talks"})
	require.NoError(t, err)
	failed := summary.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "tablets-bahaullah", failed[0].Keyword)
	assert.ErrorIs(t, failed[0].Err, services.ErrRemote)
	var statusErr *retry.StatusError
	require.ErrorAs(t, failed[0].Err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, 1, summary.Saved())
}

func TestRunRequiresQueryAndKeywords(t *testing.T) {
	s, _ := newSearcher(t, &library{})
	_, err := s.Run(context.Background(), " ", []string{"hidden-words"})
	assert.ErrorIs(t, err, services.ErrUsage)
	_, err = s.Run(context.Background(), "faith", nil)
	assert.ErrorIs(t, err, services.ErrUsage)
}

func TestLoadKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyword_filter.txt")
	require.NoError(t, os.WriteFile(path, []byte("hidden-words\n\n  paris-talks  \n"), 0o644))

	keywords, err := quotes.LoadKeywords(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hidden-words", "paris-talks"}, keywords)

	_, err = quotes.LoadKeywords(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, services.ErrUsage)
}

func TestFileNameKeepsKeywordRecoverable(t *testing.T) {
	name := quotes.FileName("love of God", "kitab-i-aqdas")
	assert.Equal(t, "love-of-God_kitab-i-aqdas.txt", name)
	keyword, ok := quotes.KeywordFromFile(name)
	assert.True(t, ok)
	assert.Equal(t, "kitab-i-aqdas", keyword)

	_, ok = quotes.KeywordFromFile("_hidden-words.txt")
	assert.False(t, ok)
	_, ok = quotes.KeywordFromFile("notes.md")
	assert.False(t, ok)
}

func writeResult(t *testing.T, dir, name string, qs []quotes.Quote) {
	t.Helper()
	data, err := json.Marshal(qs)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestGroupCollectsQuotesByTitle(t *testing.T) {
	dir := t.TempDir()
	writeResult(t, dir, "justice_hidden-words.txt", []quotes.Quote{
		{Title: "Justice", Location: "Arabic 2", Quote: "The best beloved of all things in My sight is Justice"},
		{Title: "Detachment", Location: "Persian 3", Quote: "O Friends! Abide not in the garden of fading beauty"},
	})
	writeResult(t, dir, "justice_paris-talks.txt", []quotes.Quote{
		{Title: "Justice", Location: "p. 153", Quote: "Justice must be sacredly observed"},
	})
	writeResult(t, dir, "justice_unknown-book.txt", []quotes.Quote{{Title: "X", Location: "1", Quote: "y"}})
	writeResult(t, dir, "justice_tablets-divine-plan.txt", nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "justice_kitab-i-iqan.txt"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	sections, report, err := quotes.Group(dir, quotes.Abbreviations)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Files)
	assert.Equal(t, 3, report.Quotes)
	reasons := map[string]string{}
	for _, skip := range report.Skips {
		reasons[skip.File] = skip.Reason
	}
	assert.Equal(t, map[string]string{
		"justice_unknown-book.txt":        "no abbreviation for unknown-book",
		"justice_tablets-divine-plan.txt": "empty",
		"justice_kitab-i-iqan.txt":        "malformed JSON",
	}, reasons)

	want := "====Justice====\n" +
		"{{q|The best beloved of all things in My sight is Justice|Arabic 2 |HW }}\n" +
		"{{q|Justice must be sacredly observed|p. 153 |PT }}\n\n" +
		"====Detachment====\n" +
		"{{q|O Friends! Abide not in the garden of fading beauty|Persian 3 |HW }}\n\n"
	assert.Equal(t, want, quotes.Render(sections))
}

func TestAbbreviationsTable(t *testing.T) {
	assert.Len(t, quotes.Abbreviations, 31)
	assert.Equal(t, "ATB", quotes.Abbreviations["additional-tablets-extracts-from-tablets-revealed-bahaullah"])
	assert.Equal(t, "SWAB", quotes.Abbreviations["selections-writings-abdul-baha"])
}
