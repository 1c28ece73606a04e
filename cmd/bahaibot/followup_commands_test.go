package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bahaibot/internal/config"
	"bahaibot/internal/services"
	"bahaibot/internal/testsupport"
)

func TestAuthorPagesThenAuthorSitelinks(t *testing.T) {
	wiki := testsupport.NewFakeWiki(t)
	cfg, configPath := newTestConfig(t, func(c *config.Config) { c.Works.APIURL = wiki.URL() })

	_, err := runCLI(t, configPath, "books", writeBooks(t, dawnBreakers()))
	require.NoError(t, err)

	out, err := runCLI(t, configPath, "author-pages", "--upload")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 author page(s)")
	assert.Contains(t, out, "Uploaded 1 page(s), 0 failed")

	blocks, err := os.ReadFile(filepath.Join(cfg.Import.OutputDir, "author-pages.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(blocks), "'''Author:Nabíl-i-Zarandí'''")
	page, ok := wiki.Page("Author:Nabíl-i-Zarandí")
	require.True(t, ok)
	assert.Contains(t, page, "{{author2|wb=Q")

	createdLog := filepath.Join(cfg.Import.OutputDir, cfg.Import.CreatedLog)
	before := testsupport.ReadLines(t, createdLog)
	out, err = runCLI(t, configPath, "sitelinks", "--authors")
	require.NoError(t, err)
	assert.Contains(t, out, "Linked 1, failed 0")

	after := testsupport.ReadLines(t, createdLog)
	assert.Len(t, after, len(before)-1)
	for _, line := range after {
		assert.NotContains(t, line, "Created author")
	}
}

func TestAuthorPagesWithoutEntries(t *testing.T) {
	_, configPath := newTestConfig(t, nil)

	_, err := runCLI(t, configPath, "author-pages")
	assert.ErrorIs(t, err, services.ErrUsage)
}

func TestSitelinksEmptyLog(t *testing.T) {
	_, configPath := newTestConfig(t, nil)

	_, err := runCLI(t, configPath, "sitelinks")
	assert.ErrorIs(t, err, services.ErrUsage)
}

func TestCaptionsRewrite(t *testing.T) {
	wiki := testsupport.NewFakeWiki(t)
	wiki.SetPage("File:Kampala.jpg", "Bahá'í Temple in Kampala")
	wiki.AddCategoryMember("Category:Baha'i News No 331", "File:Kampala.jpg")
	fake := testsupport.NewFakeLLM(t, func(req testsupport.LLMRequest) testsupport.LLMReply {
		return testsupport.LLMReply{Content: strings.ReplaceAll(req.User, "Bahá'í", "Bahá’í")}
	})
	_, configPath := newTestConfig(t, func(c *config.Config) {
		c.Works.APIURL = wiki.URL()
		c.LLM.BaseURL = fake.URL()
		c.LLM.APIKey = "sk-test"
	})

	out, err := runCLI(t, configPath, "captions", "--category", "Baha'i News No 331", "--prompt", "proofread")
	require.NoError(t, err)
	assert.Contains(t, out, "1 page(s): 1 edited")

	page, _ := wiki.Page("File:Kampala.jpg")
	assert.Equal(t, "Bahá’í Temple in Kampala", page)
	edits := wiki.Requests("edit")
	require.Len(t, edits, 1)
	assert.Equal(t, "Text modified using language model", edits[0].Get("summary"))
}

func TestCaptionsJSON(t *testing.T) {
	wiki := testsupport.NewFakeWiki(t)
	wiki.SetPage("Martha Root", "Martha Root was born on 10 August 1872 in Richwood, Ohio.")
	wiki.AddCategoryMember("Category:Hands of the Cause", "Martha Root")
	fake := testsupport.NewFakeLLM(t, func(testsupport.LLMRequest) testsupport.LLMReply {
		return testsupport.LLMReply{Content: `{"birth_date": "1872-08-10", "birth_place": "Richwood, Ohio"}`}
	})
	cfg, configPath := newTestConfig(t, func(c *config.Config) {
		c.Works.APIURL = wiki.URL()
		c.LLM.BaseURL = fake.URL()
		c.LLM.APIKey = "sk-test"
	})

	out, err := runCLI(t, configPath, "captions", "--category", "Hands of the Cause", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "1 saved")

	data, err := os.ReadFile(filepath.Join(cfg.LLM.OutputDir, "martha_root.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"birth_place": "Richwood, Ohio"`)
	assert.Empty(t, wiki.Requests("edit"))
}

func TestCaptionsUnknownPrompt(t *testing.T) {
	wiki := testsupport.NewFakeWiki(t)
	_, configPath := newTestConfig(t, func(c *config.Config) { c.Works.APIURL = wiki.URL() })

	_, err := runCLI(t, configPath, "captions", "--category", "X", "--prompt", "poetry")
	assert.ErrorIs(t, err, services.ErrUsage)
}

func TestScrapeCommand(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	cfg, configPath := newTestConfig(t, func(c *config.Config) { c.Scrape.BaseURL = srv.URL })

	out, err := runCLI(t, configPath, "scrape", "5", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "Saved 0 slide(s) from 2 stor(ies) into "+cfg.Scrape.OutputDir)

	_, err = runCLI(t, configPath, "scrape", "five", "6")
	assert.ErrorIs(t, err, services.ErrUsage)
	_, err = runCLI(t, configPath, "scrape", "6", "5")
	assert.ErrorIs(t, err, services.ErrUsage)
}

func TestCheckReportsFailures(t *testing.T) {
	wiki := testsupport.NewFakeWiki(t)
	_, configPath := newTestConfig(t, func(c *config.Config) { c.Works.APIURL = wiki.URL() })

	out, err := runCLI(t, configPath, "check")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrConfiguration)
	assert.Contains(t, out, "Works API")
	assert.Contains(t, out, "API key missing")
	assert.Contains(t, out, "Import output")
}

func TestQuotesSearchThenProcess(t *testing.T) {
	var auth []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		auth = append(auth, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if !strings.Contains(string(body), `"from":0`) || !strings.Contains(string(body), `"keywords":"hidden-words"`) {
			_, _ = io.WriteString(w, `{"hits":{"hits":[]}}`)
			return
		}
		_, _ = io.WriteString(w, `{"hits":{"hits":[
			{"_source":{"title":"Justice","location":"Arabic 2","content_en":"The best beloved of all things in My sight is Justice"}},
			{"_source":{"title":"Justice","location":"Persian 3","content_en":"O Friends! Abide not"}}]}}`)
	}))
	t.Cleanup(server.Close)
	cfg, configPath := newTestConfig(t, func(c *config.Config) {
		c.Quotes.SearchURL = server.URL
		c.Quotes.Authorization = "Basic dGVzdDp0ZXN0"
		c.Quotes.BatchDelaySeconds = 0
		c.Quotes.KeywordDelaySeconds = 0
	})
	require.NoError(t, os.WriteFile(cfg.Quotes.KeywordsFile, []byte("hidden-words\nparis-talks\n"), 0o644))

	out, err := runCLI(t, configPath, "quotes", "search", "best", "beloved")
	require.NoError(t, err)
	assert.Contains(t, out, `Saved 2 quote(s) for "best beloved"`)
	assert.Contains(t, out, "no hits")
	assert.FileExists(t, filepath.Join(cfg.Quotes.OutputDir, "best-beloved_hidden-words.txt"))
	assert.NoFileExists(t, filepath.Join(cfg.Quotes.OutputDir, "best-beloved_paris-talks.txt"))
	for _, header := range auth {
		assert.Equal(t, "Basic dGVzdDp0ZXN0", header)
	}

	out, err = runCLI(t, configPath, "quotes", "process")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 quote(s) in 1 section(s)")
	text, err := os.ReadFile(filepath.Join(cfg.Import.OutputDir, "quotes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "====Justice====\n"+
		"{{q|The best beloved of all things in My sight is Justice|Arabic 2 |HW }}\n"+
		"{{q|O Friends! Abide not|Persian 3 |HW }}\n\n", string(text))
}

func TestQuotesSearchWithoutKeywordFile(t *testing.T) {
	_, configPath := newTestConfig(t, nil)

	_, err := runCLI(t, configPath, "quotes", "search", "justice")
	assert.ErrorIs(t, err, services.ErrUsage)
}

func TestQuotesProcessEmptyDirectory(t *testing.T) {
	cfg, configPath := newTestConfig(t, nil)
	require.NoError(t, os.MkdirAll(cfg.Quotes.OutputDir, 0o755))

	out, err := runCLI(t, configPath, "quotes", "process")
	require.NoError(t, err)
	assert.Contains(t, out, "No quote files")
}

func TestAuthorsIndex(t *testing.T) {
	wiki := testsupport.NewFakeWiki(t)
	wiki.AddCategoryMember("Category:Authors-E", "Author:Shoghi Effendi")
	wiki.AddCategoryMember("Category:Authors-E", "Author:Editors")
	cfg, configPath := newTestConfig(t, func(c *config.Config) { c.Works.APIURL = wiki.URL() })
	require.NoError(t, os.MkdirAll(cfg.Import.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Import.OutputDir, "pages-from-cat-exclusion-list.txt"), []byte("Author:Editors\n"), 0o644))

	out, err := runCLI(t, configPath, "authors-index", "e")
	require.NoError(t, err)
	assert.Contains(t, out, "Listed 1 author(s) from 1 categor(ies)")
	text, err := os.ReadFile(filepath.Join(cfg.Import.OutputDir, "authors-index.txt"))
	require.NoError(t, err)
	assert.Equal(t, "==== E ====\n* [[Author:Shoghi Effendi|Effendi, Shoghi]]\n\n\n", string(text))

	_, err = runCLI(t, configPath, "authors-index", "--plain", "--output", "plain.txt")
	require.NoError(t, err)
	text, err = os.ReadFile(filepath.Join(cfg.Import.OutputDir, "plain.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Author:Shoghi Effendi\n", string(text))
}

func TestAuthorsIndexRejectsLongLetter(t *testing.T) {
	_, configPath := newTestConfig(t, nil)

	_, err := runCLI(t, configPath, "authors-index", "ab")
	assert.ErrorIs(t, err, services.ErrUsage)
}
