package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"bahaibot/internal/config"
	"bahaibot/internal/testsupport"
)

var bookHeader = []string{"TITLE", "FULL_TITLE", "AUTHOR", "COVER_IMAGE", "TRANSLATOR", "EDITOR", "PUBLISHER", "COUNTRY", "PUBYEAR", "PAGES", "ISBN10", "ISBN13"}

// newTestConfig writes a config using the rehearsal database and returns it
// with its path. mutate runs before the file is written.
func newTestConfig(t *testing.T, mutate func(*config.Config)) (*config.Config, string) {
	t.Helper()
	t.Setenv("WIKIBASE_USERNAME", "")
	t.Setenv("WORKS_USERNAME", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QUOTES_AUTHORIZATION", "")
	cfg := testsupport.NewConfig(t, testsupport.WithStoreBackend(config.StoreSQLite))
	cfg.Scrape.SlideDelaySeconds = 0
	cfg.Scrape.ArticleDelaySeconds = 0
	if mutate != nil {
		mutate(cfg)
	}
	return cfg, testsupport.WriteConfigFile(t, cfg)
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func writeBooks(t *testing.T, rows ...[]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.csv")
	testsupport.WriteCSV(t, path, true, bookHeader, rows...)
	return path
}

func dawnBreakers() []string {
	return []string{"The Dawn-Breakers", "The Dawn-Breakers: Nabíl's Narrative", "Nabíl-i-Zarandí", "Dawn-Breakers.jpg",
		"", "", "Bahá'í Publishing Trust", "United States", "1932", "685", "", "9780877430209"}
}
