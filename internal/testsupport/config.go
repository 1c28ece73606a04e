package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"bahaibot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Retries are reduced to a single attempt.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Import.OutputDir = filepath.Join(base, "out")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Store.SQLitePath = filepath.Join(base, "rehearsal.db")
	cfgVal.Scrape.OutputDir = filepath.Join(base, "scrape")
	cfgVal.LLM.OutputDir = filepath.Join(base, "bios")
	cfgVal.Quotes.OutputDir = filepath.Join(base, "quotes")
	cfgVal.Quotes.KeywordsFile = filepath.Join(base, "keyword_filter.txt")
	cfgVal.Retry.MaxAttempts = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithWikibase points the knowledge-base endpoint at apiURL.
func WithWikibase(apiURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Wikibase.APIURL = apiURL
	}
}

// WithWorks points the page wiki endpoint at apiURL.
func WithWorks(apiURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Works.APIURL = apiURL
	}
}

// WithStoreBackend selects the store backend.
func WithStoreBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = backend
	}
}

// WithLLM points the completion client at baseURL with a dummy key.
func WithLLM(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = baseURL
		b.cfg.LLM.APIKey = "test-key"
	}
}

// WithQuotes points the library search at searchURL with unpaced requests.
func WithQuotes(searchURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Quotes.SearchURL = searchURL
		b.cfg.Quotes.Authorization = "Basic dGVzdDp0ZXN0"
		b.cfg.Quotes.BatchDelaySeconds = 0
		b.cfg.Quotes.KeywordDelaySeconds = 0
	}
}

// WithImportOutput places audit logs under a named subdirectory of the temp root.
func WithImportOutput(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Import.OutputDir = filepath.Join(b.baseDir, dir)
	}
}

// WriteConfigFile encodes cfg as TOML next to its temp directories and returns
// the file path, for tests that load configuration the way the CLI does.
func WriteConfigFile(t testing.TB, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(filepath.Dir(cfg.Import.OutputDir), "config.toml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
