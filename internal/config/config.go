package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Wikibase contains connection settings for the knowledge-base API (bahaidata.org).
type Wikibase struct {
	APIURL         string `toml:"api_url"`
	UserAgent      string `toml:"user_agent"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Works contains connection settings for the page wiki that receives sitelinks,
// author pages, and caption edits (bahai.works, bahai.media).
type Works struct {
	APIURL       string `toml:"api_url"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	SitelinkSite string `toml:"sitelink_site"`
	EditSummary  string `toml:"edit_summary"`
}

// Store selects the backend used by the import workflows.
type Store struct {
	// Backend is "wikibase" (remote API) or "sqlite" (local rehearsal database).
	Backend    string `toml:"backend"`
	SQLitePath string `toml:"sqlite_path"`
}

// Properties maps the roles used by the import workflows to schema-specific
// property identifiers. An empty value disables the role.
type Properties struct {
	InstanceOf      string `toml:"instance_of"`
	Title           string `toml:"title"`
	Author          string `toml:"author"`
	Authored        string `toml:"authored"`
	Editor          string `toml:"editor"`
	Edited          string `toml:"edited"`
	Translator      string `toml:"translator"`
	Translated      string `toml:"translated"`
	Image           string `toml:"image"`
	PublicationDate string `toml:"publication_date"`
	Publisher       string `toml:"publisher"`
	Country         string `toml:"country"`
	Pages           string `toml:"pages"`
	ISBN10          string `toml:"isbn10"`
	ISBN13          string `toml:"isbn13"`
	PartOfIssue     string `toml:"part_of_issue"`
	IssueHasArticle string `toml:"issue_has_article"`
	Volume          string `toml:"volume"`
	BirthDate       string `toml:"birth_date"`
	DeathDate       string `toml:"death_date"`
	PositionHeld    string `toml:"position_held"`
	StartTime       string `toml:"start_time"`
	EndTime         string `toml:"end_time"`
}

// Items holds fixed value identifiers referenced by the workflows.
type Items struct {
	WrittenWork string `toml:"written_work"`
	Human       string `toml:"human"`
}

// Import contains batch policy and output settings for the import workflows.
type Import struct {
	BooksFailFast    bool   `toml:"books_fail_fast"`
	ArticlesFailFast bool   `toml:"articles_fail_fast"`
	PersonsFailFast  bool   `toml:"persons_fail_fast"`
	MaxPositions     int    `toml:"max_positions"`
	OutputDir        string `toml:"output_dir"`
	BooksLog         string `toml:"books_log"`
	ArticlesLog      string `toml:"articles_log"`
	PersonsLog       string `toml:"persons_log"`
	CreatedLog       string `toml:"created_log"`
}

// Retry contains the shared backoff policy applied to remote calls.
type Retry struct {
	MaxAttempts int     `toml:"max_attempts"`
	BaseDelayMS int     `toml:"base_delay_ms"`
	MaxDelayMS  int     `toml:"max_delay_ms"`
	Jitter      float64 `toml:"jitter"`
}

// Scrape contains settings for the news slideshow scraper.
type Scrape struct {
	BaseURL             string `toml:"base_url"`
	UserAgent           string `toml:"user_agent"`
	OutputDir           string `toml:"output_dir"`
	SlideDelaySeconds   int    `toml:"slide_delay_seconds"`
	ArticleDelaySeconds int    `toml:"article_delay_seconds"`
	FilenameMaxLength   int    `toml:"filename_max_length"`
}

// Quotes contains settings for the library quote search.
type Quotes struct {
	SearchURL           string `toml:"search_url"`
	Authorization       string `toml:"authorization"`
	UserAgent           string `toml:"user_agent"`
	OutputDir           string `toml:"output_dir"`
	KeywordsFile        string `toml:"keywords_file"`
	BatchSize           int    `toml:"batch_size"`
	BatchDelaySeconds   int    `toml:"batch_delay_seconds"`
	KeywordDelaySeconds int    `toml:"keyword_delay_seconds"`
}

// LLM contains completion API settings used by the caption workflows.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	OutputDir      string `toml:"output_dir"`
}

// Logging contains configuration for diagnostic log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for bahaibot.
//
// Configuration sections by subsystem:
//   - Wikibase: knowledge-base endpoint and bot credentials
//   - Works: page wiki endpoint, credentials, and sitelink site id
//   - Store: remote or local store backend
//   - Properties/Items: property-ID mapping table
//   - Import: fail-fast policy and audit log locations
//   - Retry: backoff policy for remote calls
//   - Scrape: news slideshow scraper pacing and output
//   - Quotes: library search endpoint, pacing, and keyword list
//   - LLM: completion API for caption rewriting
//   - Logging: log format, level, and directory
type Config struct {
	Wikibase   Wikibase   `toml:"wikibase"`
	Works      Works      `toml:"works"`
	Store      Store      `toml:"store"`
	Properties Properties `toml:"properties"`
	Items      Items      `toml:"items"`
	Import     Import     `toml:"import"`
	Retry      Retry      `toml:"retry"`
	Scrape     Scrape     `toml:"scrape"`
	Quotes     Quotes     `toml:"quotes"`
	LLM        LLM        `toml:"llm"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bahaibot/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Dotenv files in the working directory are
// loaded first so credentials can stay out of the TOML file.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if _, err := LoadEnv([]string{".env", ".env.local"}); err != nil {
		return nil, "", false, fmt.Errorf("load env files: %w", err)
	}

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bahaibot.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and log directories used by the workflows.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Import.OutputDir, c.Logging.Dir}
	if c.Store.Backend == StoreSQLite && c.Store.SQLitePath != "" {
		dirs = append(dirs, filepath.Dir(c.Store.SQLitePath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ImportLogPath resolves an audit log file name against the import output directory.
func (c *Config) ImportLogPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Import.OutputDir, name)
}

// HasWikibaseCredentials reports whether a bot login is configured for the knowledge base.
func (c *Config) HasWikibaseCredentials() bool {
	return c.Wikibase.Username != "" && c.Wikibase.Password != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy with secrets masked, suitable for printing.
func (c *Config) Redacted() Config {
	clone := *c
	clone.Wikibase.Password = mask(clone.Wikibase.Password)
	clone.Works.Password = mask(clone.Works.Password)
	clone.LLM.APIKey = mask(clone.LLM.APIKey)
	clone.Quotes.Authorization = mask(clone.Quotes.Authorization)
	return clone
}

func mask(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}
