package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeWikibase()
	c.normalizeWorks()
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeIdentifiers()
	if err := c.normalizeImport(); err != nil {
		return err
	}
	if err := c.normalizeScrape(); err != nil {
		return err
	}
	if err := c.normalizeQuotes(); err != nil {
		return err
	}
	if err := c.normalizeLLM(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeWikibase() {
	c.Wikibase.APIURL = strings.TrimSpace(c.Wikibase.APIURL)
	if c.Wikibase.APIURL == "" {
		c.Wikibase.APIURL = defaultWikibaseAPIURL
	}
	c.Wikibase.UserAgent = strings.TrimSpace(c.Wikibase.UserAgent)
	if c.Wikibase.UserAgent == "" {
		c.Wikibase.UserAgent = defaultUserAgent
	}
	c.Wikibase.Language = strings.ToLower(strings.TrimSpace(c.Wikibase.Language))
	if c.Wikibase.Language == "" {
		c.Wikibase.Language = defaultLanguage
	}
	c.Wikibase.Username = strings.TrimSpace(c.Wikibase.Username)
	if c.Wikibase.Username == "" {
		if value, ok := os.LookupEnv("WIKIBASE_USERNAME"); ok {
			c.Wikibase.Username = strings.TrimSpace(value)
		}
	}
	if c.Wikibase.Password == "" {
		if value, ok := os.LookupEnv("WIKIBASE_PASSWORD"); ok {
			c.Wikibase.Password = value
		}
	}
	if c.Wikibase.TimeoutSeconds <= 0 {
		c.Wikibase.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeWorks() {
	c.Works.APIURL = strings.TrimSpace(c.Works.APIURL)
	if c.Works.APIURL == "" {
		c.Works.APIURL = defaultWorksAPIURL
	}
	c.Works.SitelinkSite = strings.TrimSpace(c.Works.SitelinkSite)
	if c.Works.SitelinkSite == "" {
		c.Works.SitelinkSite = defaultSitelinkSite
	}
	c.Works.EditSummary = strings.TrimSpace(c.Works.EditSummary)
	if c.Works.EditSummary == "" {
		c.Works.EditSummary = defaultEditSummary
	}
	c.Works.Username = strings.TrimSpace(c.Works.Username)
	if c.Works.Username == "" {
		if value, ok := os.LookupEnv("WORKS_USERNAME"); ok {
			c.Works.Username = strings.TrimSpace(value)
		}
	}
	if c.Works.Password == "" {
		if value, ok := os.LookupEnv("WORKS_PASSWORD"); ok {
			c.Works.Password = value
		}
	}
}

func (c *Config) normalizeStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = StoreWikibase
	}
	if strings.TrimSpace(c.Store.SQLitePath) == "" {
		c.Store.SQLitePath = defaultSQLitePath
	}
	var err error
	if c.Store.SQLitePath, err = expandPath(c.Store.SQLitePath); err != nil {
		return fmt.Errorf("store.sqlite_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeIdentifiers() {
	for _, field := range c.propertyFields() {
		*field.value = strings.ToUpper(strings.TrimSpace(*field.value))
	}
	c.Items.WrittenWork = strings.ToUpper(strings.TrimSpace(c.Items.WrittenWork))
	c.Items.Human = strings.ToUpper(strings.TrimSpace(c.Items.Human))
}

func (c *Config) normalizeImport() error {
	if c.Import.MaxPositions <= 0 {
		c.Import.MaxPositions = defaultMaxPositions
	}
	if strings.TrimSpace(c.Import.OutputDir) == "" {
		c.Import.OutputDir = defaultOutputDir
	}
	var err error
	if c.Import.OutputDir, err = expandPath(c.Import.OutputDir); err != nil {
		return fmt.Errorf("import.output_dir: %w", err)
	}
	c.Import.BooksLog = defaultString(c.Import.BooksLog, defaultBooksLog)
	c.Import.ArticlesLog = defaultString(c.Import.ArticlesLog, defaultArticlesLog)
	c.Import.PersonsLog = defaultString(c.Import.PersonsLog, defaultPersonsLog)
	c.Import.CreatedLog = defaultString(c.Import.CreatedLog, defaultCreatedLog)
	return nil
}

func (c *Config) normalizeScrape() error {
	c.Scrape.BaseURL = strings.TrimRight(strings.TrimSpace(c.Scrape.BaseURL), "/")
	if c.Scrape.BaseURL == "" {
		c.Scrape.BaseURL = defaultScrapeBaseURL
	}
	c.Scrape.UserAgent = defaultString(c.Scrape.UserAgent, c.Wikibase.UserAgent)
	if strings.TrimSpace(c.Scrape.OutputDir) == "" {
		c.Scrape.OutputDir = defaultScrapeOutputDir
	}
	var err error
	if c.Scrape.OutputDir, err = expandPath(c.Scrape.OutputDir); err != nil {
		return fmt.Errorf("scrape.output_dir: %w", err)
	}
	if c.Scrape.FilenameMaxLength <= 0 {
		c.Scrape.FilenameMaxLength = defaultFilenameMaxLength
	}
	return nil
}

func (c *Config) normalizeQuotes() error {
	c.Quotes.SearchURL = defaultString(c.Quotes.SearchURL, defaultQuotesSearchURL)
	c.Quotes.Authorization = strings.TrimSpace(c.Quotes.Authorization)
	if c.Quotes.Authorization == "" {
		if value, ok := os.LookupEnv("QUOTES_AUTHORIZATION"); ok {
			c.Quotes.Authorization = strings.TrimSpace(value)
		}
	}
	c.Quotes.UserAgent = defaultString(c.Quotes.UserAgent, c.Wikibase.UserAgent)
	if c.Quotes.BatchSize <= 0 {
		c.Quotes.BatchSize = defaultQuotesBatchSize
	}
	var err error
	if c.Quotes.OutputDir, err = expandPath(defaultString(c.Quotes.OutputDir, defaultQuotesOutputDir)); err != nil {
		return fmt.Errorf("quotes.output_dir: %w", err)
	}
	if c.Quotes.KeywordsFile, err = expandPath(defaultString(c.Quotes.KeywordsFile, defaultQuotesKeywordsFile)); err != nil {
		return fmt.Errorf("quotes.keywords_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() error {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = defaultString(c.LLM.BaseURL, defaultLLMBaseURL)
	c.LLM.Model = defaultString(c.LLM.Model, defaultLLMModel)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultTimeoutSeconds
	}
	if strings.TrimSpace(c.LLM.OutputDir) == "" {
		c.LLM.OutputDir = defaultLLMOutputDir
	}
	var err error
	if c.LLM.OutputDir, err = expandPath(c.LLM.OutputDir); err != nil {
		return fmt.Errorf("llm.output_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

type propertyField struct {
	key   string
	value *string
}

func (c *Config) propertyFields() []propertyField {
	p := &c.Properties
	return []propertyField{
		{"instance_of", &p.InstanceOf},
		{"title", &p.Title},
		{"author", &p.Author},
		{"authored", &p.Authored},
		{"editor", &p.Editor},
		{"edited", &p.Edited},
		{"translator", &p.Translator},
		{"translated", &p.Translated},
		{"image", &p.Image},
		{"publication_date", &p.PublicationDate},
		{"publisher", &p.Publisher},
		{"country", &p.Country},
		{"pages", &p.Pages},
		{"isbn10", &p.ISBN10},
		{"isbn13", &p.ISBN13},
		{"part_of_issue", &p.PartOfIssue},
		{"issue_has_article", &p.IssueHasArticle},
		{"volume", &p.Volume},
		{"birth_date", &p.BirthDate},
		{"death_date", &p.DeathDate},
		{"position_held", &p.PositionHeld},
		{"start_time", &p.StartTime},
		{"end_time", &p.EndTime},
	}
}
