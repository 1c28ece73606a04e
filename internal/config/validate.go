package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

var (
	propertyIDPattern = regexp.MustCompile(`^P[1-9][0-9]*$`)
	itemIDPattern     = regexp.MustCompile(`^Q[1-9][0-9]*$`)
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEndpoints(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateIdentifiers(); err != nil {
		return err
	}
	if err := c.validateImport(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateScrape(); err != nil {
		return err
	}
	if c.Quotes.BatchDelaySeconds < 0 || c.Quotes.KeywordDelaySeconds < 0 {
		return errors.New("quotes delays must be non-negative")
	}
	return nil
}

func (c *Config) validateEndpoints() error {
	for key, raw := range map[string]string{
		"wikibase.api_url":  c.Wikibase.APIURL,
		"works.api_url":     c.Works.APIURL,
		"scrape.base_url":   c.Scrape.BaseURL,
		"quotes.search_url": c.Quotes.SearchURL,
		"llm.base_url":      c.LLM.BaseURL,
	} {
		parsed, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreWikibase:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path must be set when store.backend is sqlite")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", StoreWikibase, StoreSQLite, c.Store.Backend)
	}
	return nil
}

func (c *Config) validateIdentifiers() error {
	for _, field := range c.propertyFields() {
		if *field.value == "" {
			continue
		}
		if !propertyIDPattern.MatchString(*field.value) {
			return fmt.Errorf("properties.%s must look like P123, got %q", field.key, *field.value)
		}
	}
	required := map[string]string{
		"instance_of":   c.Properties.InstanceOf,
		"author":        c.Properties.Author,
		"authored":      c.Properties.Authored,
		"position_held": c.Properties.PositionHeld,
	}
	for key, value := range required {
		if value == "" {
			return fmt.Errorf("properties.%s must be set", key)
		}
	}
	for key, value := range map[string]string{
		"written_work": c.Items.WrittenWork,
		"human":        c.Items.Human,
	} {
		if !itemIDPattern.MatchString(value) {
			return fmt.Errorf("items.%s must look like Q123, got %q", key, value)
		}
	}
	return nil
}

func (c *Config) validateImport() error {
	if c.Import.MaxPositions > 50 {
		return errors.New("import.max_positions must be 50 or less")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Retry.BaseDelayMS < 0 || c.Retry.MaxDelayMS < 0 {
		return errors.New("retry delays must be non-negative")
	}
	if c.Retry.MaxDelayMS > 0 && c.Retry.MaxDelayMS < c.Retry.BaseDelayMS {
		return errors.New("retry.max_delay_ms must be >= retry.base_delay_ms")
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		return errors.New("retry.jitter must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateScrape() error {
	if c.Scrape.SlideDelaySeconds < 0 || c.Scrape.ArticleDelaySeconds < 0 {
		return errors.New("scrape delays must be non-negative")
	}
	if c.Scrape.FilenameMaxLength <= len(".jpg") {
		return fmt.Errorf("scrape.filename_max_length must exceed %d", len(".jpg"))
	}
	return nil
}
