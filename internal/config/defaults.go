package config

const (
	StoreWikibase = "wikibase"
	StoreSQLite   = "sqlite"
)

const (
	defaultWikibaseAPIURL      = "https://bahaidata.org/api.php"
	defaultWorksAPIURL         = "https://bahai.works/api.php"
	defaultUserAgent           = "bahaibot/1.0 (https://bahaidata.org)"
	defaultLanguage            = "en"
	defaultTimeoutSeconds      = 60
	defaultSitelinkSite        = "works"
	defaultEditSummary         = "Text modified using language model"
	defaultSQLitePath          = "~/.local/share/bahaibot/rehearsal.db"
	defaultMaxPositions        = 7
	defaultOutputDir           = "."
	defaultBooksLog            = "needed-books.txt"
	defaultArticlesLog         = "imported-articles.txt"
	defaultPersonsLog          = "person_update_log.txt"
	defaultCreatedLog          = "needed-authors.txt"
	defaultRetryMaxAttempts    = 5
	defaultRetryBaseDelayMS    = 1000
	defaultRetryMaxDelayMS     = 30000
	defaultRetryJitter         = 0.2
	defaultScrapeBaseURL       = "https://news.bahai.org"
	defaultScrapeOutputDir     = "output"
	defaultSlideDelaySeconds   = 15
	defaultArticleDelaySeconds = 30
	defaultFilenameMaxLength   = 55
	defaultQuotesSearchURL     = "https://f4e3b80fb962746a74ba859b4b27e7d6.us-east-1.aws.found.io/library/_search"
	defaultQuotesOutputDir     = "quotes_output"
	defaultQuotesKeywordsFile  = "keyword_filter.txt"
	defaultQuotesBatchSize     = 50
	defaultBatchDelaySeconds   = 10
	defaultKeywordDelaySeconds = 15
	defaultLLMBaseURL          = "https://api.openai.com/v1"
	defaultLLMModel            = "gpt-4-turbo"
	defaultLLMOutputDir        = "bios_output"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogDir              = "~/.local/share/bahaibot/logs"
)

// Default returns a Config populated with repository defaults. Property and item
// identifiers match the bahaidata.org schema.
func Default() Config {
	return Config{
		Wikibase: Wikibase{
			APIURL:         defaultWikibaseAPIURL,
			UserAgent:      defaultUserAgent,
			Language:       defaultLanguage,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Works: Works{
			APIURL:       defaultWorksAPIURL,
			SitelinkSite: defaultSitelinkSite,
			EditSummary:  defaultEditSummary,
		},
		Store: Store{
			Backend:    StoreWikibase,
			SQLitePath: defaultSQLitePath,
		},
		Properties: Properties{
			InstanceOf:      "P12",
			Title:           "P47",
			Author:          "P10",
			Authored:        "P11",
			Editor:          "P14",
			Edited:          "P15",
			Image:           "P35",
			PublicationDate: "P29",
			Publisher:       "P26",
			Country:         "P48",
			Pages:           "P6",
			ISBN10:          "P31",
			ISBN13:          "P49",
			PartOfIssue:     "P7",
			IssueHasArticle: "P4",
			Volume:          "P8",
			BirthDate:       "P16",
			DeathDate:       "P17",
			PositionHeld:    "P55",
			StartTime:       "P56",
			EndTime:         "P57",
		},
		Items: Items{
			WrittenWork: "Q4581",
			Human:       "Q100",
		},
		Import: Import{
			PersonsFailFast: true,
			MaxPositions:    defaultMaxPositions,
			OutputDir:       defaultOutputDir,
			BooksLog:        defaultBooksLog,
			ArticlesLog:     defaultArticlesLog,
			PersonsLog:      defaultPersonsLog,
			CreatedLog:      defaultCreatedLog,
		},
		Retry: Retry{
			MaxAttempts: defaultRetryMaxAttempts,
			BaseDelayMS: defaultRetryBaseDelayMS,
			MaxDelayMS:  defaultRetryMaxDelayMS,
			Jitter:      defaultRetryJitter,
		},
		Scrape: Scrape{
			BaseURL:             defaultScrapeBaseURL,
			UserAgent:           defaultUserAgent,
			OutputDir:           defaultScrapeOutputDir,
			SlideDelaySeconds:   defaultSlideDelaySeconds,
			ArticleDelaySeconds: defaultArticleDelaySeconds,
			FilenameMaxLength:   defaultFilenameMaxLength,
		},
		Quotes: Quotes{
			SearchURL:           defaultQuotesSearchURL,
			OutputDir:           defaultQuotesOutputDir,
			KeywordsFile:        defaultQuotesKeywordsFile,
			BatchSize:           defaultQuotesBatchSize,
			BatchDelaySeconds:   defaultBatchDelaySeconds,
			KeywordDelaySeconds: defaultKeywordDelaySeconds,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultTimeoutSeconds,
			OutputDir:      defaultLLMOutputDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
