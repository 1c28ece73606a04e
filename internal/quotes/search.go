package quotes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/antonholmquist/jason"

	"bahaibot/internal/config"
	"bahaibot/internal/fileutil"
	"bahaibot/internal/logging"
	"bahaibot/internal/retry"
	"bahaibot/internal/services"
)

// Quote is one search hit. The same shape is read back by Group.
type Quote struct {
	Title    string `json:"title"`
	Location string `json:"location"`
	Quote    string `json:"quote"`
}

// KeywordResult reports one keyword of a search run.
type KeywordResult struct {
	Keyword string
	Quotes  int
	Path    string
	Err     error
}

// Summary aggregates a search run.
type Summary struct {
	Query    string
	Keywords []KeywordResult
}

// Saved counts the quotes written across all keywords.
func (s Summary) Saved() int {
	n := 0
	for _, k := range s.Keywords {
		if k.Path != "" {
			n += k.Quotes
		}
	}
	return n
}

// Failed lists keywords whose search ended with an error.
func (s Summary) Failed() []KeywordResult {
	var failed []KeywordResult
	for _, k := range s.Keywords {
		if k.Err != nil {
			failed = append(failed, k)
		}
	}
	return failed
}

// Searcher queries the library search endpoint.
type Searcher struct {
	Endpoint      string
	Authorization string
	UserAgent     string
	BatchSize     int
	OutputDir     string
	HTTPClient    *http.Client
	Retry         retry.Policy
	// BatchPacer waits between result pages of one keyword.
	BatchPacer *retry.Pacer
	// KeywordPacer waits between keywords.
	KeywordPacer *retry.Pacer
	Logger       *slog.Logger
}

// New builds a searcher from the [quotes] and [retry] sections. Page waits
// spread over 1x..3x the configured delay, keyword waits over 1x..1.33x.
func New(cfg *config.Config, logger *slog.Logger) *Searcher {
	batch := retry.NewPacer(time.Duration(cfg.Quotes.BatchDelaySeconds) * time.Second)
	batch.Jitter = 2
	keyword := retry.NewPacer(time.Duration(cfg.Quotes.KeywordDelaySeconds) * time.Second)
	keyword.Jitter = 0.33
	policy := retry.FromConfig(cfg.Retry)
	policy.OnRetry = logging.RetryHook(logging.NewComponentLogger(logger, "quotes"), "quote search")
	return &Searcher{
		Endpoint:      cfg.Quotes.SearchURL,
		Authorization: cfg.Quotes.Authorization,
		UserAgent:     cfg.Quotes.UserAgent,
		BatchSize:     cfg.Quotes.BatchSize,
		OutputDir:     cfg.Quotes.OutputDir,
		HTTPClient:    &http.Client{Timeout: 60 * time.Second},
		Retry:         policy,
		BatchPacer:    batch,
		KeywordPacer:  keyword,
		Logger:        logger,
	}
}

// LoadKeywords reads one keyword per non-blank line.
func LoadKeywords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrUsage, "quotes", "load keywords", fmt.Sprintf("keyword file '%s' not found", path), nil)
		}
		return nil, fmt.Errorf("read keyword file: %w", err)
	}
	var keywords []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			keywords = append(keywords, line)
		}
	}
	return keywords, nil
}

// FileName is the result file for query within keyword. Separators in the
// query become dashes so the keyword can be recovered after the first
// underscore.
func FileName(query, keyword string) string {
	token := strings.Map(func(r rune) rune {
		if r == '_' || r == '/' || r == '\\' || unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(query))
	return token + "_" + keyword + ".txt"
}

// Run searches query within every keyword and writes each non-empty result set
// to OutputDir. A failed keyword is recorded and the run continues; only
// cancellation and unwritable output return an error.
func (s *Searcher) Run(ctx context.Context, query string, keywords []string) (Summary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Summary{}, services.Wrap(services.ErrUsage, "quotes", "search", "query is empty", nil)
	}
	if len(keywords) == 0 {
		return Summary{}, services.Wrap(services.ErrUsage, "quotes", "search", "no keywords to search", nil)
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "quotes"))
	summary := Summary{Query: query}
	logger.Info("quote search started", logging.String("query", query), logging.Strings("keywords", keywords))
	for i, keyword := range keywords {
		found, err := s.Search(ctx, query, keyword)
		result := KeywordResult{Keyword: keyword, Quotes: len(found), Err: err}
		if err != nil {
			logging.WarnWithContext(logger, "keyword search failed", "quote_search_failed",
				logging.String("keyword", keyword),
				logging.Int("quotes", len(found)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "partial results saved"))
		}
		if len(found) > 0 {
			path := filepath.Join(s.OutputDir, FileName(query, keyword))
			if err := writeQuotes(path, found); err != nil {
				summary.Keywords = append(summary.Keywords, result)
				return summary, err
			}
			result.Path = path
			logger.Info("quotes saved", logging.String("keyword", keyword), logging.Int("quotes", len(found)), logging.String("path", path))
		}
		summary.Keywords = append(summary.Keywords, result)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return summary, ctxErr
		}
		if i < len(keywords)-1 {
			if err := s.KeywordPacer.Wait(ctx); err != nil {
				return summary, err
			}
		}
	}
	return summary, nil
}

// Search pages through every hit for query restricted to keyword. Hits
// gathered before a failure are returned with the error.
func (s *Searcher) Search(ctx context.Context, query, keyword string) ([]Quote, error) {
	size := s.BatchSize
	if size <= 0 {
		size = 50
	}
	var all []Quote
	for from := 0; ; from += size {
		page, err := s.page(ctx, query, keyword, from, size)
		if err != nil {
			return all, err
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		if err := s.BatchPacer.Wait(ctx); err != nil {
			return all, err
		}
	}
}

func (s *Searcher) page(ctx context.Context, query, keyword string, from, size int) ([]Quote, error) {
	payload, err := json.Marshal(searchRequest(query, keyword, from, size))
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	var quotes []Quote
	err = s.Retry.Do(ctx, "quote search "+keyword, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.Authorization != "" {
			req.Header.Set("Authorization", s.Authorization)
		}
		if s.UserAgent != "" {
			req.Header.Set("User-Agent", s.UserAgent)
		}
		client := s.HTTPClient
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			statusErr := retry.NewStatusError(resp, body)
			if retry.IsRetriable(statusErr) {
				return statusErr
			}
			return services.Wrap(services.ErrRemote, "quotes", "search", "keyword "+keyword, statusErr)
		}
		obj, err := jason.NewObjectFromReader(resp.Body)
		if err != nil {
			return services.Wrap(services.ErrRemote, "quotes", "search", "response is not JSON", err)
		}
		quotes = decodeHits(obj)
		return nil
	})
	return quotes, err
}

// decodeHits reads hits.hits[]._source. A response without hits is an empty
// page.
func decodeHits(obj *jason.Object) []Quote {
	hits, err := obj.GetObjectArray("hits", "hits")
	if err != nil {
		return nil
	}
	quotes := make([]Quote, 0, len(hits))
	for _, hit := range hits {
		source, err := hit.GetObject("_source")
		if err != nil {
			continue
		}
		title, _ := source.GetString("title")
		location, _ := source.GetString("location")
		content, _ := source.GetString("content_en")
		quotes = append(quotes, Quote{Title: title, Location: location, Quote: content})
	}
	return quotes
}

func searchRequest(query, keyword string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"query_string": map[string]any{
						"query":            query,
						"fields":           []string{"content_en.en_norm^10", "content_en.en_norm_stem"},
						"default_operator": "AND",
					},
				},
				"should": map[string]any{
					"multi_match": map[string]any{
						"query":    query,
						"type":     "phrase",
						"operator": "and",
						"fields":   []string{"content_en.en_norm^100", "content_en.en_norm_stem^50"},
					},
				},
				"filter": map[string]any{
					"term": map[string]string{"unit": "para"},
				},
			},
		},
		"post_filter": map[string]any{
			"bool": map[string]any{
				"filter": []any{map[string]any{"term": map[string]string{"keywords": keyword}}},
			},
		},
		"sort": map[string]string{"_score": "desc"},
		"from": from,
		"size": size,
	}
}

func writeQuotes(path string, quotes []Quote) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(quotes); err != nil {
		return fmt.Errorf("encode quotes: %w", err)
	}
	if _, err := fileutil.WriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
