package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"bahaibot/internal/config"
	"bahaibot/internal/fileutil"
	"bahaibot/internal/logging"
	"bahaibot/internal/retry"
	"bahaibot/internal/services"
	"bahaibot/internal/textutil"
)

const maxPageBytes = 8 << 20

// Saved is one slide written to disk.
type Saved struct {
	Slide     Slide
	ImagePath string
	TextPath  string
	// ImageErr is set when the image could not be downloaded; the caption
	// file is still written.
	ImageErr error
}

// StoryResult reports one story.
type StoryResult struct {
	ID      int
	Exists  bool
	Saved   []Saved
	Skipped []int
	// Err ends the story early (network failure, unwritable output).
	Err error
}

// Summary aggregates a range run.
type Summary struct {
	Stories []StoryResult
}

// Images counts the slides saved across all stories.
func (s Summary) Images() int {
	n := 0
	for _, story := range s.Stories {
		n += len(story.Saved)
	}
	return n
}

// Scraper fetches stories from a news site.
type Scraper struct {
	BaseURL      string
	OutputDir    string
	UserAgent    string
	MaxFilename  int
	HTTPClient   *http.Client
	Retry        retry.Policy
	SlidePacer   *retry.Pacer
	ArticlePacer *retry.Pacer
	Logger       *slog.Logger
}

// New builds a scraper from the [scrape] section.
func New(cfg *config.Config, logger *slog.Logger) *Scraper {
	policy := retry.FromConfig(cfg.Retry)
	policy.OnRetry = logging.RetryHook(logging.NewComponentLogger(logger, "scrape"), "news fetch")
	return &Scraper{
		BaseURL:      cfg.Scrape.BaseURL,
		OutputDir:    cfg.Scrape.OutputDir,
		UserAgent:    cfg.Scrape.UserAgent,
		MaxFilename:  cfg.Scrape.FilenameMaxLength,
		HTTPClient:   &http.Client{Timeout: 60 * time.Second},
		Retry:        policy,
		SlidePacer:   retry.NewPacer(time.Duration(cfg.Scrape.SlideDelaySeconds) * time.Second),
		ArticlePacer: retry.NewPacer(time.Duration(cfg.Scrape.ArticleDelaySeconds) * time.Second),
		Logger:       logger,
	}
}

// Run processes stories start..end inclusive. Per-story failures are recorded
// in the summary; only cancellation and an invalid range return an error.
func (s *Scraper) Run(ctx context.Context, start, end int) (Summary, error) {
	if start < 1 || start > end {
		return Summary{}, services.Wrap(services.ErrUsage, "scrape", "range",
			fmt.Sprintf("start story id %d must be positive and not after %d", start, end), nil)
	}
	var summary Summary
	for id := start; id <= end; id++ {
		story := s.Story(ctx, id)
		summary.Stories = append(summary.Stories, story)
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.ArticlePacer.Wait(ctx); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// Story fetches the story page and, when it exists, walks its slides.
func (s *Scraper) Story(ctx context.Context, id int) StoryResult {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "scrape")).With(logging.Int("story", id))
	result := StoryResult{ID: id}

	status, _, err := s.fetch(ctx, fmt.Sprintf("%s/story/%d/", s.BaseURL, id))
	if err != nil {
		result.Err = err
		logging.WarnWithContext(logger, "story fetch failed", "scrape_failed", logging.Error(err), logging.String(logging.FieldImpact, "story skipped"))
		return result
	}
	if status != http.StatusOK {
		logger.Info("story does not exist", logging.Int("status", status))
		return result
	}
	result.Exists = true

	dir := filepath.Join(s.OutputDir, strconv.Itoa(id))
	taken := make(map[string]bool)
	for n := 1; ; n++ {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return result
		}
		pageURL := fmt.Sprintf("%s/story/%d/slideshow/%d/", s.BaseURL, id, n)
		status, body, err := s.fetch(ctx, pageURL)
		if err != nil {
			result.Err = err
			logging.WarnWithContext(logger, "slide fetch failed", "scrape_failed",
				logging.Int("slide", n), logging.Error(err), logging.String(logging.FieldImpact, "remaining slides skipped"))
			return result
		}
		if status != http.StatusOK {
			logger.Info("no more slides", logging.Int("slides", n-1))
			break
		}

		page, _ := url.Parse(pageURL)
		slide, ok, err := ParseSlide(bytes.NewReader(body), page)
		slide.Number = n
		if err != nil || !ok {
			result.Skipped = append(result.Skipped, n)
			logger.Info("slide skipped: missing caption or image", logging.Int("slide", n))
		} else {
			saved, err := s.save(ctx, dir, id, slide, taken)
			if err != nil {
				result.Err = err
				return result
			}
			result.Saved = append(result.Saved, saved)
			if saved.ImageErr != nil {
				logging.WarnWithContext(logger, "image download failed", "image_download_failed",
					logging.String("url", slide.ImageURL), logging.Error(saved.ImageErr),
					logging.String(logging.FieldImpact, "caption saved without image"))
			}
			logger.Info("slide saved", logging.Int("slide", n), logging.String("path", saved.TextPath))
		}
		if err := s.SlidePacer.Wait(ctx); err != nil {
			result.Err = err
			return result
		}
	}
	return result
}

func (s *Scraper) save(ctx context.Context, dir string, story int, slide Slide, taken map[string]bool) (Saved, error) {
	base := textutil.SanitizeFileName(slide.Caption, s.MaxFilename)
	if base == "" {
		base = fmt.Sprintf("slide_%d", slide.Number)
	}
	imagePath := fileutil.UniquePath(filepath.Join(dir, base+".jpg"), taken)
	saved := Saved{
		Slide:     slide,
		ImagePath: imagePath,
		TextPath:  imagePath[:len(imagePath)-len(".jpg")] + ".txt",
	}

	status, data, err := s.fetch(ctx, slide.ImageURL)
	switch {
	case err != nil:
		saved.ImageErr = err
	case status != http.StatusOK:
		saved.ImageErr = fmt.Errorf("image %s: http status %d", slide.ImageURL, status)
	default:
		if _, err := fileutil.WriteFile(imagePath, data); err != nil {
			return saved, err
		}
	}
	if saved.ImageErr != nil {
		saved.ImagePath = ""
	}
	if _, err := fileutil.WriteFile(saved.TextPath, []byte(CaptionPage(slide.Caption, story))); err != nil {
		return saved, err
	}
	return saved, nil
}

// fetch GETs url. Transport failures and 408, 429 and 5xx responses are
// retried under s.Retry and returned as errors once attempts run out. Any other
// status is returned to the caller with a nil body.
func (s *Scraper) fetch(ctx context.Context, rawURL string) (int, []byte, error) {
	var (
		status int
		body   []byte
	)
	err := s.Retry.Do(ctx, "fetch "+rawURL, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
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
		status = resp.StatusCode
		if status != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
			body = nil
			if transientStatus(status) {
				return retry.NewStatusError(resp, snippet)
			}
			return nil
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxPageBytes*4))
		return err
	})
	if err != nil {
		return status, nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	return status, body, nil
}

func transientStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}
