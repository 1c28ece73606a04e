package captions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"bahaibot/internal/fileutil"
	"bahaibot/internal/llm"
	"bahaibot/internal/logging"
	"bahaibot/internal/services"
	"bahaibot/internal/textutil"
)

// Wiki is the page-wiki surface used by the caption workflows.
type Wiki interface {
	CategoryMembers(ctx context.Context, category, namespace string) ([]string, error)
	PageText(ctx context.Context, title string) (string, error)
	EditPage(ctx context.Context, title, text, summary string) error
}

// Completer sends one instruction plus page text to the completion API.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, text string) (string, error)
	CompleteJSON(ctx context.Context, systemPrompt, text string) (string, error)
}

// Outcome classifies what happened to one page.
type Outcome string

const (
	OutcomeEdited    Outcome = "edited"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSaved     Outcome = "saved"
	OutcomeEmpty     Outcome = "empty"
	OutcomeFailed    Outcome = "failed"
)

// PageResult records the outcome for one page.
type PageResult struct {
	Title   string
	Outcome Outcome
	// Path is the JSON file written by Extractor.
	Path string
	Err  error
}

// Result lists per-page outcomes in category order.
type Result struct {
	Category string
	Pages    []PageResult
}

// Count returns how many pages ended with outcome.
func (r Result) Count(outcome Outcome) int {
	n := 0
	for _, p := range r.Pages {
		if p.Outcome == outcome {
			n++
		}
	}
	return n
}

// Rewriter replaces page text with the model's rewrite.
type Rewriter struct {
	Wiki      Wiki
	LLM       Completer
	Prompt    string
	Summary   string
	Namespace string
	Logger    *slog.Logger
}

// Run rewrites every page in category. Pages whose rewrite fails keep their
// original text and are reported as failed; identical replies are not saved.
func (r *Rewriter) Run(ctx context.Context, category string) (Result, error) {
	logger := logging.NewComponentLogger(r.Logger, "captions")
	if strings.TrimSpace(r.Prompt) == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "captions", "rewrite", "prompt required", nil)
	}
	titles, err := members(ctx, r.Wiki, category, r.Namespace)
	if err != nil {
		return Result{Category: category}, err
	}
	result := Result{Category: category}
	for _, title := range titles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		page := r.rewrite(ctx, logger, title)
		result.Pages = append(result.Pages, page)
	}
	logger.Info("category rewritten",
		logging.String("category", category),
		logging.Int("edited", result.Count(OutcomeEdited)),
		logging.Int("unchanged", result.Count(OutcomeUnchanged)),
		logging.Int("failed", result.Count(OutcomeFailed)),
	)
	return result, nil
}

func (r *Rewriter) rewrite(ctx context.Context, logger *slog.Logger, title string) PageResult {
	original, err := r.Wiki.PageText(ctx, title)
	if err != nil {
		return failed(logger, title, "page read failed", err)
	}
	if strings.TrimSpace(original) == "" {
		return PageResult{Title: title, Outcome: OutcomeEmpty}
	}
	logger.Debug("requesting rewrite", logging.String("title", title))
	updated, err := r.LLM.Complete(ctx, r.Prompt, original)
	if err != nil {
		return failed(logger, title, "rewrite request failed", err)
	}
	if updated == original {
		return PageResult{Title: title, Outcome: OutcomeUnchanged}
	}
	if err := r.Wiki.EditPage(ctx, title, updated, r.Summary); err != nil {
		return failed(logger, title, "page save failed", err)
	}
	logger.Info("page rewritten", logging.String("title", title))
	return PageResult{Title: title, Outcome: OutcomeEdited}
}

// Extractor writes one JSON object per page.
type Extractor struct {
	Wiki      Wiki
	LLM       Completer
	Prompt    string
	OutputDir string
	Namespace string
	Logger    *slog.Logger
}

// Run extracts every non-empty page in category into OutputDir.
func (e *Extractor) Run(ctx context.Context, category string) (Result, error) {
	logger := logging.NewComponentLogger(e.Logger, "captions")
	if strings.TrimSpace(e.Prompt) == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "captions", "extract", "prompt required", nil)
	}
	if strings.TrimSpace(e.OutputDir) == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "captions", "extract", "output directory required", nil)
	}
	titles, err := members(ctx, e.Wiki, category, e.Namespace)
	if err != nil {
		return Result{Category: category}, err
	}
	result := Result{Category: category}
	for _, title := range titles {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Pages = append(result.Pages, e.extract(ctx, logger, title))
	}
	logger.Info("category extracted",
		logging.String("category", category),
		logging.Int("saved", result.Count(OutcomeSaved)),
		logging.Int("failed", result.Count(OutcomeFailed)),
	)
	return result, nil
}

func (e *Extractor) extract(ctx context.Context, logger *slog.Logger, title string) PageResult {
	text, err := e.Wiki.PageText(ctx, title)
	if err != nil {
		return failed(logger, title, "page read failed", err)
	}
	if strings.TrimSpace(text) == "" {
		logger.Info("page is empty", logging.String("title", title))
		return PageResult{Title: title, Outcome: OutcomeEmpty}
	}
	reply, err := e.LLM.CompleteJSON(ctx, e.Prompt, text)
	if err != nil {
		return failed(logger, title, "extraction request failed", err)
	}
	data, err := EncodeReply(reply)
	if err != nil {
		return failed(logger, title, "encode extraction failed", err)
	}
	path := filepath.Join(e.OutputDir, FileName(title))
	if _, err := fileutil.WriteFile(path, data); err != nil {
		return failed(logger, title, "write extraction failed", err)
	}
	logger.Info("extraction saved", logging.String("title", title), logging.String("path", path))
	return PageResult{Title: title, Outcome: OutcomeSaved, Path: path}
}

// FileName is the JSON file name for a page title.
func FileName(title string) string {
	return textutil.SanitizeToken(title) + ".json"
}

// EncodeReply renders a model reply as indented JSON. Replies that do not
// decode to an object are wrapped as {"raw_response": reply}.
func EncodeReply(reply string) ([]byte, error) {
	var fields map[string]any
	if err := llm.DecodeJSON(reply, &fields); err != nil || fields == nil {
		fields = map[string]any{"raw_response": reply}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fields); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func members(ctx context.Context, wiki Wiki, category, namespace string) ([]string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, services.Wrap(services.ErrUsage, "captions", "list category", "category required", nil)
	}
	titles, err := wiki.CategoryMembers(ctx, category, namespace)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", category, err)
	}
	return titles, nil
}

func failed(logger *slog.Logger, title, msg string, err error) PageResult {
	attrs := []logging.Attr{
		logging.String("title", title),
		logging.Error(err),
		logging.String(logging.FieldImpact, "page left unchanged"),
	}
	if errors.Is(err, services.ErrConfiguration) {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, "check the [llm] section of the config"))
	}
	logging.WarnWithContext(logger, msg, "caption_page_failed", attrs...)
	return PageResult{Title: title, Outcome: OutcomeFailed, Err: err}
}
