// Package authorpages turns "Created author" audit lines into page text for
// the page wiki, either as a batch file of {{-start-}}/{{-stop-}} blocks or as
// direct page edits.
package authorpages

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bahaibot/internal/importlog"
	"bahaibot/internal/logging"
)

// Kind is the creation-line kind this package consumes.
const Kind = "author"

// TitlePrefix is the namespace of author pages.
const TitlePrefix = "Author:"

// Body returns the wikitext of an author page for the entity id.
func Body(id string) string {
	return fmt.Sprintf(`{{author2|wb=%[1]s}}

===Articles===
====World Order====
<section begin=wo_article/>
{{#invoke:WorldOrder|getArticlesByAuthor|%[1]s}}
<section end=wo_article/>
__NOTOC__
`, id)
}

// Block wraps the page for name in the start/stop markers understood by the
// pagefromfile bot, with the bold title on the first line.
func Block(name, id string) string {
	return "{{-start-}}\n'''" + TitlePrefix + name + "'''\n" + Body(id) + "{{-stop-}}\n"
}

// Entries parses the author creation lines of lines, skipping everything else.
func Entries(lines []string) []importlog.Entry {
	entries, _ := importlog.ParseAll(lines, Kind)
	return entries
}

// WriteBlocks writes one block per entry to path, replacing any existing file.
func WriteBlocks(path string, entries []importlog.Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, entry := range entries {
		if _, err := w.WriteString(Block(entry.Label, entry.ID)); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// Editor creates or overwrites a page.
type Editor interface {
	EditPage(ctx context.Context, title, text, summary string) error
}

// UploadResult lists the pages written and the entries that failed.
type UploadResult struct {
	Written []string
	Failed  map[string]error
}

// Upload edits one Author: page per entry. Failures are collected and the
// remaining entries are still processed.
func Upload(ctx context.Context, editor Editor, entries []importlog.Entry, summary string, logger *slog.Logger) (UploadResult, error) {
	logger = logging.NewComponentLogger(logger, "authorpages")
	result := UploadResult{Failed: make(map[string]error)}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		title := TitlePrefix + strings.TrimSpace(entry.Label)
		if err := editor.EditPage(ctx, title, Body(entry.ID), summary); err != nil {
			result.Failed[title] = err
			logging.WarnWithContext(logger, "author page edit failed", "page_edit_failed",
				logging.String("title", title),
				logging.String(logging.FieldEntityID, entry.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "page not created"),
			)
			continue
		}
		result.Written = append(result.Written, title)
		logger.Info("author page written", logging.String("title", title), logging.String(logging.FieldEntityID, entry.ID))
	}
	return result, nil
}
