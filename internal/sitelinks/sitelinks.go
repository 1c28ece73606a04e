// Package sitelinks attaches page-wiki sitelinks to entities listed in an
// import audit log and trims the log down to the lines still pending.
package sitelinks

import (
	"context"
	"fmt"
	"log/slog"

	"bahaibot/internal/importlog"
	"bahaibot/internal/kb"
	"bahaibot/internal/logging"
	"bahaibot/internal/services"
)

// Mode selects which creation lines are linked and how page titles are built.
type Mode struct {
	// Kind filters "Created <kind> <label> (Q..)" lines; empty matches plain
	// "Created <label> (Q..)" lines, as written by the books workflow.
	Kind string
	// Prefix is prepended to the label to form the page title.
	Prefix string
}

var (
	// Authors links "Created author NAME (Q..)" lines to Author:NAME.
	Authors = Mode{Kind: "author", Prefix: "Author:"}
	// Titles links "Created TITLE (Q..)" lines to the page TITLE.
	Titles = Mode{}
)

// Title returns the page title for a parsed entry.
func (m Mode) Title(entry importlog.Entry) string {
	return m.Prefix + entry.Label
}

// Failure is an entry whose sitelink could not be set.
type Failure struct {
	Entry importlog.Entry
	Err   error
}

// Result summarizes one pass over the log.
type Result struct {
	Linked   []importlog.Entry
	Failed   []Failure
	Unparsed int
}

// Linker sets sitelinks for the entries of one audit log.
type Linker struct {
	Store  kb.SitelinkSetter
	Log    *importlog.Log
	Site   string
	Logger *slog.Logger
	// Keep leaves the log untouched instead of dropping linked lines.
	Keep bool
}

// Run links every matching line, then removes the linked lines from the log, so
// a second run resumes where this one stopped. Failed, unparsed and unprocessed
// lines stay, as do lines other writers append during the pass. A cancelled
// context stops the pass.
func (l *Linker) Run(ctx context.Context, mode Mode) (Result, error) {
	if l.Site == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "sitelinks", "run", "sitelink site not configured", nil)
	}
	logger := logging.NewComponentLogger(l.Logger, "sitelinks")
	lines, err := l.Log.Lines()
	if err != nil {
		return Result{}, err
	}
	if len(lines) == 0 {
		return Result{}, services.Wrap(services.ErrUsage, "sitelinks", "read", fmt.Sprintf("'%s' has no entries", l.Log.Path()), nil)
	}

	var (
		result  Result
		done    []string
		stopErr error
	)
	for _, line := range lines {
		if stopErr = ctx.Err(); stopErr != nil {
			break
		}
		entry, ok := importlog.ParseCreated(line, mode.Kind)
		if !ok {
			result.Unparsed++
			continue
		}
		title := mode.Title(entry)
		if err := l.Store.SetSitelink(ctx, entry.ID, l.Site, title); err != nil {
			result.Failed = append(result.Failed, Failure{Entry: entry, Err: err})
			logging.WarnWithContext(logger, "sitelink failed", "sitelink_failed",
				logging.String(logging.FieldEntityID, entry.ID),
				logging.String("title", title),
				logging.Error(err),
				logging.String(logging.FieldImpact, "line kept for the next run"),
			)
			continue
		}
		result.Linked = append(result.Linked, entry)
		done = append(done, line)
		logger.Info("sitelink set",
			logging.String(logging.FieldEntityID, entry.ID),
			logging.String("site", l.Site),
			logging.String("title", title),
		)
	}

	if !l.Keep && len(done) > 0 {
		if err := l.Log.Remove(context.WithoutCancel(ctx), done); err != nil {
			return result, fmt.Errorf("rewrite %s: %w", l.Log.Path(), err)
		}
	}
	return result, stopErr
}
