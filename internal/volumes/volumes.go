// Package volumes creates the volume and issue items of a periodical and links
// each issue to its transcription page on the page wiki.
package volumes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bahaibot/internal/config"
	"bahaibot/internal/importlog"
	"bahaibot/internal/kb"
	"bahaibot/internal/logging"
	"bahaibot/internal/services"
)

// Store creates items and sets sitelinks.
type Store interface {
	kb.Store
	kb.SitelinkSetter
}

// Request describes the run: volumes Start..Volumes, each with issues 1..Issues.
type Request struct {
	Title   string
	Volumes int
	Issues  int
	Start   int
	// TitleCase capitalizes each word of Title before building labels.
	TitleCase bool
}

// Normalize collapses whitespace in the title and applies TitleCase.
func (r Request) Normalize() Request {
	r.Title = strings.Join(strings.Fields(r.Title), " ")
	if r.TitleCase {
		r.Title = cases.Title(language.English, cases.NoLower).String(r.Title)
	}
	if r.Start == 0 {
		r.Start = 1
	}
	return r
}

// Validate rejects empty titles and impossible ranges.
func (r Request) Validate() error {
	switch {
	case r.Title == "":
		return services.Wrap(services.ErrUsage, "volumes", "validate", "title is required", nil)
	case r.Volumes < 1 || r.Issues < 1:
		return services.Wrap(services.ErrUsage, "volumes", "validate", "volumes and issues must be positive", nil)
	case r.Start < 1 || r.Start > r.Volumes:
		return services.Wrap(services.ErrUsage, "volumes", "validate",
			fmt.Sprintf("start volume %d outside 1..%d", r.Start, r.Volumes), nil)
	}
	return nil
}

// VolumeLabel is the label of volume v, e.g. "World Order Volume 3".
func VolumeLabel(title string, v int) string {
	return fmt.Sprintf("%s Volume %d", title, v)
}

// IssueLabel is the label of issue i of volume v, e.g. "World Order Vol.3 No.1".
func IssueLabel(title string, v, i int) string {
	return fmt.Sprintf("%s Vol.%d No.%d", title, v, i)
}

// IssuePage is the page-wiki title of an issue's text, e.g.
// "World_Order/Volume_3/Issue_1/Text".
func IssuePage(title string, v, i int) string {
	return fmt.Sprintf("%s/Volume_%d/Issue_%d/Text", strings.ReplaceAll(title, " ", "_"), v, i)
}

// SitelinkFailure records an issue created without its sitelink.
type SitelinkFailure struct {
	Issue importlog.Entry
	Page  string
	Err   error
}

// Result lists the created items in creation order.
type Result struct {
	Volumes          []importlog.Entry
	Issues           []importlog.Entry
	SitelinkFailures []SitelinkFailure
}

// Creator writes volume and issue items.
type Creator struct {
	Store Store
	// VolumeProp links an issue to its volume.
	VolumeProp string
	Site       string
	Log        *importlog.Log
	Logger     *slog.Logger
}

// NewCreator builds a creator from configuration.
func NewCreator(cfg *config.Config, store Store, log *importlog.Log, logger *slog.Logger) *Creator {
	return &Creator{
		Store:      store,
		VolumeProp: cfg.Properties.Volume,
		Site:       cfg.Works.SitelinkSite,
		Log:        log,
		Logger:     logger,
	}
}

// Run creates every volume, then its issues, each followed by its sitelink.
// A failed create stops the run; a failed sitelink is recorded and the run
// continues. Items are never looked up first, so re-running creates duplicates.
func (c *Creator) Run(ctx context.Context, req Request) (Result, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if c.VolumeProp == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "volumes", "run", "properties.volume not configured", nil)
	}
	logger := logging.WithContext(services.WithWorkflow(ctx, "volumes"), logging.NewComponentLogger(c.Logger, "volumes"))

	var result Result
	for v := req.Start; v <= req.Volumes; v++ {
		label := VolumeLabel(req.Title, v)
		volumeID, err := c.Store.Create(ctx, label)
		if err != nil {
			return result, fmt.Errorf("create %q: %w", label, err)
		}
		result.Volumes = append(result.Volumes, c.record(ctx, logger, "volume", label, volumeID))

		for i := 1; i <= req.Issues; i++ {
			label := IssueLabel(req.Title, v, i)
			issueID, err := c.Store.Create(ctx, label, kb.NewClaim(c.VolumeProp, kb.ItemValue(volumeID)))
			if err != nil {
				return result, fmt.Errorf("create %q: %w", label, err)
			}
			entry := c.record(ctx, logger, "issue", label, issueID)
			result.Issues = append(result.Issues, entry)

			if c.Site == "" {
				continue
			}
			page := IssuePage(req.Title, v, i)
			if err := c.Store.SetSitelink(ctx, issueID, c.Site, page); err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				result.SitelinkFailures = append(result.SitelinkFailures, SitelinkFailure{Issue: entry, Page: page, Err: err})
				logging.WarnWithContext(logger, "issue sitelink failed", "sitelink_failed",
					logging.String(logging.FieldEntityID, issueID),
					logging.String("title", page),
					logging.Error(err),
					logging.String(logging.FieldImpact, "issue created without a page link"),
					logging.String(logging.FieldErrorHint, "run the sitelinks command for the issue later"),
				)
			}
		}
	}
	return result, nil
}

func (c *Creator) record(ctx context.Context, logger *slog.Logger, kind, label, id string) importlog.Entry {
	line := importlog.CreatedKind(kind, label, id)
	if err := c.Log.Append(ctx, line); err != nil {
		logging.WarnWithContext(logger, "audit append failed", "audit_log", logging.Error(err), logging.String("line", line))
	}
	logger.Info("item created", logging.String("kind", kind), logging.String(logging.FieldLabel, label), logging.String(logging.FieldEntityID, id))
	return importlog.Entry{Line: line, Label: label, ID: id}
}
