package importer

import (
	"context"
	"regexp"

	"bahaibot/internal/config"
	"bahaibot/internal/importlog"
	"bahaibot/internal/kb"
	"bahaibot/internal/services"
)

// Article JSON keys.
const (
	FieldArticleTitle  = "title"
	FieldPageRange     = "page_range"
	FieldArticleAuthor = "author"
	FieldArticleEditor = "editor"
)

// ArticleRules are the required-field constraints for an article object.
var ArticleRules = Rules{
	Required: []string{FieldArticleTitle, FieldPageRange},
	AnyOf:    [][]string{{FieldArticleAuthor, FieldArticleEditor}},
}

var itemIDPattern = regexp.MustCompile(`^Q\d+$`)

// Articles imports magazine articles into one issue.
type Articles struct {
	Props config.Properties
	Issue string
}

// NewArticles builds the articles workflow for the issue with identifier issue.
func NewArticles(cfg *config.Config, issue string) (*Articles, error) {
	if !itemIDPattern.MatchString(issue) {
		return nil, services.Wrap(services.ErrUsage, "articles", "issue", "expected an item id like Q220, got '"+issue+"'", nil)
	}
	return &Articles{Props: cfg.Properties, Issue: issue}, nil
}

func (a *Articles) Name() string { return "articles" }

func (a *Articles) Label(rec Record) string { return rec.Get(FieldArticleTitle) }

func (a *Articles) Prepare(_ context.Context, rec Record, _ Lookuper) (*Plan, error) {
	if problems := Validate(rec, ArticleRules); len(problems) > 0 {
		return nil, NewValidationError(problems)
	}
	plan := &Plan{Label: rec.Get(FieldArticleTitle), Audit: importlog.Created}
	if a.Props.Pages != "" {
		plan.Claims = append(plan.Claims, kb.Replace(kb.NewClaim(a.Props.Pages, kb.StringValue(rec.Get(FieldPageRange)))))
	}
	plan.Refs = append(plan.Refs, Ref{
		Kind:     "issue",
		ID:       a.Issue,
		Property: a.Props.PartOfIssue,
		Reverse:  a.Props.IssueHasArticle,
		Policy:   kb.ReplaceAll,
	})

	if authors := rec.List(FieldArticleAuthor); len(authors) > 0 {
		for _, name := range authors {
			plan.Refs = append(plan.Refs, Ref{
				Kind:     "author",
				Label:    name,
				Property: a.Props.Author,
				Reverse:  a.Props.Authored,
				Policy:   kb.AppendOrReplace,
			})
		}
		return plan, nil
	}
	editors := rec.List(FieldArticleEditor)
	plan.Refs = append(plan.Refs, Ref{
		Kind:     "editor",
		Label:    editors[0],
		Property: a.Props.Editor,
		Reverse:  a.Props.Edited,
		Policy:   kb.ReplaceAll,
	})
	return plan, nil
}
