package preflight

import (
	"context"

	"bahaibot/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Needs selects which checks RunAll performs.
type Needs struct {
	Wikibase bool
	Works    bool
	LLM      bool
	Scrape   bool
}

// All requests every check.
var All = Needs{Wikibase: true, Works: true, LLM: true, Scrape: true}

// RunAll executes the checks selected by needs.
func RunAll(ctx context.Context, cfg *config.Config, needs Needs) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Import output", cfg.Import.OutputDir)}

	if needs.Wikibase && cfg.Store.Backend == config.StoreWikibase {
		results = append(results, CheckMediaWiki(ctx, "Wikibase API", cfg.Wikibase.APIURL, cfg.Wikibase.UserAgent))
	}
	if needs.Works && cfg.Works.APIURL != "" {
		results = append(results, CheckMediaWiki(ctx, "Works API", cfg.Works.APIURL, cfg.Wikibase.UserAgent))
	}
	if needs.Scrape {
		results = append(results, CheckDirectoryAccess("Scrape output", cfg.Scrape.OutputDir))
	}
	if needs.LLM {
		results = append(results,
			CheckLLM(ctx, "Completion API", cfg.LLM),
			CheckDirectoryAccess("Extraction output", cfg.LLM.OutputDir),
		)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
