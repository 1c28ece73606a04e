// Package main hosts the bahaibot CLI entrypoint and command graph.
//
// Each subcommand replaces one of the standalone maintenance scripts: the
// books, articles, and persons imports, volume/issue creation, sitelink and
// author-page follow-ups, the news slideshow scraper, and the caption
// rewriting passes. The package resolves configuration, builds the store and
// wiki sessions, and renders summaries; the work itself lives in internal/.
package main
