// Package retry provides the single backoff policy shared by every remote call
// (knowledge-base API, page wiki, scraper, completion API) plus a pacer for the
// fixed waits between page fetches.
//
// A Policy retries only errors classified as transient: HTTP 408/429/5xx,
// MediaWiki maxlag/ratelimited responses, network timeouts, and anything
// wrapped with services.ErrTransient. Everything else is returned on the first
// attempt.
package retry
