// Package mediawiki wraps go-mwclient with the shared retry policy, error
// classification, and the handful of page and category helpers used by the
// sitelink, author-page, and caption workflows.
package mediawiki
