// Package importlog writes and reads the line-oriented audit files that the
// import workflows leave behind. The line formats double as input for the
// sitelink and author-page commands, so they are fixed.
package importlog
