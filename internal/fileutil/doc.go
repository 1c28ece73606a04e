// Package fileutil writes scraped images, caption pages, and extracted JSON
// atomically through a temp file and rename.
package fileutil
