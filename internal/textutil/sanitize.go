package textutil

import (
	"regexp"
	"strings"
)

// imageExtLen is reserved for the ".jpg" added by callers.
const imageExtLen = len(".jpg")

var captionUnsafe = regexp.MustCompile(`[^a-zA-Z0-9 _.,()'"-]`)

// SanitizeFileName turns a caption into a file base name of at most
// maxLength-4 bytes: characters outside letters, digits, and a little
// punctuation are dropped, spaces become underscores, and an over-long name is
// cut at its last underscore within the limit (or hard-truncated when there
// is none). Trailing dots are removed. The result may be empty.
func SanitizeFileName(text string, maxLength int) string {
	text = captionUnsafe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, " ", "_")
	available := maxLength - imageExtLen
	if available < 1 {
		available = 1
	}
	if len(text) > available {
		if cut := strings.LastIndex(text[:available], "_"); cut > 0 {
			text = text[:cut]
		} else {
			text = text[:available]
		}
	}
	return strings.TrimRight(text, ". ")
}

var tokenUnsafe = regexp.MustCompile(`[^\p{L}\p{N}_.-]`)

// SanitizeToken lowercases value and replaces every character other than
// letters, digits, underscore, dot, and hyphen with an underscore.
func SanitizeToken(value string) string {
	return tokenUnsafe.ReplaceAllString(strings.ToLower(value), "_")
}
