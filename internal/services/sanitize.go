package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// titleSanitizer strips all markup; titles are plain text.
	titleSanitizer = bluemonday.StrictPolicy()
	// contentSanitizer keeps the safe formatting subset allowed in abstract bodies.
	contentSanitizer = bluemonday.UGCPolicy()
)

func sanitizeTitle(s string) string {
	return strings.TrimSpace(html.UnescapeString(titleSanitizer.Sanitize(s)))
}

func sanitizeContent(s string) string {
	return strings.TrimSpace(contentSanitizer.Sanitize(s))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
