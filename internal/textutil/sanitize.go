// Package textutil holds the text normalization used for forum content:
// HTML sanitizing, excerpts and URL slugs.
package textutil

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// ExcerptLength is the number of characters kept in a thread excerpt.
const ExcerptLength = 150

const ellipsis = "..."

var (
	ugcPolicy   = bluemonday.UGCPolicy()
	stripPolicy = bluemonday.StrictPolicy()
)

func init() {
	ugcPolicy.AllowImages()
	ugcPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	ugcPolicy.RequireNoReferrerOnLinks(true)

	stripPolicy.AddSpaceWhenStrippingTag(true)
}

// SanitizeHTML cleans user supplied rich text so it can be stored and rendered as-is.
func SanitizeHTML(raw string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(raw))
}

// StripHTML removes all markup and collapses whitespace.
func StripHTML(raw string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(raw))
	return strings.Join(strings.Fields(text), " ")
}

// IsBlank reports whether raw has no visible text once markup is removed.
// Content made only of images still counts as non-blank.
func IsBlank(raw string) bool {
	if StripHTML(raw) != "" {
		return false
	}
	return !strings.Contains(strings.ToLower(raw), "<img")
}

// Excerpt returns the plain text of raw truncated to ExcerptLength characters,
// with a trailing "..." when anything was cut.
func Excerpt(raw string) string {
	text := StripHTML(raw)
	if utf8.RuneCountInString(text) <= ExcerptLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:ExcerptLength]), " ") + ellipsis
}
