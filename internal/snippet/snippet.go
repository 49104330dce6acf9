// Package snippet derives plain-text previews from rich-text note bodies.
package snippet

import (
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

// maxRunes is the visible length cap of a preview, not counting the
// ellipsis marker.
const maxRunes = 100

// StripHTML removes markup tags, leaving the visible text.
func StripHTML(html string) string {
	return tagRe.ReplaceAllString(html, "")
}

// Make returns an HTML-stripped preview of content capped at 100 visible
// characters, with "..." appended when content was truncated.
func Make(content string) string {
	text := StripHTML(content)
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}

// PlainText returns the whole visible text of content with collapsed
// whitespace, for feeding the search index.
func PlainText(content string) string {
	return strings.Join(strings.Fields(StripHTML(content)), " ")
}
