package fetch

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
	paragraphRegex = regexp.MustCompile(`(?i)<(?:p|br)\s*/?>`)
	urlRegex       = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// extractText converts an HTML or HTML-encoded string to plain text.
// It first unescapes HTML entities (handles double-encoded API payloads;
// no-op on already-real HTML), strips all tags, then collapses whitespace.
func extractText(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, "")
	return strings.Join(strings.Fields(plain), " ")
}

// htmlToLines converts HTML to plain text while preserving paragraph and
// line-break boundaries as newlines. Used where line structure matters,
// like the first line of an HN comment.
func htmlToLines(content string) string {
	unescaped := html.UnescapeString(content)
	withBreaks := paragraphRegex.ReplaceAllString(unescaped, "\n")
	plain := htmlTagRegex.ReplaceAllString(withBreaks, "")

	lines := strings.Split(plain, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.Join(strings.Fields(line), " "); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}

// firstURL returns the first http(s) URL found in the text, or "".
func firstURL(text string) string {
	return strings.TrimRight(urlRegex.FindString(text), ".,)")
}
