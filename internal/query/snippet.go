// Package query implements the hybrid query engine: embed the query,
// search BM25 and the vector stores, fuse the rankings, and enrich each
// hit with a snippet pulled from the content store.
package query

import "strings"

// Snippet extracts a radius-bounded window of text around the first
// case-insensitive occurrence of query, or falls back to a leading prefix
// when query isn't found. Mirrors the teacher corpus's text-extraction
// snippet helper: ellipses only appear where text was actually cut off.
func Snippet(text, query string, radius int) string {
	textLower := strings.ToLower(text)
	queryLower := strings.ToLower(query)

	if queryLower != "" {
		if pos := strings.Index(textLower, queryLower); pos >= 0 {
			start := pos - radius
			if start < 0 {
				start = 0
			}
			end := pos + len(query) + radius
			if end > len(text) {
				end = len(text)
			}

			var b strings.Builder
			if start > 0 {
				b.WriteString("...")
			}
			b.WriteString(text[start:end])
			if end < len(text) {
				b.WriteString("...")
			}
			return b.String()
		}
	}

	if len(text) > radius*2 {
		return text[:radius*2] + "..."
	}
	return text
}
