// Package patterns provides extraction functions for NOTAM message parsing.
package patterns

import (
	"strings"
	"unicode"
)

// EventName builds a shape label from the text preceding its keyword. Only
// the text after the last Item E) marker in the prefix is kept, so a match
// that started at an earlier E) still names the event it describes. The
// descriptive keywords are appended in order.
func EventName(prefix string, keywords ...string) string {
	if idx := lastItemE(prefix); idx >= 0 {
		prefix = prefix[idx+len(ItemEMarker):]
	}

	parts := make([]string, 0, len(keywords)+1)
	if p := strings.TrimSpace(prefix); p != "" {
		parts = append(parts, p)
	}
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			parts = append(parts, kw)
		}
	}

	return strings.Join(parts, " ")
}

// lastItemE returns the index of the last E) that starts a token, or -1.
// A closing parenthesis inside a word like "(R-ZONE)" is not a marker.
func lastItemE(s string) int {
	for end := len(s); end > 0; {
		idx := strings.LastIndex(s[:end], ItemEMarker)
		if idx < 0 {
			return -1
		}
		if idx == 0 || unicode.IsSpace(rune(s[idx-1])) {
			return idx
		}
		end = idx
	}
	return -1
}

// Snippet returns a short excerpt of text starting at offset, for diagnostics.
func Snippet(text string, offset, max int) string {
	if offset < 0 || offset >= len(text) {
		return ""
	}
	end := offset + max
	if end > len(text) {
		end = len(text)
	}
	return strings.TrimSpace(text[offset:end])
}
