package extract

import "strings"

// Section returns the trimmed text between the first occurrence of
// startMarker and the first occurrence of endMarker located at or after
// the end of startMarker.
//
// Missing markers are expected, not exceptional: an absent start marker
// yields "", and an absent end marker yields the trimmed remainder of the
// text (the last section of a mail often has no closing delimiter).
// Independent marker pairs against the same text never interfere because
// the end marker is only searched after the start marker's position.
func Section(text, startMarker, endMarker string) string {
	start := strings.Index(text, startMarker)
	if start == -1 {
		return ""
	}
	start += len(startMarker)
	rest := text[start:]
	if endMarker == "" {
		return strings.TrimSpace(rest)
	}
	end := strings.Index(rest, endMarker)
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}
