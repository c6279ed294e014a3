package indexer

import "strings"

// NormalizeNewlines converts CRLF and lone CR line endings to LF and strips a leading BOM.
func NormalizeNewlines(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// isBlank reports whether text has no non-space content.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
