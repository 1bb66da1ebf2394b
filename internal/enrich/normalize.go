package enrich

import (
	"regexp"
	"strings"
)

var (
	urlRe        = regexp.MustCompile(`http\S+`)
	nonAlnumRe   = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeText lowercases the input, strips URL-like tokens, removes
// everything outside the alphanumeric and whitespace set, and collapses
// whitespace runs. An empty input yields an empty string.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = urlRe.ReplaceAllString(text, "")
	text = nonAlnumRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
