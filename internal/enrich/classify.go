package enrich

import "strings"

// Classify maps text to an incident category using first-match keyword
// rules. Categories are tried in declaration order and the first
// keyword hit wins, so earlier categories take priority over
// equally-valid later matches. Returns the catch-all category when
// nothing matches or the text is empty.
func (r *Ruleset) Classify(text string) string {
	if text == "" {
		return CategoryOther
	}
	lower := strings.ToLower(text)
	for _, cat := range r.Categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				return cat.Name
			}
		}
	}
	return CategoryOther
}
