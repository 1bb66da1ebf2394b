package enrich

import "strings"

// summaryTemplates maps incident categories to their one-paragraph
// rendering. {location} and {severity} are substituted at render time.
var summaryTemplates = map[string]string{
	"cyber_attack":      "A cyber-related incident has been detected in {location}. Risk level: {severity}.",
	"border_tension":    "Border tension activity has been reported near {location}. Risk level: {severity}.",
	"military_activity": "Increased military presence observed in {location}. Risk level: {severity}.",
	"civil_unrest":      "Civil unrest signals emerging from {location}. Risk level: {severity}.",
	"terrorism":         "A potential terrorism-related incident flagged in {location}. Risk level: {severity}.",
	"natural_disaster":  "A natural disaster event has been detected in {location}. Risk level: {severity}.",
	CategoryOther: "General activity detected in {location}. Based on current analysis, " +
		"this incident does not appear to be directly related or connected to defense or national security. " +
		"Risk level: {severity}.",
}

// Summarize renders the classification, geography, and severity of an
// incident into a one-paragraph summary. Unknown categories fall back
// to the catch-all template; a missing severity renders as "unknown";
// the source sentence is appended only when a source tag is given.
func Summarize(category string, state, country *string, severity, source string) string {
	template, ok := summaryTemplates[category]
	if !ok {
		template = summaryTemplates[CategoryOther]
	}

	if severity == "" {
		severity = "unknown"
	}

	summary := strings.ReplaceAll(template, "{location}", locationPhrase(state, country))
	summary = strings.ReplaceAll(summary, "{severity}", severity)

	if source != "" {
		summary += " Source: " + source + "."
	}
	return summary
}

func locationPhrase(state, country *string) string {
	switch {
	case state != nil && country != nil:
		return *state + ", " + *country
	case state != nil:
		return *state
	case country != nil:
		return *country
	default:
		return "an unidentified location"
	}
}
