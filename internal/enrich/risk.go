package enrich

import "math"

// severityLabels maps severity levels to their string rendering.
var severityLabels = map[int]string{
	5: "critical",
	4: "high",
	3: "medium",
	2: "low",
	1: "minimal",
}

// SeverityLevel returns the severity level in [1,5] for an incident
// category. Unknown or empty categories map to 1.
func (r *Ruleset) SeverityLevel(category string) int {
	if cat := r.Category(category); cat != nil {
		return cat.Severity
	}
	return 1
}

// SeverityLabel renders a severity level as its label. Out-of-range
// levels default to "minimal".
func SeverityLabel(level int) string {
	if label, ok := severityLabels[level]; ok {
		return label
	}
	return "minimal"
}

// RiskScore combines incident severity, detected-location count,
// corroborating-source count, and classification confidence into a
// composite score in [0.0, 1.0], rounded to four decimal places.
//
// Confidence below the floor is clamped up so low-confidence
// classifications are never penalized past the floor.
func (r *Ruleset) RiskScore(severityLevel, locationCount, sourceCount int, confidence float64) float64 {
	w := r.Weights

	severityComponent := w.Severity * (float64(severityLevel) / 5)
	geoComponent := math.Min(float64(locationCount)*w.Geo, w.GeoCap)
	sourceComponent := math.Min(float64(sourceCount)*w.Source, w.SourceCap)

	multiplier := math.Max(confidence, w.ConfidenceFloor)

	raw := (severityComponent + geoComponent + sourceComponent) * multiplier
	return math.Round(math.Min(raw, 1.0)*10000) / 10000
}
