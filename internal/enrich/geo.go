package enrich

import "strings"

// DetectState returns the first state gazetteer entry whose name
// appears in the text (case-insensitive), or nil when none matches.
// Iteration order is the gazetteer declaration order, so compound
// names listed first win over their components.
func (r *Ruleset) DetectState(text string) *Place {
	lower := strings.ToLower(text)
	for i := range r.States {
		if strings.Contains(lower, strings.ToLower(r.States[i].Name)) {
			p := r.States[i]
			return &p
		}
	}
	return nil
}

// DetectCountry returns the first neighbouring-country gazetteer entry
// whose name appears in the text. Unlike DetectState it never comes
// back empty: when nothing matches, the configured default country and
// its centroid are returned.
func (r *Ruleset) DetectCountry(text string) Place {
	lower := strings.ToLower(text)
	for i := range r.Countries {
		if strings.Contains(lower, strings.ToLower(r.Countries[i].Name)) {
			return r.Countries[i]
		}
	}
	return r.DefaultCountry
}

// ResolveCoordinates applies the state-over-country precedence rule:
// a matched state's centroid wins, otherwise the country's centroid
// (which always exists because country detection has a default).
func ResolveCoordinates(state *Place, country Place) (lat, lon float64) {
	if state != nil {
		return state.Lat, state.Lon
	}
	return country.Lat, country.Lon
}
