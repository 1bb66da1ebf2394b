package enrich

import (
	"strings"

	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/model"
)

// ExtractEntities matches the text against the person, organization,
// and location gazetteers. Matching is case-insensitive substring
// matching; person and organization names come back title-cased.
// Results carry no duplicates. Empty input yields empty sets.
func (r *Ruleset) ExtractEntities(text string) model.Entities {
	ents := model.Entities{
		Persons:       []string{},
		Organizations: []string{},
		Locations:     []string{},
	}
	if text == "" {
		return ents
	}

	lower := strings.ToLower(text)
	seen := make(map[string]bool)

	add := func(dst *[]string, name string) {
		if !seen[name] {
			seen[name] = true
			*dst = append(*dst, name)
		}
	}

	for _, state := range r.States {
		if strings.Contains(lower, strings.ToLower(state.Name)) {
			add(&ents.Locations, state.Name)
		}
	}
	for _, country := range r.Countries {
		if strings.Contains(lower, strings.ToLower(country.Name)) {
			add(&ents.Locations, country.Name)
		}
	}
	if strings.Contains(lower, strings.ToLower(r.DefaultCountry.Name)) {
		add(&ents.Locations, r.DefaultCountry.Name)
	}

	for _, org := range r.Organizations {
		if strings.Contains(lower, org) {
			add(&ents.Organizations, titleCase(org))
		}
	}
	for _, person := range r.Persons {
		if strings.Contains(lower, person) {
			add(&ents.Persons, titleCase(person))
		}
	}

	return ents
}
