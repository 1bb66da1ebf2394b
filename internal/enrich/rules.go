// Package enrich implements the AI enrichment pipeline: text cleanup,
// entity extraction, geo resolution, incident classification, risk
// scoring, summarization, similarity clustering, and alert generation.
//
// All stage functions are pure and total: malformed input produces the
// catch-all defaults, never an error. Only the orchestrator's store
// writes can fail.
package enrich

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

// Place is one gazetteer entry: a canonical name and its approximate
// centroid coordinates.
type Place struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
}

// CategoryRule maps an incident category to its keyword list and
// severity level.
type CategoryRule struct {
	Name     string   `yaml:"name"`
	Severity int      `yaml:"severity"`
	Keywords []string `yaml:"keywords"`
}

// Weights holds the risk formula coefficients.
type Weights struct {
	Severity        float64 `yaml:"severity"`
	Geo             float64 `yaml:"geo"`
	GeoCap          float64 `yaml:"geo_cap"`
	Source          float64 `yaml:"source"`
	SourceCap       float64 `yaml:"source_cap"`
	ConfidenceFloor float64 `yaml:"confidence_floor"`
}

// Ruleset is the immutable reference data the pipeline stages run
// against: classification rules, gazetteers, and scoring weights.
// Loaded once at startup; entry order within each list is the match
// precedence order.
type Ruleset struct {
	Categories     []CategoryRule `yaml:"categories"`
	States         []Place        `yaml:"states"`
	Countries      []Place        `yaml:"countries"`
	DefaultCountry Place          `yaml:"default_country"`
	Organizations  []string       `yaml:"organizations"`
	Persons        []string       `yaml:"persons"`
	Weights        Weights        `yaml:"weights"`
}

// CategoryOther is the catch-all incident category used when no
// keyword rule matches.
const CategoryOther = "other"

// ParseRules decodes a YAML ruleset document.
func ParseRules(data []byte) (*Ruleset, error) {
	var r Ruleset
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(r.Categories) == 0 {
		return nil, fmt.Errorf("parse rules: no categories defined")
	}
	for _, p := range append(append([]Place{}, r.States...), r.Countries...) {
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			return nil, fmt.Errorf("parse rules: %q has out-of-range coordinates", p.Name)
		}
	}
	return &r, nil
}

var defaultRules = mustParseRules()

func mustParseRules() *Ruleset {
	r, err := ParseRules(rulesYAML)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRules returns the embedded ruleset.
func DefaultRules() *Ruleset {
	return defaultRules
}

// Category returns the rule for the named category, or nil.
func (r *Ruleset) Category(name string) *CategoryRule {
	for i := range r.Categories {
		if r.Categories[i].Name == name {
			return &r.Categories[i]
		}
	}
	return nil
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
