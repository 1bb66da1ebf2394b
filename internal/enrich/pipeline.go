package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/model"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/storage"
)

// EnrichmentResult reports the fields written for one record.
type EnrichmentResult struct {
	IncidentType string         `json:"incident_type"`
	Country      string         `json:"country"`
	State        *string        `json:"state"`
	GeoLat       float64        `json:"geo_lat"`
	GeoLon       float64        `json:"geo_lon"`
	Severity     string         `json:"severity"`
	RiskScore    float64        `json:"risk_score"`
	Confidence   float64        `json:"confidence"`
	Summary      string         `json:"summary"`
	Entities     model.Entities `json:"entities"`
}

// BatchResult is the tally of one batch run.
type BatchResult struct {
	Succeeded int
	Failed    int
}

// Pipeline drives the enrichment stages over records from the store.
type Pipeline struct {
	store storage.Storage
	rules *Ruleset
	log   *slog.Logger
}

// NewPipeline creates a Pipeline over the given store and ruleset.
func NewPipeline(store storage.Storage, rules *Ruleset, log *slog.Logger) *Pipeline {
	return &Pipeline{store: store, rules: rules, log: log}
}

// enrich runs the pure stages over one record and fills in its
// enrichment fields. No I/O.
func (p *Pipeline) enrich(rec *model.Record) *EnrichmentResult {
	cleaned := NormalizeText(rec.Content)

	entities := p.rules.ExtractEntities(cleaned)

	state := p.rules.DetectState(cleaned)
	country := p.rules.DetectCountry(cleaned)
	lat, lon := ResolveCoordinates(state, country)

	category := p.rules.Classify(cleaned)

	level := p.rules.SeverityLevel(category)
	label := SeverityLabel(level)

	sourceCount := metadataCount(rec.Extra, "source_count")
	risk := p.rules.RiskScore(level, len(entities.Locations), sourceCount, 1.0)
	confidence := math.Round((0.6+risk*0.3)*100) / 100

	var stateName *string
	if state != nil {
		stateName = &state.Name
	}
	countryName := country.Name

	summary := Summarize(category, stateName, &countryName, label, rec.Source)

	rec.Country = &countryName
	rec.State = stateName
	rec.GeoLat = &lat
	rec.GeoLon = &lon
	rec.IncidentType = &category
	rec.Severity = &label
	rec.RiskScore = &risk
	rec.Confidence = &confidence
	rec.Summary = &summary
	rec.KeywordVector = &entities
	if rec.Extra == nil {
		rec.Extra = model.Metadata{}
	}
	rec.Extra["cleaned_content"] = cleaned
	rec.Processed = true

	return &EnrichmentResult{
		IncidentType: category,
		Country:      countryName,
		State:        stateName,
		GeoLat:       lat,
		GeoLon:       lon,
		Severity:     label,
		RiskScore:    risk,
		Confidence:   confidence,
		Summary:      summary,
		Entities:     entities,
	}
}

// ProcessRecord runs the full stage sequence over a single record and
// commits the result. Returns storage.ErrNotFound when the id is
// absent; store failures propagate to the caller.
func (p *Pipeline) ProcessRecord(ctx context.Context, id int64) (*EnrichmentResult, error) {
	rec, err := p.store.GetRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch record %d: %w", id, err)
	}

	result := p.enrich(rec)

	if err := p.store.SaveEnrichment(ctx, rec); err != nil {
		return nil, fmt.Errorf("save record %d: %w", id, err)
	}

	p.log.Info("record processed",
		"record_id", id,
		"incident_type", result.IncidentType,
		"risk_score", result.RiskScore,
	)
	return result, nil
}

// ProcessBatch fetches up to limit unprocessed records and runs each
// through the stage sequence with per-record commit isolation: a
// failing record is counted and skipped, it never aborts the batch or
// rolls back earlier commits. Never returns an error — the tally is
// the whole story.
func (p *Pipeline) ProcessBatch(ctx context.Context, limit int) BatchResult {
	var res BatchResult

	records, err := p.store.ListUnprocessed(ctx, limit)
	if err != nil {
		p.log.Error("list unprocessed records", "error", err)
		return res
	}

	p.log.Info("batch started", "records", len(records))

	for i := range records {
		if ctx.Err() != nil {
			break
		}
		rec := &records[i]

		p.enrich(rec)

		if err := p.store.SaveEnrichment(ctx, rec); err != nil {
			res.Failed++
			p.log.Error("record failed", "record_id", rec.ID, "error", err)
			continue
		}
		res.Succeeded++
	}

	p.log.Info("batch finished", "succeeded", res.Succeeded, "failed", res.Failed)
	return res
}

// metadataCount reads a non-negative integer from the extension map,
// defaulting to 1. Collectors may store corroboration counts there;
// the values are not validated beyond basic type coercion.
func metadataCount(meta model.Metadata, key string) int {
	if meta == nil {
		return 1
	}
	switch v := meta[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return 1
}
