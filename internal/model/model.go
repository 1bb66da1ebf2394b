// Package model defines the domain types used across the application.
package model

import "time"

// Entities holds the named entities recognized in a record's content,
// grouped by kind. Stored on the record as its keyword vector.
type Entities struct {
	Persons       []string `json:"persons"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
}

// Metadata is the free-form extension map carried by each record.
// It is a side channel for collectors and operators; the core never
// validates its contents.
type Metadata map[string]any

// Record is one ingested piece of OSINT content plus its enrichment
// fields. Enrichment fields stay nil until the pipeline writes them;
// Processed flips to true only after all of them are written in a
// single commit.
type Record struct {
	ID      int64
	Source  string
	Content string
	URL     string

	// ContentHash fingerprints the record for duplicate suppression
	// at ingestion. Unique across the store.
	ContentHash string

	Country      *string
	State        *string
	GeoLat       *float64
	GeoLon       *float64
	IncidentType *string
	Severity     *string
	RiskScore    *float64
	Confidence   *float64
	Summary      *string

	KeywordVector *Entities
	Embedding     []float64
	Extra         Metadata

	// ClusterID is assigned by the clustering pass and is only stable
	// within a single run; a re-run reassigns ids from scratch.
	ClusterID *int64

	Processed   bool
	CollectedAt time.Time
}

// Alert is a derived threshold-breach event. Append-only: alerts are
// never updated or deleted.
type Alert struct {
	ID           int64
	ClusterID    *int64
	RecordID     *int64
	IncidentType string
	Level        string
	Message      string
	CreatedAt    time.Time
}

// Alert levels.
const (
	AlertLevelHigh   = "HIGH"
	AlertLevelMedium = "MEDIUM"
)

// IngestionLog is the audit row written after each collector run.
type IngestionLog struct {
	ID              int64
	Source          string
	RecordsFetched  int
	RecordsInserted int
	Status          string
	ErrorMessage    *string
	RunTime         time.Time
}

// Ingestion run statuses.
const (
	IngestStatusSuccess = "success"
	IngestStatusFailed  = "failed"
)
