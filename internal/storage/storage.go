// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/model"
)

// ErrNotFound is returned when a record id is absent from the store.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert collides with an existing
// content fingerprint.
var ErrDuplicate = errors.New("duplicate content fingerprint")

// ClusterCount is the aggregate size of one cluster.
type ClusterCount struct {
	ClusterID int64
	Count     int
}

// Stats summarizes the store for the dashboard.
type Stats struct {
	TotalRecords     int
	ProcessedRecords int
	TotalAlerts      int
}

// Storage is the interface for all persistence operations.
type Storage interface {
	InsertRecord(ctx context.Context, rec *model.Record) error
	GetRecord(ctx context.Context, id int64) (*model.Record, error)
	ListUnprocessed(ctx context.Context, limit int) ([]model.Record, error)
	ListProcessed(ctx context.Context, limit int) ([]model.Record, error)
	SaveEnrichment(ctx context.Context, rec *model.Record) error

	ListWithEmbeddings(ctx context.Context) ([]model.Record, error)
	SaveClusterID(ctx context.Context, recordID int64, clusterID *int64) error
	ClusterSizes(ctx context.Context, minSize int) ([]ClusterCount, error)

	ListHighRisk(ctx context.Context, threshold float64) ([]model.Record, error)
	InsertAlert(ctx context.Context, a *model.Alert) error
	InsertAlerts(ctx context.Context, alerts []model.Alert) error
	ListAlerts(ctx context.Context, limit int) ([]model.Alert, error)

	InsertIngestionLog(ctx context.Context, l *model.IngestionLog) error

	Stats(ctx context.Context) (*Stats, error)

	Close() error
}
