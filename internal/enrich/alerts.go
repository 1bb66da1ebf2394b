package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/model"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/storage"
)

// HighRiskThreshold is the risk score at or above which a record emits
// a HIGH alert. Stored risk scores are capped at 1.0 by the scorer, so
// this rule cannot fire as currently configured; the value is kept
// verbatim from the deployed rule set pending product review.
const HighRiskThreshold = 2.5

// ClusterAlertMinSize is the member count at which a cluster emits a
// MEDIUM growth alert.
const ClusterAlertMinSize = 3

// Alerter scans enriched records for threshold breaches and persists
// alert rows.
type Alerter struct {
	store storage.Storage
	log   *slog.Logger
}

// NewAlerter creates an Alerter over the given store.
func NewAlerter(store storage.Storage, log *slog.Logger) *Alerter {
	return &Alerter{store: store, log: log}
}

// GenerateAlerts runs the high-risk and cluster-growth scans. The two
// scans are independent: a failure in one is logged and does not stop
// the other, and nothing propagates to the caller. Returns the alerts
// created in this run, for downstream notification.
func (a *Alerter) GenerateAlerts(ctx context.Context) []model.Alert {
	var created []model.Alert

	highRisk, err := a.scanHighRisk(ctx)
	if err != nil {
		a.log.Error("high-risk alert scan", "error", err)
	}
	created = append(created, highRisk...)

	growth, err := a.scanClusterGrowth(ctx)
	if err != nil {
		a.log.Error("cluster-growth alert scan", "error", err)
	}
	created = append(created, growth...)

	if len(created) > 0 {
		a.log.Info("alerts generated", "count", len(created))
	}
	return created
}

// Each scan commits its alerts as one transactional batch: a failure
// anywhere in a path persists none of that path's alerts.
func (a *Alerter) scanHighRisk(ctx context.Context) ([]model.Alert, error) {
	records, err := a.store.ListHighRisk(ctx, HighRiskThreshold)
	if err != nil {
		return nil, fmt.Errorf("list high-risk records: %w", err)
	}

	var batch []model.Alert
	for i := range records {
		rec := &records[i]
		incidentType := CategoryOther
		if rec.IncidentType != nil {
			incidentType = *rec.IncidentType
		}
		batch = append(batch, model.Alert{
			ClusterID:    rec.ClusterID,
			RecordID:     &rec.ID,
			IncidentType: incidentType,
			Level:        model.AlertLevelHigh,
			Message:      fmt.Sprintf("High risk incident detected (Score: %v)", *rec.RiskScore),
		})
	}
	if err := a.store.InsertAlerts(ctx, batch); err != nil {
		return nil, fmt.Errorf("insert high-risk alerts: %w", err)
	}
	return batch, nil
}

func (a *Alerter) scanClusterGrowth(ctx context.Context) ([]model.Alert, error) {
	counts, err := a.store.ClusterSizes(ctx, ClusterAlertMinSize)
	if err != nil {
		return nil, fmt.Errorf("list cluster sizes: %w", err)
	}

	var batch []model.Alert
	for _, c := range counts {
		clusterID := c.ClusterID
		batch = append(batch, model.Alert{
			ClusterID:    &clusterID,
			IncidentType: "cluster",
			Level:        model.AlertLevelMedium,
			Message:      fmt.Sprintf("Cluster %d has grown to %d incidents.", c.ClusterID, c.Count),
		})
	}
	if err := a.store.InsertAlerts(ctx, batch); err != nil {
		return nil, fmt.Errorf("insert cluster alerts: %w", err)
	}
	return batch, nil
}
