package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/model"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

func TestInsertRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := &model.Record{
		Source:      "rss",
		Content:     "troops deployed near the border",
		URL:         "https://example.com/a",
		ContentHash: "abc123",
		Embedding:   []float64{0.1, 0.2},
		Extra:       model.Metadata{"feed": "defence"},
	}
	if err := s.InsertRecord(ctx, rec); err != nil {
		t.Fatalf("insert record: %v", err)
	}
	if rec.ID == 0 {
		t.Error("ID not populated on insert")
	}
	if rec.CollectedAt.IsZero() {
		t.Error("CollectedAt not populated on insert")
	}

	got, err := s.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got.Source != rec.Source || got.Content != rec.Content || got.URL != rec.URL {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if got.ContentHash != "abc123" {
		t.Errorf("content hash = %q, want abc123", got.ContentHash)
	}
	if diff := cmp.Diff([]float64{0.1, 0.2}, got.Embedding); diff != "" {
		t.Errorf("embedding mismatch (-want +got):\n%s", diff)
	}
	if got.Processed {
		t.Error("new record must not be processed")
	}
}

func TestInsertRecordDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := &model.Record{Source: "rss", Content: "a", ContentHash: "same-hash"}
	if err := s.InsertRecord(ctx, first); err != nil {
		t.Fatalf("insert first: %v", err)
	}

	dup := &model.Record{Source: "newsapi", Content: "a reworded", ContentHash: "same-hash"}
	if err := s.InsertRecord(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	unprocessed, err := s.ListUnprocessed(ctx, 10)
	if err != nil {
		t.Fatalf("list unprocessed: %v", err)
	}
	if len(unprocessed) != 1 {
		t.Errorf("expected 1 record after duplicate insert, got %d", len(unprocessed))
	}
}

func TestGetRecordNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetRecord(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveEnrichmentRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec := &model.Record{Source: "rss", Content: "cyber attack in delhi", ContentHash: "h1"}
	if err := s.InsertRecord(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rec.Country = ptr("India")
	rec.State = ptr("Delhi")
	rec.GeoLat = ptr(28.7041)
	rec.GeoLon = ptr(77.1025)
	rec.IncidentType = ptr("cyber_attack")
	rec.Severity = ptr("high")
	rec.RiskScore = ptr(0.43)
	rec.Confidence = ptr(0.73)
	rec.Summary = ptr("A cyber-related incident has been detected in Delhi, India. Risk level: high.")
	rec.KeywordVector = &model.Entities{
		Persons:       []string{},
		Organizations: []string{},
		Locations:     []string{"Delhi", "India"},
	}
	rec.Extra = model.Metadata{"cleaned_content": "cyber attack in delhi"}
	rec.Processed = true

	if err := s.SaveEnrichment(ctx, rec); err != nil {
		t.Fatalf("save enrichment: %v", err)
	}

	got, err := s.GetRecord(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("record mismatch after enrichment (-want +got):\n%s", diff)
	}
}

func TestSaveEnrichmentMissingRecord(t *testing.T) {
	s := newTestStore(t)
	rec := &model.Record{ID: 999, Processed: true}
	if err := s.SaveEnrichment(context.Background(), rec); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListUnprocessedAndProcessed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		rec := &model.Record{Source: "rss", Content: fmt.Sprintf("item %d", i), ContentHash: fmt.Sprintf("h%d", i)}
		if err := s.InsertRecord(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if i == 0 {
			rec.Processed = true
			if err := s.SaveEnrichment(ctx, rec); err != nil {
				t.Fatalf("save enrichment: %v", err)
			}
		}
	}

	unprocessed, err := s.ListUnprocessed(ctx, 10)
	if err != nil {
		t.Fatalf("list unprocessed: %v", err)
	}
	if len(unprocessed) != 2 {
		t.Errorf("unprocessed = %d, want 2", len(unprocessed))
	}

	processed, err := s.ListProcessed(ctx, 10)
	if err != nil {
		t.Fatalf("list processed: %v", err)
	}
	if len(processed) != 1 {
		t.Errorf("processed = %d, want 1", len(processed))
	}

	limited, err := s.ListUnprocessed(ctx, 1)
	if err != nil {
		t.Fatalf("list unprocessed limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited list = %d, want 1", len(limited))
	}
}

func TestClusterAssignmentAndSizes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var ids []int64
	for i := 0; i < 5; i++ {
		rec := &model.Record{
			Source:      "rss",
			Content:     fmt.Sprintf("item %d", i),
			ContentHash: fmt.Sprintf("h%d", i),
			Embedding:   []float64{float64(i), 1},
		}
		if err := s.InsertRecord(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	// One record without an embedding stays out of the clustering scan.
	plain := &model.Record{Source: "rss", Content: "no vector", ContentHash: "h-plain"}
	if err := s.InsertRecord(ctx, plain); err != nil {
		t.Fatalf("insert plain: %v", err)
	}

	withEmb, err := s.ListWithEmbeddings(ctx)
	if err != nil {
		t.Fatalf("list with embeddings: %v", err)
	}
	if len(withEmb) != 5 {
		t.Fatalf("records with embeddings = %d, want 5", len(withEmb))
	}
	for i := 1; i < len(withEmb); i++ {
		if withEmb[i].ID < withEmb[i-1].ID {
			t.Fatal("embedding scan not in insertion order")
		}
	}

	// Cluster 1 gets three members, cluster 2 gets two.
	assign := []int64{1, 1, 1, 2, 2}
	for i, id := range ids {
		if err := s.SaveClusterID(ctx, id, &assign[i]); err != nil {
			t.Fatalf("save cluster id: %v", err)
		}
	}

	counts, err := s.ClusterSizes(ctx, 3)
	if err != nil {
		t.Fatalf("cluster sizes: %v", err)
	}
	want := []ClusterCount{{ClusterID: 1, Count: 3}}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("cluster sizes mismatch (-want +got):\n%s", diff)
	}

	all, err := s.ClusterSizes(ctx, 1)
	if err != nil {
		t.Fatalf("cluster sizes min 1: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 clusters at min size 1, got %d", len(all))
	}
}

func TestListHighRisk(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	scores := []float64{0.2, 0.8, 0.95}
	for i, score := range scores {
		rec := &model.Record{Source: "rss", Content: fmt.Sprintf("item %d", i), ContentHash: fmt.Sprintf("h%d", i)}
		if err := s.InsertRecord(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
		rec.RiskScore = ptr(score)
		rec.Processed = true
		if err := s.SaveEnrichment(ctx, rec); err != nil {
			t.Fatalf("save enrichment: %v", err)
		}
	}

	high, err := s.ListHighRisk(ctx, 0.8)
	if err != nil {
		t.Fatalf("list high risk: %v", err)
	}
	if len(high) != 2 {
		t.Fatalf("high-risk records = %d, want 2", len(high))
	}
	for _, rec := range high {
		if rec.RiskScore == nil || *rec.RiskScore < 0.8 {
			t.Errorf("record %d below threshold: %v", rec.ID, rec.RiskScore)
		}
	}

	none, err := s.ListHighRisk(ctx, 2.5)
	if err != nil {
		t.Fatalf("list high risk: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no records at threshold 2.5, got %d", len(none))
	}
}

func TestAlertsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first := &model.Alert{
		ClusterID:    ptr(int64(1)),
		IncidentType: "cluster",
		Level:        model.AlertLevelMedium,
		Message:      "Cluster 1 has grown to 3 incidents.",
	}
	second := &model.Alert{
		RecordID:     ptr(int64(7)),
		IncidentType: "terrorism",
		Level:        model.AlertLevelHigh,
		Message:      "High risk incident detected (Score: 0.65)",
	}
	for _, a := range []*model.Alert{first, second} {
		if err := s.InsertAlert(ctx, a); err != nil {
			t.Fatalf("insert alert: %v", err)
		}
		if a.ID == 0 {
			t.Error("alert ID not populated")
		}
	}

	alerts, err := s.ListAlerts(ctx, 10)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(alerts))
	}
	// Newest first.
	if alerts[0].ID != second.ID {
		t.Errorf("first listed alert = %d, want newest %d", alerts[0].ID, second.ID)
	}
	if diff := cmp.Diff(*second, alerts[0]); diff != "" {
		t.Errorf("alert mismatch (-want +got):\n%s", diff)
	}
	if alerts[1].ClusterID == nil || *alerts[1].ClusterID != 1 {
		t.Errorf("cluster id = %v, want 1", alerts[1].ClusterID)
	}
	if alerts[1].RecordID != nil {
		t.Errorf("record id = %v, want nil for cluster alert", *alerts[1].RecordID)
	}
}

func TestInsertAlertsBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	batch := []model.Alert{
		{ClusterID: ptr(int64(1)), IncidentType: "cluster", Level: model.AlertLevelMedium, Message: "Cluster 1 has grown to 3 incidents."},
		{ClusterID: ptr(int64(2)), IncidentType: "cluster", Level: model.AlertLevelMedium, Message: "Cluster 2 has grown to 4 incidents."},
	}
	if err := s.InsertAlerts(ctx, batch); err != nil {
		t.Fatalf("insert alerts: %v", err)
	}
	for i, a := range batch {
		if a.ID == 0 {
			t.Errorf("alert %d: ID not populated", i)
		}
		if a.CreatedAt.IsZero() {
			t.Errorf("alert %d: CreatedAt not populated", i)
		}
	}

	alerts, err := s.ListAlerts(ctx, 10)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 2 {
		t.Errorf("persisted alerts = %d, want 2", len(alerts))
	}

	if err := s.InsertAlerts(ctx, nil); err != nil {
		t.Errorf("empty batch: %v", err)
	}
}

// A failure anywhere in the batch must roll back the whole batch. The
// second row here violates the level constraint after the first row has
// already been written inside the transaction.
func TestInsertAlertsRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	batch := []model.Alert{
		{ClusterID: ptr(int64(1)), IncidentType: "cluster", Level: model.AlertLevelMedium, Message: "Cluster 1 has grown to 3 incidents."},
		{ClusterID: ptr(int64(2)), IncidentType: "cluster", Level: "BOGUS", Message: "Cluster 2 has grown to 4 incidents."},
	}
	if err := s.InsertAlerts(ctx, batch); err == nil {
		t.Fatal("expected constraint error on second row")
	}
	for i, a := range batch {
		if a.ID != 0 {
			t.Errorf("alert %d: ID populated despite failed batch", i)
		}
	}

	alerts, err := s.ListAlerts(ctx, 10)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("persisted alerts after failed batch = %d, want 0", len(alerts))
	}
}

func TestInsertIngestionLog(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	l := &model.IngestionLog{
		Source:          "defence-feed",
		RecordsFetched:  5,
		RecordsInserted: 3,
		Status:          model.IngestStatusSuccess,
	}
	if err := s.InsertIngestionLog(ctx, l); err != nil {
		t.Fatalf("insert ingestion log: %v", err)
	}
	if l.ID == 0 {
		t.Error("log ID not populated")
	}
	if l.RunTime.IsZero() {
		t.Error("run time not populated")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 4; i++ {
		rec := &model.Record{Source: "rss", Content: fmt.Sprintf("item %d", i), ContentHash: fmt.Sprintf("h%d", i)}
		if err := s.InsertRecord(ctx, rec); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if i < 2 {
			rec.Processed = true
			if err := s.SaveEnrichment(ctx, rec); err != nil {
				t.Fatalf("save enrichment: %v", err)
			}
		}
	}
	if err := s.InsertAlert(ctx, &model.Alert{IncidentType: "cluster", Level: model.AlertLevelMedium, Message: "m"}); err != nil {
		t.Fatalf("insert alert: %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := &Stats{TotalRecords: 4, ProcessedRecords: 2, TotalAlerts: 1}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}
