package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/model"
	"github.com/AyushPatiTripathi/Osnit-Sheild/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const recordColumns = `id, source, content, url, content_hash, country, state,
	geo_lat, geo_lon, incident_type, severity, risk_score, confidence, summary,
	keyword_vector, embedding, extra_metadata, cluster_id, processed, collected_at`

// InsertRecord inserts a new record and populates its ID and CollectedAt.
// Returns ErrDuplicate if a record with the same content fingerprint
// already exists.
func (s *SQLite) InsertRecord(ctx context.Context, rec *model.Record) error {
	now := time.Now().UTC().Format(timeLayout)

	kv, err := marshalNullable(rec.KeywordVector)
	if err != nil {
		return fmt.Errorf("encode keyword vector: %w", err)
	}
	emb, err := marshalNullable(rec.Embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	extra, err := marshalNullable(rec.Extra)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO records
		 (source, content, url, content_hash, keyword_vector, embedding, extra_metadata, processed, collected_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		rec.Source, rec.Content, nullString(rec.URL), rec.ContentHash, kv, emb, extra, now,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	rec.CollectedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetRecord returns a single record by its ID, or ErrNotFound.
func (s *SQLite) GetRecord(ctx context.Context, id int64) (*model.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id,
	)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

// ListUnprocessed returns up to limit records that have not been
// through the enrichment pipeline yet.
func (s *SQLite) ListUnprocessed(ctx context.Context, limit int) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE processed = 0 ORDER BY id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

// ListProcessed returns up to limit enriched records, newest first.
func (s *SQLite) ListProcessed(ctx context.Context, limit int) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE processed = 1 ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

// SaveEnrichment writes all enrichment fields plus the processed flag
// in a single statement. All-or-nothing: partial enrichment is never
// visible to readers.
func (s *SQLite) SaveEnrichment(ctx context.Context, rec *model.Record) error {
	kv, err := marshalNullable(rec.KeywordVector)
	if err != nil {
		return fmt.Errorf("encode keyword vector: %w", err)
	}
	extra, err := marshalNullable(rec.Extra)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET country = ?, state = ?, geo_lat = ?, geo_lon = ?,
		 incident_type = ?, severity = ?, risk_score = ?, confidence = ?,
		 summary = ?, keyword_vector = ?, extra_metadata = ?, processed = ?
		 WHERE id = ?`,
		rec.Country, rec.State, rec.GeoLat, rec.GeoLon,
		rec.IncidentType, rec.Severity, rec.RiskScore, rec.Confidence,
		rec.Summary, kv, extra, boolToInt(rec.Processed), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("save enrichment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWithEmbeddings returns all records carrying an embedding vector,
// in insertion order, for the clustering pass.
func (s *SQLite) ListWithEmbeddings(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE embedding IS NOT NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

// SaveClusterID updates a single record's cluster assignment.
func (s *SQLite) SaveClusterID(ctx context.Context, recordID int64, clusterID *int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE records SET cluster_id = ? WHERE id = ?`, clusterID, recordID,
	)
	if err != nil {
		return fmt.Errorf("save cluster id: %w", err)
	}
	return nil
}

// ClusterSizes returns the member count of every cluster with at least
// minSize members.
func (s *SQLite) ClusterSizes(ctx context.Context, minSize int) ([]ClusterCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cluster_id, COUNT(*) FROM records
		 WHERE cluster_id IS NOT NULL
		 GROUP BY cluster_id HAVING COUNT(*) >= ?
		 ORDER BY cluster_id`, minSize,
	)
	if err != nil {
		return nil, fmt.Errorf("query cluster sizes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var counts []ClusterCount
	for rows.Next() {
		var c ClusterCount
		if err := rows.Scan(&c.ClusterID, &c.Count); err != nil {
			return nil, fmt.Errorf("scan cluster count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ListHighRisk returns all records whose risk score is at or above the
// given threshold.
func (s *SQLite) ListHighRisk(ctx context.Context, threshold float64) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE risk_score >= ? ORDER BY id`, threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("query high risk: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

// InsertAlert appends an alert and populates its ID and CreatedAt.
func (s *SQLite) InsertAlert(ctx context.Context, a *model.Alert) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (cluster_id, record_id, incident_type, level, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ClusterID, a.RecordID, a.IncidentType, a.Level, a.Message, now,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// InsertAlerts appends a batch of alerts in one transaction: either
// every row commits or none do. IDs and CreatedAt are populated on
// success only.
func (s *SQLite) InsertAlerts(ctx context.Context, alerts []model.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, len(alerts))
	for i := range alerts {
		a := &alerts[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO alerts (cluster_id, record_id, incident_type, level, message, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.ClusterID, a.RecordID, a.IncidentType, a.Level, a.Message, now,
		)
		if err != nil {
			return fmt.Errorf("insert alert %d of %d: %w", i+1, len(alerts), err)
		}
		if ids[i], err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit alerts: %w", err)
	}

	created, _ := time.Parse(timeLayout, now)
	for i := range alerts {
		alerts[i].ID = ids[i]
		alerts[i].CreatedAt = created
	}
	return nil
}

// ListAlerts returns up to limit alerts, newest first.
func (s *SQLite) ListAlerts(ctx context.Context, limit int) ([]model.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cluster_id, record_id, incident_type, level, message, created_at
		 FROM alerts ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []model.Alert
	for rows.Next() {
		var a model.Alert
		var created string
		if err := rows.Scan(&a.ID, &a.ClusterID, &a.RecordID, &a.IncidentType, &a.Level, &a.Message, &created); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.CreatedAt, _ = time.Parse(timeLayout, created)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// InsertIngestionLog appends a collector-run audit row.
func (s *SQLite) InsertIngestionLog(ctx context.Context, l *model.IngestionLog) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ingestion_logs (source, records_fetched, records_inserted, status, error_message, run_time)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.Source, l.RecordsFetched, l.RecordsInserted, l.Status, l.ErrorMessage, now,
	)
	if err != nil {
		return fmt.Errorf("insert ingestion log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	l.ID = id
	l.RunTime, _ = time.Parse(timeLayout, now)
	return nil
}

// Stats returns summary counts for the dashboard.
func (s *SQLite) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(processed), 0) FROM records`,
	).Scan(&st.TotalRecords, &st.ProcessedRecords)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&st.TotalAlerts)
	if err != nil {
		return nil, fmt.Errorf("count alerts: %w", err)
	}
	return &st, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// marshalNullable encodes v as JSON, or NULL when v is a nil pointer,
// slice, or map.
func marshalNullable(v any) (*string, error) {
	switch val := v.(type) {
	case *model.Entities:
		if val == nil {
			return nil, nil
		}
	case []float64:
		if val == nil {
			return nil, nil
		}
	case model.Metadata:
		if val == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*model.Record, error) {
	var rec model.Record
	var url, hash, kv, emb, extra sql.NullString
	var processed int
	var collected string

	err := row.Scan(
		&rec.ID, &rec.Source, &rec.Content, &url, &hash,
		&rec.Country, &rec.State, &rec.GeoLat, &rec.GeoLon,
		&rec.IncidentType, &rec.Severity, &rec.RiskScore, &rec.Confidence,
		&rec.Summary, &kv, &emb, &extra, &rec.ClusterID, &processed, &collected,
	)
	if err != nil {
		return nil, err
	}

	rec.URL = url.String
	rec.ContentHash = hash.String
	rec.Processed = processed == 1
	rec.CollectedAt, _ = time.Parse(timeLayout, collected)

	if kv.Valid {
		var e model.Entities
		if err := json.Unmarshal([]byte(kv.String), &e); err != nil {
			return nil, fmt.Errorf("decode keyword vector: %w", err)
		}
		rec.KeywordVector = &e
	}
	if emb.Valid {
		if err := json.Unmarshal([]byte(emb.String), &rec.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
	}
	if extra.Valid {
		if err := json.Unmarshal([]byte(extra.String), &rec.Extra); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]model.Record, error) {
	var recs []model.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}
