// Package api serves the monitoring dashboard's read endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/enrich"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/model"
	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/storage"
)

const defaultListLimit = 50

// Server exposes the read API and the on-demand processing endpoints.
type Server struct {
	store    storage.Storage
	pipeline *enrich.Pipeline
	log      *slog.Logger
}

// New creates a Server over the given store and pipeline.
func New(store storage.Storage, pipeline *enrich.Pipeline, log *slog.Logger) *Server {
	return &Server{store: store, pipeline: pipeline, log: log}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/incidents", s.handleListIncidents)
	mux.HandleFunc("GET /api/incidents/{id}", s.handleGetIncident)
	mux.HandleFunc("POST /api/incidents/{id}/process", s.handleProcessIncident)
	mux.HandleFunc("POST /api/process", s.handleProcessBatch)
	mux.HandleFunc("GET /api/alerts", s.handleListAlerts)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	return mux
}

// incidentJSON is the wire shape of one enriched record.
type incidentJSON struct {
	ID           int64           `json:"id"`
	Source       string          `json:"source"`
	Content      string          `json:"content"`
	URL          string          `json:"url,omitempty"`
	Country      *string         `json:"country"`
	State        *string         `json:"state"`
	GeoLat       *float64        `json:"geo_lat"`
	GeoLon       *float64        `json:"geo_lon"`
	IncidentType *string         `json:"incident_type"`
	Severity     *string         `json:"severity"`
	RiskScore    *float64        `json:"risk_score"`
	Confidence   *float64        `json:"confidence"`
	Summary      *string         `json:"summary"`
	Entities     *model.Entities `json:"entities"`
	ClusterID    *int64          `json:"cluster_id"`
	Processed    bool            `json:"processed"`
	CollectedAt  time.Time       `json:"collected_at"`
}

func toIncidentJSON(rec *model.Record) incidentJSON {
	return incidentJSON{
		ID:           rec.ID,
		Source:       rec.Source,
		Content:      rec.Content,
		URL:          rec.URL,
		Country:      rec.Country,
		State:        rec.State,
		GeoLat:       rec.GeoLat,
		GeoLon:       rec.GeoLon,
		IncidentType: rec.IncidentType,
		Severity:     rec.Severity,
		RiskScore:    rec.RiskScore,
		Confidence:   rec.Confidence,
		Summary:      rec.Summary,
		Entities:     rec.KeywordVector,
		ClusterID:    rec.ClusterID,
		Processed:    rec.Processed,
		CollectedAt:  rec.CollectedAt,
	}
}

type alertJSON struct {
	ID           int64     `json:"id"`
	ClusterID    *int64    `json:"cluster_id"`
	RecordID     *int64    `json:"record_id"`
	IncidentType string    `json:"incident_type"`
	Level        string    `json:"level"`
	Message      string    `json:"message"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, defaultListLimit)
	records, err := s.store.ListProcessed(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]incidentJSON, 0, len(records))
	for i := range records {
		out = append(out, toIncidentJSON(&records[i]))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid id"))
		return
	}
	rec, err := s.store.GetRecord(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toIncidentJSON(rec))
}

func (s *Server) handleProcessIncident(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid id"))
		return
	}
	result, err := s.pipeline.ProcessRecord(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 100)
	res := s.pipeline.ProcessBatch(r.Context(), limit)
	s.writeJSON(w, http.StatusOK, map[string]int{
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
	})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, defaultListLimit)
	alerts, err := s.store.ListAlerts(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]alertJSON, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertJSON{
			ID:           a.ID,
			ClusterID:    a.ClusterID,
			RecordID:     a.RecordID,
			IncidentType: a.IncidentType,
			Level:        a.Level,
			Message:      a.Message,
			CreatedAt:    a.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{
		"total_records":     st.TotalRecords,
		"processed_records": st.ProcessedRecords,
		"total_alerts":      st.TotalAlerts,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.log.Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
