package ingest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HealthServer exposes health and metrics endpoints while a run is in
// flight, so long ingestion runs can be observed from outside.
type HealthServer struct {
	port    int
	runID   string
	metrics *Metrics
	logger  *zap.Logger
	server  *http.Server
}

// HealthResponse is the JSON response for /health.
type HealthResponse struct {
	Status            string `json:"status"`
	RunID             string `json:"run_id"`
	Uptime            string `json:"uptime"`
	FilesAttempted    int64  `json:"files_attempted"`
	RecordsLoaded     int64  `json:"records_loaded"`
	RecordsRejected   int64  `json:"records_rejected"`
	LoadFailures      int64  `json:"load_failures"`
	DeliveriesWritten int64  `json:"deliveries_written"`
	InningsSkipped    int64  `json:"innings_skipped"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorTime     string `json:"last_error_time,omitempty"`
}

// NewHealthServer creates a health server backed by the run's metrics.
func NewHealthServer(port int, runID string, metrics *Metrics, logger *zap.Logger) *HealthServer {
	return &HealthServer{port: port, runID: runID, metrics: metrics, logger: logger}
}

// Start begins serving in a background goroutine.
func (hs *HealthServer) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/metrics", hs.handleHealth)

	hs.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", hs.port),
		Handler: mux,
	}

	go func() {
		if err := hs.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			hs.logger.Warn("health server error", zap.Error(err))
		}
	}()
}

// Stop shuts the server down.
func (hs *HealthServer) Stop() error {
	if hs.server != nil {
		return hs.server.Close()
	}
	return nil
}

func (hs *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := hs.metrics.Snapshot()

	resp := HealthResponse{
		Status:            "healthy",
		RunID:             hs.runID,
		Uptime:            time.Since(snap.StartTime).Round(time.Second).String(),
		FilesAttempted:    snap.FilesAttempted,
		RecordsLoaded:     snap.RecordsLoaded,
		RecordsRejected:   snap.RecordsRejected,
		LoadFailures:      snap.LoadFailures,
		DeliveriesWritten: snap.DeliveriesWritten,
		InningsSkipped:    snap.InningsSkipped,
		LastError:         snap.LastError,
	}
	if !snap.LastErrorTime.IsZero() {
		resp.LastErrorTime = snap.LastErrorTime.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		hs.logger.Warn("failed to encode health response", zap.Error(err))
	}
}
