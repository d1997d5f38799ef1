package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nicktill/sentipipe/pkg/config"
	"github.com/nicktill/sentipipe/pkg/httpx"
	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/store"
)

// MaxRecordsPerRequest caps a single ingest payload. Larger loads belong to
// the batch CLI path.
const MaxRecordsPerRequest = 10000

// Handler handles record ingestion over HTTP. It runs the same clean +
// dedup-upsert pipeline as the batch process command.
type Handler struct {
	store      store.Store
	writer     *Writer
	hub        *PipelineHub
	partitions int
}

// NewHandler creates a new ingest handler
func NewHandler(s store.Store) *Handler {
	return &Handler{
		store:      s,
		writer:     NewWriter(s),
		partitions: config.DefaultPartitions,
	}
}

// SetHub attaches a hub for live progress broadcasts
func (h *Handler) SetHub(hub *PipelineHub) {
	h.hub = hub
}

// IngestRequest represents the request payload
type IngestRequest struct {
	Records []record.Raw `json:"records"`
}

// IngestResponse represents the response payload
type IngestResponse struct {
	Status      string      `json:"status"`
	Report      WriteReport `json:"report"`
	Diagnostics Diagnostics `json:"diagnostics"`
	StoreCount  int64       `json:"store_count"`
}

// HandleIngest handles POST /v1/records
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if len(req.Records) > MaxRecordsPerRequest {
		httpx.RespondErrorString(w, http.StatusBadRequest,
			fmt.Sprintf("too many records: %d (max %d)", len(req.Records), MaxRecordsPerRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.IngestTimeout)
	defer cancel()

	cleaned, diag := CleanAll(req.Records, h.partitions)
	report := h.writer.Write(ctx, cleaned)

	count, err := h.store.Count(ctx, nil)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(ProgressEvent{
			Stage:       "ingest",
			Report:      report,
			Diagnostics: diag,
			StoreCount:  count,
			At:          time.Now(),
		})
	}

	status := "success"
	if report.Failed > 0 {
		status = "partial"
	}
	httpx.RespondJSON(w, http.StatusOK, IngestResponse{
		Status:      status,
		Report:      report,
		Diagnostics: diag,
		StoreCount:  count,
	})
}
