package export

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/nicktill/sentipipe/pkg/store"
)

const (
	// MaxExportLimit caps how many records a single export request may pull
	MaxExportLimit = 100000
)

// Handler handles export/import HTTP endpoints
type Handler struct {
	exporter *Exporter
	importer *Importer
}

// NewHandler creates a new export/import handler over the processed
// collection
func NewHandler(s store.Store, partitions int) *Handler {
	return &Handler{
		exporter: NewExporter(s),
		importer: NewImporter(s, partitions),
	}
}

// HandleExport handles GET /v1/export
// Query params:
//   - format: "json" or "csv" (default: json)
//   - sentiment, time, age: exact-match filters (optional)
//   - limit: max records (optional)
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	format := query.Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		http.Error(w, "Invalid format. Must be 'json' or 'csv'", http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit == 0 || limit > MaxExportLimit {
		limit = MaxExportLimit
	}

	opts := ExportOptions{
		Sentiment:  query.Get("sentiment"),
		TimePeriod: query.Get("time"),
		AgeBracket: query.Get("age"),
		Limit:      limit,
		Format:     format,
	}

	timestamp := time.Now().Format("20060102-150405")
	if format == "json" {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sentipipe-export-%s.json", timestamp))
	} else {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sentipipe-export-%s.csv", timestamp))
	}

	ctx := r.Context()
	var result *ExportResult
	var err error

	if format == "json" {
		result, err = h.exporter.ExportToJSON(ctx, w, opts)
	} else {
		result, err = h.exporter.ExportToCSV(ctx, w, opts)
	}

	if err != nil {
		log.Printf("❌ Export failed: %v", err)
		http.Error(w, fmt.Sprintf("Export failed: %v", err), http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Exported %d records (%s)", result.RecordsExported, format)
}

// HandleImport handles POST /v1/import
// Accepts JSON backups (application/json) or bootstrap CSV files (text/csv)
// and ingests their records through the regular cleaning and dedup path.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	var result *ImportResult
	var err error

	switch contentType := r.Header.Get("Content-Type"); contentType {
	case "application/json":
		result, err = h.importer.ImportFromJSON(ctx, r.Body)
	case "text/csv":
		result, err = h.importer.ImportFromCSV(ctx, r.Body)
	default:
		http.Error(w, "Content-Type must be application/json or text/csv", http.StatusBadRequest)
		return
	}

	if err != nil {
		log.Printf("❌ Import failed: %v", err)
		http.Error(w, fmt.Sprintf("Import failed: %v", err), http.StatusInternalServerError)
		return
	}

	if len(result.Errors) > 0 {
		log.Printf("⚠️  Import completed with %d malformed rows", len(result.Errors))
		for i, rowErr := range result.Errors {
			if i < 10 {
				log.Printf("   - %s", rowErr)
			}
		}
		if len(result.Errors) > 10 {
			log.Printf("   ... and %d more errors", len(result.Errors)-10)
		}
	}

	log.Printf("✅ Imported %d records (%d inserted, %d updated, %d failed)",
		result.RecordsRead, result.Report.Inserted, result.Report.Updated, result.Report.Failed)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("❌ Failed to encode import response: %v", err)
	}
}
