package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/nicktill/sentipipe/pkg/export"
	"github.com/nicktill/sentipipe/pkg/httpx"
	"github.com/nicktill/sentipipe/pkg/ingest"
	"github.com/nicktill/sentipipe/pkg/server/monitor"
)

var startTime = time.Now()

// StorageUsage represents current storage usage stats.
type StorageUsage struct {
	UsedBytes int64 `json:"used_bytes"`
	MaxBytes  int64 `json:"max_bytes"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string           `json:"status"`
	Version string           `json:"version"`
	Uptime  string           `json:"uptime"`
	GC      monitor.GCStatus `json:"gc"`
}

// handleHealth returns service health status.
func handleHealth(gcMonitor *monitor.GCMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gcHealthy := gcMonitor.IsHealthy()
		overallStatus := "healthy"
		statusCode := http.StatusOK

		if !gcHealthy {
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:  overallStatus,
			Version: "1.0.0",
			Uptime:  time.Since(startTime).String(),
			GC:      gcMonitor.Status(),
		}

		httpx.RespondJSON(w, statusCode, response)
	}
}

// handleStorageUsage returns current storage usage.
func handleStorageUsage(monitor *monitor.StorageMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usedBytes, err := monitor.GetUsage()
		if err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
			return
		}

		usage := StorageUsage{
			UsedBytes: usedBytes,
			MaxBytes:  monitor.GetLimit(),
		}

		httpx.RespondJSON(w, http.StatusOK, usage)
	}
}

// SetupRoutes configures all HTTP routes for the server.
func SetupRoutes(
	router *mux.Router,
	ingestHandler *ingest.Handler,
	viewHandler *ViewHandler,
	exportHandler *export.Handler,
	storageMonitor *monitor.StorageMonitor,
	gcMonitor *monitor.GCMonitor,
	hub *ingest.PipelineHub,
	port string,
) {
	// CORS middleware for API access
	router.Use(corsMiddleware(port))

	// API routes
	api := router.PathPrefix("/v1").Subrouter()

	// Record ingestion
	api.HandleFunc("/records", ingestHandler.HandleIngest).Methods("POST")

	// Dashboard read API
	api.HandleFunc("/overview", viewHandler.HandleOverview).Methods("GET")
	api.HandleFunc("/rollup/time", viewHandler.HandleRollupTime).Methods("GET")
	api.HandleFunc("/rollup/age", viewHandler.HandleRollupAge).Methods("GET")
	api.HandleFunc("/rollup/age-time", viewHandler.HandleRollupAgeTime).Methods("GET")
	api.HandleFunc("/throughput", viewHandler.HandleThroughput).Methods("GET")

	// Service health and storage usage
	api.HandleFunc("/storage", handleStorageUsage(storageMonitor)).Methods("GET")
	api.HandleFunc("/health", handleHealth(gcMonitor)).Methods("GET")

	// WebSocket for live ingestion reports
	api.HandleFunc("/ws", hub.HandleWebSocket).Methods("GET")

	// Export/import
	api.HandleFunc("/export", exportHandler.HandleExport).Methods("GET")
	api.HandleFunc("/import", exportHandler.HandleImport).Methods("POST")
}

// corsMiddleware creates CORS middleware that restricts to localhost origins only.
func corsMiddleware(port string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Allow localhost origins for local development
			allowedOrigins := []string{
				"http://localhost:" + port,
				"http://127.0.0.1:" + port,
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			}

			// Check if origin is allowed
			allowed := false
			for _, allowedOrigin := range allowedOrigins {
				if origin == allowedOrigin {
					allowed = true
					break
				}
			}

			// Only set CORS headers for allowed origins
			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
