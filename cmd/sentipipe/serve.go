package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/nicktill/sentipipe/pkg/config"
	"github.com/nicktill/sentipipe/pkg/server"
	"github.com/nicktill/sentipipe/pkg/server/monitor"
)

const (
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 30 * time.Second
	shutdownTimeout    = 30 * time.Second

	// Conservative cap for a self-hosted data directory; the dataset is small
	// and repeated upserts are reclaimed by GC.
	maxStorageBytes = 1 << 30
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard HTTP API",
	Long: `Starts the HTTP API: record ingestion, the overview and rollup read
endpoints, live WebSocket updates, export/import, and health and storage
monitoring. Runs until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("🚀 Starting sentipipe server...")

	cfg := server.LoadConfig()
	log.Printf("📁 Data directory: %s", cfg.DataDir)

	db, err := server.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	storageMonitor := monitor.NewStorageMonitor(cfg.DataDir, maxStorageBytes)
	gcMonitor := &monitor.GCMonitor{}

	ingestHandler, viewHandler, exportHandler, hub := server.InitializeHandlers(db, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	log.Println("📡 WebSocket hub started for live ingestion reports")

	wg.Add(1)
	go func() {
		defer wg.Done()
		server.BroadcastLiveCount(ctx, db.Collection(config.ProcessedCollection), hub)
	}()
	log.Println("📤 Live count broadcaster started (updates every 5s)")

	stopGC := make(chan bool)
	wg.Add(1)
	go server.RunBadgerGC(db, gcMonitor, stopGC, &wg)

	router := mux.NewRouter()
	server.SetupRoutes(router, ingestHandler, viewHandler, exportHandler,
		storageMonitor, gcMonitor, hub, cfg.Port)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	go func() {
		log.Printf("🌐 Server starting on http://localhost:%s", cfg.Port)
		log.Println("📡 API endpoints:")
		log.Println("   POST /v1/records          - Ingest labeled records")
		log.Println("   GET  /v1/overview         - Overall sentiment mix")
		log.Println("   GET  /v1/rollup/time      - Sentiment by time of day")
		log.Println("   GET  /v1/rollup/age       - Sentiment by age group")
		log.Println("   GET  /v1/rollup/age-time  - Age and time correlation")
		log.Println("   GET  /v1/throughput       - Ingestion throughput")
		log.Println("   GET  /v1/export           - Backup records")
		log.Println("✅ Server ready to accept requests")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutdown signal received...")

	// Cancel the context before wg.Wait() so background goroutines exit
	log.Println("⏸️  Stopping background tasks...")
	cancel()
	close(stopGC)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	log.Println("🔄 Gracefully shutting down server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Server shutdown warning: %v", err)
	}

	log.Println("⏳ Waiting for background tasks to complete...")
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("✅ All background tasks stopped cleanly")
	case <-time.After(5 * time.Second):
		log.Println("⚠️  Some background tasks did not stop in time (forcing exit)")
	}

	log.Println("👋 sentipipe server exited cleanly")
	return nil
}
