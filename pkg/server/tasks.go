package server

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/nicktill/sentipipe/pkg/config"
	"github.com/nicktill/sentipipe/pkg/ingest"
	"github.com/nicktill/sentipipe/pkg/server/monitor"
	"github.com/nicktill/sentipipe/pkg/store"
	"github.com/nicktill/sentipipe/pkg/store/badger"
)

// RunBadgerGC runs BadgerDB garbage collection periodically to reclaim disk
// space. Repeated upserts of the same textID accumulate dead versions in the
// value log; GC is what keeps disk usage bounded.
func RunBadgerGC(db *badger.DB, gcMonitor *monitor.GCMonitor, stop chan bool, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(config.BadgerGCInterval)
	defer ticker.Stop()

	log.Printf("BadgerDB GC scheduler started (runs every %v)", config.BadgerGCInterval)

	for {
		select {
		case <-ticker.C:
			log.Println("Running BadgerDB garbage collection...")
			start := time.Now()

			// One value log rewrite per tick; reclaim when half the file is garbage
			err := db.RunGC(0.5)
			switch {
			case err == nil:
				gcMonitor.RecordSuccess()
				log.Printf("GC completed in %v (disk space reclaimed)", time.Since(start).Round(time.Millisecond))
			case errors.Is(err, badgerdb.ErrNoRewrite):
				gcMonitor.RecordSuccess()
				log.Printf("GC completed in %v (no rewrite needed)", time.Since(start).Round(time.Millisecond))
			default:
				gcMonitor.RecordFailure(err)
				log.Printf("GC failed: %v", err)
			}
		case <-stop:
			log.Println("Stopping BadgerDB GC scheduler")
			return
		}
	}
}

// BroadcastLiveCount periodically pushes the processed-record count to
// WebSocket clients so dashboards see growth without polling.
// Uses exponential backoff on errors to prevent log spam during outages.
func BroadcastLiveCount(ctx context.Context, s store.Store, hub *ingest.PipelineHub) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	var consecutiveErrors int
	var lastErrorTime time.Time
	const maxBackoff = 5 * time.Minute

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Skip counting if no clients connected - saves resources
			if !hub.HasClients() {
				continue
			}

			count, err := s.Count(ctx, nil)
			if err != nil {
				consecutiveErrors++
				now := time.Now()

				// Exponential backoff: 1s, 2s, 4s ... capped at 5m
				backoff := time.Duration(1<<uint(min(consecutiveErrors-1, 8))) * time.Second
				if backoff > maxBackoff {
					backoff = maxBackoff
				}

				if lastErrorTime.IsZero() || now.Sub(lastErrorTime) >= backoff {
					log.Printf("Failed to count records for broadcast (error #%d, backoff %v): %v",
						consecutiveErrors, backoff, err)
					lastErrorTime = now
				}
				continue
			}

			if consecutiveErrors > 0 {
				log.Printf("Live count broadcast recovered after %d errors", consecutiveErrors)
				consecutiveErrors = 0
			}

			hub.Broadcast(ingest.ProgressEvent{
				Stage:      "live",
				StoreCount: count,
				At:         time.Now(),
			})
		}
	}
}

// min returns the minimum of two integers.
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
