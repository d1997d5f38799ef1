package server

import (
	"log"
	"os"
	"strconv"

	"github.com/nicktill/sentipipe/pkg/config"
	"github.com/nicktill/sentipipe/pkg/export"
	"github.com/nicktill/sentipipe/pkg/ingest"
	"github.com/nicktill/sentipipe/pkg/store/badger"
)

// Config holds pipeline and server configuration.
type Config struct {
	DataDir     string
	Port        string
	MaxMemoryMB int64
	BatchSize   int
	Partitions  int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() Config {
	dataDir := getEnvString("SENTIPIPE_DATA_DIR", config.DefaultDataDir)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	return Config{
		DataDir:     dataDir,
		Port:        getPort(),
		MaxMemoryMB: getEnvInt64("SENTIPIPE_MAX_MEMORY_MB", config.DefaultMaxMemoryMB),
		BatchSize:   getEnvInt("SENTIPIPE_BATCH_SIZE", config.DefaultBatchSize),
		Partitions:  getEnvInt("SENTIPIPE_PARTITIONS", config.DefaultPartitions),
	}
}

// OpenStore opens the BadgerDB document store at the configured path.
func OpenStore(cfg Config) (*badger.DB, error) {
	log.Println("Opening BadgerDB document store with Snappy compression...")
	db, err := badger.Open(badger.Config{
		Path:        cfg.DataDir,
		MaxMemoryMB: cfg.MaxMemoryMB,
	})
	if err != nil {
		return nil, err
	}
	log.Println("BadgerDB document store opened successfully")
	return db, nil
}

// InitializeHandlers creates and configures all request handlers.
func InitializeHandlers(db *badger.DB, cfg Config) (
	*ingest.Handler,
	*ViewHandler,
	*export.Handler,
	*ingest.PipelineHub,
) {
	processed := db.Collection(config.ProcessedCollection)

	hub := ingest.NewPipelineHub()
	log.Println("WebSocket hub created for live ingestion reports")

	ingestHandler := ingest.NewHandler(processed)
	ingestHandler.SetHub(hub)
	log.Println("Ingest handler created (cleaning + dedup upsert)")

	viewHandler := NewViewHandler(processed)
	log.Println("View handler created (overview, rollups, throughput)")

	exportHandler := export.NewHandler(processed, cfg.Partitions)
	log.Println("Export/Import handler created (JSON & CSV backup support)")

	return ingestHandler, viewHandler, exportHandler, hub
}

// getEnvString gets a string from environment variable or returns default.
func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

// getEnvInt gets an int from environment variable or returns default.
func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
		log.Printf("Invalid value for %s: %q, using default %d", key, val, defaultValue)
	}
	return defaultValue
}

// getEnvInt64 gets an int64 from environment variable or returns default.
func getEnvInt64(key string, defaultValue int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
		log.Printf("Invalid value for %s: %q, using default %d", key, val, defaultValue)
	}
	return defaultValue
}

// getPort gets the server port from PORT environment variable or returns default.
func getPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return config.DefaultPort
}
