package config

import "time"

// Server defaults
const (
	DefaultPort        = "8050"
	DefaultDataDir     = "./data/sentipipe"
	DefaultMaxMemoryMB = 48
)

// Collection names. The raw collection holds bootstrap data as loaded; the
// processed collection is what the pipeline writes and the rollups read.
const (
	RawCollection       = "collection_1"
	ProcessedCollection = "processed_sentiment_data"
)

// Pipeline defaults
const (
	// DefaultBatchSize bounds the size of a single atomic bulk upsert.
	DefaultBatchSize = 1000

	// DefaultPartitions is the fan-out of the cleaning step.
	DefaultPartitions = 8
)

// Query timeouts
const (
	WriteTimeout     = 30 * time.Second
	AggregateTimeout = 30 * time.Second
	IngestTimeout    = 10 * time.Second
	ExportTimeout    = 60 * time.Second
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSBroadcastBuffer = 256
	WSChannelBuffer   = 10
	WSWriteDeadline   = 10 * time.Second
	WSReadDeadline    = 60 * time.Second
	WSPingInterval    = 30 * time.Second
)

// BadgerGCInterval is how often the serve command asks BadgerDB to reclaim
// value log space.
const BadgerGCInterval = 10 * time.Minute
