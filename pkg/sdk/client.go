// Package sdk is a small Go client for pushing labeled records into a
// running sentipipe server. Records are buffered and posted to /v1/records
// in batches; the server applies the same cleaning and dedup rules as the
// batch pipeline, so submitting a record twice updates it instead of
// duplicating it.
//
// Usage:
//
//	client, err := sdk.New(sdk.ClientConfig{Endpoint: "http://localhost:8050/v1/records"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop()
//
//	client.Record(record.Raw{
//	    TextID:     "t1",
//	    Text:       "having a great morning",
//	    Sentiment:  "positive",
//	    TimePeriod: "morning",
//	    AgeBracket: "21-30",
//	})
package sdk

import (
	"context"
	"fmt"
	"time"

	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/sdk/batch"
	"github.com/nicktill/sentipipe/pkg/sdk/transport"
)

// ClientConfig holds configuration for the sentipipe client
type ClientConfig struct {
	Endpoint     string        `json:"endpoint"`
	APIKey       string        `json:"api_key"`
	FlushEvery   time.Duration `json:"flush_every"`
	MaxBatchSize int           `json:"max_batch_size"`
}

// Client buffers records and ships them to the ingest endpoint
type Client struct {
	config    ClientConfig
	transport transport.Transport
	batcher   *batch.Batcher

	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new client
func New(cfg ClientConfig) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:8050/v1/records"
	}
	if cfg.FlushEvery == 0 {
		cfg.FlushEvery = 5 * time.Second
	}
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = 1000
	}

	trans, err := transport.NewHTTP(cfg.Endpoint, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	return &Client{
		config:    cfg,
		transport: trans,
		batcher: batch.New(trans, batch.Config{
			MaxBatchSize: cfg.MaxBatchSize,
			FlushEvery:   cfg.FlushEvery,
		}),
	}, nil
}

// Start starts the client's background flushing
func (c *Client) Start(ctx context.Context) error {
	if c.started {
		return fmt.Errorf("client already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true

	if err := c.batcher.Start(c.ctx); err != nil {
		return fmt.Errorf("failed to start batcher: %w", err)
	}
	return nil
}

// Stop stops the client and flushes remaining records
func (c *Client) Stop() error {
	if !c.started {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	if err := c.batcher.Stop(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}

	c.started = false
	return nil
}

// Record queues one labeled record for submission. Dropped silently when the
// client is not started.
func (c *Client) Record(raw record.Raw) {
	if !c.started {
		return
	}
	c.batcher.Add(raw)
}

// Flush synchronously sends everything buffered so far
func (c *Client) Flush() error {
	return c.batcher.Flush()
}
