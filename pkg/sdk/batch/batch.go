// Package batch buffers records and flushes them to a transport in batches.
package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/sdk/transport"
)

// Config holds configuration for the batcher
type Config struct {
	MaxBatchSize int
	FlushEvery   time.Duration
}

// Batcher batches records and sends them periodically
type Batcher struct {
	config    Config
	transport transport.Transport

	records []record.Raw
	mu      sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Prevents concurrent flushes and unbounded goroutine spawning
	flushing atomic.Bool
}

// New creates a new batcher
func New(transport transport.Transport, config Config) *Batcher {
	return &Batcher{
		config:    config,
		transport: transport,
		records:   make([]record.Raw, 0, config.MaxBatchSize),
		done:      make(chan struct{}),
	}
}

// Start starts the batcher's flush loop
func (b *Batcher) Start(ctx context.Context) error {
	b.ctx, b.cancel = context.WithCancel(ctx)

	go b.flushLoop()
	return nil
}

// Add adds a record to the batch, flushing in the background when the batch
// is full. CompareAndSwap ensures only one flush goroutine runs at a time.
func (b *Batcher) Add(raw record.Raw) {
	b.mu.Lock()
	b.records = append(b.records, raw)
	shouldFlush := len(b.records) >= b.config.MaxBatchSize
	b.mu.Unlock()

	if shouldFlush && b.flushing.CompareAndSwap(false, true) {
		go func() {
			b.flush()
			b.flushing.Store(false)
		}()
	}
}

// Flush synchronously sends all pending records
func (b *Batcher) Flush() error {
	b.mu.Lock()
	if len(b.records) == 0 {
		b.mu.Unlock()
		return nil
	}

	records := make([]record.Raw, len(b.records))
	copy(records, b.records)
	b.records = b.records[:0]
	b.mu.Unlock()

	return b.sendRecords(records)
}

// Stop stops the batcher and flushes what is left
func (b *Batcher) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}

	// Wait for flush loop to finish
	<-b.done

	return b.Flush()
}

func (b *Batcher) flushLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.config.FlushEvery)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			if b.flushing.CompareAndSwap(false, true) {
				b.flush()
				b.flushing.Store(false)
			}
		}
	}
}

// flush sends pending records without blocking the caller
func (b *Batcher) flush() {
	b.mu.Lock()
	if len(b.records) == 0 {
		b.mu.Unlock()
		return
	}

	records := make([]record.Raw, len(b.records))
	copy(records, b.records)
	b.records = b.records[:0]
	b.mu.Unlock()

	// Send in background to avoid blocking
	go b.sendRecords(records)
}

func (b *Batcher) sendRecords(records []record.Raw) error {
	// Stop cancels b.ctx before the final Flush; fall back to a fresh
	// context so shutdown still delivers what is buffered.
	parent := b.ctx
	if parent == nil || parent.Err() != nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, 5*time.Second)
	defer cancel()

	return b.transport.Send(ctx, records)
}
