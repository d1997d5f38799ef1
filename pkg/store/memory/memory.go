package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/store"
)

// DB stores documents in memory. Data is lost on restart.
// Useful for testing and development.
type DB struct {
	collections map[string]*Collection
	mu          sync.Mutex
}

// New creates an in-memory document database
func New() *DB {
	return &DB{
		collections: make(map[string]*Collection),
	}
}

// Collection returns a handle to the named collection, creating it on first
// use.
func (db *DB) Collection(name string) store.Store {
	db.mu.Lock()
	defer db.mu.Unlock()

	col, ok := db.collections[name]
	if !ok {
		col = &Collection{
			docs:    make(map[string]record.Record),
			indexes: make(map[string]store.Index),
		}
		db.collections[name] = col
	}
	return col
}

// Close is a no-op for memory storage
func (db *DB) Close() error {
	return nil
}

// Collection holds one collection's documents keyed by textID
type Collection struct {
	docs    map[string]record.Record
	indexes map[string]store.Index
	mu      sync.RWMutex
}

// Find retrieves documents matching the query
func (c *Collection) Find(ctx context.Context, q store.FindQuery) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var results []record.Record
	for _, doc := range c.docs {
		if !q.Filter.Matches(doc) {
			continue
		}

		results = append(results, store.ApplyProjection(doc, q.Projection))

		if q.Limit > 0 && len(results) >= q.Limit {
			break
		}
	}

	// Map iteration is randomized; keep results deterministic for callers
	// and tests.
	sort.Slice(results, func(i, j int) bool {
		return results[i].TextID < results[j].TextID
	})

	return results, nil
}

// BulkUpsert applies all operations atomically under the collection lock
func (c *Collection) BulkUpsert(ctx context.Context, ops []store.UpsertOp) (*store.BulkResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	result := &store.BulkResult{}
	for _, op := range ops {
		if _, exists := c.docs[op.Key]; exists {
			result.Modified++
		} else {
			result.Inserted++
		}
		doc := op.Record
		doc.TextID = op.Key
		c.docs[op.Key] = doc
	}

	return result, nil
}

// CreateIndex registers an index. The memory backend keeps the registry for
// parity with the badger backend but answers every query by scan.
func (c *Collection) CreateIndex(ctx context.Context, idx store.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-creating an existing index is benign.
	c.indexes[idx.Name()] = idx
	return nil
}

// Count returns the number of documents matching the filter
func (c *Collection) Count(ctx context.Context, f store.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(f) == 0 {
		return int64(len(c.docs)), nil
	}

	var n int64
	for _, doc := range c.docs {
		if f.Matches(doc) {
			n++
		}
	}
	return n, nil
}

// Indexes returns the registered index names, for tests.
func (c *Collection) Indexes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.indexes))
	for name := range c.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
