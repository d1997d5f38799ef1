package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/nicktill/sentipipe/pkg/record"
	"github.com/nicktill/sentipipe/pkg/store"
)

// Key layout inside one BadgerDB instance:
//
//	d/<collection>/<textID>                                  -> JSON document
//	m/<collection>/<indexName>                               -> JSON index definition
//	x/<collection>/<indexName>/<fieldValues...>/<id hash>    -> textID
//
// Field values in index entry keys are NUL-separated; the trailing id hash
// keeps entries for the same value tuple distinct and fixed-width.

// DB implements store.DB using BadgerDB (LSM tree)
type DB struct {
	db *badger.DB
}

// Config holds BadgerDB configuration
type Config struct {
	// Path to store database files
	Path string

	// InMemory mode (for testing)
	InMemory bool

	// MaxMemoryMB limits BadgerDB memory usage in MB (0 = laptop-friendly defaults)
	MaxMemoryMB int64
}

// Open creates a BadgerDB-backed document database
func Open(cfg Config) (*DB, error) {
	opts := badger.DefaultOptions(cfg.Path)

	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	// Same conservative memory budget as the defaults we ship for
	// self-hosted deployments: BadgerDB's own defaults assume much more
	// RAM than a batch pipeline needs.
	var memTableSize int64
	if cfg.MaxMemoryMB > 0 {
		memTableSize = cfg.MaxMemoryMB * 1024 * 1024 / 3
	} else {
		memTableSize = 16 * 1024 * 1024
	}

	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(3).
		WithBlockCacheSize(memTableSize / 2).
		WithIndexCacheSize(memTableSize / 4).
		WithMaxLevels(4).
		WithNumCompactors(1).
		WithValueThreshold(1024).
		WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &DB{db: db}, nil
}

// Collection returns a handle to the named collection
func (d *DB) Collection(name string) store.Store {
	return &Collection{db: d.db, name: name}
}

// Close shuts down BadgerDB cleanly
func (d *DB) Close() error {
	return d.db.Close()
}

// RunGC runs BadgerDB's value log garbage collection, reclaiming disk space
// from replaced documents. Returns badger.ErrNoRewrite when nothing needed
// collecting.
func (d *DB) RunGC(discardRatio float64) error {
	return d.db.RunValueLogGC(discardRatio)
}

// Collection is a collection-scoped view over the shared BadgerDB
type Collection struct {
	db   *badger.DB
	name string
}

// Find retrieves documents matching the query. Equality filters that exactly
// cover a registered index are answered by an index prefix scan; everything
// else falls back to a full collection scan.
func (c *Collection) Find(ctx context.Context, q store.FindQuery) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []record.Record
	err := c.db.View(func(txn *badger.Txn) error {
		if idx, ok := c.coveringIndex(txn, q.Filter); ok {
			ids, err := c.scanIndex(ctx, txn, idx, q.Filter, q.Limit)
			if err != nil {
				return err
			}
			for _, id := range ids {
				doc, err := c.getDoc(txn, id)
				if err != nil {
					return err
				}
				results = append(results, store.ApplyProjection(doc, q.Projection))
			}
			return nil
		}

		return c.scanDocs(ctx, txn, func(doc record.Record) bool {
			if !q.Filter.Matches(doc) {
				return true
			}
			results = append(results, store.ApplyProjection(doc, q.Projection))
			return q.Limit == 0 || len(results) < q.Limit
		})
	})
	if err != nil {
		return nil, fmt.Errorf("find failed: %w", err)
	}
	return results, nil
}

// BulkUpsert applies all operations in a single transaction. Either every
// operation in the call lands or none does.
func (c *Collection) BulkUpsert(ctx context.Context, ops []store.UpsertOp) (*store.BulkResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &store.BulkResult{}
	err := c.db.Update(func(txn *badger.Txn) error {
		indexes, err := c.loadIndexes(txn)
		if err != nil {
			return err
		}

		for i, op := range ops {
			// Check context periodically (every 100 operations)
			if i%100 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}

			prev, found, err := c.lookupDoc(txn, op.Key)
			if err != nil {
				return err
			}

			doc := op.Record
			doc.TextID = op.Key
			value, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to encode document %q: %w", op.Key, err)
			}
			if err := txn.Set(c.docKey(op.Key), value); err != nil {
				return fmt.Errorf("failed to write document %q: %w", op.Key, err)
			}

			// Maintain index entries: drop stale ones, write current ones.
			for _, idx := range indexes {
				if found {
					if old, ok := c.entryKey(idx, prev); ok {
						cur, _ := c.entryKey(idx, doc)
						if !bytes.Equal(old, cur) {
							if err := txn.Delete(old); err != nil {
								return err
							}
						}
					}
				}
				if cur, ok := c.entryKey(idx, doc); ok {
					if err := txn.Set(cur, []byte(op.Key)); err != nil {
						return err
					}
				}
			}

			if found {
				result.Modified++
			} else {
				result.Inserted++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk upsert failed: %w", err)
	}
	return result, nil
}

// CreateIndex registers an index and backfills entries for existing
// documents. Creating an index that already exists is a benign no-op.
func (c *Collection) CreateIndex(ctx context.Context, idx store.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return c.db.Update(func(txn *badger.Txn) error {
		metaKey := c.indexMetaKey(idx.Name())
		if _, err := txn.Get(metaKey); err == nil {
			return nil // already exists
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		def, err := json.Marshal(idx)
		if err != nil {
			return fmt.Errorf("failed to encode index definition: %w", err)
		}
		if err := txn.Set(metaKey, def); err != nil {
			return fmt.Errorf("failed to register index %q: %w", idx.Name(), err)
		}

		var backfillErr error
		err = c.scanDocs(ctx, txn, func(doc record.Record) bool {
			key, ok := c.entryKey(idx, doc)
			if !ok {
				return true
			}
			if backfillErr = txn.Set(key, []byte(doc.TextID)); backfillErr != nil {
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		return backfillErr
	})
}

// Count returns the number of documents matching the filter
func (c *Collection) Count(ctx context.Context, f store.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var n int64
	err := c.db.View(func(txn *badger.Txn) error {
		if idx, ok := c.coveringIndex(txn, f); ok {
			ids, err := c.scanIndex(ctx, txn, idx, f, 0)
			if err != nil {
				return err
			}
			n = int64(len(ids))
			return nil
		}

		// Key-only scan when there is no filter.
		if len(f) == 0 {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = c.docPrefix()
			it := txn.NewIterator(opts)
			defer it.Close()
			for it.Rewind(); it.Valid(); it.Next() {
				n++
			}
			return nil
		}

		return c.scanDocs(ctx, txn, func(doc record.Record) bool {
			if f.Matches(doc) {
				n++
			}
			return true
		})
	})
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return n, nil
}

// scanDocs iterates every document in the collection, calling fn until it
// returns false. Context is checked every 1000 iterations so stalled scans
// respect timeouts.
func (c *Collection) scanDocs(ctx context.Context, txn *badger.Txn, fn func(record.Record) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = 100
	opts.Prefix = c.docPrefix()

	it := txn.NewIterator(opts)
	defer it.Close()

	var iterCount int
	for it.Rewind(); it.Valid(); it.Next() {
		iterCount++
		if iterCount%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		var doc record.Record
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
		if err != nil {
			return fmt.Errorf("failed to decode document: %w", err)
		}
		if !fn(doc) {
			break
		}
	}
	return nil
}

// scanIndex collects document ids from an index prefix scan
func (c *Collection) scanIndex(ctx context.Context, txn *badger.Txn, idx store.Index, f store.Filter, limit int) ([]string, error) {
	values := make([]string, len(idx.Fields))
	for i, field := range idx.Fields {
		values[i] = f[field]
	}

	opts := badger.DefaultIteratorOptions
	opts.Prefix = c.entryPrefix(idx.Name(), values)

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	var iterCount int
	for it.Rewind(); it.Valid(); it.Next() {
		iterCount++
		if iterCount%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		err := it.Item().Value(func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// coveringIndex returns a registered index whose fields exactly cover the
// filter, if one exists.
func (c *Collection) coveringIndex(txn *badger.Txn, f store.Filter) (store.Index, bool) {
	if len(f) == 0 {
		return store.Index{}, false
	}

	indexes, err := c.loadIndexes(txn)
	if err != nil {
		return store.Index{}, false
	}

	for _, idx := range indexes {
		if len(idx.Fields) != len(f) {
			continue
		}
		covered := true
		for _, field := range idx.Fields {
			if _, ok := f[field]; !ok {
				covered = false
				break
			}
		}
		if covered {
			return idx, true
		}
	}
	return store.Index{}, false
}

// loadIndexes reads the collection's index registry
func (c *Collection) loadIndexes(txn *badger.Txn) ([]store.Index, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte("m/" + c.name + "/")

	it := txn.NewIterator(opts)
	defer it.Close()

	var indexes []store.Index
	for it.Rewind(); it.Valid(); it.Next() {
		var idx store.Index
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &idx)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to decode index definition: %w", err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

func (c *Collection) getDoc(txn *badger.Txn, id string) (record.Record, error) {
	doc, found, err := c.lookupDoc(txn, id)
	if err != nil {
		return record.Record{}, err
	}
	if !found {
		return record.Record{}, fmt.Errorf("dangling index entry for %q", id)
	}
	return doc, nil
}

func (c *Collection) lookupDoc(txn *badger.Txn, id string) (record.Record, bool, error) {
	item, err := txn.Get(c.docKey(id))
	if err == badger.ErrKeyNotFound {
		return record.Record{}, false, nil
	}
	if err != nil {
		return record.Record{}, false, err
	}

	var doc record.Record
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	})
	return doc, err == nil, err
}

func (c *Collection) docPrefix() []byte {
	return []byte("d/" + c.name + "/")
}

func (c *Collection) docKey(id string) []byte {
	return append(c.docPrefix(), id...)
}

func (c *Collection) indexMetaKey(name string) []byte {
	return []byte("m/" + c.name + "/" + name)
}

// entryPrefix builds the index entry prefix for a value tuple
func (c *Collection) entryPrefix(indexName string, values []string) []byte {
	key := []byte("x/" + c.name + "/" + indexName + "/")
	for _, v := range values {
		key = append(key, v...)
		key = append(key, 0x00)
	}
	return key
}

// entryKey builds the full index entry key for a document, ending in a
// fixed-width hash of the document id. Documents missing an indexed field
// produce no entry.
func (c *Collection) entryKey(idx store.Index, doc record.Record) ([]byte, bool) {
	values := make([]string, len(idx.Fields))
	for i, field := range idx.Fields {
		v, ok := doc.Field(field)
		if !ok {
			return nil, false
		}
		values[i] = v
	}

	key := c.entryPrefix(idx.Name(), values)
	var hash [8]byte
	binary.BigEndian.PutUint64(hash[:], xxhash.Sum64String(doc.TextID))
	return append(key, hash[:]...), true
}
