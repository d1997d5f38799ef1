/*
Package store provides the pluggable document store abstraction for sentipipe.

# Store Interface

The pipeline treats the store as a schemaless key-document service and depends
on four primitives only:

	type Store interface {
	    Find(ctx context.Context, q FindQuery) ([]record.Record, error)
	    BulkUpsert(ctx context.Context, ops []UpsertOp) (*BulkResult, error)
	    CreateIndex(ctx context.Context, idx Index) error
	    Count(ctx context.Context, f Filter) (int64, error)
	}

Two backends implement it:
  - memory: in-memory maps for tests and development
  - badger: BadgerDB (LSM tree) for persistent production storage

A DB hands out collection-scoped Store handles, mirroring the
client/database/collection shape of hosted document stores:

	db, err := badger.Open(badger.Config{Path: "./data"})
	if err != nil {
	    log.Fatal(err)
	}
	defer db.Close()

	col := db.Collection("processed_sentiment_data")

# Upsert Semantics

BulkUpsert is atomic per call. Each operation is keyed by textID: absent keys
insert a new document, present keys replace the mutable fields. Calling the
same bulk operation twice leaves the store in the same state; the second call
reports zero inserts.

# Indexes

CreateIndex registers supporting indexes so equality queries on hot fields
avoid full collection scans. Creating an index that already exists is a benign
no-op. The unique textID index is what makes the dedup guarantee cheap.
*/
package store
