// Package export provides record backup, restore, and bootstrap loading.
//
// # Overview
//
// The export package moves sentiment records in and out of the processed
// collection. This is useful for:
//   - Loading the initial CSV dataset into the store
//   - Data backup and disaster recovery
//   - Migrating records between instances
//   - Exporting data for analysis in external tools
//
// # Supported Formats
//
// JSON Format:
//   - Preserves the full persisted document shape, including the
//     processing timestamp
//   - Includes export metadata (timestamp, record count, version)
//   - Can be re-imported
//   - Human-readable with pretty-printing
//
// CSV Format:
//   - Same columns as the bootstrap dataset, plus processed_timestamp
//   - Good for analysis in Excel, pandas, or other tools
//   - Can be re-imported (columns are matched by header name)
//
// # HTTP API
//
// Export endpoint: GET /v1/export
// Query parameters:
//   - format: "json" or "csv" (default: json)
//   - sentiment, time, age: exact-match filters (optional)
//   - limit: max records (optional)
//
// Example:
//
//	curl "http://localhost:8050/v1/export?format=json&sentiment=positive" \
//	  -o backup.json
//
// Import endpoint: POST /v1/import
// Content-Type: application/json (backup) or text/csv (bootstrap dataset)
//
// Example:
//
//	curl -X POST "http://localhost:8050/v1/import" \
//	  -H "Content-Type: text/csv" \
//	  --data-binary @train.csv
//
// # Import Semantics
//
// Imports run through the same cleaning and keyed-upsert path as live
// ingestion: rows with empty text or an unknown sentiment label are dropped,
// and rows whose textID already exists replace the stored document instead of
// duplicating it. Importing the same file twice therefore reports zero
// inserts the second time. Malformed CSV rows are skipped and reported in
// ImportResult.Errors rather than failing the whole import.
//
// # Programmatic Usage
//
// Exporting records:
//
//	exporter := export.NewExporter(col)
//	opts := export.ExportOptions{Format: "json"}
//
//	file, _ := os.Create("backup.json")
//	defer file.Close()
//
//	result, err := exporter.ExportToJSON(ctx, file, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Exported %d records\n", result.RecordsExported)
//
// Loading the bootstrap dataset:
//
//	importer := export.NewImporter(col, partitions)
//
//	file, _ := os.Open("train.csv")
//	defer file.Close()
//
//	result, err := importer.ImportFromCSV(ctx, file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Imported %d records (%d inserted, %d updated)\n",
//	    result.RecordsRead, result.Report.Inserted, result.Report.Updated)
package export
