package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// Index tracks cached documents in a SQLite database next to the cache
// files, backing `cache stats` and `cache gc`. The cache itself works
// without it; the index is bookkeeping.
type Index struct {
	db *sql.DB
}

// OpenIndex creates or opens the index database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to index: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Index{db: db}, nil
}

// Close closes the database connection.
func (ix *Index) Close() error {
	if ix.db == nil {
		return nil
	}
	return ix.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	// No incremental migrations yet; rows written by version 0 binaries
	// match the version 1 schema.
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}

// IndexEntry describes one cached document.
type IndexEntry struct {
	ID          string
	DocPath     string
	ChunksHash  string
	Generator   string
	ByteSize    int64
	Compression string
	Seq         int64
}

// Record upserts the entry for a document. Rewrites of the same document
// replace the previous row and move it to the end of the gc order.
func (ix *Index) Record(ctx context.Context, docPath, chunksHash, generator string, byteSize int64, compression Compression) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("record cache entry: %w", err)
	}
	_, err = ix.db.ExecContext(ctx, `
		INSERT INTO documents
		(id, doc_path, chunks_hash, generator, byte_size, compression, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM documents))
		ON CONFLICT(doc_path) DO UPDATE SET
			chunks_hash = excluded.chunks_hash,
			generator = excluded.generator,
			byte_size = excluded.byte_size,
			compression = excluded.compression,
			seq = excluded.seq
	`, id.String(), docPath, chunksHash, generator, byteSize, string(compression))
	if err != nil {
		return fmt.Errorf("record cache entry: %w", err)
	}
	return nil
}

// Stats summarizes the indexed cache.
type Stats struct {
	Documents     int64            `json:"documents"`
	TotalBytes    int64            `json:"total_bytes"`
	ByCompression map[string]int64 `json:"by_compression"`
}

// Stats reports document count and byte totals, broken down by
// compression.
func (ix *Index) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByCompression: make(map[string]int64)}

	err := ix.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(byte_size), 0) FROM documents
	`).Scan(&stats.Documents, &stats.TotalBytes)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}

	rows, err := ix.db.QueryContext(ctx, `
		SELECT compression, COUNT(*) FROM documents GROUP BY compression
	`)
	if err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var compression string
		var count int64
		if err := rows.Scan(&compression, &count); err != nil {
			return Stats{}, fmt.Errorf("cache stats: %w", err)
		}
		stats.ByCompression[compression] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}

// Entries returns every indexed document in gc order, oldest first.
func (ix *Index) Entries(ctx context.Context) ([]IndexEntry, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT id, doc_path, chunks_hash, generator, byte_size, compression, seq
		FROM documents ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		var e IndexEntry
		if err := rows.Scan(&e.ID, &e.DocPath, &e.ChunksHash, &e.Generator, &e.ByteSize, &e.Compression, &e.Seq); err != nil {
			return nil, fmt.Errorf("list cache entries: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	return entries, nil
}

// GC drops all but the keep most recently written entries and returns
// the dropped rows so the caller can remove their cache files.
func (ix *Index) GC(ctx context.Context, keep int) ([]IndexEntry, error) {
	if keep < 0 {
		return nil, fmt.Errorf("cache gc: negative keep count %d", keep)
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cache gc: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, doc_path, chunks_hash, generator, byte_size, compression, seq
		FROM documents ORDER BY seq DESC LIMIT -1 OFFSET ?
	`, keep)
	if err != nil {
		return nil, fmt.Errorf("cache gc: %w", err)
	}
	var doomed []IndexEntry
	for rows.Next() {
		var e IndexEntry
		if err := rows.Scan(&e.ID, &e.DocPath, &e.ChunksHash, &e.Generator, &e.ByteSize, &e.Compression, &e.Seq); err != nil {
			rows.Close()
			return nil, fmt.Errorf("cache gc: %w", err)
		}
		doomed = append(doomed, e)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("cache gc: %w", err)
	}

	for _, e := range doomed {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, e.ID); err != nil {
			return nil, fmt.Errorf("cache gc: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cache gc: %w", err)
	}
	return doomed, nil
}
