// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the corpus in SQLite: documents, embedded chunks,
// entity graph links, and the summary index, plus rebuild bookkeeping.
// Chunk text is mirrored into an FTS5 table for keyword lookup.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/corpus-engine/pkg/types"
)

const dbFile = "corpus.db"

// existingURLBatch bounds the IN clause size of known-URL lookups.
const existingURLBatch = 500

// Store manages the corpus SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the corpus database under cfg.CorpusDir, creating
// the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.CorpusDir
	if dir == "" {
		dir = "corpus"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating corpus directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			host TEXT,
			title TEXT,
			published_at TEXT,
			source TEXT,
			channel TEXT,
			content TEXT,
			ingested_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_ingested_at ON documents(ingested_at)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			doc_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id)`,
		`CREATE TABLE IF NOT EXISTS doc_entities (
			doc_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			entity TEXT NOT NULL,
			PRIMARY KEY (doc_id, entity)
		)`,
		`CREATE TABLE IF NOT EXISTS graph_links (
			entity_a TEXT NOT NULL,
			entity_b TEXT NOT NULL,
			doc_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			PRIMARY KEY (entity_a, entity_b, doc_id)
		)`,
		`CREATE TABLE IF NOT EXISTS summary_nodes (
			id TEXT PRIMARY KEY,
			level INTEGER NOT NULL,
			content TEXT NOT NULL,
			chunk_ids TEXT,
			embedding BLOB,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rebuild_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			last_rebuild TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE chunks_fts USING fts5(content, content=chunks, content_rowid=rowid)`,
			`CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
				INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER chunks_au AFTER UPDATE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO chunks_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// ExistingURLs reports which of the given URLs already have a stored
// document.
func (s *Store) ExistingURLs(ctx context.Context, urls []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	for start := 0; start < len(urls); start += existingURLBatch {
		end := start + existingURLBatch
		if end > len(urls) {
			end = len(urls)
		}
		batch := urls[start:end]

		placeholders := strings.Repeat("?,", len(batch))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]any, len(batch))
		for i, u := range batch {
			args[i] = u
		}

		rows, err := s.db.QueryContext(ctx,
			`SELECT url FROM documents WHERE url IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("querying existing URLs: %w", err)
		}
		for rows.Next() {
			var u string
			if err := rows.Scan(&u); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning URL: %w", err)
			}
			existing[u] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterating URLs: %w", err)
		}
		rows.Close()
	}
	return existing, nil
}

// UpsertDocument stores a document and its chunks in one transaction.
// Re-ingesting a URL replaces the previous chunks; running it twice with
// the same input leaves the store unchanged.
func (s *Store) UpsertDocument(ctx context.Context, doc *types.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("deleting old chunks: %w", err)
	}

	publishedAt := ""
	if !doc.PublishedAt.IsZero() {
		publishedAt = doc.PublishedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, url, host, title, published_at, source, channel, content, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			url=excluded.url, host=excluded.host, title=excluded.title,
			published_at=excluded.published_at, source=excluded.source,
			channel=excluded.channel, content=excluded.content,
			ingested_at=excluded.ingested_at`,
		doc.ID, doc.URL, doc.Host, doc.Title, publishedAt,
		doc.Source, string(doc.Channel), doc.Text,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, doc_id, idx, content, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range doc.Chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, doc.ID, c.Index, c.Text, encodeVector(c.Embedding)); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// DocumentsSince returns documents ingested after the given time, chunks
// included. A zero time returns everything.
func (s *Store) DocumentsSince(ctx context.Context, since time.Time) ([]types.Document, error) {
	marker := ""
	if !since.IsZero() {
		marker = since.UTC().Format(time.RFC3339Nano)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, host, title, published_at, source, channel, content
		 FROM documents WHERE ingested_at > ? ORDER BY ingested_at`, marker)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var (
			doc         types.Document
			publishedAt string
			channel     string
		)
		if err := rows.Scan(&doc.ID, &doc.URL, &doc.Host, &doc.Title, &publishedAt, &doc.Source, &channel, &doc.Text); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if publishedAt != "" {
			if t, err := time.Parse(time.RFC3339Nano, publishedAt); err == nil {
				doc.PublishedAt = t
			}
		}
		doc.Channel = types.SourceChannel(channel)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	for i := range docs {
		chunks, err := s.chunksFor(ctx, docs[i].ID)
		if err != nil {
			return nil, err
		}
		docs[i].Chunks = chunks
	}
	return docs, nil
}

func (s *Store) chunksFor(ctx context.Context, docID string) ([]types.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, idx, content, embedding FROM chunks WHERE doc_id = ? ORDER BY idx`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks for %s: %w", docID, err)
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		var (
			c    types.Chunk
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.Index, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = decodeVector(blob)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// LinkEntities records which entities a document mentions and the pairwise
// co-mentions between them.
func (s *Store) LinkEntities(ctx context.Context, docID string, entities []string) error {
	if len(entities) == 0 {
		return nil
	}

	normalized := make([]string, 0, len(entities))
	seen := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		normalized = append(normalized, e)
	}
	sort.Strings(normalized)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range normalized {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO doc_entities (doc_id, entity) VALUES (?, ?)`, docID, e); err != nil {
			return fmt.Errorf("linking entity %q: %w", e, err)
		}
	}
	for i := 0; i < len(normalized); i++ {
		for j := i + 1; j < len(normalized); j++ {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO graph_links (entity_a, entity_b, doc_id) VALUES (?, ?, ?)`,
				normalized[i], normalized[j], docID); err != nil {
				return fmt.Errorf("linking pair (%q, %q): %w", normalized[i], normalized[j], err)
			}
		}
	}
	return tx.Commit()
}

// UpsertSummaryNodes stores summary index nodes, replacing nodes that share
// an ID.
func (s *Store) UpsertSummaryNodes(ctx context.Context, nodes []types.SummaryNode) error {
	if len(nodes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO summary_nodes (id, level, content, chunk_ids, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing node insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		chunkIDs, _ := json.Marshal(n.ChunkIDs)
		createdAt := n.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		_, err := stmt.ExecContext(ctx,
			n.ID, n.Level, n.Content, string(chunkIDs), encodeVector(n.Embedding),
			createdAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("inserting summary node %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// LastRebuildTime returns the completion time of the last successful summary
// rebuild; the zero time if none has run.
func (s *Store) LastRebuildTime(ctx context.Context) (time.Time, error) {
	var marker string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_rebuild FROM rebuild_state WHERE id = 1`).Scan(&marker)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("querying rebuild state: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, marker)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing rebuild time: %w", err)
	}
	return t, nil
}

// SetLastRebuildTime records a successful rebuild completion.
func (s *Store) SetLastRebuildTime(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rebuild_state (id, last_rebuild) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET last_rebuild=excluded.last_rebuild`,
		t.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording rebuild time: %w", err)
	}
	return nil
}

// ChunkHit is one FTS match.
type ChunkHit struct {
	ChunkID string
	DocID   string
	Title   string
	URL     string
	Snippet string
}

// SearchChunks runs an FTS5 keyword query over chunk text.
func (s *Store) SearchChunks(ctx context.Context, query string, limit int) ([]ChunkHit, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.doc_id, d.title, d.url,
			snippet(chunks_fts, 0, '[', ']', '...', 12)
		 FROM chunks_fts
		 JOIN chunks c ON c.rowid = chunks_fts.rowid
		 JOIN documents d ON d.id = c.doc_id
		 WHERE chunks_fts MATCH ?
		 ORDER BY rank LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var hits []ChunkHit
	for rows.Next() {
		var h ChunkHit
		if err := rows.Scan(&h.ChunkID, &h.DocID, &h.Title, &h.URL, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Stats returns corpus-wide counts and the last rebuild time.
func (s *Store) Stats(ctx context.Context) (types.StoreStats, error) {
	var stats types.StoreStats
	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT count(*) FROM documents`, &stats.Docs},
		{`SELECT count(*) FROM chunks`, &stats.Chunks},
		{`SELECT count(*) FROM summary_nodes`, &stats.SummaryNodes},
		{`SELECT count(*) FROM graph_links`, &stats.GraphLinks},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return types.StoreStats{}, fmt.Errorf("counting: %w", err)
		}
	}

	last, err := s.LastRebuildTime(ctx)
	if err != nil {
		return types.StoreStats{}, err
	}
	stats.LastRebuild = last
	return stats, nil
}

// encodeVector packs a float32 vector into little-endian bytes.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks little-endian bytes into a float32 vector.
func decodeVector(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}
