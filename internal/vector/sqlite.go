package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/insuregraph/insuregraph/internal/types"
)

// SqliteStore is a persistent vector store backed by SQLite. Similarity
// search is brute-force in Go over the stored embeddings, which is adequate
// for policy clause libraries (thousands to low hundreds of thousands of
// passages). Thread-safe.
type SqliteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dims   int
	table  string
	closed bool
}

// SqliteConfig holds configuration for SqliteStore.
type SqliteConfig struct {
	DBPath string // Path to SQLite database file
	Table  string // Table name (default: "clause_vectors")
	Dims   int    // Embedding dimensions
}

// NewSqliteStore creates a persistent vector store, initializing the schema
// if needed.
func NewSqliteStore(cfg SqliteConfig) (*SqliteStore, error) {
	if cfg.DBPath == "" {
		return nil, types.NewError(ErrCodeInvalidConfig, "database path cannot be empty")
	}
	if cfg.Dims <= 0 {
		return nil, types.NewError(ErrCodeInvalidConfig,
			fmt.Sprintf("dimensions must be positive, got %d", cfg.Dims))
	}
	if cfg.Table == "" {
		cfg.Table = "clause_vectors"
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", cfg.DBPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(ErrCodeStoreFailed, "failed to open database", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, types.WrapError(ErrCodeStoreFailed, "failed to ping database", err)
	}

	store := &SqliteStore{
		db:    db,
		dims:  cfg.Dims,
		table: cfg.Table,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, types.WrapError(ErrCodeStoreFailed, "failed to initialize schema", err)
	}

	return store, nil
}

func (s *SqliteStore) initSchema() error {
	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			embedding BLOB NOT NULL,
			metadata TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, s.table)

	if _, err := s.db.Exec(createSQL); err != nil {
		return fmt.Errorf("failed to create %s table: %w", s.table, err)
	}
	return nil
}

// Store adds a single record.
func (s *SqliteStore) Store(ctx context.Context, record Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if len(record.Embedding) != s.dims {
		return types.NewError(ErrCodeStoreFailed,
			fmt.Sprintf("embedding dimensions mismatch: expected %d, got %d", s.dims, len(record.Embedding)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.NewError(ErrCodeStoreUnavailable, "vector store is closed")
	}

	metadataJSON, err := marshalMetadata(record.Metadata)
	if err != nil {
		return types.WrapError(ErrCodeStoreFailed, "failed to serialize metadata", err)
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (id, content, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.table)

	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		record.Content,
		encodeEmbedding(record.Embedding),
		metadataJSON,
		record.CreatedAt,
	)
	if err != nil {
		return types.WrapError(ErrCodeStoreFailed, "failed to insert record", err)
	}

	return nil
}

// StoreBatch adds multiple records in one transaction.
func (s *SqliteStore) StoreBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	for i, record := range records {
		if err := record.Validate(); err != nil {
			return types.WrapError(ErrCodeStoreFailed,
				fmt.Sprintf("invalid record at index %d", i), err)
		}
		if len(record.Embedding) != s.dims {
			return types.NewError(ErrCodeStoreFailed,
				fmt.Sprintf("record %d: embedding dimensions mismatch: expected %d, got %d",
					i, s.dims, len(record.Embedding)))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.NewError(ErrCodeStoreUnavailable, "vector store is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.WrapError(ErrCodeStoreFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (id, content, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.table)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return types.WrapError(ErrCodeStoreFailed, "failed to prepare statement", err)
	}
	defer stmt.Close()

	for _, record := range records {
		metadataJSON, err := marshalMetadata(record.Metadata)
		if err != nil {
			return types.WrapError(ErrCodeStoreFailed, "failed to serialize metadata", err)
		}

		if _, err := stmt.ExecContext(ctx,
			record.ID,
			record.Content,
			encodeEmbedding(record.Embedding),
			metadataJSON,
			record.CreatedAt,
		); err != nil {
			return types.WrapError(ErrCodeStoreFailed, "failed to insert batch record", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.WrapError(ErrCodeStoreFailed, "failed to commit transaction", err)
	}

	return nil
}

// Search finds similar records by embedding vector.
func (s *SqliteStore) Search(ctx context.Context, query Query) ([]Result, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if len(query.Embedding) != s.dims {
		return nil, types.NewError(ErrCodeSearchFailed,
			fmt.Sprintf("query embedding dimensions mismatch: expected %d, got %d",
				s.dims, len(query.Embedding)))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, types.NewError(ErrCodeStoreUnavailable, "vector store is closed")
	}

	querySQL := fmt.Sprintf("SELECT id, content, embedding, metadata, created_at FROM %s", s.table)
	rows, err := s.db.QueryContext(ctx, querySQL)
	if err != nil {
		return nil, types.WrapError(ErrCodeSearchFailed, "failed to query vectors", err)
	}
	defer rows.Close()

	results := make([]Result, 0)
	for rows.Next() {
		record, err := scanRecord(rows, s.dims)
		if err != nil {
			return nil, err
		}

		if !matchesFilters(*record, query.Filters) {
			continue
		}

		score := cosineSimilarity(query.Embedding, record.Embedding)
		if score >= query.MinScore {
			results = append(results, Result{Record: *record, Score: score})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, types.WrapError(ErrCodeSearchFailed, "error iterating rows", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > query.TopK {
		results = results[:query.TopK]
	}

	return results, nil
}

// Get retrieves a specific record by ID.
func (s *SqliteStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, types.NewError(ErrCodeStoreUnavailable, "vector store is closed")
	}

	query := fmt.Sprintf("SELECT id, content, embedding, metadata, created_at FROM %s WHERE id = ?", s.table)
	row := s.db.QueryRowContext(ctx, query, id)

	record, err := scanRecord(row, s.dims)
	if err == sql.ErrNoRows {
		return nil, types.NewError(ErrCodeRecordNotFound, fmt.Sprintf("vector record not found: %s", id))
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Delete removes a record.
func (s *SqliteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.NewError(ErrCodeStoreUnavailable, "vector store is closed")
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return types.WrapError(ErrCodeStoreFailed, "failed to delete record", err)
	}

	return nil
}

// Health returns the current health status of the store.
func (s *SqliteStore) Health(ctx context.Context) types.HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return types.Unhealthy("sqlite vector store is closed")
	}

	if err := s.db.PingContext(ctx); err != nil {
		return types.Unhealthy(fmt.Sprintf("database ping failed: %v", err))
	}

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return types.Degraded(fmt.Sprintf("failed to count records: %v", err))
	}

	return types.Healthy(fmt.Sprintf("sqlite vector store operational with %d records (dims: %d)", count, s.dims))
}

// Close releases all resources held by the store.
func (s *SqliteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, dims int) (*Record, error) {
	var record Record
	var embeddingBytes []byte
	var metadataJSON []byte

	if err := row.Scan(&record.ID, &record.Content, &embeddingBytes, &metadataJSON, &record.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, types.WrapError(ErrCodeSearchFailed, "failed to scan record", err)
	}

	embedding, err := decodeEmbedding(embeddingBytes, dims)
	if err != nil {
		return nil, types.WrapError(ErrCodeSearchFailed, "failed to decode embedding", err)
	}
	record.Embedding = embedding

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
			return nil, types.WrapError(ErrCodeSearchFailed, "failed to decode metadata", err)
		}
	}

	return &record, nil
}

func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	return json.Marshal(metadata)
}

// encodeEmbedding serializes a float64 slice as little-endian bytes, 8 bytes
// per element.
func encodeEmbedding(embedding []float64) []byte {
	buf := make([]byte, len(embedding)*8)
	for i, v := range embedding {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding deserializes bytes back into a float64 slice.
func decodeEmbedding(buf []byte, dims int) ([]float64, error) {
	if len(buf) != dims*8 {
		return nil, fmt.Errorf("invalid embedding bytes length: expected %d, got %d", dims*8, len(buf))
	}

	embedding := make([]float64, dims)
	for i := range embedding {
		embedding[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return embedding, nil
}
