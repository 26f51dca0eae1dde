package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/insuregraph/insuregraph/internal/types"
)

// EmbeddedStore is an in-memory vector store implementation. It uses
// brute-force search with cosine similarity, suitable for development and
// small-to-medium clause sets. For production policy libraries use the
// SQLite-backed store.
type EmbeddedStore struct {
	mu      sync.RWMutex
	records map[string]Record
	dims    int
}

// NewEmbeddedStore creates a new in-memory vector store.
// dims specifies the expected dimensionality of embedding vectors.
func NewEmbeddedStore(dims int) *EmbeddedStore {
	return &EmbeddedStore{
		records: make(map[string]Record),
		dims:    dims,
	}
}

// Store adds a single record.
func (s *EmbeddedStore) Store(ctx context.Context, record Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if len(record.Embedding) != s.dims {
		return types.NewError(ErrCodeStoreFailed,
			fmt.Sprintf("embedding dimensions mismatch: expected %d, got %d", s.dims, len(record.Embedding)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = record
	return nil
}

// StoreBatch adds multiple records atomically.
func (s *EmbeddedStore) StoreBatch(ctx context.Context, records []Record) error {
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

	for _, record := range records {
		s.records[record.ID] = record
	}

	return nil
}

// Search finds similar records using brute-force cosine similarity, sorted by
// descending score.
func (s *EmbeddedStore) Search(ctx context.Context, query Query) ([]Result, error) {
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

	results := make([]Result, 0, len(s.records))
	for _, record := range s.records {
		if !matchesFilters(record, query.Filters) {
			continue
		}

		score := cosineSimilarity(query.Embedding, record.Embedding)
		if score >= query.MinScore {
			results = append(results, Result{Record: record, Score: score})
		}
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
func (s *EmbeddedStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return nil, types.NewError(ErrCodeRecordNotFound,
			fmt.Sprintf("vector record not found: %s", id))
	}

	return &record, nil
}

// Delete removes a record.
func (s *EmbeddedStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

// Health reports the store state and record count.
func (s *EmbeddedStore) Health(ctx context.Context) types.HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return types.Healthy(fmt.Sprintf("embedded vector store operational with %d records (dims: %d)",
		len(s.records), s.dims))
}

// Close releases resources. The embedded store holds none beyond its map.
func (s *EmbeddedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]Record)
	return nil
}
