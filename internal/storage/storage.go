// Package storage persists article embeddings. Two backends implement the
// same contract: PostgreSQL for deployments and an embedded bbolt file for
// DSN-less local runs.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyExists is returned by Save when a record for the same source
// URL is already stored. Callers treat it as a successful no-op; it is the
// backstop for the check-then-save race between concurrent ingestion paths.
var ErrAlreadyExists = errors.New("embedding record already exists")

// ErrVectorParse marks a stored vector that cannot be decoded. Ranking
// skips such records instead of failing the whole call.
var ErrVectorParse = errors.New("stored vector parse failed")

// EmbeddingRecord is one embedded article. Records are created once per
// unique SourceURL and never mutated afterwards.
type EmbeddingRecord struct {
	ID          int64
	SourceURL   string
	Title       string
	Description string
	Publisher   string
	RawVector   string // JSON-encoded []float64
	Dimension   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Vector decodes the stored vector and checks it against the recorded
// dimension.
func (r EmbeddingRecord) Vector() ([]float64, error) {
	var vector []float64
	if err := json.Unmarshal([]byte(r.RawVector), &vector); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrVectorParse, r.SourceURL, err)
	}
	if len(vector) != r.Dimension {
		return nil, fmt.Errorf("%w: %s: dimension %d does not match stored %d",
			ErrVectorParse, r.SourceURL, len(vector), r.Dimension)
	}
	return vector, nil
}

// EncodeVector serializes a vector for storage.
func EncodeVector(vector []float64) (string, error) {
	data, err := json.Marshal(vector)
	if err != nil {
		return "", fmt.Errorf("encode vector: %w", err)
	}
	return string(data), nil
}

// VectorStore is the persistence contract for embedding records. All list
// queries return records newest-first.
type VectorStore interface {
	// FindBySourceURL returns the record for the URL, or nil when absent.
	FindBySourceURL(ctx context.Context, sourceURL string) (*EmbeddingRecord, error)

	// Save inserts a new record. Returns ErrAlreadyExists when the source
	// URL is already stored; records are never updated.
	Save(ctx context.Context, record EmbeddingRecord) error

	// FindRecent returns records created at or after since.
	FindRecent(ctx context.Context, since time.Time) ([]EmbeddingRecord, error)

	// FindAllExcluding returns all records except the one for excludeURL.
	FindAllExcluding(ctx context.Context, excludeURL string) ([]EmbeddingRecord, error)

	// FindByKeyword returns records whose title or description contains the
	// keyword. Pre-filter only, not a ranking.
	FindByKeyword(ctx context.Context, keyword string) ([]EmbeddingRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	Close() error
}
