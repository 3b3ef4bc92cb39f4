package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

var bucketEmbeddings = []byte("embeddings")

// BoltStore is the embedded backend used when no database DSN is
// configured. Records are keyed by source URL; queries are full scans,
// which is fine at the few-thousand-record scale a single instance sees.
type BoltStore struct {
	db *bbolt.DB
}

var _ VectorStore = (*BoltStore)(nil)

type boltRecord struct {
	ID          int64     `json:"id"`
	SourceURL   string    `json:"source_url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Publisher   string    `json:"publisher"`
	Vector      string    `json:"vector"`
	Dimension   int       `json:"dimension"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewBoltStore opens (or creates) the embedded store file.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// FindBySourceURL returns the record for the URL, or nil when absent.
func (s *BoltStore) FindBySourceURL(ctx context.Context, sourceURL string) (*EmbeddingRecord, error) {
	var found *EmbeddingRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEmbeddings).Get([]byte(sourceURL))
		if data == nil {
			return nil
		}
		var br boltRecord
		if err := json.Unmarshal(data, &br); err != nil {
			return fmt.Errorf("decode record %s: %w", sourceURL, err)
		}
		rec := fromBoltRecord(br)
		found = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Save inserts a record. The duplicate check runs inside the same write
// transaction, so concurrent saves of one URL cannot both succeed.
func (s *BoltStore) Save(ctx context.Context, record EmbeddingRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		key := []byte(record.SourceURL)
		if b.Get(key) != nil {
			return ErrAlreadyExists
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}

		now := time.Now()
		br := boltRecord{
			ID:          int64(seq),
			SourceURL:   record.SourceURL,
			Title:       record.Title,
			Description: record.Description,
			Publisher:   record.Publisher,
			Vector:      record.RawVector,
			Dimension:   record.Dimension,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if !record.CreatedAt.IsZero() {
			br.CreatedAt = record.CreatedAt
			br.UpdatedAt = record.CreatedAt
		}

		data, err := json.Marshal(br)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		return b.Put(key, data)
	})
}

// FindRecent returns records created at or after since, newest first.
func (s *BoltStore) FindRecent(ctx context.Context, since time.Time) ([]EmbeddingRecord, error) {
	return s.scan(func(r EmbeddingRecord) bool {
		return !r.CreatedAt.Before(since)
	})
}

// FindAllExcluding returns every record except excludeURL, newest first.
func (s *BoltStore) FindAllExcluding(ctx context.Context, excludeURL string) ([]EmbeddingRecord, error) {
	return s.scan(func(r EmbeddingRecord) bool {
		return r.SourceURL != excludeURL
	})
}

// FindByKeyword does a substring match over title and description.
func (s *BoltStore) FindByKeyword(ctx context.Context, keyword string) ([]EmbeddingRecord, error) {
	return s.scan(func(r EmbeddingRecord) bool {
		return strings.Contains(r.Title, keyword) || strings.Contains(r.Description, keyword)
	})
}

// Count returns the number of stored records.
func (s *BoltStore) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *BoltStore) scan(keep func(EmbeddingRecord) bool) ([]EmbeddingRecord, error) {
	var records []EmbeddingRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).ForEach(func(k, v []byte) error {
			var br boltRecord
			if err := json.Unmarshal(v, &br); err != nil {
				// Skip corrupted entries
				return nil
			}
			r := fromBoltRecord(br)
			if keep(r) {
				records = append(records, r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Newest first, matching the Postgres ordering contract.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func fromBoltRecord(br boltRecord) EmbeddingRecord {
	return EmbeddingRecord{
		ID:          br.ID,
		SourceURL:   br.SourceURL,
		Title:       br.Title,
		Description: br.Description,
		Publisher:   br.Publisher,
		RawVector:   br.Vector,
		Dimension:   br.Dimension,
		CreatedAt:   br.CreatedAt,
		UpdatedAt:   br.UpdatedAt,
	}
}

// Close closes the underlying file.
func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
