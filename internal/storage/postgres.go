package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

// PostgresStore keeps embedding records in PostgreSQL. The UNIQUE
// constraint on source_url is the real dedup guard; Save surfaces
// conflicts as ErrAlreadyExists.
type PostgresStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ VectorStore = (*PostgresStore)(nil)

// NewPostgresStore connects and ensures the schema exists.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	store := &PostgresStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %v", err)
	}

	log.Println("✅ PostgreSQL vector store connected successfully")
	return store, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS news_embeddings (
		id BIGSERIAL PRIMARY KEY,
		source_url VARCHAR(500) UNIQUE NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		publisher VARCHAR(100) NOT NULL,
		vector TEXT NOT NULL,
		dimension INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_news_embeddings_created_at ON news_embeddings(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %v", err)
	}
	return nil
}

var recordColumns = []string{
	"id", "source_url", "title", "description", "publisher",
	"vector", "dimension", "created_at", "updated_at",
}

// FindBySourceURL returns the record for the URL, or nil when absent.
func (s *PostgresStore) FindBySourceURL(ctx context.Context, sourceURL string) (*EmbeddingRecord, error) {
	query, args, err := s.sb.Select(recordColumns...).
		From("news_embeddings").
		Where(sq.Eq{"source_url": sourceURL}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var r EmbeddingRecord
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&r.ID, &r.SourceURL, &r.Title, &r.Description, &r.Publisher,
		&r.RawVector, &r.Dimension, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by source url: %w", err)
	}
	return &r, nil
}

// Save inserts a record; a source_url conflict becomes ErrAlreadyExists.
func (s *PostgresStore) Save(ctx context.Context, record EmbeddingRecord) error {
	query, args, err := s.sb.Insert("news_embeddings").
		Columns("source_url", "title", "description", "publisher", "vector", "dimension").
		Values(record.SourceURL, record.Title, record.Description, record.Publisher, record.RawVector, record.Dimension).
		Suffix("ON CONFLICT (source_url) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert embedding: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// FindRecent returns records created at or after since, newest first.
func (s *PostgresStore) FindRecent(ctx context.Context, since time.Time) ([]EmbeddingRecord, error) {
	query, args, err := s.sb.Select(recordColumns...).
		From("news_embeddings").
		Where(sq.GtOrEq{"created_at": since}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.queryRecords(ctx, query, args)
}

// FindAllExcluding returns every record except excludeURL, newest first.
func (s *PostgresStore) FindAllExcluding(ctx context.Context, excludeURL string) ([]EmbeddingRecord, error) {
	query, args, err := s.sb.Select(recordColumns...).
		From("news_embeddings").
		Where(sq.NotEq{"source_url": excludeURL}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.queryRecords(ctx, query, args)
}

// FindByKeyword does a substring match over title and description.
func (s *PostgresStore) FindByKeyword(ctx context.Context, keyword string) ([]EmbeddingRecord, error) {
	pattern := "%" + keyword + "%"
	query, args, err := s.sb.Select(recordColumns...).
		From("news_embeddings").
		Where(sq.Or{sq.Like{"title": pattern}, sq.Like{"description": pattern}}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.queryRecords(ctx, query, args)
}

// Count returns the total number of stored records.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM news_embeddings`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) queryRecords(ctx context.Context, query string, args []interface{}) ([]EmbeddingRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var records []EmbeddingRecord
	for rows.Next() {
		var r EmbeddingRecord
		err := rows.Scan(
			&r.ID, &r.SourceURL, &r.Title, &r.Description, &r.Publisher,
			&r.RawVector, &r.Dimension, &r.CreatedAt, &r.UpdatedAt,
		)
		if err != nil {
			log.Printf("⚠️ Error scanning embedding row: %v", err)
			continue
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
