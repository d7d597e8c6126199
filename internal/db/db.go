package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"document-testset/internal/config"
	"document-testset/internal/models"
)

type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            int64           `bun:"id,pk,autoincrement"`
	Content       string          `bun:"content,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull,type:vector"`
	PageNumber    int             `bun:"page_number"`
	ChunkID       int             `bun:"chunk_id"`
	Distance      float64         `bun:"distance,scanonly"`
}

// Store keeps chunk embeddings in a pgvector table.
type Store struct {
	db         *bun.DB
	vectorSize int
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the database with bun's pgdriver, or lib/pq when
// cfg.Driver is "pq". No connection is made until first use.
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case "pq":
		return sql.Open("postgres", cfg.DSN)
	case "pgdriver", "":
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewStore connects and prepares the documents table. With cfg.Reset the
// table is dropped first.
func NewStore(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	sqldb, err := ConnectDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	s := &Store{db: NewDB(sqldb, cfg.Debug), vectorSize: cfg.VectorSize}

	if cfg.Reset {
		if err := s.DropDocuments(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}
	if err := s.InitDB(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InitDB(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, createTableSQL(s.vectorSize)); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

// AddChunks inserts chunks with their embeddings in a single statement.
func (s *Store) AddChunks(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks))
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]Document, len(chunks))
	for i, c := range chunks {
		docs[i] = Document{
			Content:    c.Content,
			Embedding:  pgvector.NewVector(vectors[i]),
			PageNumber: c.PageNumber,
			ChunkID:    c.ChunkID,
		}
	}
	if _, err := s.db.NewInsert().Model(&docs).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	log.Debug().Int("count", len(docs)).Msg("Stored documents")
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*Document)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Reset removes every stored chunk.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.truncateQuery().Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}

func (s *Store) truncateQuery() *bun.TruncateTableQuery {
	return s.db.NewTruncateTable().Model((*Document)(nil))
}

// Search returns the limit nearest chunks by L2 distance. Similarity is the
// cosine similarity implied by that distance for unit-length embeddings.
func (s *Store) Search(ctx context.Context, vector []float32, limit int) ([]models.SearchResult, error) {
	var docs []Document
	if err := s.searchQuery(&docs, vector, limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	out := make([]models.SearchResult, len(docs))
	for i, d := range docs {
		out[i] = models.SearchResult{Chunk: models.Chunk{
			Content:    d.Content,
			PageNumber: d.PageNumber,
			ChunkID:    d.ChunkID,
		}, Similarity: distanceToSimilarity(d.Distance)}
	}
	return out, nil
}

func (s *Store) searchQuery(docs *[]Document, vector []float32, limit int) *bun.SelectQuery {
	v := pgvector.NewVector(vector)
	return s.db.NewSelect().
		Model(docs).
		Column("id", "content", "page_number", "chunk_id").
		ColumnExpr("embedding <-> ? AS distance", v).
		OrderExpr("embedding <-> ?", v).
		Limit(limit)
}

// for unit vectors |a-b|^2 = 2 - 2cos(a, b)
func distanceToSimilarity(d float64) float32 {
	return float32(1 - d*d/2)
}

func createTableSQL(vectorSize int) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
	id BIGSERIAL PRIMARY KEY,
	content TEXT NOT NULL,
	embedding vector(%d) NOT NULL,
	page_number INTEGER,
	chunk_id INTEGER
)`, vectorSize)
}

func (s *Store) DropDocuments(ctx context.Context) error {
	if _, err := s.db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop documents table: %w", err)
	}
	return nil
}
