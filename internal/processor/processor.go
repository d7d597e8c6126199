// Package processor runs the testset pipeline over a single document: load,
// index, generate, save and display.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"document-testset/internal/config"
	"document-testset/internal/helper"
	"document-testset/internal/models"
	"document-testset/internal/parser"
	"document-testset/internal/testgen"
	"document-testset/internal/testset"
)

var (
	ErrNoChunks      = errors.New("no chunks loaded")
	ErrNoVectorStore = errors.New("vector store not created")
	ErrNoTestset     = errors.New("no testset generated")

	ErrVectorCountMismatch = errors.New("vector store size does not match chunk count")
)

// Embedder is satisfied by langchaingo's embeddings.Embedder.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes chunk embeddings for similarity search.
type VectorStore interface {
	Reset(ctx context.Context) error
	AddChunks(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, vector []float32, n int) ([]models.SearchResult, error)
}

type DocumentParser interface {
	Parse(filePath string) ([]models.Chunk, error)
}

// DocumentProcessor holds the state of one pipeline run. It is not safe for
// concurrent use.
type DocumentProcessor struct {
	cfg    *config.Config
	parser DocumentParser
	out    io.Writer

	chunks        []models.Chunk
	embedder      Embedder
	store         VectorStore
	knowledgeBase *testgen.KnowledgeBase
	testset       *testset.Testset
}

type Option func(*DocumentProcessor)

func WithParser(p DocumentParser) Option {
	return func(dp *DocumentProcessor) { dp.parser = p }
}

// WithOutput sets where DisplayQuestions prints. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(dp *DocumentProcessor) { dp.out = w }
}

func New(cfg *config.Config, opts ...Option) *DocumentProcessor {
	dp := &DocumentProcessor{
		cfg:    cfg,
		parser: parser.New(cfg.RAG),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(dp)
	}
	return dp
}

// LoadPDF reads the configured document and keeps its chunks.
func (dp *DocumentProcessor) LoadPDF() error {
	chunks, err := dp.parser.Parse(dp.cfg.DocumentPath)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	dp.chunks = chunks

	log.Info().Msgf("Loaded %d documents from %s.", len(chunks), dp.cfg.DocumentPath)
	return nil
}

func (dp *DocumentProcessor) Chunks() []models.Chunk {
	return dp.chunks
}

// CreateVectorStore embeds every chunk and replaces the contents of store with
// them. The embedder and store are kept for Search.
func (dp *DocumentProcessor) CreateVectorStore(ctx context.Context, embedder Embedder, store VectorStore) error {
	if len(dp.chunks) == 0 {
		return ErrNoChunks
	}

	texts := make([]string, len(dp.chunks))
	for i, c := range dp.chunks {
		texts[i] = c.Content
	}

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to clear vector store: %w", err)
	}
	if err := store.AddChunks(ctx, dp.chunks, vectors); err != nil {
		return fmt.Errorf("failed to index chunks: %w", err)
	}
	n, err := store.Count(ctx)
	if err != nil {
		return err
	}
	if n != len(dp.chunks) {
		return fmt.Errorf("%w: indexed %d entries for %d chunks", ErrVectorCountMismatch, n, len(dp.chunks))
	}
	dp.embedder = embedder
	dp.store = store

	log.Info().Int("chunks", len(dp.chunks)).Msg("Created vector store")
	return nil
}

// VectorCount reports how many entries the vector store holds.
func (dp *DocumentProcessor) VectorCount(ctx context.Context) (int, error) {
	if dp.store == nil {
		return 0, ErrNoVectorStore
	}
	return dp.store.Count(ctx)
}

// Search returns the n chunks most similar to query.
func (dp *DocumentProcessor) Search(ctx context.Context, query string, n int) ([]models.SearchResult, error) {
	if dp.store == nil {
		return nil, ErrNoVectorStore
	}
	vector, err := dp.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return dp.store.Search(ctx, vector, n)
}

// GenerateTestset builds the knowledge base from the loaded chunks and asks
// gen for numQuestions samples. The number of samples returned is whatever
// the generator produced.
func (dp *DocumentProcessor) GenerateTestset(ctx context.Context, gen testgen.Generator, numQuestions int, description string) error {
	if numQuestions <= 0 {
		return fmt.Errorf("%w: %d", testgen.ErrInvalidQuestionCount, numQuestions)
	}

	texts := make([]string, len(dp.chunks))
	for i, c := range dp.chunks {
		texts[i] = c.Content
	}
	kb, err := testgen.NewKnowledgeBase(texts)
	if err != nil {
		return err
	}
	dp.knowledgeBase = kb

	ts, err := gen.Generate(ctx, kb, numQuestions, description)
	if err != nil {
		return fmt.Errorf("failed to generate testset: %w", err)
	}
	dp.testset = ts

	log.Info().Msgf("Generated testset with %d questions.", numQuestions)
	if ts.Len() != numQuestions {
		log.Warn().Int("requested", numQuestions).Int("generated", ts.Len()).Msg("Generator returned a different number of questions")
	}
	return nil
}

func (dp *DocumentProcessor) KnowledgeBase() *testgen.KnowledgeBase {
	return dp.knowledgeBase
}

func (dp *DocumentProcessor) Testset() *testset.Testset {
	return dp.testset
}

// OutputPaths resolves the configured output files against the output dir.
func (dp *DocumentProcessor) OutputPaths() testset.Paths {
	t := dp.cfg.Testset
	paths := testset.Paths{
		JSONL: filepath.Join(dp.cfg.OutputDir, t.JSONLFile),
		CSV:   filepath.Join(dp.cfg.OutputDir, t.CSVFile),
	}
	if t.XLSXFile != "" {
		paths.XLSX = filepath.Join(dp.cfg.OutputDir, t.XLSXFile)
	}
	return paths
}

// SaveOutputs writes the testset as JSONL and CSV, replacing existing files.
func (dp *DocumentProcessor) SaveOutputs() error {
	if dp.testset == nil {
		return ErrNoTestset
	}

	if err := helper.CreateFolder(dp.cfg.OutputDir); err != nil {
		return err
	}
	paths := dp.OutputPaths()
	if err := dp.testset.Save(paths); err != nil {
		return fmt.Errorf("failed to save outputs: %w", err)
	}

	log.Info().Msgf("Saved testset and output table to '%s' and '%s'.", paths.JSONL, paths.CSV)
	return nil
}

// DisplayQuestions prints up to numQuestions samples.
func (dp *DocumentProcessor) DisplayQuestions(numQuestions int) error {
	if dp.testset == nil {
		return ErrNoTestset
	}
	return dp.testset.Display(dp.out, numQuestions)
}
