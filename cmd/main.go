package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"document-testset/internal/chromemdb"
	"document-testset/internal/config"
	"document-testset/internal/db"
	"document-testset/internal/embedding"
	"document-testset/internal/helper"
	"document-testset/internal/llmservice"
	"document-testset/internal/models"
	"document-testset/internal/processor"
	"document-testset/internal/testgen"
)

const configFilePath = "./configs/config.yaml"

func main() {
	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	filePath := flag.String("file", "", "Path to the document file (overrides config)")
	questions := flag.Int("questions", 0, "Number of questions to generate (overrides config)")
	display := flag.Int("display", 0, "Number of questions to print (overrides config)")
	query := flag.String("query", "", "Run a similarity search against the vector store after indexing")
	dryRun := flag.Bool("dry-run", false, "Load and print chunks only")
	flag.Parse()

	setupLogger("info")
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Error loading .env")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *filePath != "" {
		cfg.DocumentPath = *filePath
	}
	if *questions != 0 {
		cfg.Testset.QuestionCount = *questions
	}
	if *display != 0 {
		cfg.Testset.DisplayCount = *display
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	setupLogger(cfg.LogLevel)
	log.Debug().
		Str("document", cfg.DocumentPath).
		Str("model", cfg.LLM.Model).
		Str("embedding_model", cfg.EmbedLLM.Model).
		Int("chunk_size", cfg.RAG.ChunkSize).
		Int("chunk_overlap", cfg.RAG.ChunkOverlap).
		Str("vector_store", cfg.RAG.VectorStore).
		Msg("Loaded config")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *query, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Testset generation failed")
	}
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

func run(ctx context.Context, cfg *config.Config, query string, dryRun bool) error {
	dp := processor.New(cfg)

	if err := dp.LoadPDF(); err != nil {
		return err
	}
	if dryRun {
		helper.PrettyPrint(dp.Chunks())
		return nil
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return err
	}
	store, closeStore, err := openVectorStore(ctx, cfg, embedder.EmbedQuery)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := dp.CreateVectorStore(ctx, embedder, store); err != nil {
		return err
	}
	if m, ok := store.(*chromemdb.VectorDBManager); ok && cfg.RAG.Export {
		if err := m.Export(); err != nil {
			return err
		}
	}
	if query != "" {
		if err := searchChunks(ctx, dp, query, cfg.RAG.SearchResults); err != nil {
			return err
		}
	}

	llm, err := llmservice.New(&cfg.LLM)
	if err != nil {
		return err
	}
	gen := testgen.NewLLMGenerator(llm,
		testgen.WithTemperature(cfg.Testset.SamplingTemperature()),
		testgen.WithSeed(cfg.Testset.Seed),
	)
	if err := dp.GenerateTestset(ctx, gen, cfg.Testset.QuestionCount, cfg.Testset.DomainDescription); err != nil {
		return err
	}

	if err := dp.SaveOutputs(); err != nil {
		return err
	}
	return dp.DisplayQuestions(cfg.Testset.DisplayCount)
}

// openVectorStore returns the configured store and a function releasing it.
func openVectorStore(ctx context.Context, cfg *config.Config, embed func(context.Context, string) ([]float32, error)) (processor.VectorStore, func(), error) {
	switch cfg.RAG.VectorStore {
	case config.VectorStorePostgres:
		store, err := db.NewStore(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres vector store: %w", err)
		}
		return store, func() { store.Close() }, nil
	default:
		inMemory := cfg.RAG.VectorStore == config.VectorStoreMemory
		if !inMemory {
			if err := helper.CreateFolder(cfg.RAG.StorePath); err != nil {
				return nil, nil, err
			}
		}
		store, err := chromemdb.NewVectorDBManager(cfg.RAG.StorePath, cfg.RAG.Collection, inMemory, cfg.RAG.EncryptionKey, embed)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create vector database manager: %w", err)
		}
		return store, func() {}, nil
	}
}

func searchChunks(ctx context.Context, dp *processor.DocumentProcessor, query string, n int) error {
	results, err := dp.Search(ctx, query, n)
	if err != nil {
		return err
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	for _, r := range results {
		fmt.Printf("[page %d, chunk %d, similarity %.3f]\n%s\n%s\n", r.PageNumber, r.ChunkID, r.Similarity, r.Content, models.ContextSeparator)
	}
	return nil
}
