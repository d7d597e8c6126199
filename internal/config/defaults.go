package config

import "os"

const (
	VectorStoreMemory   = "memory"
	VectorStoreChromem  = "chromem"
	VectorStorePostgres = "postgres"

	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	DefaultDocumentPath      = "GSTSGCH13.pdf"
	DefaultModel             = "gpt-3.5-turbo"
	DefaultEmbeddingModel    = "text-embedding-ada-002"
	DefaultChunkSize         = 1000
	DefaultChunkOverlap      = 20
	DefaultQuestionCount     = 15
	DefaultDisplayCount      = 3
	DefaultTemperature       = 0.5
	DefaultDomainDescription = "A chatbot answering questions about the Legal Payment of Taxes"
)

// ApplyDefaults sets default values for any zero values in cfg. Empty API keys
// fall back to OPENAI_API_KEY.
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DocumentPath == "" {
		cfg.DocumentPath = DefaultDocumentPath
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	applyLLMDefaults(&cfg.LLM, DefaultModel)
	applyLLMDefaults(&cfg.EmbedLLM, DefaultEmbeddingModel)
	if cfg.EmbedLLM.BatchSize == 0 {
		cfg.EmbedLLM.BatchSize = 512
	}

	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = DefaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.RAG.VectorStore == "" {
		cfg.RAG.VectorStore = VectorStoreMemory
	}
	if cfg.RAG.StorePath == "" {
		cfg.RAG.StorePath = "./chromemdb"
	}
	if cfg.RAG.Collection == "" {
		cfg.RAG.Collection = "document_chunks"
	}
	if cfg.RAG.SearchResults == 0 {
		cfg.RAG.SearchResults = 4
	}

	if cfg.Testset.QuestionCount == 0 {
		cfg.Testset.QuestionCount = DefaultQuestionCount
	}
	if cfg.Testset.DisplayCount == 0 {
		cfg.Testset.DisplayCount = DefaultDisplayCount
	}
	if cfg.Testset.DomainDescription == "" {
		cfg.Testset.DomainDescription = DefaultDomainDescription
	}
	if cfg.Testset.Temperature == nil {
		t := DefaultTemperature
		cfg.Testset.Temperature = &t
	}
	if cfg.Testset.JSONLFile == "" {
		cfg.Testset.JSONLFile = "testset.jsonl"
	}
	if cfg.Testset.CSVFile == "" {
		cfg.Testset.CSVFile = "out.csv"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "pgdriver"
	}
	if cfg.Database.VectorSize == 0 {
		cfg.Database.VectorSize = 1536
	}
}

func applyLLMDefaults(c *LLMConfig, model string) {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.Key == "" && c.Provider == ProviderOpenAI {
		c.Key = os.Getenv(apiKeyEnv)
	}
}
