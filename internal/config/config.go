package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const apiKeyEnv = "OPENAI_API_KEY"

type Config struct {
	LogLevel     string         `yaml:"log_level"`
	DocumentPath string         `yaml:"document_path"`
	OutputDir    string         `yaml:"output_dir"`
	LLM          LLMConfig      `yaml:"llm"`
	EmbedLLM     LLMConfig      `yaml:"embed_llm"`
	RAG          RAGConfig      `yaml:"rag"`
	Testset      TestsetConfig  `yaml:"testset"`
	Database     DatabaseConfig `yaml:"database"`
}

// LLMConfig describes one model endpoint. Provider is "openai" or "ollama".
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	Key       string `yaml:"key"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

type RAGConfig struct {
	ChunkSize     int    `yaml:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap"`
	VectorStore   string `yaml:"vector_store"` // memory, chromem or postgres
	StorePath     string `yaml:"store_path"`
	Collection    string `yaml:"collection"`
	EncryptionKey string `yaml:"encryption_key"`
	Export        bool   `yaml:"export"`
	SearchResults int    `yaml:"search_results"`
}

type TestsetConfig struct {
	QuestionCount     int      `yaml:"question_count"`
	DisplayCount      int      `yaml:"display_count"`
	DomainDescription string   `yaml:"domain_description"`
	Temperature       *float64 `yaml:"temperature"` // nil means DefaultTemperature
	Seed              int64    `yaml:"seed"`
	JSONLFile         string   `yaml:"jsonl_file"`
	CSVFile           string   `yaml:"csv_file"`
	XLSXFile          string   `yaml:"xlsx_file"`
}

type DatabaseConfig struct {
	DSN        string `yaml:"dsn"`
	Password   string `yaml:"password"`
	Driver     string `yaml:"driver"` // pgdriver or pq
	VectorSize int    `yaml:"vector_size"`
	Reset      bool   `yaml:"reset"`
	Debug      bool   `yaml:"debug"`
}

// LoadConfig reads the YAML file at path and applies defaults. A missing file
// yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// SamplingTemperature returns the configured temperature, which may be an
// explicit 0.
func (t TestsetConfig) SamplingTemperature() float64 {
	if t.Temperature == nil {
		return DefaultTemperature
	}
	return *t.Temperature
}

// Validate reports configuration values that can never work.
func (c *Config) Validate() error {
	if c.DocumentPath == "" {
		return errors.New("document path is required")
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, %d), got %d", c.RAG.ChunkSize, c.RAG.ChunkOverlap)
	}
	switch c.RAG.VectorStore {
	case VectorStoreMemory, VectorStoreChromem, VectorStorePostgres:
	default:
		return fmt.Errorf("unknown vector store %q", c.RAG.VectorStore)
	}
	if c.RAG.VectorStore == VectorStorePostgres && c.Database.DSN == "" {
		return errors.New("database dsn is required for the postgres vector store")
	}
	return nil
}
