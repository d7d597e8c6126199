package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-testset/internal/chromemdb"
	"document-testset/internal/config"
	"document-testset/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{OutputDir: t.TempDir()}
	config.ApplyDefaults(cfg)
	cfg.RAG.StorePath = t.TempDir()
	return cfg
}

func TestRun_DryRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.DocumentPath = testutil.WritePDF(t, "doc.pdf", [][]string{{"Only one page of text."}})

	require.NoError(t, run(context.Background(), cfg, "", true))
}

func TestRun_MissingDocument(t *testing.T) {
	cfg := testConfig(t)
	cfg.DocumentPath = "does-not-exist.pdf"

	assert.Error(t, run(context.Background(), cfg, "", true))
}

func TestOpenVectorStore_Chromem(t *testing.T) {
	embed := testutil.NewMockEmbedder(8).EmbedQuery

	for _, backend := range []string{config.VectorStoreMemory, config.VectorStoreChromem} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.RAG.VectorStore = backend

			store, closeStore, err := openVectorStore(context.Background(), cfg, embed)
			require.NoError(t, err)
			defer closeStore()
			assert.IsType(t, &chromemdb.VectorDBManager{}, store)
		})
	}
}
