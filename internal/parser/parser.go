package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"document-testset/internal/config"
	"document-testset/internal/models"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	metadataPage   = "page"
	metadataSource = "source"
)

// Parser turns a document on disk into ordered chunks.
type Parser struct {
	splitter textsplitter.TextSplitter
}

// New returns a parser splitting pages with a recursive character splitter
// sized by cfg.RAG. Zero values fall back to the defaults.
func New(cfg config.RAGConfig) *Parser {
	size, overlap := cfg.ChunkSize, cfg.ChunkOverlap
	if size <= 0 {
		size = config.DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = config.DefaultChunkOverlap
	}

	return &Parser{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		),
	}
}

// Parse reads filePath and splits it into chunks. Chunks never span pages and
// keep the 1-based page they came from.
func (p *Parser) Parse(filePath string) ([]models.Chunk, error) {
	var (
		pages []string
		err   error
	)

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		pages, err = parsePDF(filePath)
	case ".docx":
		pages, err = parseDOCX(filePath)
	case ".xlsx":
		pages, err = parseXLSX(filePath)
	case ".md", ".markdown":
		pages, err = parseMarkdown(filePath)
	case ".txt":
		pages, err = parseText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	return p.split(filePath, pages)
}

func (p *Parser) split(source string, pages []string) ([]models.Chunk, error) {
	docs := make([]schema.Document, 0, len(pages))
	for i, text := range pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, schema.Document{
			PageContent: text,
			Metadata: map[string]any{
				metadataPage:   i + 1,
				metadataSource: source,
			},
		})
	}

	splitDocs, err := textsplitter.SplitDocuments(p.splitter, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to split document: %w", err)
	}

	chunks := make([]models.Chunk, 0, len(splitDocs))
	for _, doc := range splitDocs {
		if strings.TrimSpace(doc.PageContent) == "" {
			continue
		}
		page, _ := doc.Metadata[metadataPage].(int)
		chunks = append(chunks, models.Chunk{
			Content:    doc.PageContent,
			PageNumber: page,
			ChunkID:    len(chunks),
		})
	}
	return chunks, nil
}
