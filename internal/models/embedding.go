package models

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Content    string `json:"content"`
	PageNumber int    `json:"page_number"`
	ChunkID    int    `json:"chunk_id"`
}

// SearchResult is a chunk returned by a similarity query.
type SearchResult struct {
	Chunk
	Similarity float32 `json:"similarity"`
}
