package testgen

import "strings"

// Document is one row of the knowledge base. ID is the row position of the
// source chunk.
type Document struct {
	ID   int
	Text string
}

// KnowledgeBase is the corpus questions are generated from.
type KnowledgeBase struct {
	Documents []Document
}

// NewKnowledgeBase builds a knowledge base with one document per text. Blank
// texts are dropped; IDs keep the original positions.
func NewKnowledgeBase(texts []string) (*KnowledgeBase, error) {
	docs := make([]Document, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		docs = append(docs, Document{ID: i, Text: t})
	}
	if len(docs) == 0 {
		return nil, ErrEmptyKnowledgeBase
	}
	return &KnowledgeBase{Documents: docs}, nil
}

func (kb *KnowledgeBase) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.Documents)
}
