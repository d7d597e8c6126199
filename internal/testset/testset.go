// Package testset holds generated evaluation samples and their on-disk forms.
package testset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Message is one turn of conversation preceding a question.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Metadata struct {
	QuestionType   string `json:"question_type"`
	SeedDocumentID int    `json:"seed_document_id"`
	Topic          string `json:"topic"`
}

// Sample is a single question with its reference answer and the knowledge
// base context it was generated from.
type Sample struct {
	ID                  string    `json:"id"`
	Question            string    `json:"question"`
	ReferenceAnswer     string    `json:"reference_answer"`
	ReferenceContext    string    `json:"reference_context"`
	ConversationHistory []Message `json:"conversation_history"`
	Metadata            Metadata  `json:"metadata"`
}

type Testset struct {
	Samples []Sample
}

func New(samples []Sample) *Testset {
	return &Testset{Samples: samples}
}

func (t *Testset) Len() int {
	return len(t.Samples)
}

// WriteJSONL writes one JSON object per sample, in order.
func (t *Testset) WriteJSONL(w io.Writer) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i, s := range t.Samples {
		if s.ConversationHistory == nil {
			s.ConversationHistory = []Message{}
		}
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode sample %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// Load reads a JSONL file written by WriteJSONL.
func Load(path string) (*Testset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSONL(f)
}

func ReadJSONL(r io.Reader) (*Testset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var samples []Sample
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var s Sample
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			return nil, fmt.Errorf("failed to parse line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read testset: %w", err)
	}
	return New(samples), nil
}
