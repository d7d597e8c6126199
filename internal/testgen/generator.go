// Package testgen synthesizes question/answer samples from a knowledge base.
package testgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"document-testset/internal/helper"
	"document-testset/internal/models"
	"document-testset/internal/testset"
)

var (
	ErrInvalidQuestionCount = errors.New("question count must be positive")
	ErrEmptyKnowledgeBase   = errors.New("knowledge base is empty")
	ErrMalformedResponse    = errors.New("malformed generator response")
)

// Generator produces a testset of numQuestions samples grounded in kb.
// description tells the generator what the evaluated chatbot does.
type Generator interface {
	Generate(ctx context.Context, kb *KnowledgeBase, numQuestions int, description string) (*testset.Testset, error)
}

// ChatModel is the part of llms.Model the generator needs.
type ChatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// LLMGenerator asks a chat model for one question per seed document.
type LLMGenerator struct {
	llm         ChatModel
	temperature float64
	rng         *rand.Rand
	newID       func() (string, error)
}

type Option func(*LLMGenerator)

func WithTemperature(t float64) Option {
	return func(g *LLMGenerator) { g.temperature = t }
}

// WithSeed makes seed document selection reproducible. Zero keeps the
// time-based seed.
func WithSeed(seed int64) Option {
	return func(g *LLMGenerator) {
		if seed != 0 {
			g.rng = rand.New(rand.NewSource(seed))
		}
	}
}

func NewLLMGenerator(llm ChatModel, opts ...Option) *LLMGenerator {
	g := &LLMGenerator{
		llm:         llm,
		temperature: 0.5,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		newID:       helper.GenerateUUID,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns exactly numQuestions samples or an error. Seed documents
// are drawn without replacement until the knowledge base is exhausted.
func (g *LLMGenerator) Generate(ctx context.Context, kb *KnowledgeBase, numQuestions int, description string) (*testset.Testset, error) {
	if numQuestions <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuestionCount, numQuestions)
	}
	if kb.Len() == 0 {
		return nil, ErrEmptyKnowledgeBase
	}

	system := fmt.Sprintf(models.QuestionSystemPrompt, description)
	samples := make([]testset.Sample, 0, numQuestions)
	for i, idx := range g.pickSeeds(kb.Len(), numQuestions) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc := kb.Documents[idx]
		sample, err := g.generateSample(ctx, system, doc)
		if err != nil {
			return nil, fmt.Errorf("failed to generate question %d: %w", i+1, err)
		}
		samples = append(samples, sample)
		log.Debug().Int("question", i+1).Int("seed_document_id", doc.ID).Msg("Generated question")
	}

	return testset.New(samples), nil
}

func (g *LLMGenerator) pickSeeds(size, n int) []int {
	seeds := make([]int, 0, n)
	for len(seeds) < n {
		perm := g.rng.Perm(size)
		seeds = append(seeds, perm[:min(size, n-len(seeds))]...)
	}
	return seeds
}

func (g *LLMGenerator) generateSample(ctx context.Context, system string, doc Document) (testset.Sample, error) {
	reference := fmt.Sprintf("Document %d: %s", doc.ID, doc.Text)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(models.QuestionPromptTemplate, doc.Text)),
	}

	resp, err := g.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(g.temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		return testset.Sample{}, err
	}
	if len(resp.Choices) == 0 {
		return testset.Sample{}, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	qa, err := parseQA(resp.Choices[0].Content)
	if err != nil {
		return testset.Sample{}, err
	}
	id, err := g.newID()
	if err != nil {
		return testset.Sample{}, err
	}

	return testset.Sample{
		ID:                  id,
		Question:            qa.Question,
		ReferenceAnswer:     qa.Answer,
		ReferenceContext:    reference,
		ConversationHistory: []testset.Message{},
		Metadata: testset.Metadata{
			QuestionType:   models.QuestionTypeSimple,
			SeedDocumentID: doc.ID,
			Topic:          models.DefaultTopic,
		},
	}, nil
}

type questionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// parseQA extracts the JSON object from a model reply, tolerating code fences
// and surrounding prose.
func parseQA(content string) (questionAnswer, error) {
	var qa questionAnswer
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return qa, fmt.Errorf("%w: no JSON object in %q", ErrMalformedResponse, content)
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &qa); err != nil {
		return qa, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	qa.Question = strings.TrimSpace(qa.Question)
	qa.Answer = strings.TrimSpace(qa.Answer)
	if qa.Question == "" || qa.Answer == "" {
		return qa, fmt.Errorf("%w: missing question or answer", ErrMalformedResponse)
	}
	return qa, nil
}
