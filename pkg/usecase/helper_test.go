package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{
		Texts: []string{"This is a test response."},
	}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, errors.New("not implemented")
}

// promptLLM records every prompt and answers through respond
type promptLLM struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (p *promptLLM) client() *mockLLMClient {
	return &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					var prompt string
					for _, in := range input {
						if text, ok := in.(gollem.Text); ok {
							prompt += string(text)
						}
					}

					p.mu.Lock()
					p.prompts = append(p.prompts, prompt)
					p.mu.Unlock()

					text, err := p.respond(prompt)
					if err != nil {
						return nil, err
					}
					return &gollem.Response{Texts: []string{text}}, nil
				},
			}, nil
		},
	}
}

func (p *promptLLM) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

func isCondensePrompt(prompt string) bool {
	return strings.Contains(prompt, "Standalone question:")
}

type mockIndex struct {
	mu       sync.Mutex
	queries  []string
	searchFn func(ctx context.Context, query string, k int) ([]*model.Document, error)
}

func (m *mockIndex) Search(ctx context.Context, query string, k int) ([]*model.Document, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	return m.searchFn(ctx, query, k)
}

func (m *mockIndex) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

func staticIndex(docs ...*model.Document) *mockIndex {
	return &mockIndex{
		searchFn: func(ctx context.Context, query string, k int) ([]*model.Document, error) {
			if k < len(docs) {
				return docs[:k], nil
			}
			return docs, nil
		},
	}
}

type mockClassifier struct {
	classifyFn func(ctx context.Context, query string) (model.Intent, error)
}

func (m *mockClassifier) Classify(ctx context.Context, query string) (model.Intent, error) {
	return m.classifyFn(ctx, query)
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.embedFn(ctx, text)
}

func unitEmbedder() *mockEmbedder {
	return &mockEmbedder{
		embedFn: func(ctx context.Context, text string) ([]float32, error) {
			v := make([]float32, model.EmbeddingDimension)
			v[len(text)%model.EmbeddingDimension] = 1
			return v, nil
		},
	}
}

type countingInvalidator struct {
	mu    sync.Mutex
	count int
}

func (c *countingInvalidator) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

func (c *countingInvalidator) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
