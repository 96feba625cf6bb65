package llm

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend sends corrections to an OpenAI-compatible /v1/completions
// endpoint that someone else runs, such as Ollama or a shared llama-server.
type OpenAIBackend struct {
	client *openai.Client
	model  string
	ready  atomic.Bool
}

func NewOpenAIBackend(cfg Config) *OpenAIBackend {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	return &OpenAIBackend{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
	}
}

func (b *OpenAIBackend) Name() string { return "openai" }

// Start checks the endpoint answers. modelPath is used as the model name
// when none is configured.
func (b *OpenAIBackend) Start(ctx context.Context, modelPath string) error {
	if b.model == "" {
		b.model = modelPath
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := b.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai endpoint: %w", err)
	}
	b.ready.Store(true)
	return nil
}

func (b *OpenAIBackend) Ready() bool {
	return b.ready.Load()
}

func (b *OpenAIBackend) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := b.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       b.model,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        req.Stop,
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: no choices")
	}
	return resp.Choices[0].Text, nil
}

func (b *OpenAIBackend) Stop() error {
	b.ready.Store(false)
	return nil
}
