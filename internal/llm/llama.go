package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/supervisor"
)

// LlamaBackend supervises a llama-server child and talks to its native
// /completion endpoint.
type LlamaBackend struct {
	cfg     Config
	baseURL string
	client  *http.Client

	mu   sync.Mutex
	proc *supervisor.Process
}

func NewLlamaBackend(cfg Config) *LlamaBackend {
	def := DefaultConfig()
	if cfg.Binary == "" {
		cfg.Binary = def.Binary
	}
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	if cfg.ContextSize == 0 {
		cfg.ContextSize = def.ContextSize
	}
	if cfg.Threads == 0 {
		cfg.Threads = def.Threads
	}
	return &LlamaBackend{
		cfg:     cfg,
		baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		client:  &http.Client{},
	}
}

func (b *LlamaBackend) Name() string { return "llama-server" }

func (b *LlamaBackend) args(modelPath string) []string {
	args := []string{
		"-m", modelPath,
		"--host", b.cfg.Host,
		"--port", strconv.Itoa(b.cfg.Port),
		"-c", strconv.Itoa(b.cfg.ContextSize),
		"-ngl", strconv.Itoa(b.cfg.GPULayers),
		"-t", strconv.Itoa(b.cfg.Threads),
		"--log-disable",
	}
	return append(args, b.cfg.ServerArgs...)
}

func (b *LlamaBackend) Start(ctx context.Context, modelPath string) error {
	b.mu.Lock()
	if b.proc != nil && (b.proc.State() == supervisor.Starting || b.proc.State() == supervisor.Ready) {
		b.mu.Unlock()
		return supervisor.ErrAlreadyStarted
	}
	proc := supervisor.New(supervisor.Config{
		Name:           "llama-server",
		Binary:         b.cfg.Binary,
		Args:           b.args(modelPath),
		Health:         supervisor.HTTPHealth(&http.Client{Timeout: 2 * time.Second}, b.baseURL+"/health"),
		HealthInterval: b.cfg.HealthInterval,
		HealthAttempts: b.cfg.HealthAttempts,
	})
	b.proc = proc
	b.mu.Unlock()

	return proc.Start(ctx)
}

func (b *LlamaBackend) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.proc != nil && b.proc.Ready()
}

type completionRequest struct {
	Prompt        string   `json:"prompt"`
	NPredict      int      `json:"n_predict"`
	Temperature   float32  `json:"temperature"`
	RepeatPenalty float32  `json:"repeat_penalty"`
	Stop          []string `json:"stop"`
}

type completionResponse struct {
	Content string `json:"content"`
}

func (b *LlamaBackend) Complete(ctx context.Context, req Request) (string, error) {
	return complete(ctx, b.client, b.baseURL, req)
}

func complete(ctx context.Context, client *http.Client, baseURL string, req Request) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:        req.Prompt,
		NPredict:      req.MaxTokens,
		Temperature:   req.Temperature,
		RepeatPenalty: 1.1,
		Stop:          req.Stop,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read completion: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion: status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var cr completionResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	return cr.Content, nil
}

func (b *LlamaBackend) Stop() error {
	b.mu.Lock()
	proc := b.proc
	b.mu.Unlock()

	if proc == nil {
		return nil
	}
	return proc.Stop()
}
