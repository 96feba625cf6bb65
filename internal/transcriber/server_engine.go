package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/supervisor"
)

var errEngineNotLoaded = errors.New("engine has no model loaded")

// ServerEngine keeps a whisper-server child running with the model resident
// and sends each pass to its /inference endpoint.
type ServerEngine struct {
	cfg     Config
	client  *http.Client
	baseURL string

	mu   sync.Mutex
	proc *supervisor.Process
}

func NewServerEngine(cfg Config) *ServerEngine {
	def := DefaultConfig()
	if cfg.ServerBinary == "" {
		cfg.ServerBinary = def.ServerBinary
	}
	if cfg.ServerHost == "" {
		cfg.ServerHost = def.ServerHost
	}
	if cfg.ServerPort == 0 {
		cfg.ServerPort = def.ServerPort
	}
	return &ServerEngine{
		cfg:     cfg,
		client:  &http.Client{Timeout: 2 * time.Minute},
		baseURL: fmt.Sprintf("http://%s:%d", cfg.ServerHost, cfg.ServerPort),
	}
}

func (e *ServerEngine) Name() string { return "whisper-server" }

func (e *ServerEngine) args(modelPath string) []string {
	args := []string{
		"-m", modelPath,
		"--host", e.cfg.ServerHost,
		"--port", strconv.Itoa(e.cfg.ServerPort),
	}
	if e.cfg.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(e.cfg.Threads))
	}
	return append(args, e.cfg.ServerArgs...)
}

func (e *ServerEngine) Load(ctx context.Context, modelPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.proc != nil {
		return ErrAlreadyLoaded
	}
	proc := supervisor.New(supervisor.Config{
		Name:   "whisper-server",
		Binary: e.cfg.ServerBinary,
		Args:   e.args(modelPath),
		Health: supervisor.HTTPHealth(&http.Client{Timeout: 2 * time.Second}, e.baseURL+"/health"),
		// large models can take a while to map
		HealthAttempts: 120,
	})
	if err := proc.Start(ctx); err != nil {
		return err
	}
	e.proc = proc
	return nil
}

type inferenceSegment struct {
	Text string `json:"text"`
}

type inferenceResponse struct {
	Text     string             `json:"text"`
	Segments []inferenceSegment `json:"segments"`
	Error    string             `json:"error"`
}

func (e *ServerEngine) Transcribe(ctx context.Context, audio Audio, p Params) ([]string, error) {
	e.mu.Lock()
	proc := e.proc
	e.mu.Unlock()
	if proc == nil || !proc.Ready() {
		return nil, errEngineNotLoaded
	}

	body, contentType, err := e.multipartBody(audio, p)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/inference", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read inference response: %w", err)
	}
	return parseInference(resp.StatusCode, raw)
}

func parseInference(status int, raw []byte) ([]string, error) {
	var ir inferenceResponse
	if err := json.Unmarshal(raw, &ir); err != nil {
		if status != http.StatusOK {
			return nil, fmt.Errorf("inference: status %d: %s", status, bytes.TrimSpace(raw))
		}
		return nil, fmt.Errorf("decode inference response: %w", err)
	}
	if ir.Error != "" {
		return nil, fmt.Errorf("inference: %s", ir.Error)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("inference: status %d", status)
	}

	if len(ir.Segments) == 0 {
		return []string{ir.Text}, nil
	}
	out := make([]string, len(ir.Segments))
	for i, s := range ir.Segments {
		out[i] = s.Text
	}
	return out, nil
}

func (e *ServerEngine) multipartBody(audio Audio, p Params) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := "chunk.wav"
	data := audio.WAV
	if audio.Path != "" {
		b, err := os.ReadFile(audio.Path)
		if err != nil {
			return nil, "", fmt.Errorf("read recording: %w", err)
		}
		name = filepath.Base(audio.Path)
		data = b
	}

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	fields := map[string]string{
		"response_format": "verbose_json",
		"temperature":     "0",
		"language":        p.Language,
		"no_context":      strconv.FormatBool(p.NoContext),
		"single_segment":  strconv.FormatBool(p.SingleSegment),
	}
	if p.Threads > 0 {
		fields["threads"] = strconv.Itoa(p.Threads)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (e *ServerEngine) Close() error {
	e.mu.Lock()
	proc := e.proc
	e.proc = nil
	e.mu.Unlock()

	if proc == nil {
		return nil
	}
	return proc.Stop()
}
