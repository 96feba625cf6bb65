// Package models is the catalog of speech and text models the daemon knows
// how to run, and where their files live on disk. Fetching them is left to
// the user.
package models

import (
	"os"
	"path/filepath"
	"strings"
)

type Kind int

const (
	Whisper Kind = iota
	LLM
)

func (k Kind) String() string {
	if k == LLM {
		return "llm"
	}
	return "whisper"
}

// Model holds catalog metadata for one model file.
type Model struct {
	ID           string // whisper size name (e.g. "large-v3") or gguf file name
	Name         string
	Filename     string
	Size         string
	SizeBytes    int64
	Description  string
	Multilingual bool
	Kind         Kind
}

const (
	DefaultWhisper = "large-v3"
	DefaultLLM     = "qwen2.5-0.5b-instruct-q4_0.gguf"
)

var whisperModels = []Model{
	// english-only models (faster, smaller)
	{ID: "tiny.en", Name: "Tiny English", Size: "75 MB", SizeBytes: 75_000_000, Description: "Fastest, less accurate"},
	{ID: "base.en", Name: "Base English", Size: "142 MB", SizeBytes: 142_000_000, Description: "Fast, decent accuracy"},
	{ID: "small.en", Name: "Small English", Size: "466 MB", SizeBytes: 466_000_000, Description: "Good balance"},
	{ID: "medium.en", Name: "Medium English", Size: "1.5 GB", SizeBytes: 1_500_000_000, Description: "High accuracy"},

	{ID: "tiny", Name: "Tiny", Size: "75 MB", SizeBytes: 75_000_000, Description: "Fastest multilingual, low accuracy", Multilingual: true},
	{ID: "base", Name: "Base", Size: "142 MB", SizeBytes: 142_000_000, Description: "Fast multilingual", Multilingual: true},
	{ID: "small", Name: "Small", Size: "466 MB", SizeBytes: 466_000_000, Description: "Balanced multilingual", Multilingual: true},
	{ID: "medium", Name: "Medium", Size: "1.5 GB", SizeBytes: 1_500_000_000, Description: "Accurate multilingual, needs good CPU/RAM", Multilingual: true},
	{ID: "large-v3", Name: "Large V3", Size: "3.1 GB", SizeBytes: 3_100_000_000, Description: "Best accuracy (recommended)", Multilingual: true},
}

var llmModels = []Model{
	{ID: "qwen2.5-0.5b-instruct-q4_0.gguf", Name: "Qwen2.5 0.5B", Size: "350 MB", SizeBytes: 350_000_000, Description: "Fastest, basic corrections only"},
	{ID: "qwen2.5-1.5b-instruct-q4_0.gguf", Name: "Qwen2.5 1.5B", Size: "950 MB", SizeBytes: 950_000_000, Description: "Fast, struggles with style rewriting"},
	{ID: "llama-3.2-1b-instruct-q4_0.gguf", Name: "Llama 3.2 1B", Size: "650 MB", SizeBytes: 650_000_000, Description: "Fast, struggles with style rewriting"},
	{ID: "qwen2.5-3b-instruct-q4_0.gguf", Name: "Qwen2.5 3B (Recommended)", Size: "1.9 GB", SizeBytes: 1_900_000_000, Description: "Good quality style rewriting, still fast"},
	{ID: "llama-3.2-3b-instruct-q4_k_m.gguf", Name: "Llama 3.2 3B", Size: "1.9 GB", SizeBytes: 1_900_000_000, Description: "Good quality, better instruction following"},
	{ID: "qwen2.5-7b-instruct-q4_k_m.gguf", Name: "Qwen2.5 7B", Size: "4.7 GB", SizeBytes: 4_700_000_000, Description: "Excellent quality, slower (needs 8GB+ RAM)"},
}

func init() {
	for i := range whisperModels {
		whisperModels[i].Kind = Whisper
		whisperModels[i].Filename = WhisperFilename(whisperModels[i].ID)
	}
	for i := range llmModels {
		llmModels[i].Kind = LLM
		llmModels[i].Filename = llmModels[i].ID
		llmModels[i].Multilingual = true
	}
}

// WhisperFilename is the ggml file name whisper.cpp uses for a model id.
func WhisperFilename(id string) string {
	return "ggml-" + id + ".bin"
}

func WhisperModels() []Model {
	return append([]Model(nil), whisperModels...)
}

func LLMModels() []Model {
	return append([]Model(nil), llmModels...)
}

// Lookup finds a catalog entry by id. Unknown ids return false.
func Lookup(kind Kind, id string) (Model, bool) {
	list := whisperModels
	if kind == LLM {
		list = llmModels
	}
	for _, m := range list {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// DefaultDir is $XDG_DATA_HOME/hyprdictate/models, falling back to
// ~/.local/share.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "hyprdictate", "models"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "hyprdictate", "models"), nil
}

// Path resolves a model to a file under dir. Ids outside the catalog are
// allowed so users can drop in their own files; an absolute path is used
// as is.
func Path(dir string, kind Kind, id string) string {
	if filepath.IsAbs(id) {
		return id
	}
	if kind == Whisper && !strings.HasSuffix(id, ".bin") {
		return filepath.Join(dir, WhisperFilename(id))
	}
	return filepath.Join(dir, id)
}

// IsInstalled reports whether path is a non-empty regular file.
func IsInstalled(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Installed lists the catalog models of kind present under dir.
func Installed(dir string, kind Kind) []Model {
	list := whisperModels
	if kind == LLM {
		list = llmModels
	}
	var out []Model
	for _, m := range list {
		if IsInstalled(Path(dir, kind, m.ID)) {
			out = append(out, m)
		}
	}
	return out
}
