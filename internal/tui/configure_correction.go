package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/llm"
	"github.com/leonardotrapani/hyprdictate/internal/models"
)

func getStyleOptions(current string) []huh.Option[string] {
	styles := append(llm.Styles(), llm.Custom(""))
	options := make([]huh.Option[string], 0, len(styles))
	for _, s := range styles {
		label := fmt.Sprintf("%d. %s - %s", s.Number(), s.DisplayName(), s.Description())
		options = append(options, huh.NewOption(label, s.String()).Selected(s.String() == current))
	}
	return options
}

// editCorrection configures the optional rewrite of each transcription by a
// local or OpenAI-compatible language model.
func editCorrection(cfg *config.Config) error {
	c := cfg.Correction

	err := runForm(
		huh.NewConfirm().
			Title("Correct transcriptions with a language model?").
			Description("Fixes grammar and punctuation, and can rewrite in a writing style").
			Value(&c.Enabled),
	)
	if err != nil {
		return err
	}
	if !c.Enabled {
		cfg.Correction.Enabled = false
		return nil
	}

	err = runForm(
		huh.NewSelect[string]().
			Title("Correction Backend").
			Options(
				huh.NewOption("llama-server (started and stopped by hyprdictate)", "llama-server"),
				huh.NewOption("OpenAI-compatible endpoint (Ollama, remote llama-server, ...)", "openai"),
			).
			Value(&c.Backend),
	)
	if err != nil {
		return err
	}

	if c.Backend == "openai" {
		err = editOpenAIEndpoint(&c)
	} else {
		err = editLocalModel(cfg, &c)
	}
	if err != nil {
		return err
	}

	err = runForm(
		huh.NewSelect[string]().
			Title("Writing Style").
			Description("Super+Shift+S cycles through the built-in styles").
			Options(getStyleOptions(c.Style)...).
			Value(&c.Style),
	)
	if err != nil {
		return err
	}

	if c.Style == "custom" {
		err = runForm(
			huh.NewText().
				Title("Custom Prompt").
				Description("{text} is replaced by the transcription").
				Value(&c.CustomPrompt).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("prompt cannot be empty")
					}
					return nil
				}),
		)
		if err != nil {
			return err
		}
	}

	cfg.Correction = c
	return nil
}

func editLocalModel(cfg *config.Config, c *config.CorrectionConfig) error {
	dir, err := cfg.ModelsDir()
	if err != nil {
		return err
	}
	if _, ok := models.Lookup(models.LLM, c.Model); !ok {
		c.Model = models.DefaultLLM
	}

	err = runForm(
		huh.NewSelect[string]().
			Title("Correction Model").
			Description(fmt.Sprintf("GGUF files are read from %s", dir)).
			Options(getModelOptions(dir, models.LLM, c.Model)...).
			Value(&c.Model),
	)
	if err != nil {
		return err
	}
	if !models.IsInstalled(models.Path(dir, models.LLM, c.Model)) {
		fmt.Println(StyleWarning.Render(fmt.Sprintf("%s is not installed yet, correction stays unavailable until it is.", c.Model)))
	}
	return nil
}

func editOpenAIEndpoint(c *config.CorrectionConfig) error {
	apiKey := ""
	err := runForm(
		huh.NewInput().
			Title("Base URL").
			Placeholder("http://127.0.0.1:11434/v1").
			Value(&c.BaseURL).
			Validate(func(s string) error {
				if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
					return fmt.Errorf("must start with http:// or https://")
				}
				return nil
			}),
		huh.NewInput().
			Title("Model").
			Value(&c.Model),
		huh.NewInput().
			Title("API Key").
			Description(fmt.Sprintf("Current: %s. Leave empty to keep it, OPENAI_API_KEY is used when unset", maskAPIKey(c.APIKey))).
			EchoMode(huh.EchoModePassword).
			Value(&apiKey),
	)
	if err != nil {
		return err
	}
	if apiKey != "" {
		c.APIKey = apiKey
	}
	return nil
}

func maskAPIKey(key string) string {
	if key == "" {
		return "not set"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
