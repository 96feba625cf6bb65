package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/models"
)

// getModelOptions lists the catalog for kind, marking files present in dir.
func getModelOptions(dir string, kind models.Kind, current string) []huh.Option[string] {
	list := models.WhisperModels()
	if kind == models.LLM {
		list = models.LLMModels()
	}

	var options []huh.Option[string]
	for _, m := range list {
		label := fmt.Sprintf("%s (%s) - %s", m.Name, m.Size, m.Description)
		if models.IsInstalled(models.Path(dir, kind, m.ID)) {
			label += " [installed]"
		}
		options = append(options, huh.NewOption(label, m.ID).Selected(m.ID == current))
	}
	return options
}

func editTranscription(cfg *config.Config) error {
	dir, err := cfg.ModelsDir()
	if err != nil {
		return err
	}

	engine := cfg.Transcription.Engine
	model := cfg.Transcription.Model
	preview := cfg.Transcription.Preview

	err = runForm(
		huh.NewSelect[string]().
			Title("Transcription Engine").
			Options(
				huh.NewOption("whisper-server (model stays loaded, recommended)", "whisper-server"),
				huh.NewOption("whisper-cli (one process per recording)", "whisper-cli"),
			).
			Value(&engine),
		huh.NewSelect[string]().
			Title("Whisper Model").
			Description(fmt.Sprintf("Models are read from %s", dir)).
			Options(getModelOptions(dir, models.Whisper, model)...).
			Value(&model),
		huh.NewConfirm().
			Title("Live preview while recording?").
			Description("Transcribes the last few seconds every second").
			Value(&preview),
	)
	if err != nil {
		return err
	}

	if !models.IsInstalled(models.Path(dir, models.Whisper, model)) {
		fmt.Println(StyleWarning.Render(fmt.Sprintf("%s is not installed yet, download %s into %s.",
			model, models.WhisperFilename(model), dir)))
	}

	cfg.Transcription.Engine = engine
	cfg.Transcription.Model = model
	cfg.Transcription.Preview = preview

	if m, ok := models.Lookup(models.Whisper, model); ok && !m.Multilingual {
		if lang := cfg.Transcription.Language; lang != "auto" && lang != "en" && lang != "" {
			fmt.Println(StyleWarning.Render(fmt.Sprintf("%s is English-only, language reset to auto.", m.Name)))
			cfg.Transcription.Language = "auto"
		}
	}
	return nil
}
