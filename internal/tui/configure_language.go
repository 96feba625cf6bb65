package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/language"
	"github.com/leonardotrapani/hyprdictate/internal/models"
)

// getLanguageOptions lists auto-detect and every language the model can
// transcribe.
func getLanguageOptions(multilingual bool, current string) []huh.Option[string] {
	current = language.Normalize(current)
	options := []huh.Option[string]{
		huh.NewOption(language.Auto.Name, language.AutoCode).Selected(current == language.AutoCode),
	}
	for _, lang := range language.List() {
		if !language.SupportedBy(multilingual, lang.Code) {
			continue
		}
		label := fmt.Sprintf("%s (%s)", lang.Name, lang.NativeName)
		options = append(options, huh.NewOption(label, lang.Code).Selected(lang.Code == current))
	}
	return options
}

func editLanguage(cfg *config.Config) error {
	multilingual := true
	desc := "Language spoken during dictation"
	if m, ok := models.Lookup(models.Whisper, cfg.Transcription.Model); ok && !m.Multilingual {
		multilingual = false
		desc = fmt.Sprintf("%s is English-only", m.Name)
	}

	selected := language.Normalize(cfg.Transcription.Language)
	err := runForm(
		huh.NewSelect[string]().
			Title("Language").
			Description(desc).
			Options(getLanguageOptions(multilingual, selected)...).
			Filtering(true).
			Height(12).
			Value(&selected),
	)
	if err != nil {
		return err
	}

	cfg.Transcription.Language = selected
	return nil
}
