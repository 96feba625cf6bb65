package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/leonardotrapani/hyprdictate/internal/bus"
	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/deps"
	"github.com/leonardotrapani/hyprdictate/internal/history"
	"github.com/leonardotrapani/hyprdictate/internal/models"
	"github.com/leonardotrapani/hyprdictate/internal/tui"
	"github.com/spf13/cobra"
)

// loadConfig reads the config file, returning the defaults and found=false
// when there is none yet.
func loadConfig() (cfg *config.Config, path string, found bool, err error) {
	path = configPath
	if path == "" {
		if path, err = config.GetConfigPath(); err != nil {
			return nil, "", false, err
		}
	}
	cfg, err = config.LoadFile(path)
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.DefaultConfig(), path, false, nil
	}
	if err != nil {
		return nil, path, false, err
	}
	return cfg, path, true, nil
}

func historyCmd() *cobra.Command {
	var clear bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or clear recent dictations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				fmt.Println(tui.StyleMuted.Render("History is disabled"))
				return nil
			}
			if clear {
				return clearHistory(cmd.Context(), cfg)
			}
			return listHistory(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVar(&clear, "clear", false, "delete every entry")
	return cmd
}

func openHistory(ctx context.Context, cfg *config.Config) (*history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(ctx, path, cfg.History.MaxItems)
}

// clearHistory goes through the daemon when it runs so its store stays
// authoritative, and edits the file directly otherwise.
func clearHistory(ctx context.Context, cfg *config.Config) error {
	resp, err := bus.SendCommand(bus.CmdHistoryClear)
	if err == nil {
		if _, _, err := bus.ParseReply(resp); err != nil {
			return err
		}
		fmt.Println("History cleared.")
		return nil
	}
	if !errors.Is(err, bus.ErrDaemonNotRunning) {
		return err
	}

	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Clear(ctx); err != nil {
		return err
	}
	fmt.Println("History cleared.")
	return nil
}

func listHistory(ctx context.Context, cfg *config.Config) error {
	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	items, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println(tui.StyleMuted.Render("No dictations yet"))
		return nil
	}
	for i, item := range items {
		fmt.Printf("%s %s\n", tui.StyleHighlight.Render(fmt.Sprintf("%2d.", i+1)), item.Text())
		meta := item.CreatedAt.Local().Format(time.DateTime)
		if item.Corrected != "" && item.Corrected != item.Raw {
			meta += " | raw: " + item.Raw
		}
		fmt.Println("    " + tui.StyleSubtle.Render(meta))
	}
	return nil
}

func configureCmd() *cobra.Command {
	var onboarding bool

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for hyprdictate.
This will guide you through setting up:
- The dictation hotkey and recording mode
- Whisper model and language
- Optional correction with a local or OpenAI-compatible model
- Notifications, injection and history`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(onboarding)
		},
	}

	cmd.Flags().BoolVar(&onboarding, "onboarding", false, "Run the guided onboarding wizard")
	return cmd
}

func runConfigure(onboarding bool) error {
	cfg, path, found, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg, onboarding || !found)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := config.SaveFile(path, result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println(tui.StyleSuccess.Render("Configuration saved successfully!"))
	fmt.Println()
	showNextSteps(result.Config, path)
	return nil
}

func showNextSteps(cfg *config.Config, path string) {
	serviceRunning := exec.Command("systemctl", "--user", "is-active", "--quiet", "hyprdictate.service").Run() == nil

	var steps []string
	if missing := deps.Missing(deps.Report(needsFor(cfg))); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, s := range missing {
			names[i] = s.Name
		}
		steps = append(steps, fmt.Sprintf("Install missing tools: %s (see hyprdictate doctor)", strings.Join(names, ", ")))
	}
	if cfg.Hotkey.Source == "socket" {
		steps = append(steps, "Bind your key to `hyprdictate press` and its release to `hyprdictate release`")
	}
	if serviceRunning {
		steps = append(steps, "Restart the service to apply hotkey and engine changes: systemctl --user restart hyprdictate.service")
	} else {
		steps = append(steps, "Start the daemon: systemctl --user start hyprdictate.service (or hyprdictate serve)")
	}
	steps = append(steps, fmt.Sprintf("Press %s and speak", cfg.Hotkey.Key))

	fmt.Println("Next Steps:")
	for i, s := range steps {
		fmt.Printf("%d. %s\n", i+1, s)
	}
	fmt.Println()
	fmt.Printf("Config file location: %s\n", path)
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known whisper and correction models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := loadConfig()
			if err != nil {
				return err
			}
			dir, err := cfg.ModelsDir()
			if err != nil {
				return err
			}

			fmt.Printf("Models directory: %s\n", dir)
			printCatalog("Whisper", dir, models.Whisper, models.WhisperModels(), cfg.Transcription.Model)
			printCatalog("Correction", dir, models.LLM, models.LLMModels(), cfg.Correction.Model)
			fmt.Println()
			return nil
		},
	}
}

func printCatalog(title, dir string, kind models.Kind, list []models.Model, current string) {
	fmt.Printf("\n%s\n", tui.StyleHighlight.Render(title+":"))
	for _, m := range list {
		prefix := "  [ ]"
		if models.IsInstalled(models.Path(dir, kind, m.ID)) {
			prefix = "  [x]"
		}
		line := fmt.Sprintf("%s %s - %s [%s]", prefix, m.ID, m.Description, m.Size)
		if kind == models.Whisper && !m.Multilingual {
			line += " [english]"
		}
		if m.ID == current {
			line = tui.StyleHighlight.Render(line + " (selected)")
		}
		fmt.Println(line)
	}
}

func needsFor(cfg *config.Config) deps.Needs {
	needs := deps.Needs{
		Capture:   cfg.Recording.Backend,
		Engine:    cfg.Transcription.Engine,
		Injection: cfg.Injection.Backends,
	}
	if cfg.Correction.Enabled {
		needs.Correction = cfg.Correction.Backend
	}
	if cfg.Notifications.Enabled {
		needs.Notifications = cfg.Notifications.Type == "desktop"
		needs.Sound = cfg.Notifications.Sound
	}
	return needs
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the tools and models the config needs are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, found, err := loadConfig()
			if err != nil {
				return err
			}
			if !found {
				fmt.Println(tui.StyleWarning.Render(fmt.Sprintf("No config at %s, checking the defaults.", path)))
			}
			if err := cfg.Validate(); err != nil {
				fmt.Println(tui.StyleError.Render(fmt.Sprintf("Config is invalid: %v", err)))
			}

			report := deps.Report(needsFor(cfg))
			fmt.Println(tui.StyleHeader.Render("Tools"))
			for _, s := range report {
				fmt.Println(formatDepLine(s))
			}

			fmt.Println()
			fmt.Println(tui.StyleHeader.Render("Models"))
			problems := len(deps.Missing(report))
			if !checkModel("whisper", cfg.WhisperModelPath) {
				problems++
			}
			if cfg.Correction.Enabled && cfg.Correction.Backend == "llama-server" {
				if !checkModel("correction", cfg.LLMModelPath) {
					problems++
				}
			}

			fmt.Println()
			if problems > 0 {
				return fmt.Errorf("%d problem(s) found", problems)
			}
			fmt.Println(tui.StyleSuccess.Render("Everything the configuration needs is installed."))
			return nil
		},
	}
}

func formatDepLine(s deps.Status) string {
	switch {
	case s.Installed:
		line := fmt.Sprintf("  %s %-15s %s", tui.StyleSuccess.Render("ok"), s.Name, s.Path)
		if s.Version != "" {
			line += tui.StyleSubtle.Render(" (" + s.Version + ")")
		}
		return line
	case s.Required:
		return fmt.Sprintf("  %s %-15s %s", tui.StyleError.Render("!!"), s.Name, tui.StyleError.Render("missing, needed for "+s.Purpose))
	default:
		return fmt.Sprintf("  %s %-15s %s", tui.StyleMuted.Render("--"), s.Name, tui.StyleMuted.Render("not installed ("+s.Purpose+")"))
	}
}

func checkModel(label string, resolve func() (string, error)) bool {
	path, err := resolve()
	if err != nil {
		fmt.Printf("  %s %-15s %v\n", tui.StyleError.Render("!!"), label, err)
		return false
	}
	if !models.IsInstalled(path) {
		fmt.Printf("  %s %-15s %s\n", tui.StyleError.Render("!!"), label, tui.StyleError.Render("missing: "+path))
		return false
	}
	fmt.Printf("  %s %-15s %s\n", tui.StyleSuccess.Render("ok"), label, path)
	return true
}
