package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/leonardotrapani/hyprdictate/internal/bus"
	"github.com/leonardotrapani/hyprdictate/internal/config"
	"github.com/leonardotrapani/hyprdictate/internal/daemon"
	"github.com/leonardotrapani/hyprdictate/internal/logging"
	"github.com/leonardotrapani/hyprdictate/internal/tui"
	"github.com/spf13/cobra"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "hyprdictate",
	Short:        "Local voice dictation for Wayland/Hyprland",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/hyprdictate/config.toml)")

	rootCmd.AddCommand(
		serveCmd(),
		sendCmd("press", "Hotkey pressed (bind to key down)", bus.CmdPress),
		sendCmd("release", "Hotkey released (bind to key up)", bus.CmdRelease),
		sendCmd("toggle", "Start or stop recording", bus.CmdToggle),
		sendCmd("style", "Cycle the writing style", bus.CmdStyle),
		sendCmd("stop", "Stop the daemon", bus.CmdQuit),
		statusCmd(),
		historyCmd(),
		versionCmd(),
		configureCmd(),
		modelsCmd(),
		doctorCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := config.NewManager(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			closer, err := logging.Setup(mgr.GetConfig().ToLoggingConfig())
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}
			defer closer.Close()

			return daemon.New(mgr, version).Run()
		},
	}
}

// sendCmd builds a command that forwards one byte to the daemon and prints
// its reply.
func sendCmd(use, short string, b byte) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := send(b)
			if err != nil {
				return err
			}
			fmt.Println(strings.TrimSpace(strings.TrimPrefix(resp, "OK")))
			return nil
		},
	}
}

func send(b byte) (string, error) {
	resp, err := bus.SendCommand(b)
	if errors.Is(err, bus.ErrDaemonNotRunning) {
		return "", fmt.Errorf("%w (start it with: hyprdictate serve)", err)
	}
	if err != nil {
		return "", err
	}
	if _, _, err := bus.ParseReply(resp); err != nil {
		return "", err
	}
	return resp, nil
}

func statusCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the daemon state",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := send(bus.CmdStatus)
			if err != nil {
				return err
			}
			if raw {
				fmt.Print(resp)
				return nil
			}
			_, fields, _ := bus.ParseReply(resp)
			for _, line := range formatStatus(fields) {
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the protocol reply")
	return cmd
}

var statusOrder = []string{"state", "style", "correction", "correction_ready", "model_loaded", "level", "message", "preview"}

func formatStatus(fields map[string]string) []string {
	label := func(k string) string {
		return tui.StyleLabel.Render(fmt.Sprintf("%-17s", strings.ReplaceAll(k, "_", " ")+":"))
	}

	var lines []string
	seen := make(map[string]bool, len(fields))
	for _, k := range statusOrder {
		if v, ok := fields[k]; ok {
			lines = append(lines, label(k)+" "+v)
			seen[k] = true
		}
	}

	var rest []string
	for k := range fields {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		lines = append(lines, label(k)+" "+fields[k])
	}
	return lines
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print client and daemon versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("hyprdictate %s (protocol %s)\n", version, bus.ProtoVer)

			resp, err := bus.SendCommand(bus.CmdVersion)
			if err != nil {
				fmt.Println(tui.StyleMuted.Render("daemon not running"))
				return nil
			}
			_, fields, err := bus.ParseReply(resp)
			if err != nil {
				return err
			}
			fmt.Printf("daemon %s (protocol %s)\n", fields["version"], fields["proto"])
			return nil
		},
	}
}
