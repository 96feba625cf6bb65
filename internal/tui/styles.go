package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// hints and descriptions
	StyleSubtle = lipgloss.NewStyle().
			Foreground(ColorSubtle).
			Italic(true)

	StyleHighlight = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)
)

const logoASCII = `
 _                          _ _      _        _
| |__  _   _ _ __  _ __ __| (_) ___| |_ __ _| |_ ___
| '_ \| | | | '_ \| '__/ _` + "`" + ` | |/ __| __/ _` + "`" + ` | __/ _ \
| | | | |_| | |_) | | | (_| | | (__| || (_| | ||  __/
|_| |_|\__, | .__/|_|  \__,_|_|\___|\__\__,_|\__\___|
       |___/|_|`

// Logo returns the hyprdictate ASCII art
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}
