package cmd

import (
	"fmt"
	"strings"

	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/charmbracelet/lipgloss"
)

// LipGloss signature purple/pink palette
var (
	headerColor  = lipgloss.Color("#F780FF") // Bright pink
	accentColor  = lipgloss.Color("#8BE9FD") // Cyan
	textColor    = lipgloss.Color("#E9E9F4") // Light purple/white
	mutedColor   = lipgloss.Color("#6272A4") // Muted purple
	numberColor  = lipgloss.Color("#FF79C6") // Pink
	errorColor   = lipgloss.Color("#FF5555") // Red
	successColor = lipgloss.Color("#50FA7B") // Green
	warnColor    = lipgloss.Color("#F1FA8C") // Yellow
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	accentStyle  = lipgloss.NewStyle().Foreground(accentColor).Italic(true)
	textStyle    = lipgloss.NewStyle().Foreground(textColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	borderStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
)

// printWarnings shows dataset warnings above a view; they never abort it.
func printWarnings(warnings []dataset.Warning) {
	for _, w := range warnings {
		fmt.Println(warnStyle.Render("⚠ " + w.Message))
	}
}

func printHeader(title, subtitle string) {
	fmt.Println()
	fmt.Println(headerStyle.Render(title))
	if subtitle != "" {
		fmt.Println(accentStyle.Render(subtitle))
	}
	fmt.Println()
}

// separator joins column widths with ┼ the way the table header is joined with │.
func separator(widths ...int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	return borderStyle.Render(strings.Join(parts, "┼"))
}
