// Package tui provides the terminal studio for Kalasetu using Charm libraries
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// Color palette - warm clay and indigo, like block-printed cloth
var (
	// Primary colors
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#B4532A", Dark: "#E07A4F"} // Terracotta
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#3949AB", Dark: "#7986CB"} // Indigo
	ColorAccent    = lipgloss.AdaptiveColor{Light: "#C99A06", Dark: "#F2C94C"} // Turmeric

	// Semantic colors
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#6366F1", Dark: "#818CF8"}

	// Neutral colors
	ColorText   = lipgloss.AdaptiveColor{Light: "#1E293B", Dark: "#F1F5F9"}
	ColorSubtle = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#94A3B8", Dark: "#64748B"}
	ColorBorder = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#334155"}

	ColorRecording = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
)

// Base styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			MarginBottom(1)

	BodyStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	FocusedBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	BadgeStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Background(ColorPrimary).
			Foreground(lipgloss.Color("#FFFFFF"))

	BadgeSuccessStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(ColorSuccess).
				Foreground(lipgloss.Color("#FFFFFF"))

	BadgeRecordingStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Bold(true).
				Background(ColorRecording).
				Foreground(lipgloss.Color("#FFFFFF"))

	ToastStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Background(ColorSuccess).
			Foreground(lipgloss.Color("#FFFFFF"))
)

// Logo is the application header
var Logo = ` _  __     _           _
| |/ /__ _| |__ _ _______| |_ _  _
| ' </ _' | / _' (_-< -_)  _| || |
|_|\_\__,_|_\__,_/__/___|\__|\_,_|`

// Header returns the styled header
func Header() string {
	return lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Render(Logo)
}

// LoadingSpinner is a shuttle moving across a loom
var LoadingSpinner = spinner.Spinner{
	Frames: []string{"[>    ]", "[=>   ]", "[==>  ]", "[===> ]", "[====>]", "[ <===]", "[  <==]", "[   <=]", "[    <]"},
	FPS:    time.Second / 8,
}

// RunStep is one stage of a submission shown in the step indicator
type RunStep struct {
	Title  string
	Status StepStatus
}

// StepStatus represents the status of a run step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepActive
	StepCompleted
	StepError
	StepSkipped
)

// StepIndicator renders a one-line run progress indicator
func StepIndicator(steps []RunStep) string {
	var b strings.Builder

	for i, step := range steps {
		var icon string
		var style lipgloss.Style

		switch step.Status {
		case StepCompleted:
			icon = "[x]"
			style = lipgloss.NewStyle().Foreground(ColorSuccess)
		case StepActive:
			icon = "[>]"
			style = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
		case StepError:
			icon = "[!]"
			style = lipgloss.NewStyle().Foreground(ColorError)
		case StepSkipped:
			icon = "[-]"
			style = lipgloss.NewStyle().Foreground(ColorMuted).Strikethrough(true)
		default:
			icon = "[ ]"
			style = lipgloss.NewStyle().Foreground(ColorMuted)
		}

		b.WriteString(style.Render(icon + " " + step.Title))

		if i < len(steps)-1 {
			connector := lipgloss.NewStyle().Foreground(ColorMuted)
			if step.Status == StepCompleted {
				connector = lipgloss.NewStyle().Foreground(ColorSuccess)
			}
			b.WriteString(connector.Render(" --- "))
		}
	}

	return b.String()
}

// Card renders a titled box
func Card(title, content string, width int) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1).
		Width(width)

	return cardStyle.Render(titleStyle.Render(title) + "\n" + BodyStyle.Render(content))
}

// StatusCard renders a card whose border follows status
func StatusCard(icon, title, subtitle string, status StepStatus, width int) string {
	var borderColor lipgloss.AdaptiveColor
	var iconStyle lipgloss.Style

	switch status {
	case StepCompleted:
		borderColor = ColorSuccess
		iconStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	case StepActive:
		borderColor = ColorPrimary
		iconStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
	case StepError:
		borderColor = ColorError
		iconStyle = lipgloss.NewStyle().Foreground(ColorError)
	default:
		borderColor = ColorBorder
		iconStyle = lipgloss.NewStyle().Foreground(ColorMuted)
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorText)

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(width)

	content := iconStyle.Render(icon) + " " + titleStyle.Render(title)
	if subtitle != "" {
		content += "\n    " + lipgloss.NewStyle().Foreground(ColorSubtle).Render(subtitle)
	}

	return cardStyle.Render(content)
}

// KeyHelp renders key/description pairs in order
func KeyHelp(pairs ...string) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Bold(true)

	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, keyStyle.Render(pairs[i])+MutedStyle.Render(" "+pairs[i+1]))
	}

	sep := lipgloss.NewStyle().Foreground(ColorBorder).Render(" | ")
	return strings.Join(parts, sep)
}
