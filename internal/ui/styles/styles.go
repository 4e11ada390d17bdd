// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors pick the light or dark variant from the terminal background.
var (
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"}
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#4B5563", Dark: "#9CA3AF"}
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}
	TextDescriptionColor = lipgloss.AdaptiveColor{Light: "#374151", Dark: "#D1D5DB"}

	AccentColor  = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#54A0FF"}
	HashColor    = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	AddedColor   = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#73F59F"}
	RemovedColor = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FF8787"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FF8787"}

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"}
	BorderFocusedColor = AccentColor

	SelectionBackgroundColor = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1E3A5F"}
)

// Shared text styles.
var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)
	MutedStyle    = lipgloss.NewStyle().Foreground(TextMutedColor)
	ErrorStyle    = lipgloss.NewStyle().Foreground(ErrorColor)
	HashStyle     = lipgloss.NewStyle().Foreground(HashColor)
	AddedStyle    = lipgloss.NewStyle().Foreground(AddedColor)
	RemovedStyle  = lipgloss.NewStyle().Foreground(RemovedColor)
	SelectedStyle = lipgloss.NewStyle().Background(SelectionBackgroundColor).Foreground(TextPrimaryColor)
)
