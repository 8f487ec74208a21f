package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#FF4500")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	URLStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#828282"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(accent)
)
