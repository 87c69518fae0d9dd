package main

import "github.com/charmbracelet/lipgloss"

var (
	spotifyGreen = lipgloss.Color("#1DB954")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(spotifyGreen).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(spotifyGreen)

	successStyle = lipgloss.NewStyle().Foreground(spotifyGreen).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B3B3B3"))
	urlStyle     = lipgloss.NewStyle().Underline(true)
)
