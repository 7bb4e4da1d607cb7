package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/robert-malhotra/ncattr/internal/session"
)

const (
	cyanColor   = lipgloss.Color("#00ffff")
	grayColor   = lipgloss.Color("#808080")
	silverColor = lipgloss.Color("#c0c0c0")
	redColor    = lipgloss.Color("#ff5f5f")
	yellowColor = lipgloss.Color("#ffd700")
	greenColor  = lipgloss.Color("#5fd75f")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyanColor).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Width(16).
			Foreground(silverColor)

	pathStyle = lipgloss.NewStyle().
			Foreground(grayColor).
			Italic(true)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(grayColor).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.BorderForeground(cyanColor)

	statusStyles = map[session.Level]lipgloss.Style{
		session.Info:    lipgloss.NewStyle().Foreground(greenColor),
		session.Warning: lipgloss.NewStyle().Foreground(yellowColor),
		session.Error:   lipgloss.NewStyle().Foreground(redColor).Bold(true),
	}

	dialogStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			Padding(1, 2).
			Width(60)

	dialogTitleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)

	hintStyle = lipgloss.NewStyle().Foreground(grayColor).MarginTop(1)
)
