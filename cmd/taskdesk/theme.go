package main

import (
	"github.com/charmbracelet/lipgloss"

	"taskdesk/internal/convo"
)

type uiTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	title       lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	inputPanel  lipgloss.Style
	helpText    lipgloss.Style
	timestamp   lipgloss.Style
	user        lipgloss.Style
	kind        map[convo.Kind]lipgloss.Style
}

func newTheme() uiTheme {
	blue := lipgloss.Color("#2563eb")
	yellow := lipgloss.Color("#eab308")
	purple := lipgloss.Color("#a855f7")
	green := lipgloss.Color("#22c55e")
	red := lipgloss.Color("#ef4444")
	text := lipgloss.Color("#f3f4f6")
	muted := lipgloss.Color("#9ca3af")

	return uiTheme{
		root: lipgloss.NewStyle().
			Padding(0, 1),
		header: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		title: lipgloss.NewStyle().
			Foreground(text).
			Bold(true),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(blue).
			Bold(true),
		footer: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(red).Bold(true),
		inputPanel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		helpText:  lipgloss.NewStyle().Foreground(muted),
		timestamp: lipgloss.NewStyle().Foreground(muted),
		user:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		kind: map[convo.Kind]lipgloss.Style{
			convo.KindPlain:         lipgloss.NewStyle().Foreground(text).Bold(true),
			convo.KindThinking:      lipgloss.NewStyle().Foreground(yellow).Bold(true),
			convo.KindSubtaskStart:  lipgloss.NewStyle().Foreground(purple).Bold(true),
			convo.KindSubtaskResult: lipgloss.NewStyle().Foreground(green).Bold(true),
			convo.KindError:         lipgloss.NewStyle().Foreground(red).Bold(true),
		},
	}
}

// labelStyle picks the header style for a message.
func (t uiTheme) labelStyle(m convo.Message) lipgloss.Style {
	if m.Role == convo.RoleUser {
		return t.user
	}
	if style, ok := t.kind[m.Kind]; ok {
		return style
	}
	return t.kind[convo.KindPlain]
}

func messageLabel(m convo.Message) string {
	switch {
	case m.Role == convo.RoleUser:
		return "you"
	case m.Kind == convo.KindPlain:
		return "assistant"
	default:
		return "assistant · " + m.Kind.String()
	}
}

func (t uiTheme) messageHeader(m convo.Message) string {
	return t.timestamp.Render(m.CreatedAt.Format("15:04")) + " " + t.labelStyle(m).Render("["+messageLabel(m)+"]")
}
