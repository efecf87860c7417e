package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/lipgloss"
)

type example struct {
	label string
	text  string
}

var cannedExamples = []example{
	{
		label: "💼 Follow-up email workflow",
		text:  "Send a follow-up email to the leads from yesterday's Zoom call. Get their contact info from HubSpot, pull the meeting notes from Notion, and email them through Gmail.",
	},
	{
		label: "📊 Lead summary",
		text:  "Get all leads from HubSpot and create a summary in Notion.",
	},
	{
		label: "📝 Share meeting notes",
		text:  "Pull meeting notes from Notion and send them via Gmail to the attendees.",
	},
}

// inputSurface holds the draft. Enter commits; alt+enter or ctrl+j breaks
// the line.
type inputSurface struct {
	area     textarea.Model
	examples []example
}

func newInputSurface() inputSurface {
	area := textarea.New()
	area.Prompt = "❯ "
	area.Placeholder = "Type your task here... (e.g., 'Send follow-up emails to leads from yesterday's call')"
	area.ShowLineNumbers = false
	area.CharLimit = 4000
	area.SetHeight(3)
	area.FocusedStyle.CursorLine = lipgloss.NewStyle()
	area.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	area.Focus()
	return inputSurface{area: area, examples: cannedExamples}
}

func (in *inputSurface) draft() string {
	return in.area.Value()
}

// commit hands back the draft and clears it. Blank drafts and commits while
// a submission is in flight are ignored and leave the draft alone.
func (in *inputSurface) commit(busy bool) (string, bool) {
	if busy {
		return "", false
	}
	draft := in.area.Value()
	if strings.TrimSpace(draft) == "" {
		return "", false
	}
	in.area.Reset()
	return draft, true
}

// useExample replaces the draft with canned example i.
func (in *inputSurface) useExample(i int, busy bool) bool {
	if busy || i < 0 || i >= len(in.examples) {
		return false
	}
	in.area.SetValue(in.examples[i].text)
	return true
}

func (in *inputSurface) setWidth(width int) {
	in.area.SetWidth(width)
}
