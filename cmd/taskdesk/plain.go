package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"taskdesk/internal/convo"
	"taskdesk/internal/gate"
)

// runPlain is a line-oriented loop for terminals without full-screen
// support. Every appended message is printed as it lands.
func runPlain(a app, in io.Reader, out io.Writer) error {
	theme := newTheme()
	emit := func(msg convo.Message) {
		fmt.Fprintln(out, formatPlain(theme, msg))
	}
	for _, msg := range a.log.Snapshot() {
		emit(msg)
	}
	a.log.Observe(emit)

	fmt.Fprintln(out, theme.helpText.Render("Type a task and press Enter. /examples lists samples, /quit exits."))
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		text, quit := plainCommand(line, out)
		if quit {
			return nil
		}
		if text == "" {
			continue
		}
		if err := a.engine.Submit(context.Background(), text); err != nil && !gate.IsRejected(err) {
			fmt.Fprintln(out, theme.errorStatus.Render("request failed: "+compactSingleLine(err.Error(), 160)))
		}
	}
	return scanner.Err()
}

// plainCommand interprets slash commands. It returns the text to submit, if
// any, and whether the loop should stop.
func plainCommand(line string, out io.Writer) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return line, false
	}
	fields := strings.Fields(trimmed)
	switch strings.ToLower(fields[0]) {
	case "/quit", "/exit":
		return "", true
	case "/examples":
		for i, ex := range cannedExamples {
			fmt.Fprintf(out, "  %d. %s\n", i+1, ex.label)
		}
		return "", false
	case "/example":
		if len(fields) < 2 {
			fmt.Fprintln(out, "usage: /example <1-"+strconv.Itoa(len(cannedExamples))+">")
			return "", false
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(cannedExamples) {
			fmt.Fprintln(out, "unknown example: "+fields[1])
			return "", false
		}
		return cannedExamples[n-1].text, false
	case "/help":
		fmt.Fprintln(out, "Commands: /examples, /example <n>, /help, /quit")
		return "", false
	default:
		fmt.Fprintln(out, "unknown command, type /help")
		return "", false
	}
}

func formatPlain(theme uiTheme, msg convo.Message) string {
	return theme.messageHeader(msg) + "\n" + msg.Text
}
