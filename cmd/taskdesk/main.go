package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskdesk/internal/convo"
	"taskdesk/internal/dispatch"
	"taskdesk/internal/gate"
	"taskdesk/internal/timeline"
)

const (
	defaultServiceURL = "http://localhost:8000"
	greetingText      = "👋 Hi! I can help you coordinate tasks across your SaaS tools. Try saying something like:\n\n\"Send a follow-up email to the leads from yesterday's Zoom call. Get their contact info from HubSpot, pull the meeting notes from Notion, and email them through Gmail.\""
)

type appConfig struct {
	serviceURL     string
	thinkingDelay  time.Duration
	subtaskDelay   time.Duration
	requestTimeout time.Duration
	plain          bool
	altScreen      bool
	logFile        string
	logLevel       string
}

func (c appConfig) pacing() timeline.Pacing {
	return timeline.Pacing{Thinking: c.thinkingDelay, Subtask: c.subtaskDelay}
}

func parseFlags(args []string) (appConfig, error) {
	cfg := appConfig{}
	fs := flag.NewFlagSet("taskdesk", flag.ContinueOnError)
	fs.StringVar(&cfg.serviceURL, "url", envOr("TASKDESK_SERVICE_URL", defaultServiceURL), "Task decomposition service base URL")
	fs.DurationVar(&cfg.thinkingDelay, "thinking-delay", envOrDuration("TASKDESK_THINKING_DELAY", timeline.DefaultThinkingDelay), "Pause after the thinking acknowledgment")
	fs.DurationVar(&cfg.subtaskDelay, "subtask-delay", envOrDuration("TASKDESK_SUBTASK_DELAY", timeline.DefaultSubtaskDelay), "Pause between a subtask start and its result")
	fs.DurationVar(&cfg.requestTimeout, "request-timeout", envOrDuration("TASKDESK_REQUEST_TIMEOUT", 0), "Upper bound for one service call (0 = none)")
	fs.BoolVar(&cfg.plain, "plain", envOrBool("TASKDESK_PLAIN", false), "Line-oriented mode without the full-screen interface")
	fs.BoolVar(&cfg.altScreen, "alt-screen", envOrBool("TASKDESK_ALT_SCREEN", true), "Use alternate screen buffer")
	fs.StringVar(&cfg.logFile, "log-file", envOr("TASKDESK_LOG_FILE", ""), "Write structured logs to this file")
	fs.StringVar(&cfg.logLevel, "log-level", envOr("TASKDESK_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")
	if err := fs.Parse(args); err != nil {
		return appConfig{}, err
	}

	cfg.serviceURL = strings.TrimRight(strings.TrimSpace(cfg.serviceURL), "/")
	if cfg.serviceURL == "" {
		cfg.serviceURL = defaultServiceURL
	}
	cfg.thinkingDelay = maxDuration(0, cfg.thinkingDelay)
	cfg.subtaskDelay = maxDuration(0, cfg.subtaskDelay)
	cfg.requestTimeout = maxDuration(0, cfg.requestTimeout)
	cfg.logLevel = strings.ToLower(strings.TrimSpace(cfg.logLevel))
	return cfg, nil
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// setupLogging installs the default slog logger. The full-screen interface
// owns stdout, so logs go to a file there or nowhere at all.
func setupLogging(cfg appConfig, stderr io.Writer) (io.Closer, error) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.logLevel)}
	var out io.Writer = io.Discard
	var closer io.Closer = io.NopCloser(nil)
	switch {
	case cfg.logFile != "":
		f, err := tea.LogToFile(cfg.logFile, "taskdesk")
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, closer = f, f
	case cfg.plain:
		out = stderr
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(out, opts)))
	return closer, nil
}

type app struct {
	log    *convo.Log
	engine *timeline.Engine
	health healthChecker
}

func newApp(cfg appConfig) app {
	log := convo.NewLog()
	client := dispatch.NewClient(cfg.serviceURL, cfg.requestTimeout)
	engine := timeline.New(log, gate.New(), client, timeline.Config{
		Pacing:    cfg.pacing(),
		ErrorText: timeline.ErrorText(cfg.serviceURL),
	})
	log.Append(convo.Message{Role: convo.RoleSystem, Kind: convo.KindPlain, Text: greetingText})
	return app{log: log, engine: engine, health: client}
}

func run(args []string) int {
	cfg, err := parseFlags(args)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	closer, err := setupLogging(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskdesk: %v\n", err)
		return 1
	}
	defer closer.Close()

	slog.Info("taskdesk starting",
		"service_url", cfg.serviceURL,
		"thinking_delay", cfg.thinkingDelay,
		"subtask_delay", cfg.subtaskDelay,
		"plain", cfg.plain,
	)
	a := newApp(cfg)

	if cfg.plain {
		if err := runPlain(a, os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "taskdesk: %v\n", err)
			return 1
		}
		return 0
	}

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if cfg.altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(newModel(cfg, a), opts...)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "taskdesk fatal error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
