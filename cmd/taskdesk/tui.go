package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskdesk/internal/convo"
	"taskdesk/internal/dispatch"
	"taskdesk/internal/timeline"
)

const (
	headerTitle    = "Multi-Agent Assistant"
	headerSubtitle = "Coordinate tasks across your SaaS tools"
	healthTimeout  = 5 * time.Second
)

type healthChecker interface {
	Health(ctx context.Context) (dispatch.Health, error)
}

type keyMap struct {
	Submit   key.Binding
	Newline  key.Binding
	Example1 key.Binding
	Example2 key.Binding
	Example3 key.Binding
	ScrollUp key.Binding
	ScrollDn key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Newline:  key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("alt+enter", "new line")),
		Example1: key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", cannedExamples[0].label)),
		Example2: key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", cannedExamples[1].label)),
		Example3: key.NewBinding(key.WithKeys("f3"), key.WithHelp("f3", cannedExamples[2].label)),
		ScrollUp: key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDn: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Help:     key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "more keys")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Newline, k.Example1, k.Example2, k.Example3, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Newline},
		{k.Example1, k.Example2, k.Example3},
		{k.ScrollUp, k.ScrollDn},
		{k.Help, k.Quit},
	}
}

type model struct {
	cfg    appConfig
	log    *convo.Log
	engine *timeline.Engine
	health healthChecker

	// expansion is the one in-flight expansion, nil when idle.
	expansion  *timeline.Expansion
	statusLine string
	statusErr  bool

	width  int
	height int

	input    inputSurface
	timeline viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap

	theme uiTheme
}

type healthDoneMsg struct {
	health dispatch.Health
	err    error
}

type dispatchDoneMsg struct {
	expansion *timeline.Expansion
}

type stepMsg struct {
	expansion *timeline.Expansion
}

func newModel(cfg appConfig, a app) model {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))

	tl := viewport.New(0, 0)
	tl.MouseWheelEnabled = true
	tl.MouseWheelDelta = 4

	return model{
		cfg:        cfg,
		log:        a.log,
		engine:     a.engine,
		health:     a.health,
		statusLine: "connecting to " + cfg.serviceURL + "...",
		input:      newInputSurface(),
		timeline:   tl,
		spinner:    sp,
		help:       help.New(),
		keys:       newKeyMap(),
		theme:      newTheme(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		textarea.Blink,
		m.healthCmd(),
	)
}

func (m model) healthCmd() tea.Cmd {
	checker := m.health
	if checker == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		h, err := checker.Health(ctx)
		return healthDoneMsg{health: h, err: err}
	}
}

// dispatchCmd runs the service call off the update loop. A panic still
// produces an expansion so the gate is released by the error step.
func dispatchCmd(sub *timeline.Submission) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if recovered := recover(); recovered != nil {
				msg = dispatchDoneMsg{expansion: sub.Fail(fmt.Errorf("dispatch panic: %v", recovered))}
			}
		}()
		return dispatchDoneMsg{expansion: sub.Dispatch(context.Background())}
	}
}

// stepCmd waits the next step's pacing delay and then asks Update to apply it.
func stepCmd(x *timeline.Expansion) tea.Cmd {
	delay, ok := x.NextDelay()
	if !ok {
		return nil
	}
	if delay <= 0 {
		return func() tea.Msg { return stepMsg{expansion: x} }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return stepMsg{expansion: x}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case healthDoneMsg:
		if msg.err != nil {
			m.setStatus("service unreachable: "+compactSingleLine(msg.err.Error(), 160), true)
			break
		}
		m.setStatus(fmt.Sprintf("ready · service %s · %s", msg.health.Status, m.cfg.serviceURL), false)
	case dispatchDoneMsg:
		m.expansion = msg.expansion
		if msg.expansion.Err() != nil {
			m.setStatus("request failed: "+compactSingleLine(msg.expansion.Err().Error(), 160), true)
		}
		cmds = append(cmds, stepCmd(msg.expansion))
	case stepMsg:
		if msg.expansion != m.expansion {
			break
		}
		msg.expansion.Advance()
		m.renderPanes()
		if msg.expansion.Done() {
			m.expansion = nil
			if !m.statusErr {
				m.setStatus("ready · "+m.cfg.serviceURL, false)
			}
			break
		}
		cmds = append(cmds, stepCmd(msg.expansion))
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderPanes()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.timeline, cmd = m.timeline.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Submit):
			cmd := m.submit()
			return m, cmd
		case key.Matches(msg, m.keys.Example1):
			m.input.useExample(0, m.engine.Busy())
			return m, nil
		case key.Matches(msg, m.keys.Example2):
			m.input.useExample(1, m.engine.Busy())
			return m, nil
		case key.Matches(msg, m.keys.Example3):
			m.input.useExample(2, m.engine.Busy())
			return m, nil
		case key.Matches(msg, m.keys.ScrollUp):
			m.timeline.LineUp(8)
			return m, nil
		case key.Matches(msg, m.keys.ScrollDn):
			m.timeline.LineDown(8)
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
			m.renderPanes()
			return m, nil
		}
		var cmd tea.Cmd
		m.input.area, cmd = m.input.area.Update(msg)
		cmds = append(cmds, cmd)
	default:
		var cmd tea.Cmd
		m.input.area, cmd = m.input.area.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// submit commits the draft and starts dispatch. The user echo is appended by
// the engine before the command runs.
func (m *model) submit() tea.Cmd {
	text, ok := m.input.commit(m.engine.Busy())
	if !ok {
		return nil
	}
	sub, err := m.engine.Admit(text)
	if err != nil {
		return nil
	}
	m.statusErr = false
	m.statusLine = "processing..."
	m.timeline.GotoBottom()
	m.renderPanes()
	return dispatchCmd(sub)
}

func (m *model) setStatus(line string, isErr bool) {
	m.statusLine = line
	m.statusErr = isErr
}

func (m model) View() string {
	header := m.renderHeader()
	content := m.renderContent()
	input := m.renderInput()
	footer := m.renderFooter()
	return m.theme.root.Render(lipgloss.JoinVertical(lipgloss.Left, header, content, input, footer))
}

func (m *model) contentWidth() int {
	return maxInt(40, m.width-4)
}

func (m *model) renderHeader() string {
	title := m.theme.title.Render(headerTitle)
	subtitle := m.theme.helpText.Render(headerSubtitle + " · " + m.cfg.serviceURL)
	return m.theme.header.Width(m.contentWidth()).Render(title + "\n" + subtitle)
}

func (m *model) renderContent() string {
	return m.theme.panel.Width(m.contentWidth()).Render(
		m.theme.panelTitle.Render("Conversation") + "\n" + m.timeline.View(),
	)
}

func (m *model) renderInput() string {
	view := m.input.area.View()
	if m.engine.Busy() {
		view = m.spinner.View() + " Processing...\n" + view
	}
	return m.theme.inputPanel.Width(m.contentWidth()).Render(view)
}

func (m *model) renderFooter() string {
	statusStyle := m.theme.status
	if m.statusErr {
		statusStyle = m.theme.errorStatus
	}
	line := statusStyle.Render(compactSingleLine(m.statusLine, 180))
	return m.theme.footer.Width(m.contentWidth()).Render(line + "\n" + m.help.View(m.keys))
}

func (m *model) chromeHeight() int {
	helpLines := 1
	if m.help.ShowAll {
		helpLines = 2
	}
	// header 4, panel border+title 3, input border 2 + spinner line 1, footer status 1.
	return 4 + 3 + m.input.area.Height() + 3 + 1 + helpLines
}

func (m *model) resize() {
	width := m.contentWidth()
	m.input.setWidth(maxInt(20, width-4))
	m.help.Width = width
	m.timeline.Width = maxInt(20, width-4)
	m.timeline.Height = maxInt(3, m.height-m.chromeHeight())
}

// renderPanes refreshes the timeline and keeps following the bottom when the
// reader was already there.
func (m *model) renderPanes() {
	atBottom := m.timeline.AtBottom()
	offset := m.timeline.YOffset
	m.timeline.SetContent(m.renderTimeline())
	if atBottom {
		m.timeline.GotoBottom()
	} else {
		m.timeline.SetYOffset(offset)
	}
}

func (m *model) renderTimeline() string {
	messages := m.log.Snapshot()
	if len(messages) == 0 {
		return m.theme.helpText.Render("No messages yet. Describe a task to get started.")
	}
	width := maxInt(24, m.timeline.Width-2)
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(m.theme.messageHeader(msg))
		b.WriteString("\n")
		b.WriteString(wrapText(msg.Text, width))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
