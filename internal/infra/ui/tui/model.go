// Package tui is the interactive terminal front-end: an editor for the code,
// a spinner while the backend works and the result cards below.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bryanwahyu/code-understood/internal/application/controller"
)

// Analyzer is the activation handler bound to the trigger.
type Analyzer interface {
	Analyze(ctx context.Context) error
}

type analyzeDoneMsg struct{ err error }

type styles struct {
	header  lipgloss.Style
	trigger lipgloss.Style
	off     lipgloss.Style
	card    lipgloss.Style
	title   lipgloss.Style
	err     lipgloss.Style
	notice  lipgloss.Style
	help    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#101F38")).Background(lipgloss.Color("#8BC34A")).Padding(0, 1),
		trigger: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		off:     lipgloss.NewStyle().Faint(true),
		card:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#2a3850")).Padding(0, 1),
		title:   lipgloss.NewStyle().Bold(true),
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")),
		notice:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		help:    lipgloss.NewStyle().Faint(true),
	}
}

// Model is the bubbletea model.
type Model struct {
	ctx      context.Context
	analyzer Analyzer
	state    *State
	textarea textarea.Model
	spinner  spinner.Model
	styles   styles
	width    int
	lastErr  error
}

// New builds the model. state must be the one whose Regions the analyzer drives.
func New(ctx context.Context, analyzer Analyzer, state *State) Model {
	ta := textarea.New()
	ta.Placeholder = "Paste code here..."
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.SetWidth(80)
	ta.SetHeight(12)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		analyzer: analyzer,
		state:    state,
		textarea: ta,
		spinner:  sp,
		styles:   defaultStyles(),
		width:    80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlS:
			return m, m.trigger()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.textarea.SetWidth(max(20, msg.Width-2))
		return m, nil

	case analyzeDoneMsg:
		m.lastErr = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// Err is the result of the last finished activation.
func (m Model) Err() error { return m.lastErr }

// trigger starts one activation unless the trigger is disabled.
func (m Model) trigger() tea.Cmd {
	if !m.state.Snapshot().Enabled {
		return nil
	}
	m.state.setInput(m.textarea.Value())
	ctx, analyzer := m.ctx, m.analyzer
	return func() tea.Msg {
		return analyzeDoneMsg{err: analyzer.Analyze(ctx)}
	}
}

func (m Model) View() string {
	snap := m.state.Snapshot()
	var b strings.Builder

	b.WriteString(m.styles.header.Render("Code Understood"))
	b.WriteString("\n\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")

	if snap.Enabled {
		b.WriteString(m.styles.trigger.Render("[ Analyze ]"))
	} else {
		b.WriteString(m.styles.off.Render("[ Analyze ]"))
	}
	if snap.Loading {
		b.WriteString(" " + m.spinner.View() + " Analyzing...")
	}
	b.WriteString("\n")

	if snap.Notice != "" {
		b.WriteString(m.styles.notice.Render(snap.Notice) + "\n")
	}
	if snap.Error != "" {
		b.WriteString(m.styles.err.Render(snap.Error) + "\n")
	}

	cardWidth := max(20, m.width-4)
	for _, c := range snap.Cards {
		body := m.styles.title.Render(c.Title) + "\n" + c.Content
		b.WriteString(m.styles.card.Width(cardWidth).Render(body))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.help.Render("ctrl+s analyze • esc quit"))
	return b.String()
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, newController func(controller.Regions) Analyzer, opts ...tea.ProgramOption) error {
	state := NewState()
	m := New(ctx, newController(state.Regions()), state)
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}
