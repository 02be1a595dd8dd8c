// Package console implements the controller's display regions on plain
// writers, for one-shot command line use.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/bryanwahyu/code-understood/internal/application/controller"
	"github.com/bryanwahyu/code-understood/internal/domain/analysis"
)

// Styles used to print regions.
type Styles struct {
	Title   lipgloss.Style
	Content lipgloss.Style
	Error   lipgloss.Style
	Notice  lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles derives styles from a renderer bound to the output, so colors are
// dropped when it is not a terminal.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A")),
		Content: r.NewStyle().PaddingLeft(2),
		Error:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935")),
		Notice:  r.NewStyle().Foreground(lipgloss.Color("#FFC107")),
		Muted:   r.NewStyle().Faint(true),
	}
}

// Screen prints results to out and status (loading, errors, notices) to status.
type Screen struct {
	mu      sync.Mutex
	out     io.Writer
	status  io.Writer
	styles  Styles
	input   string
	enabled bool
	loading bool
	errMsg  string
	cards   []analysis.Card
}

// New returns a screen holding input as the code to analyze.
func New(out, status io.Writer, input string) *Screen {
	return &Screen{
		out:     out,
		status:  status,
		styles:  NewStyles(lipgloss.NewRenderer(out)),
		input:   input,
		enabled: true,
	}
}

// Regions exposes the screen to a controller.
func (s *Screen) Regions() controller.Regions {
	return controller.Regions{
		Input:   inputRegion{s},
		Trigger: trigger{s},
		Results: results{s},
		Loading: loading{s},
		Errors:  errorBox{s},
		Notice:  notice{s},
	}
}

// Cards returns the cards last shown.
func (s *Screen) Cards() []analysis.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]analysis.Card(nil), s.cards...)
}

// Error returns the visible error message, if any.
func (s *Screen) Error() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Enabled reports whether the trigger is enabled.
func (s *Screen) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Screen) printf(w io.Writer, style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(w, style.Render(fmt.Sprintf(format, args...)))
}

type inputRegion struct{ s *Screen }

func (r inputRegion) Text() string {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.input
}

type trigger struct{ s *Screen }

func (t trigger) SetEnabled(enabled bool) {
	t.s.mu.Lock()
	t.s.enabled = enabled
	t.s.mu.Unlock()
}

type results struct{ s *Screen }

func (r results) Clear() {
	r.s.mu.Lock()
	r.s.cards = nil
	r.s.mu.Unlock()
}

func (r results) Show(cards []analysis.Card) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.cards = append([]analysis.Card(nil), cards...)
	for i, c := range cards {
		if i > 0 {
			fmt.Fprintln(r.s.out)
		}
		r.s.printf(r.s.out, r.s.styles.Title, "%s", c.Title)
		// Content keeps its own line breaks; pad each line.
		for _, line := range strings.Split(c.Content, "\n") {
			r.s.printf(r.s.out, r.s.styles.Content, "%s", line)
		}
	}
}

type loading struct{ s *Screen }

func (l loading) SetVisible(visible bool) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if visible && !l.s.loading {
		l.s.printf(l.s.status, l.s.styles.Muted, "Analyzing...")
	}
	l.s.loading = visible
}

type errorBox struct{ s *Screen }

func (e errorBox) Show(message string) {
	e.s.mu.Lock()
	defer e.s.mu.Unlock()
	e.s.errMsg = message
	e.s.printf(e.s.status, e.s.styles.Error, "Error: %s", message)
}

func (e errorBox) Hide() {
	e.s.mu.Lock()
	e.s.errMsg = ""
	e.s.mu.Unlock()
}

type notice struct{ s *Screen }

func (n notice) Notify(message string) {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	n.s.printf(n.s.status, n.s.styles.Notice, "%s", message)
}
