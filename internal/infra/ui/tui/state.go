package tui

import (
	"sync"

	"github.com/bryanwahyu/code-understood/internal/application/controller"
	"github.com/bryanwahyu/code-understood/internal/domain/analysis"
)

// State is the view state the controller writes from its goroutine and View
// reads from the program loop.
type State struct {
	mu      sync.Mutex
	input   string
	enabled bool
	loading bool
	errMsg  string
	notice  string
	cards   []analysis.Card
}

func NewState() *State {
	return &State{enabled: true}
}

// Snapshot is a consistent copy of State.
type Snapshot struct {
	Enabled bool
	Loading bool
	Error   string
	Notice  string
	Cards   []analysis.Card
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Enabled: s.enabled,
		Loading: s.loading,
		Error:   s.errMsg,
		Notice:  s.notice,
		Cards:   append([]analysis.Card(nil), s.cards...),
	}
}

// setInput records the editor content for the next activation.
func (s *State) setInput(text string) {
	s.mu.Lock()
	s.input = text
	s.notice = ""
	s.mu.Unlock()
}

// Regions exposes the state to a controller.
func (s *State) Regions() controller.Regions {
	return controller.Regions{
		Input:   input{s},
		Trigger: trigger{s},
		Results: results{s},
		Loading: loading{s},
		Errors:  errorLine{s},
		Notice:  notice{s},
	}
}

func (s *State) update(f func(*State)) {
	s.mu.Lock()
	f(s)
	s.mu.Unlock()
}

type input struct{ s *State }

func (r input) Text() string {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.input
}

type trigger struct{ s *State }

func (t trigger) SetEnabled(v bool) { t.s.update(func(s *State) { s.enabled = v }) }

type results struct{ s *State }

func (r results) Clear() { r.s.update(func(s *State) { s.cards = nil }) }

func (r results) Show(cards []analysis.Card) {
	cp := append([]analysis.Card(nil), cards...)
	r.s.update(func(s *State) { s.cards = cp })
}

type loading struct{ s *State }

func (l loading) SetVisible(v bool) { l.s.update(func(s *State) { s.loading = v }) }

type errorLine struct{ s *State }

func (e errorLine) Show(msg string) { e.s.update(func(s *State) { s.errMsg = msg }) }
func (e errorLine) Hide()           { e.s.update(func(s *State) { s.errMsg = "" }) }

type notice struct{ s *State }

func (n notice) Notify(msg string) { n.s.update(func(s *State) { s.notice = msg }) }
