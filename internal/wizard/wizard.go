// Package wizard provides a Bubbletea-based wizard framework for interactive CLI prompts.
package wizard

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned by Run when the user quits the wizard.
var ErrCancelled = errors.New("wizard cancelled")

// State holds the wizard's collected data.
// Each step reads from and writes to this shared state.
type State map[string]any

// String returns the string stored under key, or "".
func (s State) String(key string) string {
	v, _ := s[key].(string)
	return v
}

// Bool returns the bool stored under key, or false.
func (s State) Bool(key string) bool {
	v, _ := s[key].(bool)
	return v
}

// Step represents a single wizard step.
type Step interface {
	// ID returns a unique identifier for this step.
	ID() string

	// Title returns the step's title shown in the header.
	Title() string

	// Description returns optional description text.
	Description() string

	// Skip returns true if this step should be skipped based on current state.
	Skip(state State) bool

	// Init creates the initial model for this step.
	Init(state State) tea.Model

	// Result extracts the result from the model and stores it in state.
	// Called when the step completes successfully.
	Result(model tea.Model, state State)
}

// Wizard manages a sequence of steps.
type Wizard struct {
	steps   []Step
	current int
	state   State
	model   tea.Model
	done    bool
	err     error

	styles Styles
}

// Styles contains the visual styling for the wizard.
type Styles struct {
	Title       lipgloss.Style
	Description lipgloss.Style
	Progress    lipgloss.Style
	Error       lipgloss.Style
	Subtle      lipgloss.Style
	Selected    lipgloss.Style
}

// DefaultStyles returns the default wizard styling.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1),
		Description: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1),
		Progress: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		Subtle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")),
	}
}

// New creates a new wizard with the given steps.
func New(steps ...Step) *Wizard {
	return &Wizard{
		steps:  steps,
		state:  make(State),
		styles: DefaultStyles(),
	}
}

// WithState sets the initial state for the wizard.
func (w *Wizard) WithState(state State) *Wizard {
	w.state = state
	return w
}

// State returns the wizard's current state.
func (w *Wizard) State() State {
	return w.state
}

// Done reports whether every step completed.
func (w *Wizard) Done() bool {
	return w.done
}

// Run executes the wizard interactively. Options are passed to the
// bubbletea program (input and output redirection).
func (w *Wizard) Run(opts ...tea.ProgramOption) error {
	if !w.start() {
		return nil
	}

	p := tea.NewProgram(w, opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("wizard error: %w", err)
	}
	return w.err
}

// start positions the wizard on its first runnable step. It returns false
// when every step is skipped.
func (w *Wizard) start() bool {
	w.skipToNextStep()
	if w.current >= len(w.steps) {
		w.done = true
		return false
	}
	w.model = w.steps[w.current].Init(w.state)
	return true
}

// Init implements tea.Model.
func (w *Wizard) Init() tea.Cmd {
	if w.model == nil {
		return nil
	}
	return w.model.Init()
}

// Update implements tea.Model.
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			w.err = ErrCancelled
			return w, tea.Quit
		}

	case StepCompleteMsg:
		w.steps[w.current].Result(w.model, w.state)

		w.current++
		w.skipToNextStep()

		if w.current >= len(w.steps) {
			w.done = true
			return w, tea.Quit
		}

		w.model = w.steps[w.current].Init(w.state)
		return w, w.model.Init()
	}

	if w.model != nil {
		var cmd tea.Cmd
		w.model, cmd = w.model.Update(msg)
		return w, cmd
	}
	return w, nil
}

// View implements tea.Model.
func (w *Wizard) View() string {
	if w.current >= len(w.steps) {
		return ""
	}

	step := w.steps[w.current]
	var s string

	s += w.styles.Progress.Render(fmt.Sprintf("Step %d of %d", w.current+1, len(w.steps))) + "\n\n"
	s += w.styles.Title.Render(step.Title()) + "\n"
	if desc := step.Description(); desc != "" {
		s += w.styles.Description.Render(desc) + "\n"
	}
	if w.model != nil {
		s += w.model.View()
	}
	return s
}

// skipToNextStep advances to the next non-skipped step.
func (w *Wizard) skipToNextStep() {
	for w.current < len(w.steps) && w.steps[w.current].Skip(w.state) {
		w.current++
	}
}

// StepCompleteMsg signals that the current step is complete.
type StepCompleteMsg struct{}

// CompleteStep returns a command that signals step completion.
func CompleteStep() tea.Cmd {
	return func() tea.Msg {
		return StepCompleteMsg{}
	}
}
