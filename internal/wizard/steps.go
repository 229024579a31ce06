package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// base carries the fields every step shares.
type base struct {
	id          string
	title       string
	description string
	stateKey    string
	skipFunc    func(State) bool
}

func (b *base) ID() string          { return b.id }
func (b *base) Title() string       { return b.title }
func (b *base) Description() string { return b.description }

func (b *base) Skip(state State) bool {
	if b.skipFunc != nil {
		return b.skipFunc(state)
	}
	return false
}

// ---------------------- Select Step ----------------------

// SelectOption represents a single selectable option.
type SelectOption struct {
	Value       string
	Label       string
	Description string
}

// SelectStep allows the user to choose one option from a list.
type SelectStep struct {
	base
	options    []SelectOption
	defaultVal string
}

// NewSelectStep creates a new select step.
func NewSelectStep(id, title string, options []SelectOption) *SelectStep {
	return &SelectStep{
		base:    base{id: id, title: title, stateKey: id},
		options: options,
	}
}

// WithDescription sets the step description.
func (s *SelectStep) WithDescription(desc string) *SelectStep {
	s.description = desc
	return s
}

// WithDefault places the cursor on the option with this value.
func (s *SelectStep) WithDefault(value string) *SelectStep {
	s.defaultVal = value
	return s
}

// WithSkipFunc sets a function to determine if this step should be skipped.
func (s *SelectStep) WithSkipFunc(fn func(State) bool) *SelectStep {
	s.skipFunc = fn
	return s
}

func (s *SelectStep) Init(state State) tea.Model {
	m := &selectModel{options: s.options, selected: -1, styles: DefaultStyles()}
	if s.defaultVal == "" {
		return m
	}
	for i, opt := range s.options {
		if opt.Value == s.defaultVal {
			m.cursor = i
			break
		}
	}
	return m
}

func (s *SelectStep) Result(model tea.Model, state State) {
	if m, ok := model.(*selectModel); ok && m.selected >= 0 {
		state[s.stateKey] = m.options[m.selected].Value
	}
}

type selectModel struct {
	options  []SelectOption
	cursor   int
	selected int
	styles   Styles
}

func (m *selectModel) Init() tea.Cmd { return nil }

func (m *selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter", " ":
			if len(m.options) == 0 {
				return m, nil
			}
			m.selected = m.cursor
			return m, CompleteStep()
		}
	}
	return m, nil
}

func (m *selectModel) View() string {
	var b strings.Builder
	for i, opt := range m.options {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		line := cursor + opt.Label
		if opt.Description != "" {
			line += " - " + m.styles.Subtle.Render(opt.Description)
		}
		if i == m.cursor {
			line = m.styles.Selected.Render(line)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + m.styles.Subtle.Render("↑/↓: navigate • enter: select"))
	return b.String()
}

// ---------------------- Confirm Step ----------------------

// ConfirmStep asks the user a yes/no question.
type ConfirmStep struct {
	base
	defaultVal bool
	// summary renders the collected state above the question.
	summary func(State) string
}

// NewConfirmStep creates a new confirmation step defaulting to yes.
func NewConfirmStep(id, title string) *ConfirmStep {
	return &ConfirmStep{
		base:       base{id: id, title: title, stateKey: id},
		defaultVal: true,
	}
}

// WithDefault sets the default value.
func (s *ConfirmStep) WithDefault(val bool) *ConfirmStep {
	s.defaultVal = val
	return s
}

// WithSummary shows fn(state) above the yes/no choice.
func (s *ConfirmStep) WithSummary(fn func(State) string) *ConfirmStep {
	s.summary = fn
	return s
}

// WithSkipFunc sets a function to determine if this step should be skipped.
func (s *ConfirmStep) WithSkipFunc(fn func(State) bool) *ConfirmStep {
	s.skipFunc = fn
	return s
}

func (s *ConfirmStep) Init(state State) tea.Model {
	m := &confirmModel{value: s.defaultVal, styles: DefaultStyles()}
	if s.summary != nil {
		m.summary = s.summary(state)
	}
	return m
}

func (s *ConfirmStep) Result(model tea.Model, state State) {
	if m, ok := model.(*confirmModel); ok {
		state[s.stateKey] = m.value
	}
}

type confirmModel struct {
	value   bool
	summary string
	styles  Styles
}

func (m *confirmModel) Init() tea.Cmd { return nil }

func (m *confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "y", "Y":
			m.value = true
			return m, CompleteStep()
		case "n", "N":
			m.value = false
			return m, CompleteStep()
		case "enter":
			return m, CompleteStep()
		case "left", "h":
			m.value = true
		case "right", "l":
			m.value = false
		}
	}
	return m, nil
}

func (m *confirmModel) View() string {
	selected := m.styles.Selected.Bold(true)

	yes, no := m.styles.Subtle.Render(" Yes "), m.styles.Subtle.Render(" No ")
	if m.value {
		yes = selected.Render("[Yes]")
	} else {
		no = selected.Render("[No]")
	}

	var s string
	if m.summary != "" {
		s = m.summary + "\n\n"
	}
	return s + fmt.Sprintf("%s / %s\n\n%s", yes, no,
		m.styles.Subtle.Render("y/n: select • ←/→: toggle • enter: confirm"))
}

// ---------------------- Input Step ----------------------

// InputStep allows the user to enter text.
type InputStep struct {
	base
	placeholder  string
	defaultValue string
	validate     func(string) error
}

// NewInputStep creates a new text input step.
func NewInputStep(id, title string) *InputStep {
	return &InputStep{base: base{id: id, title: title, stateKey: id}}
}

// WithDescription sets the step description.
func (s *InputStep) WithDescription(desc string) *InputStep {
	s.description = desc
	return s
}

// WithPlaceholder sets the placeholder text.
func (s *InputStep) WithPlaceholder(placeholder string) *InputStep {
	s.placeholder = placeholder
	return s
}

// WithDefault sets the default value.
func (s *InputStep) WithDefault(val string) *InputStep {
	s.defaultValue = val
	return s
}

// WithValidation rejects entries for which fn returns an error.
func (s *InputStep) WithValidation(fn func(string) error) *InputStep {
	s.validate = fn
	return s
}

// WithSkipFunc sets a function to determine if this step should be skipped.
func (s *InputStep) WithSkipFunc(fn func(State) bool) *InputStep {
	s.skipFunc = fn
	return s
}

func (s *InputStep) Init(state State) tea.Model {
	ti := textinput.New()
	ti.Placeholder = s.placeholder
	ti.SetValue(s.defaultValue)
	ti.Focus()
	ti.Width = 50

	return &inputModel{textInput: ti, validate: s.validate, styles: DefaultStyles()}
}

func (s *InputStep) Result(model tea.Model, state State) {
	if m, ok := model.(*inputModel); ok {
		state[s.stateKey] = strings.TrimSpace(m.textInput.Value())
	}
}

type inputModel struct {
	textInput textinput.Model
	validate  func(string) error
	err       error
	styles    Styles
}

func (m *inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
		if m.validate != nil {
			if err := m.validate(m.textInput.Value()); err != nil {
				m.err = err
				return m, nil
			}
		}
		return m, CompleteStep()
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *inputModel) View() string {
	s := m.textInput.View() + "\n\n"
	if m.err != nil {
		s += m.styles.Error.Render("Error: "+m.err.Error()) + "\n"
	}
	return s + m.styles.Subtle.Render("enter: confirm")
}
