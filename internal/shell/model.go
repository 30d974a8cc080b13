package shell

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxScrollback = 500

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	echoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// evalResultMsg carries the outcome of one evaluated line.
type evalResultMsg struct {
	out string
	err error
}

// Model is the bubbletea model of the shell UI.
type Model struct {
	ctx    context.Context
	interp *Interpreter
	banner string

	input   textinput.Model
	lines   []string
	history []string
	histPos int
	height  int
	busy    bool
}

// NewModel creates the shell UI over interp.
func NewModel(ctx context.Context, interp *Interpreter, banner string) Model {
	in := textinput.New()
	in.Prompt = promptStyle.Render(">>> ")
	in.Placeholder = "help"
	in.Focus()

	return Model{ctx: ctx, interp: interp, banner: banner, input: in}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		return m, nil

	case evalResultMsg:
		m.busy = false
		if errors.Is(msg.err, ErrExit) {
			return m, tea.Quit
		}
		if msg.err != nil {
			m.print(errorStyle.Render("error: " + msg.err.Error()))
		} else if msg.out != "" {
			m.print(msg.out)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			return m.submit()
		case tea.KeyUp:
			m.recall(-1)
			return m, nil
		case tea.KeyDown:
			m.recall(1)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	m.print(echoStyle.Render(">>> " + line))
	if line == "" {
		return m, nil
	}

	if n := len(m.history); n == 0 || m.history[n-1] != line {
		m.history = append(m.history, line)
	}
	m.histPos = len(m.history)
	m.busy = true

	ctx, interp := m.ctx, m.interp
	return m, func() tea.Msg {
		out, err := interp.Eval(ctx, line)
		return evalResultMsg{out: out, err: err}
	}
}

// recall moves through the history; stepping past the newest entry clears the prompt.
func (m *Model) recall(step int) {
	if len(m.history) == 0 {
		return
	}
	m.histPos = max(0, min(len(m.history), m.histPos+step))
	if m.histPos == len(m.history) {
		m.input.Reset()
		return
	}
	m.input.SetValue(m.history[m.histPos])
	m.input.CursorEnd()
}

func (m *Model) print(text string) {
	m.lines = append(m.lines, strings.Split(text, "\n")...)
	if over := len(m.lines) - maxScrollback; over > 0 {
		m.lines = m.lines[over:]
	}
}

// Lines returns the scrollback.
func (m Model) Lines() []string {
	return m.lines
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	if m.banner != "" {
		b.WriteString(bannerStyle.Render(m.banner))
		b.WriteByte('\n')
	}

	lines := m.lines
	if m.height > 0 {
		// banner and prompt take one row each
		if room := m.height - 2; room >= 0 && len(lines) > room {
			lines = lines[len(lines)-room:]
		}
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	b.WriteString(m.input.View())
	return b.String()
}
