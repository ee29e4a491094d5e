package userinput

import (
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/six78/arena-cli/internal/view/messages"
)

var style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

type Model struct {
	input       textinput.Model
	commandMode bool
}

func New(commandMode bool) Model {
	input := textinput.New()
	input.Placeholder = "Type a command..."
	input.Prompt = "┃ "
	input.Cursor.SetMode(cursor.CursorBlink)
	input.Cursor.Style = style
	if commandMode {
		input.Focus()
	}

	return Model{
		input:       input,
		commandMode: commandMode,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case messages.CommandModeChange:
		m.commandMode = msg.CommandMode
		if m.commandMode {
			cmd = m.input.Focus()
			cmds = append(cmds, cmd)
		} else {
			m.input.Blur()
		}
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.commandMode {
		return ""
	}
	return m.input.View()
}

func (m *Model) SetValue(s string) {
	m.input.SetValue(s)
}

func (m *Model) Focused() bool {
	return m.input.Focused()
}

func (m *Model) Reset() {
	m.input.Reset()
}

func (m *Model) Value() string {
	return m.input.Value()
}
