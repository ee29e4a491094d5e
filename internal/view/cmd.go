package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/internal/view/messages"
)

func ProcessUserInput(m *model) tea.Cmd {
	defer m.input.Reset()
	return ProcessAction(m, m.input.Value())
}

func ProcessAction(m *model, action string) tea.Cmd {
	args := strings.Fields(action)
	if len(args) == 0 {
		return nil
	}

	commandRoot := Action(args[0])
	commandFn, ok := actions[commandRoot]
	if !ok {
		return func() tea.Msg {
			err := fmt.Errorf("unknown action: %s", commandRoot)
			return messages.NewErrorMessage(err)
		}
	}

	config.Logger.Debug("user action", zap.String("action", string(commandRoot)))
	return commandFn(m, args[1:])
}
