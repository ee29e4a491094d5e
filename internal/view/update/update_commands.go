package update

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Commands collects the commands produced by a single model update.
// Queued commands run before the ones returned by components.
type Commands struct {
	queued     []tea.Cmd
	components []tea.Cmd
}

func NewUpdateCommands() *Commands {
	return &Commands{}
}

func (u *Commands) AppendCommand(command tea.Cmd) {
	if command != nil {
		u.queued = append(u.queued, command)
	}
}

func (u *Commands) AppendMessage(message tea.Msg) {
	u.queued = append(u.queued, func() tea.Msg {
		return message
	})
}

// Component records the command returned by a component update.
func (u *Commands) Component(command tea.Cmd) {
	if command != nil {
		u.components = append(u.components, command)
	}
}

func (u *Commands) Len() int {
	return len(u.queued) + len(u.components)
}

func (u *Commands) Batch() tea.Cmd {
	if u.Len() == 0 {
		return nil
	}
	all := make([]tea.Cmd, 0, u.Len())
	all = append(all, u.queued...)
	all = append(all, u.components...)
	return tea.Batch(all...)
}
