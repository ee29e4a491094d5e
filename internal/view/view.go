package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/internal/view/commands"
	"github.com/six78/arena-cli/pkg/binding"
)

// Run mounts the binding and blocks until the program exits.
func Run(b *binding.Binding, identity *binding.Identity, store commands.RoomStore, profile Profile) int {
	b.Mount(identity)
	defer b.Unmount()

	m := initialModel(b, store, profile)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		config.Logger.Error("error running program", zap.Error(err))
		return 1
	}
	return 0
}
