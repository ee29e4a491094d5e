package eventhandler

import (
	tea "github.com/charmbracelet/bubbletea"
)

type buildMessageFunc[E any, M any] func(E) M

type subscription[E any, M any] struct {
	sub     <-chan E
	convert buildMessageFunc[E, M]
}

// Model turns a channel of events into a chain of tea messages.
// Each delivered M schedules the next wait, so at most one read is pending.
type Model[E any, M any] struct {
	// subscription is a pointer wrapper to share same subscription between models
	// and to enable nullifying it when channel is closed
	subscription *subscription[E, M]
}

func New[E any, M any](convert buildMessageFunc[E, M]) Model[E, M] {
	return Model[E, M]{
		subscription: &subscription[E, M]{
			sub:     nil,
			convert: convert,
		},
	}
}

// Init delivers the current value first, waiting starts once it is received.
func (m Model[E, M]) Init(input <-chan E, current E) tea.Cmd {
	m.subscription.sub = input
	convert := m.subscription.convert
	return func() tea.Msg {
		return convert(current)
	}
}

func (m Model[E, M]) Update(msg tea.Msg) (Model[E, M], tea.Cmd) {
	if m.subscription == nil || m.subscription.sub == nil {
		return m, nil
	}
	var cmd tea.Cmd
	switch msg.(type) {
	case M:
		cmd = WaitForEvent[E, M](m.subscription)
	}
	return m, cmd
}

func WaitForEvent[E any, M any](subscription *subscription[E, M]) tea.Cmd {
	return func() tea.Msg {
		if subscription.sub == nil {
			return nil
		}
		event, more := <-subscription.sub
		if more {
			return subscription.convert(event)
		}
		subscription.sub = nil
		return nil
	}
}
