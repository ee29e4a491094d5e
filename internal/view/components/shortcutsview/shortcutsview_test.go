package shortcutsview

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/six78/arena-cli/internal/view/messages"
	"github.com/six78/arena-cli/pkg/protocol"
)

func TestShortcuts(t *testing.T) {
	m := New()
	require.Contains(t, m.View(), "New room")
	require.NotContains(t, m.View(), "Exit room")
	require.NotContains(t, m.View(), "Accept")

	m = m.Update(messages.StateMessage{
		RoomID:      "room1",
		Invitations: []protocol.Invitation{{ID: "d1"}},
	})
	require.Contains(t, m.View(), "Exit room")
	require.Contains(t, m.View(), "Accept")
	require.Contains(t, m.View(), "Reject")

	m = m.Update(messages.CommandModeChange{CommandMode: true})
	require.Contains(t, m.View(), "Enter")
	require.NotContains(t, m.View(), "Exit room")
	require.Contains(t, m.View(), "Quit")
}
