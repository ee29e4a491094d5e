package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/pkg/protocol"
	"github.com/six78/arena-cli/pkg/storage"
)

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func newStorage(t *testing.T) *storage.LocalStorage {
	store := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, store.Initialize())
	return store
}

func TestRootCommand(t *testing.T) {
	root := NewRootCommand()
	require.Equal(t, "arena", root.Use)

	names := make(map[string]bool)
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, expected := range []string{"connect", "devserver", "room"} {
		require.True(t, names[expected], "missing command %s", expected)
	}
}

func TestBindMissingFlag(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("present", "", "")

	require.NotPanics(t, func() { bindFlag(cmd, "present", "test.present") })
	require.Panics(t, func() { bindFlag(cmd, "missing", "test.missing") })
}

func TestRoomNew(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("log.stdout", true)

	output, err := executeCommand(NewRootCommand(), "room", "new")
	require.NoError(t, err)

	roomID, err := protocol.ParseRoomID(strings.TrimSpace(output))
	require.NoError(t, err)
	require.False(t, roomID.Empty())
	require.NotNil(t, loaded)
	require.Equal(t, config.TransportWebsocket, loaded.Transport.Primary)
}

func TestResolveIdentityRequiresName(t *testing.T) {
	store := newStorage(t)
	_, err := resolveIdentity(config.IdentityConfig{}, store)
	require.Error(t, err)

	_, err = store.Identity()
	require.ErrorIs(t, err, storage.ErrNoIdentity)
}

func TestResolveIdentityGeneratesAndStores(t *testing.T) {
	store := newStorage(t)
	name := gofakeit.Username()

	identity, err := resolveIdentity(config.IdentityConfig{Name: name}, store)
	require.NoError(t, err)
	require.NotEmpty(t, identity.UserID)
	require.Equal(t, name, identity.Name)

	// The stored identity is reused
	again, err := resolveIdentity(config.IdentityConfig{}, store)
	require.NoError(t, err)
	require.Equal(t, identity, again)
}

func TestResolveIdentityOverrides(t *testing.T) {
	store := newStorage(t)
	stored := storage.Identity{
		UserID: protocol.UserID(gofakeit.UUID()),
		Name:   gofakeit.Username(),
		Color:  gofakeit.HexColor(),
	}
	require.NoError(t, store.SetIdentity(stored))

	token := gofakeit.LetterN(12)
	identity, err := resolveIdentity(config.IdentityConfig{Token: token, Name: "renamed"}, store)
	require.NoError(t, err)
	require.Equal(t, stored.UserID, identity.UserID)
	require.Equal(t, stored.Color, identity.Color)
	require.Equal(t, "renamed", identity.Name)
	require.Equal(t, token, identity.Token)

	saved, err := store.Identity()
	require.NoError(t, err)
	require.Equal(t, identity, saved)
}
