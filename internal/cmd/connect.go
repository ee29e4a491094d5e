package cmd

import (
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/internal/transport"
	"github.com/six78/arena-cli/internal/view"
	"github.com/six78/arena-cli/pkg/binding"
	"github.com/six78/arena-cli/pkg/protocol"
	"github.com/six78/arena-cli/pkg/session"
	"github.com/six78/arena-cli/pkg/storage"
)

func newConnectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to the session server and open the interactive view",
		Args:  cobra.NoArgs,
		RunE:  runConnect,
	}

	flags := cmd.Flags()
	flags.String("name", "", "display name")
	flags.String("color", "", "display color, e.g. #7D56F4")
	flags.String("user-id", "", "user id, generated on first run")
	flags.String("token", "", "bearer token for the server")
	flags.String("room", "", "room to join on start")
	flags.Bool("rejoin", false, "join the last room on start")
	flags.String("storage", "", "folder for the local identity (default is the config folder)")
	flags.Bool("reset-identity", false, "forget the stored identity")

	bindFlag(cmd, "name", "identity.name")
	bindFlag(cmd, "color", "identity.color")
	bindFlag(cmd, "user-id", "identity.user_id")
	bindFlag(cmd, "token", "identity.token")

	return cmd
}

func runConnect(cmd *cobra.Command, args []string) error {
	storagePath, _ := cmd.Flags().GetString("storage")
	store := storage.NewLocalStorage(storagePath)
	if err := store.Initialize(); err != nil {
		return err
	}

	if reset, _ := cmd.Flags().GetBool("reset-identity"); reset {
		if err := store.ResetIdentity(); err != nil {
			return err
		}
	}

	identity, err := resolveIdentity(loaded.Identity, store)
	if err != nil {
		return err
	}

	room, _ := cmd.Flags().GetString("room")
	initialRoom := protocol.RoomID(room)
	if rejoin, _ := cmd.Flags().GetBool("rejoin"); rejoin && initialRoom.Empty() {
		initialRoom = store.LastRoom()
	}

	client := newTransport(loaded)
	if client == nil {
		return errors.New("failed to create transport")
	}

	coordinator := session.NewCoordinator([]session.Option{
		session.WithTransport(client),
		session.WithClock(clockwork.NewRealClock()),
		session.WithLogger(config.Logger),
		session.WithDiffLogging(loaded.Log.Debug),
	})
	if coordinator == nil {
		return errors.New("failed to create session")
	}
	defer coordinator.Stop()

	config.Logger.Info("starting session",
		zap.String("server", loaded.Server.URL),
		zap.String("userID", string(identity.UserID)),
	)

	provider := binding.NewProvider(coordinator, config.Logger)
	code := view.Run(
		provider.New(),
		&binding.Identity{UserID: identity.UserID, Token: identity.Token},
		store,
		view.Profile{
			UserID: identity.UserID,
			Info: protocol.ParticipantInfo{
				Name:   identity.Name,
				Color:  identity.Color,
				Status: protocol.StatusOnline,
			},
			InitialRoom: initialRoom,
		},
	)
	if code != 0 {
		return errors.Errorf("view exited with code %d", code)
	}
	return nil
}

func newTransport(cfg *config.Config) *transport.Client {
	return transport.NewClient([]transport.Option{
		transport.WithLogger(config.Logger),
		transport.WithServerURL(cfg.Server.URL),
		transport.WithPrimaryMode(transport.Mode(cfg.Transport.Primary)),
		transport.WithFallback(cfg.Transport.Fallback),
		transport.WithPollTimeout(cfg.Transport.PollTimeout),
		transport.WithBackoff(transport.BackoffConfig{
			InitialInterval:     cfg.Reconnect.InitialInterval,
			MaxInterval:         cfg.Reconnect.MaxInterval,
			MaxElapsedTime:      cfg.Reconnect.MaxElapsedTime,
			RandomizationFactor: transport.DefaultBackoff.RandomizationFactor,
		}),
	})
}

// resolveIdentity merges the configured identity over the stored one and
// saves the result. A user id is generated when neither has one.
func resolveIdentity(cfg config.IdentityConfig, store storage.Service) (storage.Identity, error) {
	identity, err := store.Identity()
	if err != nil && !errors.Is(err, storage.ErrNoIdentity) {
		return storage.Identity{}, err
	}

	if cfg.UserID != "" {
		identity.UserID = protocol.UserID(cfg.UserID)
	}
	if cfg.Name != "" {
		identity.Name = cfg.Name
	}
	if cfg.Color != "" {
		identity.Color = cfg.Color
	}
	if cfg.Token != "" {
		identity.Token = cfg.Token
	}

	if identity.UserID == "" {
		identity.UserID = protocol.UserID(uuid.NewString())
	}
	if identity.Name == "" {
		return storage.Identity{}, errors.New("display name is not set, use --name")
	}

	if err := store.SetIdentity(identity); err != nil {
		return storage.Identity{}, errors.Wrap(err, "failed to save identity")
	}
	return identity, nil
}
