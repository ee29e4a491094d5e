package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/internal/devserver"
)

func newDevServerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run a local session server for development",
		Args:  cobra.NoArgs,
		RunE:  runDevServer,
	}

	flags := cmd.Flags()
	flags.String("addr", "", "listen address")
	flags.String("token", "", "require this bearer token from clients")
	flags.Duration("session-ttl", time.Minute, "drop polling sessions idle for this long")

	bindFlag(cmd, "addr", "devserver.addr")

	return cmd
}

func runDevServer(cmd *cobra.Command, args []string) error {
	token, _ := cmd.Flags().GetString("token")
	ttl, _ := cmd.Flags().GetDuration("session-ttl")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := devserver.NewServer([]devserver.Option{
		devserver.WithLogger(config.Logger),
		devserver.WithToken(token),
		devserver.WithSessionTTL(ttl),
	})

	addr := loaded.DevServer.Addr
	cmd.Printf("listening on %s\n", addr)

	return server.ListenAndServe(ctx, addr)
}
