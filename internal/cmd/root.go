package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/six78/arena-cli/internal/config"
	"github.com/six78/arena-cli/internal/version"
)

// loaded is the configuration resolved before any subcommand runs.
var loaded *config.Config

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "arena",
		Short: "Real-time rooms, duels and team missions in the terminal",
		Long: `Arena connects to a session server and keeps a live view of the room
you are in, the duel you play and the mission your team works on.`,
		Version:           version.Version(),
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is arena.yaml in the config folder)")
	flags.String("server", "", "session server url")
	flags.String("transport", "", "primary transport: websocket or polling")
	flags.Bool("fallback", true, "fall back to polling when websocket fails")
	flags.Bool("debug", false, "debug logging")
	flags.Bool("log-stdout", false, "log to stderr instead of a log file")

	bindFlag(root, "server", "server.url")
	bindFlag(root, "transport", "transport.primary")
	bindFlag(root, "fallback", "transport.fallback")
	bindFlag(root, "debug", "log.debug")
	bindFlag(root, "log-stdout", "log.stdout")

	root.AddCommand(
		newConnectCommand(),
		newDevServerCommand(),
		newRoomCommand(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// bindFlag panics when the flag is not defined on the command.
func bindFlag(cmd *cobra.Command, name string, key string) {
	flag := cmd.PersistentFlags().Lookup(name)
	if flag == nil {
		flag = cmd.Flags().Lookup(name)
	}
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(errors.Wrapf(err, "failed to bind flag %s", name))
	}
}

func initConfig(cmd *cobra.Command, args []string) error {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return errors.Wrap(err, "failed to read config flag")
	}
	if err := config.Init(configFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := config.SetupLogger(cfg.Log); err != nil {
		return err
	}

	loaded = cfg
	return nil
}
