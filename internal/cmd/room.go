package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/six78/arena-cli/pkg/protocol"
)

func newRoomCommand() *cobra.Command {
	room := &cobra.Command{
		Use:   "room",
		Short: "Room helpers",
	}

	room.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Print a new room code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, err := protocol.NewRoomID()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), roomID.String())
			return err
		},
	})

	return room
}
