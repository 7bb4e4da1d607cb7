package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/ncattr/internal/session"
)

func (a *app) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE NAME",
		Short: "Print the value of one global attribute",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := session.ReadSnapshot(args[0])
			if err != nil {
				return err
			}
			v, ok := snap.Get(args[1])
			if !ok {
				return fmt.Errorf("%q: %w", args[1], session.ErrNotFound)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return err
		},
	}
}
