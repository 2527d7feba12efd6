package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stitchcast/internal/ipc"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <path>",
		Short: "Ask the backend to send a processed file for upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Fetch(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requested %s\n", args[0])
				return nil
			})
		},
	}
}
