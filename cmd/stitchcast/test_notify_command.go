package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stitchcast/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Push a test message to the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return err
				}
				msg := resp.Message
				if msg == "" && resp.Sent {
					msg = "Test notification sent"
				} else if msg == "" {
					msg = "Notification not sent"
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
}
