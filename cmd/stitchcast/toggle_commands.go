package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stitchcast/internal/ipc"
)

func newToggleCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newToggleCommand(ctx, "record", "recording", "Start or stop recording"),
		newToggleCommand(ctx, "preview", "previewing", "Start or stop the preview"),
		newToggleCommand(ctx, "broadcast", "broadcasting", "Start or stop the live stream"),
	}
}

func newToggleCommand(ctx *commandContext, use, mode, short string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Toggle(mode)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				switch {
				case resp.Vetoed:
					fmt.Fprintf(out, "%s blocked; see `stitchcast history` for the reason\n", modeLabel(mode))
				case resp.Active:
					fmt.Fprintf(out, "%s started\n", modeLabel(mode))
				default:
					fmt.Fprintf(out, "%s stopped\n", modeLabel(mode))
				}
				if !resp.Status.BackendConnected {
					fmt.Fprintln(out, "Warning: backend not connected; the command was not delivered")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
