package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stitchcast/internal/ipc"
	"stitchcast/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent mode transitions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Entries)
				}
				if len(resp.Entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No transitions recorded")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderHistory(resp.Entries))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", journal.DefaultListLimit, "Maximum number of entries")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderHistory(entries []journal.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		signal := e.Signal
		if signal == "" {
			signal = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.At.Local().Format("2006-01-02 15:04:05"),
			modeLabel(e.Mode),
			modeLabel(e.Outcome),
			signal,
			e.Detail,
		})
	}
	return renderTable(
		[]string{"ID", "Time", "Mode", "Outcome", "Signal", "Detail"},
		rows,
		0,
	)
}
