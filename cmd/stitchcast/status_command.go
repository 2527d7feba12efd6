package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stitchcast/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show runtime status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Status)
				}
				colorize := shouldColorize(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(renderStatus(resp.Status, colorize), "\n"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderStatus(s ipc.Status, colorize bool) []string {
	var lines []string

	lines = append(lines, renderSectionHeader("Modes", colorize)...)
	for _, m := range []struct {
		name   string
		active bool
	}{
		{"recording", s.Recording},
		{"previewing", s.Previewing},
		{"broadcasting", s.Broadcasting},
	} {
		if m.active {
			lines = append(lines, renderStatusLine(modeLabel(m.name), statusOK, "Active", colorize))
		} else {
			lines = append(lines, renderStatusLine(modeLabel(m.name), statusInfo, "Idle", colorize))
		}
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Video", colorize)...)
	lines = append(lines, videoStatusLine(s, colorize))
	if s.ReceivedPath != "" {
		lines = append(lines, renderStatusLine("Received", statusInfo, s.ReceivedPath, colorize))
	}
	if s.UploadedURL != "" {
		lines = append(lines, renderStatusLine("Uploaded", statusOK, s.UploadedURL, colorize))
	}
	if s.LastError != "" {
		lines = append(lines, renderStatusLine("Last Error", statusError, s.LastError, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Runtime", colorize)...)
	if s.BackendConnected {
		lines = append(lines, renderStatusLine("Backend", statusOK, "Connected ("+s.BackendSocket+")", colorize))
	} else {
		lines = append(lines, renderStatusLine("Backend", statusWarn, "Offline ("+s.BackendSocket+")", colorize))
	}
	if len(s.Devices) == 0 {
		lines = append(lines, renderStatusLine("Cameras", statusWarn, "None detected", colorize))
	} else {
		lines = append(lines, renderStatusLine("Cameras", statusOK, strings.Join(s.Devices, ", "), colorize))
	}
	lines = append(lines, renderStatusLine("Session", statusInfo, s.SessionID, colorize))
	lines = append(lines, renderStatusLine("PID", statusInfo, fmt.Sprintf("%d", s.PID), colorize))
	return lines
}

func videoStatusLine(s ipc.Status, colorize bool) string {
	switch {
	case s.Converting:
		return renderStatusLine("Processing", statusWarn, "Converting", colorize)
	case s.Reading:
		return renderStatusLine("Processing", statusWarn, "Fetching "+s.RequestedPath, colorize)
	case s.Uploading:
		return renderStatusLine("Processing", statusWarn, "Uploading", colorize)
	case s.Read:
		return renderStatusLine("Processing", statusWarn, "Upload pending", colorize)
	default:
		return renderStatusLine("Processing", statusInfo, "Idle", colorize)
	}
}
