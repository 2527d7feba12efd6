package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stitchcast/internal/backend"
	"stitchcast/internal/logging"
)

func newBackendSimCommand(ctx *commandContext) *cobra.Command {
	var socket string
	var outputDir string
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "backend-sim",
		Short: "Serve a simulated capture backend on the backend socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(socket) == "" {
				socket = cfg.Backend.Socket
			}
			if strings.TrimSpace(outputDir) == "" {
				outputDir = cfg.Capture.RecordLocation
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg, "")
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ln, err := backend.Listen(socket)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Simulated backend listening on %s\n", ln.Path())

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			sim := backend.NewSimulator(ln, backend.SimulatorOptions{
				OutputDir:       outputDir,
				ConversionDelay: delay,
				Logger:          logger,
			})
			return sim.Serve(signalCtx)
		},
	}
	cmd.Flags().StringVar(&socket, "backend-socket", "", "Socket to listen on (defaults to backend.socket)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Where simulated conversions are written (defaults to capture.record_location)")
	cmd.Flags().DurationVar(&delay, "delay", 2*time.Second, "Simulated conversion time")
	return cmd
}
