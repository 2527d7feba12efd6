package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"stitchcast/internal/config"
	"stitchcast/internal/journal"
	"stitchcast/internal/logging"
	"stitchcast/internal/preflight"
)

// ErrAlreadyRunning is returned when another runtime holds the instance lock.
var ErrAlreadyRunning = errors.New("another stitchcast runtime is already running")

// Options configures the foreground runtime process.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
	// DevRoot overrides where cameras are scanned for at start.
	DevRoot string
}

// Run starts the runtime and blocks until SIGINT, SIGTERM or ctx cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logCfg := *cfg
	if opts.LogLevel != "" {
		logCfg.Logging.Level = opts.LogLevel
	}
	sessionID := uuid.NewString()
	logger, err := logging.NewFromConfig(&logCfg, sessionID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release runtime lock", logging.Error(err))
		}
	}()

	logPreflight(signalCtx, logger, cfg)

	j, err := journal.Open(cfg)
	if err != nil {
		logger.Error("open journal", logging.Error(err))
		return err
	}
	defer j.Close()
	if removed, err := j.Prune(signalCtx, journal.DefaultRetention); err != nil {
		logging.WarnWithContext(logger, "journal prune failed", "journal_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "journal keeps growing until the next start"),
		)
	} else if removed > 0 {
		logger.Info("pruned journal", logging.Int64("removed", removed))
	}

	rt, err := Start(signalCtx, cfg, Deps{
		Logger:    logger,
		SessionID: sessionID,
		Journal:   j,
		DevRoot:   opts.DevRoot,
		ServeIPC:  true,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	<-signalCtx.Done()
	logger.Info("stitchcast runtime shutting down")
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "related mode transitions may fail on the backend"),
			logging.String(logging.FieldErrorHint, "run stitchcast check for details"),
		)
	}
}
