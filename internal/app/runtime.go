package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"stitchcast/internal/backend"
	"stitchcast/internal/config"
	"stitchcast/internal/devices"
	"stitchcast/internal/ipc"
	"stitchcast/internal/journal"
	"stitchcast/internal/logging"
	"stitchcast/internal/notifications"
	"stitchcast/internal/preflight"
	"stitchcast/internal/reconcile"
	"stitchcast/internal/store"
	"stitchcast/internal/upload"
)

const loopBuffer = 128

// Deps are the collaborators a Runtime does not build itself.
type Deps struct {
	Logger    *slog.Logger
	SessionID string
	Journal   *journal.Journal
	// Notifier defaults to notifications.NewService(cfg).
	Notifier notifications.Service
	// Uploader defaults to upload.NewFromConfig(cfg, ...).
	Uploader *upload.Dispatcher
	// DevRoot is scanned for video* nodes at start. Empty means /dev.
	DevRoot string
	// ServeIPC opens the control socket at cfg.ControlSocketPath().
	ServeIPC bool
}

// Runtime is a started stitchcast instance.
type Runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	sessionID string

	store      *store.Store
	loop       *store.Loop
	journal    *journal.Journal
	notifier   notifications.Service
	uploader   *upload.Dispatcher
	link       *backendLink
	recorder   *journalRecorder
	reconciler *reconcile.Reconciler
	completion *reconcile.Completion
	monitor    *devices.Monitor
	ipcServer  *ipc.Server

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	notifyWG  sync.WaitGroup
	closeOnce sync.Once
}

// Start builds the runtime from cfg and starts every background goroutine.
// Close releases everything Start acquired except deps.Journal.
func Start(ctx context.Context, cfg *config.Config, deps Deps) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	uploader := deps.Uploader
	if uploader == nil {
		uploader = upload.NewFromConfig(cfg, notifier, logger)
	}

	devRoot := deps.DevRoot
	if devRoot == "" {
		devRoot = "/dev"
	}
	nodes, err := devices.Scan(devRoot)
	if err != nil {
		logging.WarnWithContext(logger, "camera scan failed", "device_scan_failed",
			logging.String("dev_root", devRoot),
			logging.Error(err),
			logging.String(logging.FieldImpact, "status will not list cameras until one is plugged in"),
		)
	}

	st := store.New(InitialState(cfg, nodes), logger)
	loop := store.NewLoop(st, loopBuffer, logger)
	runCtx, cancel := context.WithCancel(ctx)

	r := &Runtime{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "runtime"),
		sessionID: deps.SessionID,
		store:     st,
		loop:      loop,
		journal:   deps.Journal,
		notifier:  notifier,
		uploader:  uploader,
		cancel:    cancel,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		loop.Run(runCtx)
	}()

	r.recorder = newJournalRecorder(deps.Journal, notifier, deps.SessionID, logger)

	completion, err := reconcile.NewCompletion(reconcile.CompletionOptions{
		Store: st,
		Uploader: announcingUploader{
			next:     uploader,
			notifier: notifier,
			logger:   r.logger,
			wg:       &r.notifyWG,
		},
		UploadDispatcher: loop.Dispatcher(),
		Recorder:         r.recorder,
		Logger:           logger,
	})
	if err != nil {
		r.Close()
		return nil, err
	}
	r.completion = completion

	r.link = newBackendLink(cfg.Backend.Socket, backend.Options{
		SendBuffer:  cfg.Backend.SendBuffer,
		DialTimeout: cfg.BackendDialTimeout(),
		Handler: func(msg backend.Message) {
			err := loop.Do(runCtx, func(*store.Store) error {
				completion.HandleMessage(msg)
				return nil
			})
			if err != nil && runCtx.Err() == nil {
				logging.ErrorWithContext(r.logger, "backend message not applied", "backend_message_dropped",
					logging.Signal(string(msg.Signal)),
					logging.Error(err),
				)
			}
		},
	}, notifier, logger)

	err = loop.Do(runCtx, func(s *store.Store) error {
		rec, err := reconcile.New(reconcile.Options{
			Store:    s,
			Sender:   r.link,
			Reporter: backendReporter{sender: r.link, logger: r.logger},
			Recorder: r.recorder,
			Logger:   logger,
		})
		r.reconciler = rec
		return err
	})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("start reconciler: %w", err)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.link.supervise(runCtx)
	}()

	if cfg.Devices.Watch {
		r.monitor = devices.NewMonitor(loop.Dispatcher(), logger)
		_ = r.monitor.Start(runCtx)
	}

	if deps.ServeIPC {
		srv, err := ipc.NewServer(runCtx, cfg.ControlSocketPath(), r, logger)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("start IPC server: %w", err)
		}
		r.ipcServer = srv
		srv.Serve()
	}

	r.logger.Info("runtime started",
		logging.String("backend_socket", cfg.Backend.Socket),
		logging.Int("cameras", len(nodes)),
		logging.Bool("device_watch", cfg.Devices.Watch),
	)
	return r, nil
}

// InitialState seeds the store with capture preferences and known cameras.
func InitialState(cfg *config.Config, nodes []string) store.State {
	return store.State{
		Preferences: store.Preferences{
			CameraIndex:      cfg.Capture.CameraIndex,
			PreviewIndex:     cfg.Capture.PreviewIndex,
			RecordLocation:   cfg.Capture.RecordLocation,
			StitcherLocation: cfg.Capture.StitcherLocation,
			StreamURL:        cfg.Capture.StreamURL,
			Width:            cfg.Capture.Width,
			Height:           cfg.Capture.Height,
			Location:         cfg.Upload.Location,
		},
		Devices: append([]string(nil), nodes...),
	}
}

// WaitForBackend blocks until the first backend connection or ctx expiry.
func (r *Runtime) WaitForBackend(ctx context.Context) error {
	select {
	case <-r.link.firstConnect():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops every goroutine, closes the control socket and waits for
// in-flight uploads.
func (r *Runtime) Close() {
	r.closeOnce.Do(func() {
		if r.ipcServer != nil {
			r.ipcServer.Close()
		}
		r.monitor.Stop()
		r.cancel()
		r.wg.Wait()
		if r.reconciler != nil {
			r.reconciler.Close()
		}
		r.uploader.Close()
		r.notifyWG.Wait()
		if r.recorder != nil {
			r.recorder.Close()
		}
		r.logger.Info("runtime stopped")
	})
}

// Toggle flips mode and reports the flags after reconciliation settled.
func (r *Runtime) Toggle(ctx context.Context, mode string) (ipc.ToggleResponse, error) {
	var (
		action store.Action
		flag   func(store.State) bool
	)
	switch reconcile.Mode(mode) {
	case reconcile.ModeRecording:
		action, flag = store.ToggleRecord{}, store.IsRecording
	case reconcile.ModePreviewing:
		action, flag = store.TogglePreview{}, store.IsPreviewing
	case reconcile.ModeBroadcasting:
		action, flag = store.ToggleBroadcast{}, store.IsBroadcasting
	default:
		return ipc.ToggleResponse{}, fmt.Errorf("unknown mode %q", mode)
	}

	resp := ipc.ToggleResponse{Mode: mode}
	err := r.loop.Do(ctx, func(s *store.Store) error {
		before := flag(s.State())
		if err := s.Dispatch(action); err != nil {
			return err
		}
		after := s.State()
		resp.Active = flag(after)
		resp.Vetoed = resp.Active == before
		resp.Status = r.status(after, s.Commit())
		return nil
	})
	return resp, err
}

// Fetch asks the backend for the processed file at path.
func (r *Runtime) Fetch(ctx context.Context, path string) error {
	if !r.link.Connected() {
		return ErrBackendOffline
	}
	return r.loop.Do(ctx, func(s *store.Store) error {
		return s.Dispatch(store.RequestVideo{Path: path})
	})
}

// Status snapshots the store.
func (r *Runtime) Status(ctx context.Context) (ipc.Status, error) {
	var status ipc.Status
	err := r.loop.Do(ctx, func(s *store.Store) error {
		status = r.status(s.State(), s.Commit())
		return nil
	})
	return status, err
}

func (r *Runtime) status(state store.State, commit uint64) ipc.Status {
	status := ipc.Status{
		Recording:        store.IsRecording(state),
		Previewing:       store.IsPreviewing(state),
		Broadcasting:     store.IsBroadcasting(state),
		Converting:       store.IsConverting(state),
		Reading:          store.IsReading(state),
		Read:             store.IsRead(state),
		Uploading:        store.IsUploading(state),
		RequestedPath:    state.Video.RequestedPath,
		ReceivedPath:     state.Video.ReceivedPath,
		UploadedURL:      state.Video.UploadedURL,
		LastError:        state.Video.LastError,
		Devices:          append([]string(nil), state.Devices...),
		BackendConnected: r.link != nil && r.link.Connected(),
		BackendSocket:    r.cfg.Backend.Socket,
		Commit:           commit,
		SessionID:        r.sessionID,
		LockPath:         r.cfg.LockPath(),
		PID:              os.Getpid(),
	}
	if r.journal != nil {
		status.JournalPath = r.journal.Path()
	}
	return status
}

// History lists journaled transitions, newest first.
func (r *Runtime) History(ctx context.Context, limit int) ([]journal.Entry, error) {
	if r.journal == nil {
		return nil, errors.New("journal unavailable")
	}
	return r.journal.List(ctx, limit)
}

// Check runs the preflight checks against the live config.
func (r *Runtime) Check(ctx context.Context) []preflight.Result {
	return preflight.RunAll(ctx, r.cfg)
}

// TestNotification sends a test notification.
func (r *Runtime) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(r.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	publishCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := r.notifier.Publish(publishCtx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
