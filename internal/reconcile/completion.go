package reconcile

import (
	"errors"
	"log/slog"
	"strings"

	"stitchcast/internal/backend"
	"stitchcast/internal/logging"
	"stitchcast/internal/store"
)

// Uploader ships a received file somewhere. It runs asynchronously and
// reports progress only through d.
type Uploader interface {
	Upload(d store.Dispatcher, name string, data []byte, location string)
}

// CompletionOptions configures a Completion.
type CompletionOptions struct {
	Store    Store
	Uploader Uploader
	// UploadDispatcher is handed to the Uploader. It must be safe to use from
	// other goroutines (store.Loop.Dispatcher). Defaults to Store.
	UploadDispatcher store.Dispatcher
	Recorder         Recorder
	Logger           *slog.Logger
}

// Completion forwards backend events into the store.
type Completion struct {
	store    Store
	uploader Uploader
	dispatch store.Dispatcher
	recorder Recorder
	logger   *slog.Logger
}

// NewCompletion validates opts and returns a listener.
func NewCompletion(opts CompletionOptions) (*Completion, error) {
	if opts.Store == nil {
		return nil, errors.New("completion: store is required")
	}
	if opts.Uploader == nil {
		return nil, errors.New("completion: uploader is required")
	}
	dispatch := opts.UploadDispatcher
	if dispatch == nil {
		dispatch = opts.Store
	}
	return &Completion{
		store:    opts.Store,
		uploader: opts.Uploader,
		dispatch: dispatch,
		recorder: opts.Recorder,
		logger:   logging.NewComponentLogger(opts.Logger, "completion"),
	}, nil
}

// HandleMessage decodes and handles one inbound envelope. Unknown or
// malformed envelopes are logged and dropped.
func (c *Completion) HandleMessage(msg backend.Message) {
	event, err := backend.DecodeEvent(msg)
	if err != nil {
		logging.WarnWithContext(c.logger, "ignoring backend message", "backend_message_ignored",
			logging.Signal(string(msg.Signal)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "message had no effect"),
		)
		return
	}
	c.Handle(event)
}

// Handle applies one backend event.
func (c *Completion) Handle(event backend.Event) {
	switch ev := event.(type) {
	case backend.FileReceived:
		c.record(ev.Signal(), ev.Path)
		c.dispatchAction(store.ReceiveVideo{Path: ev.Path})
		name := baseName(ev.Path)
		location := store.Location(c.store.State())
		if name == "" {
			logging.WarnWithContext(c.logger, "received video has no file name", "upload_skipped",
				logging.String("path", ev.Path),
				logging.String(logging.FieldImpact, "file was not uploaded"),
				logging.String(logging.FieldErrorHint, "backend sent a directory path in file-received"),
			)
			return
		}
		c.logger.Info("video received",
			logging.String("path", ev.Path),
			logging.Int("bytes", len(ev.Data)),
			logging.String("location", location),
		)
		c.uploader.Upload(c.dispatch, name, ev.Data, location)
	case backend.ConversionStarted:
		c.record(ev.Signal(), "")
		c.dispatchAction(store.StartConversion{})
	case backend.ConversionFinished:
		c.record(ev.Signal(), ev.OutPath)
		// Converting must clear before the request so guards never see both.
		c.dispatchAction(store.FinishConversion{})
		c.dispatchAction(store.RequestVideo{Path: ev.OutPath})
	default:
		c.logger.Debug("unhandled backend event", logging.Any("event", event))
	}
}

func (c *Completion) dispatchAction(action store.Action) {
	if err := c.store.Dispatch(action); err != nil {
		logging.ErrorWithContext(c.logger, "dispatch failed", "dispatch_failed",
			logging.String("action", action.Type()),
			logging.Error(err),
		)
	}
}

func (c *Completion) record(signal backend.Signal, detail string) {
	if c.recorder != nil {
		c.recorder.Record(Transition{Mode: ModeVideo, Outcome: OutcomeReceived, Signal: signal, Detail: detail})
	}
}

func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
