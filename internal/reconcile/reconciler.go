package reconcile

import (
	"errors"
	"log/slog"

	"stitchcast/internal/backend"
	"stitchcast/internal/logging"
	"stitchcast/internal/store"
)

// maxReactionDepth is the deepest nesting a reaction may reach: a vetoed
// start (1) dispatches its rollback, whose reaction (2) dispatches nothing.
const maxReactionDepth = 2

// Mode names what a transition concerns.
type Mode string

const (
	ModeRecording    Mode = "recording"
	ModePreviewing   Mode = "previewing"
	ModeBroadcasting Mode = "broadcasting"
	ModeVideo        Mode = "video"
)

// Outcome classifies a journaled transition.
type Outcome string

const (
	OutcomeStarted    Outcome = "started"
	OutcomeStopped    Outcome = "stopped"
	OutcomeVetoed     Outcome = "vetoed"
	OutcomeSuppressed Outcome = "suppressed"
	OutcomeRequested  Outcome = "requested"
	OutcomeReceived   Outcome = "received"
	OutcomeFailed     Outcome = "failed"
)

// Transition is one observable decision, handed to the Recorder.
type Transition struct {
	Mode    Mode
	Outcome Outcome
	Signal  backend.Signal
	Detail  string
}

// Store is the subset of *store.Store the reconciler needs.
type Store interface {
	State() store.State
	Dispatch(store.Action) error
	Subscribe(func()) func()
}

// CommandSender delivers commands to the backend without blocking.
type CommandSender interface {
	Send(backend.Packet) error
}

// ErrorReporter surfaces a veto message to the user. It is called before the
// rollback is dispatched.
type ErrorReporter interface {
	ReportError(message string)
}

// Recorder receives every transition decision.
type Recorder interface {
	Record(Transition)
}

// Options configures a Reconciler.
type Options struct {
	Store    Store
	Sender   CommandSender
	Reporter ErrorReporter
	Recorder Recorder
	Logger   *slog.Logger
}

// Reconciler owns the mode watchers and their single store subscription.
type Reconciler struct {
	store    Store
	sender   CommandSender
	reporter ErrorReporter
	recorder Recorder
	logger   *slog.Logger

	watchers []*modeWatcher
	request  *requestWatcher

	depth       int
	peakDepth   int
	unsubscribe func()
}

// New builds the watchers, seeds their memory from the current state and
// subscribes to the store. It must be called on the store's goroutine.
func New(opts Options) (*Reconciler, error) {
	if opts.Store == nil {
		return nil, errors.New("reconcile: store is required")
	}
	if opts.Sender == nil {
		return nil, errors.New("reconcile: command sender is required")
	}
	if opts.Reporter == nil {
		return nil, errors.New("reconcile: error reporter is required")
	}

	r := &Reconciler{
		store:    opts.Store,
		sender:   opts.Sender,
		reporter: opts.Reporter,
		recorder: opts.Recorder,
		logger:   logging.NewComponentLogger(opts.Logger, "reconcile"),
	}

	state := opts.Store.State()
	r.watchers = []*modeWatcher{
		newRecordWatcher(state),
		newPreviewWatcher(state),
		newBroadcastWatcher(state),
	}
	r.request = newRequestWatcher(state)
	r.unsubscribe = opts.Store.Subscribe(r.react)
	return r, nil
}

// Close removes the store subscription.
func (r *Reconciler) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

// PeakDepth reports the deepest reaction nesting observed so far.
func (r *Reconciler) PeakDepth() int {
	return r.peakDepth
}

func (r *Reconciler) react() {
	if r.depth >= maxReactionDepth {
		logging.ErrorWithContext(r.logger, "reaction depth exceeded", "reaction_depth_exceeded",
			logging.Int("depth", r.depth+1),
			logging.Int("max_depth", maxReactionDepth),
			logging.String(logging.FieldErrorHint, "a watcher dispatched from a nested reaction"),
		)
		return
	}
	r.depth++
	if r.depth > r.peakDepth {
		r.peakDepth = r.depth
	}
	defer func() { r.depth-- }()

	for _, w := range r.watchers {
		w.observe(r)
	}
	r.request.observe(r)
}

func (r *Reconciler) send(mode Mode, outcome Outcome, cmd backend.Command) error {
	attrs := []logging.Attr{
		logging.Mode(string(mode)),
		logging.Signal(string(cmd.Signal())),
	}
	if err := r.sender.Send(cmd); err != nil {
		logging.ErrorWithContext(r.logger, "backend command not delivered", "backend_send_failed",
			append(attrs,
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the backend connection; the store was not rolled back"),
			)...,
		)
		r.record(Transition{Mode: mode, Outcome: OutcomeFailed, Signal: cmd.Signal(), Detail: err.Error()})
		return err
	}
	r.logger.Info("command sent", logging.Args(attrs...)...)
	r.record(Transition{Mode: mode, Outcome: outcome, Signal: cmd.Signal()})
	return nil
}

func (r *Reconciler) veto(mode Mode, guard Guard) {
	logging.WarnWithContext(r.logger, "transition vetoed", "transition_vetoed",
		logging.Mode(string(mode)),
		logging.String("guard", guard.Name),
		logging.String("reason", guard.Message),
		logging.String(logging.FieldImpact, "mode was switched back off"),
		logging.String(logging.FieldErrorHint, guard.Message),
	)
	r.reporter.ReportError(guard.Message)
	r.record(Transition{Mode: mode, Outcome: OutcomeVetoed, Detail: guard.Message})
}

func (r *Reconciler) record(t Transition) {
	if r.recorder != nil {
		r.recorder.Record(t)
	}
}
