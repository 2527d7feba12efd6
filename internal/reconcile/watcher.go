package reconcile

import (
	"stitchcast/internal/backend"
	"stitchcast/internal/logging"
	"stitchcast/internal/store"
)

// modeWatcher reconciles one mode flag against the backend.
type modeWatcher struct {
	mode     Mode
	active   func(store.State) bool
	guards   []Guard
	start    func(store.State) backend.Command
	stop     backend.Command
	rollback store.Action

	// suppressRollbackStop is set for the recording watcher only. When it
	// vetoes a start, earlyExit marks the rollback off edge so stop-record is
	// not sent for a capture that never began.
	suppressRollbackStop bool
	earlyExit            bool

	last bool
}

func newRecordWatcher(state store.State) *modeWatcher {
	return &modeWatcher{
		mode:   ModeRecording,
		active: store.IsRecording,
		guards: RecordGuards(),
		start: func(s store.State) backend.Command {
			return backend.StartRecord{
				CameraIndex:      store.CameraIndex(s),
				RecordLocation:   store.RecordLocation(s),
				StitcherLocation: store.StitcherLocation(s),
				URL:              store.StreamURL(s),
				Width:            store.Width(s),
				Height:           store.Height(s),
			}
		},
		stop:                 backend.StopRecord{},
		rollback:             store.ToggleRecord{},
		suppressRollbackStop: true,
		last:                 store.IsRecording(state),
	}
}

func newPreviewWatcher(state store.State) *modeWatcher {
	return &modeWatcher{
		mode:   ModePreviewing,
		active: store.IsPreviewing,
		guards: PreviewGuards(),
		start: func(s store.State) backend.Command {
			return backend.StartPreview{
				Index:            store.PreviewIndex(s),
				StitcherLocation: store.StitcherLocation(s),
				Width:            store.Width(s),
				Height:           store.Height(s),
			}
		},
		stop:     backend.StopPreview{},
		rollback: store.TogglePreview{},
		last:     store.IsPreviewing(state),
	}
}

func newBroadcastWatcher(state store.State) *modeWatcher {
	return &modeWatcher{
		mode:   ModeBroadcasting,
		active: store.IsBroadcasting,
		guards: BroadcastGuards(),
		start: func(s store.State) backend.Command {
			return backend.StartStream{
				Index:            store.PreviewIndex(s),
				StitcherLocation: store.StitcherLocation(s),
				URL:              store.StreamURL(s),
				Width:            store.Width(s),
				Height:           store.Height(s),
			}
		},
		stop:     backend.StopStream{},
		rollback: store.ToggleBroadcast{},
		last:     store.IsBroadcasting(state),
	}
}

func (w *modeWatcher) observe(r *Reconciler) {
	state := r.store.State()
	on := w.active(state)
	if on == w.last {
		return
	}
	w.last = on
	if on {
		w.started(r, state)
		return
	}
	w.stopped(r)
}

func (w *modeWatcher) started(r *Reconciler, state store.State) {
	if guard, blocked := FirstViolation(w.guards, state); blocked {
		r.veto(w.mode, guard)
		if w.suppressRollbackStop {
			w.earlyExit = true
		}
		// On failure earlyExit stays set: the flag is still on, and whenever
		// it does go off no start was ever sent.
		if err := r.store.Dispatch(w.rollback); err != nil {
			logging.ErrorWithContext(r.logger, "rollback dispatch failed", "rollback_failed",
				logging.Mode(string(w.mode)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "toggle the mode off manually"),
			)
		}
		return
	}
	r.send(w.mode, OutcomeStarted, w.start(state))
	w.earlyExit = false
}

func (w *modeWatcher) stopped(r *Reconciler) {
	if w.earlyExit {
		w.earlyExit = false
		r.logger.Debug("stop suppressed after veto",
			logging.Mode(string(w.mode)),
			logging.Signal(string(w.stop.Signal())),
		)
		r.record(Transition{Mode: w.mode, Outcome: OutcomeSuppressed, Signal: w.stop.Signal()})
		return
	}
	r.send(w.mode, OutcomeStopped, w.stop)
}
