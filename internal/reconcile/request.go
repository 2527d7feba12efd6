package reconcile

import (
	"stitchcast/internal/backend"
	"stitchcast/internal/logging"
	"stitchcast/internal/store"
)

// requestWatcher sends request-file whenever a new file is being read: on the
// Reading off->on edge, or when the requested path changes while reading.
type requestWatcher struct {
	reading bool
	path    string
}

func newRequestWatcher(state store.State) *requestWatcher {
	return &requestWatcher{reading: store.IsReading(state), path: state.Video.RequestedPath}
}

func (w *requestWatcher) observe(r *Reconciler) {
	state := r.store.State()
	reading := store.IsReading(state)
	path := state.Video.RequestedPath
	changed := reading != w.reading || (reading && path != w.path)
	w.reading = reading
	w.path = path
	if !changed || !reading {
		return
	}
	if err := r.send(ModeVideo, OutcomeRequested, backend.RequestFile{Path: path}); err != nil {
		// Nothing will ever answer this request, so release Reading; a later
		// RequestVideo for the same path is then a fresh edge.
		if err := r.store.Dispatch(store.RequestFailed{Path: path, Err: err.Error()}); err != nil {
			logging.ErrorWithContext(r.logger, "dispatch failed", "dispatch_failed",
				logging.String("action", store.RequestFailed{}.Type()),
				logging.Error(err),
			)
		}
	}
}
