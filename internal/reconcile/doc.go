// Package reconcile turns store changes into backend commands.
//
// A Reconciler holds one store subscription and a watcher per AV mode
// (recording, previewing, broadcasting). Each watcher remembers the last flag
// value it saw and only acts on edges. An off->on edge runs the mode's ordered
// guard list: the first blocked guard vetoes the start, reports its message,
// and dispatches the mode toggle again to roll the flag back. An unguarded
// start sends the mode's start command built from the current preferences.
// An on->off edge sends the stop command, except that the recording watcher
// swallows the off edge produced by its own rollback (earlyExit). Preview and
// broadcast resend their stop in that case; the backend treats a redundant
// stop-preview or stop-stream as a no-op, while a spurious stop-record would
// finalize a capture that never started.
//
// A fourth watcher follows Video.Reading and sends request-file.
//
// Completion forwards backend events (file-received, conversion-started,
// conversion-finished) into store actions and hands received files to the
// Uploader.
//
// Everything here runs on the store's goroutine (see store.Loop); none of it
// is safe for concurrent use.
package reconcile
