// Package app wires the stitchcast runtime together.
//
// A Runtime owns the application store and the single goroutine (store.Loop)
// that mutates it. Everything asynchronous talks to the store through that
// loop: the backend reader posts inbound envelopes, uploads and device
// hot-plug events post actions, and control RPCs run snapshots and toggles
// with Loop.Do. The reconciler and the completion listener therefore only
// ever run on the loop goroutine.
//
// Run adds the process concerns: signal handling, the session id, the
// single-instance lock and the startup preflight report.
package app
