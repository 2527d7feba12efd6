// Package ipc exposes the running stitchcast runtime over JSON-RPC on a Unix
// socket and ships the matching client used by the CLI.
//
// The server only knows the Controller interface; the runtime in internal/app
// implements it by posting actions onto the store loop. Mode toggles go
// through the same reconciliation as any other state change, so a toggle
// that a guard vetoes comes back with the rolled-back flags in the response.
package ipc
