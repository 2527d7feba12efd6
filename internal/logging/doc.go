// Package logging assembles structured slog loggers used across stitchcast.
//
// It owns the console and JSON handlers, level parsing, file output
// plumbing, the session_id decorator stamped by the runtime, and the
// standard field keys (component, mode, signal, event_type). WARN and ERROR
// helpers enforce that every problem log names its cause, impact and next
// step. A no-op logger is provided for tests and wiring that cannot fail.
package logging
