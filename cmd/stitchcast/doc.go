// Command stitchcast runs the capture runtime and controls it.
//
// `stitchcast run` starts the runtime in the foreground. The other commands
// talk to it over the JSON-RPC control socket: record, preview and broadcast
// toggle a mode, fetch asks the backend for a processed file, and status and
// history report state. check and config work without a running runtime;
// backend-sim serves a local stand-in for the capture backend.
package main
