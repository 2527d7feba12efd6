// Package backend is the message channel to the capture/encoding process.
//
// Messages are newline-delimited JSON envelopes ({"signal":..., "payload":...})
// on a Unix stream socket. Commands flow to the backend (start-record,
// stop-preview, request-file, error-report, ...); events flow back
// (file-received, conversion-started, conversion-finished). There is no
// correlation id: each direction is FIFO and nothing pairs requests with
// responses.
//
// Conn.Send never blocks. Messages are queued and written by a single writer
// goroutine; inbound envelopes are decoded by a single reader goroutine and
// handed to the configured Handler in arrival order.
//
// The Simulator is a stand-in backend used by `stitchcast backend-sim` and by
// tests that exercise the full round trip.
package backend
