// Package journal persists the reconciliation history in SQLite.
//
// Each row is one decision or inbound event: a command sent, a veto, a
// suppressed stop, a delivery failure, or a backend event. The runtime
// appends from the store goroutine; `stitchcast history` reads through the
// control socket. The database lives at <state_dir>/journal.db.
package journal
