// Package store holds the single shared application state of the runtime.
//
// State is changed only through Dispatch, which reduces an Action and then
// synchronously notifies subscribers. Subscribers may dispatch from inside
// their callback; nesting is capped at MaxDispatchDepth. All top-level
// dispatches are funnelled through a Loop so the runtime keeps the
// single-threaded, cooperative model the reconciliation rules assume.
//
// selectors.go is the read side: pure projections answering "is recording,
// previewing, broadcasting, converting, or uploading active now?".
package store
