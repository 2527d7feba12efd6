package ipc

import (
	"stitchcast/internal/journal"
	"stitchcast/internal/preflight"
)

// ToggleRequest flips one AV mode. Mode is recording, previewing or broadcasting.
type ToggleRequest struct {
	Mode string `json:"mode"`
}

// ToggleResponse reports the mode flags after reconciliation settled.
type ToggleResponse struct {
	Mode   string `json:"mode"`
	Active bool   `json:"active"`
	// Vetoed is set when the toggle was rolled back by a guard.
	Vetoed bool   `json:"vetoed"`
	Status Status `json:"status"`
}

// FetchRequest asks the backend for the file at Path.
type FetchRequest struct {
	Path string `json:"path"`
}

// FetchResponse acknowledges a fetch request.
type FetchResponse struct {
	Requested bool `json:"requested"`
}

// StatusRequest fetches runtime status.
type StatusRequest struct{}

// Status is the wire view of the store plus runtime facts.
type Status struct {
	Recording        bool     `json:"recording"`
	Previewing       bool     `json:"previewing"`
	Broadcasting     bool     `json:"broadcasting"`
	Converting       bool     `json:"converting"`
	Reading          bool     `json:"reading"`
	Read             bool     `json:"read"`
	Uploading        bool     `json:"uploading"`
	RequestedPath    string   `json:"requested_path,omitempty"`
	ReceivedPath     string   `json:"received_path,omitempty"`
	UploadedURL      string   `json:"uploaded_url,omitempty"`
	LastError        string   `json:"last_error,omitempty"`
	Devices          []string `json:"devices,omitempty"`
	BackendConnected bool     `json:"backend_connected"`
	BackendSocket    string   `json:"backend_socket"`
	Commit           uint64   `json:"commit"`
	SessionID        string   `json:"session_id"`
	JournalPath      string   `json:"journal_path"`
	LockPath         string   `json:"lock_path"`
	PID              int      `json:"pid"`
}

// StatusResponse wraps Status.
type StatusResponse struct {
	Status Status `json:"status"`
}

// HistoryRequest lists journaled transitions, newest first.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryResponse contains journal entries.
type HistoryResponse struct {
	Entries []journal.Entry `json:"entries"`
}

// CheckRequest runs preflight checks inside the runtime.
type CheckRequest struct{}

// CheckResponse contains preflight results.
type CheckResponse struct {
	Results []preflight.Result `json:"results"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
