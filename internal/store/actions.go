package store

// Action describes an intended state change.
type Action interface {
	Type() string
}

// ToggleRecord flips the recording flag.
type ToggleRecord struct{}

// TogglePreview flips the previewing flag.
type TogglePreview struct{}

// ToggleBroadcast flips the broadcasting flag.
type ToggleBroadcast struct{}

// StartConversion marks backend post-processing as running.
type StartConversion struct{}

// FinishConversion marks backend post-processing as done.
type FinishConversion struct{}

// RequestVideo asks for the processed file at Path to be loaded.
type RequestVideo struct{ Path string }

// ReceiveVideo records that the file at Path arrived from the backend.
type ReceiveVideo struct{ Path string }

// RequestFailed abandons a file request that never reached the backend.
type RequestFailed struct {
	Path string
	Err  string
}

// UploadStarted marks the received file as being uploaded.
type UploadStarted struct{ Name string }

// UploadFinished marks the upload as complete.
type UploadFinished struct{ URL string }

// UploadFailed marks the upload as failed.
type UploadFailed struct{ Err string }

// DeviceAttached adds a capture device node.
type DeviceAttached struct{ Node string }

// DeviceDetached removes a capture device node.
type DeviceDetached struct{ Node string }

func (ToggleRecord) Type() string     { return "toggle-stream" }
func (TogglePreview) Type() string    { return "toggle-preview" }
func (ToggleBroadcast) Type() string  { return "toggle-broadcast" }
func (StartConversion) Type() string  { return "start-conversion" }
func (FinishConversion) Type() string { return "finish-conversion" }
func (RequestVideo) Type() string     { return "request-video" }
func (ReceiveVideo) Type() string     { return "receive-video" }
func (RequestFailed) Type() string    { return "request-failed" }
func (UploadStarted) Type() string    { return "upload-started" }
func (UploadFinished) Type() string   { return "upload-finished" }
func (UploadFailed) Type() string     { return "upload-failed" }
func (DeviceAttached) Type() string   { return "device-attached" }
func (DeviceDetached) Type() string   { return "device-detached" }
