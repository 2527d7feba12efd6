package backend

// Command is a message sent to the backend.
type Command interface {
	Packet
}

// StartRecord starts capturing to disk (and optionally streaming to URL).
type StartRecord struct {
	CameraIndex      int    `json:"cameraIndex"`
	RecordLocation   string `json:"recordLocation"`
	StitcherLocation string `json:"stitcherLocation"`
	URL              string `json:"url"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
}

type StopRecord struct{}

// StartPreview starts a local stitched preview.
type StartPreview struct {
	Index            int    `json:"index"`
	StitcherLocation string `json:"stitcherLocation"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
}

type StopPreview struct{}

// StartStream starts a live broadcast to URL.
type StartStream struct {
	Index            int    `json:"index"`
	StitcherLocation string `json:"stitcherLocation"`
	URL              string `json:"url"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
}

type StopStream struct{}

// RequestFile asks the backend to send the file at Path.
type RequestFile struct {
	Path string `json:"path"`
}

// ErrorReport carries user-facing text for the backend to surface.
type ErrorReport struct {
	Message string `json:"msg"`
}

func (StartRecord) Signal() Signal  { return SignalStartRecord }
func (StopRecord) Signal() Signal   { return SignalStopRecord }
func (StartPreview) Signal() Signal { return SignalStartPreview }
func (StopPreview) Signal() Signal  { return SignalStopPreview }
func (StartStream) Signal() Signal  { return SignalStartStream }
func (StopStream) Signal() Signal   { return SignalStopStream }
func (RequestFile) Signal() Signal  { return SignalRequestFile }
func (ErrorReport) Signal() Signal  { return SignalErrorReport }
