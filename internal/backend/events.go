package backend

// Event is a message originating from the backend.
type Event interface {
	Packet
}

// FileReceived delivers the bytes of a finished file. Data is base64 on the wire.
type FileReceived struct {
	Path string `json:"path"`
	Data []byte `json:"data"`
}

type ConversionStarted struct{}

// ConversionFinished reports where the processed file was written.
type ConversionFinished struct {
	OutPath string `json:"outPath"`
}

func (FileReceived) Signal() Signal       { return SignalFileReceived }
func (ConversionStarted) Signal() Signal  { return SignalConversionStarted }
func (ConversionFinished) Signal() Signal { return SignalConversionFinished }
