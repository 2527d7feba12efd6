package backend

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Signal names a message on the wire.
type Signal string

const (
	SignalStartRecord  Signal = "start-record"
	SignalStopRecord   Signal = "stop-record"
	SignalStartPreview Signal = "start-preview"
	SignalStopPreview  Signal = "stop-preview"
	SignalStartStream  Signal = "start-stream"
	SignalStopStream   Signal = "stop-stream"
	SignalRequestFile  Signal = "request-file"
	SignalErrorReport  Signal = "error-report"

	SignalFileReceived       Signal = "file-received"
	SignalConversionStarted  Signal = "conversion-started"
	SignalConversionFinished Signal = "conversion-finished"
)

// ErrUnknownSignal is returned when decoding an envelope with an unexpected signal.
var ErrUnknownSignal = errors.New("unknown signal")

// Packet is anything that can be put on the wire.
type Packet interface {
	Signal() Signal
}

// Message is the wire envelope.
type Message struct {
	Signal  Signal          `json:"signal"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode wraps p in an envelope. Packets without fields carry no payload.
func Encode(p Packet) (Message, error) {
	if p == nil {
		return Message{}, errors.New("encode: nil packet")
	}
	msg := Message{Signal: p.Signal()}
	switch p.(type) {
	case StopRecord, StopPreview, StopStream, ConversionStarted:
		return msg, nil
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s: %w", p.Signal(), err)
	}
	msg.Payload = payload
	return msg, nil
}

// DecodeCommand turns a backend-bound envelope into its typed command.
func DecodeCommand(msg Message) (Command, error) {
	switch msg.Signal {
	case SignalStartRecord:
		return decodeInto[StartRecord](msg)
	case SignalStopRecord:
		return StopRecord{}, nil
	case SignalStartPreview:
		return decodeInto[StartPreview](msg)
	case SignalStopPreview:
		return StopPreview{}, nil
	case SignalStartStream:
		return decodeInto[StartStream](msg)
	case SignalStopStream:
		return StopStream{}, nil
	case SignalRequestFile:
		return decodeInto[RequestFile](msg)
	case SignalErrorReport:
		return decodeInto[ErrorReport](msg)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownSignal, msg.Signal)
	}
}

// DecodeEvent turns a backend-originated envelope into its typed event.
func DecodeEvent(msg Message) (Event, error) {
	switch msg.Signal {
	case SignalFileReceived:
		return decodeInto[FileReceived](msg)
	case SignalConversionStarted:
		return ConversionStarted{}, nil
	case SignalConversionFinished:
		return decodeInto[ConversionFinished](msg)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownSignal, msg.Signal)
	}
}

func decodeInto[T Packet](msg Message) (T, error) {
	var v T
	if len(msg.Payload) == 0 {
		return v, fmt.Errorf("decode %s: missing payload", msg.Signal)
	}
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", msg.Signal, err)
	}
	return v, nil
}
