package backend_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"stitchcast/internal/backend"
)

func TestEncodeWireShape(t *testing.T) {
	tests := []struct {
		name   string
		packet backend.Packet
		want   string
	}{
		{
			name: "start record",
			packet: backend.StartRecord{
				CameraIndex: 1, RecordLocation: "/rec", StitcherLocation: "/opt/stitch",
				URL: "rtmp://x/live", Width: 3840, Height: 1920,
			},
			want: `{"signal":"start-record","payload":{"cameraIndex":1,"recordLocation":"/rec","stitcherLocation":"/opt/stitch","url":"rtmp://x/live","width":3840,"height":1920}}`,
		},
		{
			name:   "stop record has no payload",
			packet: backend.StopRecord{},
			want:   `{"signal":"stop-record"}`,
		},
		{
			name:   "start preview",
			packet: backend.StartPreview{Index: 2, StitcherLocation: "/s", Width: 10, Height: 5},
			want:   `{"signal":"start-preview","payload":{"index":2,"stitcherLocation":"/s","width":10,"height":5}}`,
		},
		{
			name:   "start stream",
			packet: backend.StartStream{Index: 0, StitcherLocation: "/s", URL: "rtmp://y", Width: 1, Height: 1},
			want:   `{"signal":"start-stream","payload":{"index":0,"stitcherLocation":"/s","url":"rtmp://y","width":1,"height":1}}`,
		},
		{
			name:   "error report",
			packet: backend.ErrorReport{Message: "Please stop the stream before recording."},
			want:   `{"signal":"error-report","payload":{"msg":"Please stop the stream before recording."}}`,
		},
		{
			name:   "file received is base64",
			packet: backend.FileReceived{Path: "/out/a.mp4", Data: []byte("hi")},
			want:   `{"signal":"file-received","payload":{"path":"/out/a.mp4","data":"aGk="}}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := backend.Encode(tc.packet)
			if err != nil {
				t.Fatalf("Encode returned error: %v", err)
			}
			got, err := json.Marshal(msg)
			if err != nil {
				t.Fatalf("marshal envelope: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("unexpected wire form:\n got %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestDecodeCommandRoundTrip(t *testing.T) {
	commands := []backend.Command{
		backend.StartRecord{CameraIndex: 3, URL: "rtmp://z"},
		backend.StopRecord{},
		backend.StartPreview{Index: 1},
		backend.StopPreview{},
		backend.StartStream{URL: "rtmp://q"},
		backend.StopStream{},
		backend.RequestFile{Path: "/out/b.mp4"},
		backend.ErrorReport{Message: "nope"},
	}
	for _, cmd := range commands {
		msg, err := backend.Encode(cmd)
		if err != nil {
			t.Fatalf("Encode(%s) returned error: %v", cmd.Signal(), err)
		}
		got, err := backend.DecodeCommand(msg)
		if err != nil {
			t.Fatalf("DecodeCommand(%s) returned error: %v", cmd.Signal(), err)
		}
		if diff := cmp.Diff(cmd, got); diff != "" {
			t.Fatalf("command mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDecodeEvent(t *testing.T) {
	raw := `{"signal":"conversion-finished","payload":{"outPath":"/out/c.mp4"}}`
	var msg backend.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	event, err := backend.DecodeEvent(msg)
	if err != nil {
		t.Fatalf("DecodeEvent returned error: %v", err)
	}
	if diff := cmp.Diff(backend.ConversionFinished{OutPath: "/out/c.mp4"}, event); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}

	started, err := backend.DecodeEvent(backend.Message{Signal: backend.SignalConversionStarted})
	if err != nil || started != (backend.ConversionStarted{}) {
		t.Fatalf("expected conversion-started without payload, got %v (%v)", started, err)
	}
}

func TestDecodeRejectsUnknownAndMalformed(t *testing.T) {
	if _, err := backend.DecodeEvent(backend.Message{Signal: "start-record"}); !errors.Is(err, backend.ErrUnknownSignal) {
		t.Fatalf("expected ErrUnknownSignal for command on event path, got %v", err)
	}
	if _, err := backend.DecodeCommand(backend.Message{Signal: "reboot"}); !errors.Is(err, backend.ErrUnknownSignal) {
		t.Fatalf("expected ErrUnknownSignal, got %v", err)
	}
	if _, err := backend.DecodeEvent(backend.Message{Signal: backend.SignalFileReceived}); err == nil {
		t.Fatal("expected error for file-received without payload")
	}
	bad := backend.Message{Signal: backend.SignalFileReceived, Payload: json.RawMessage(`{"data":"***"}`)}
	if _, err := backend.DecodeEvent(bad); err == nil {
		t.Fatal("expected error for invalid base64 data")
	}
}
