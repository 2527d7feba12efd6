package backend

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"
)

func TestSimulatorConversionRoundTrip(t *testing.T) {
	ln, err := Listen(socketPath(t, "sim.sock"))
	if err != nil {
		t.Fatalf("Listen returned error: %v", err)
	}
	outDir := t.TempDir()
	sim := NewSimulator(ln, SimulatorOptions{OutputDir: outDir, ConversionDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- sim.Serve(ctx) }()

	events := make(chan Event, 8)
	client, err := Dial(context.Background(), ln.Path(), Options{Handler: func(m Message) {
		ev, err := DecodeEvent(m)
		if err != nil {
			t.Errorf("DecodeEvent returned error: %v", err)
			return
		}
		events <- ev
	}})
	if err != nil {
		cancel()
		t.Fatalf("Dial returned error: %v", err)
	}

	next := func() Event {
		t.Helper()
		select {
		case ev := <-events:
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for backend event")
			return nil
		}
	}

	if err := client.Send(StartRecord{RecordLocation: outDir}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if err := client.Send(StopRecord{}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if _, ok := next().(ConversionStarted); !ok {
		t.Fatal("expected conversion-started first")
	}
	finished, ok := next().(ConversionFinished)
	if !ok {
		t.Fatal("expected conversion-finished second")
	}
	onDisk, err := os.ReadFile(finished.OutPath)
	if err != nil {
		t.Fatalf("converted file missing: %v", err)
	}

	if err := client.Send(RequestFile{Path: finished.OutPath}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	received, ok := next().(FileReceived)
	if !ok {
		t.Fatal("expected file-received")
	}
	if received.Path != finished.OutPath || !bytes.Equal(received.Data, onDisk) {
		t.Fatalf("unexpected file payload: %+v", received)
	}

	cancel()
	if err := <-served; err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}
	<-client.Done()
	_ = client.Close()

	handled := sim.Handled()
	if len(handled) != 3 || handled[0] != SignalStartRecord || handled[2] != SignalRequestFile {
		t.Fatalf("unexpected handled signals: %v", handled)
	}
}
