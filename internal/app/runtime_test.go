package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"stitchcast/internal/backend"
	"stitchcast/internal/config"
	"stitchcast/internal/ipc"
	"stitchcast/internal/journal"
	"stitchcast/internal/logging"
	"stitchcast/internal/reconcile"
	"stitchcast/internal/testsupport"
)

type harness struct {
	cfg     *config.Config
	journal *journal.Journal
	rt      *Runtime
	sim     *backend.Simulator
}

func startHarness(t *testing.T, withBackend bool, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{cfg: cfg, journal: testsupport.MustOpenJournal(t, cfg)}
	if withBackend {
		ln, err := backend.Listen(cfg.Backend.Socket)
		if err != nil {
			t.Fatalf("backend.Listen: %v", err)
		}
		h.sim = backend.NewSimulator(ln, backend.SimulatorOptions{
			OutputDir:       filepath.Join(testsupport.BaseDir(cfg), "sim"),
			ConversionDelay: 10 * time.Millisecond,
			Logger:          logging.NewNop(),
		})
		served := make(chan struct{})
		go func() {
			defer close(served)
			_ = h.sim.Serve(ctx)
		}()
		t.Cleanup(func() {
			cancel()
			<-served
		})
	}

	devRoot := filepath.Join(testsupport.BaseDir(cfg), "dev")
	testsupport.WriteFile(t, filepath.Join(devRoot, "video2"), 1)
	testsupport.WriteFile(t, filepath.Join(devRoot, "video0"), 1)

	rt, err := Start(ctx, cfg, Deps{
		Logger:    logging.NewNop(),
		SessionID: "sess-test",
		Journal:   h.journal,
		DevRoot:   devRoot,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(rt.Close)
	h.rt = rt

	if withBackend {
		waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
		defer waitCancel()
		if err := rt.WaitForBackend(waitCtx); err != nil {
			t.Fatalf("backend never connected: %v", err)
		}
	}
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (h *harness) toggle(t *testing.T, mode string) ipc.ToggleResponse {
	t.Helper()
	resp, err := h.rt.Toggle(context.Background(), mode)
	if err != nil {
		t.Fatalf("Toggle(%s): %v", mode, err)
	}
	return resp
}

func (h *harness) status(t *testing.T) ipc.Status {
	t.Helper()
	status, err := h.rt.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	return status
}

func TestRuntimeRecordingRoundTrip(t *testing.T) {
	h := startHarness(t, true)

	devRoot := filepath.Join(testsupport.BaseDir(h.cfg), "dev")
	wantDevices := []string{filepath.Join(devRoot, "video0"), filepath.Join(devRoot, "video2")}
	if diff := cmp.Diff(wantDevices, h.status(t).Devices); diff != "" {
		t.Fatalf("unexpected scanned cameras (-want +got):\n%s", diff)
	}

	preview := h.toggle(t, "previewing")
	if !preview.Active || preview.Vetoed {
		t.Fatalf("expected preview to start, got %+v", preview)
	}

	blocked := h.toggle(t, "recording")
	if !blocked.Vetoed || blocked.Active {
		t.Fatalf("expected recording to be vetoed while previewing, got %+v", blocked)
	}
	if !blocked.Status.Previewing || blocked.Status.Recording {
		t.Fatalf("rollback left unexpected flags: %+v", blocked.Status)
	}

	if resp := h.toggle(t, "previewing"); resp.Active {
		t.Fatalf("expected preview to stop, got %+v", resp)
	}
	if resp := h.toggle(t, "recording"); !resp.Active || resp.Vetoed {
		t.Fatalf("expected recording to start, got %+v", resp)
	}
	if resp := h.toggle(t, "recording"); resp.Active {
		t.Fatalf("expected recording to stop, got %+v", resp)
	}

	waitFor(t, "upload to finish", func() bool {
		return h.status(t).UploadedURL != ""
	})
	status := h.status(t)
	if !strings.HasSuffix(status.ReceivedPath, "stitched-001.mp4") {
		t.Fatalf("unexpected received path %q", status.ReceivedPath)
	}
	if status.Converting || status.Reading || status.Uploading {
		t.Fatalf("expected processing flags cleared, got %+v", status)
	}
	content, err := os.ReadFile(filepath.Join(h.cfg.Upload.Location, "stitched-001.mp4"))
	if err != nil {
		t.Fatalf("read uploaded file: %v", err)
	}
	if !strings.Contains(string(content), "simulated capture stitched-001.mp4") {
		t.Fatalf("unexpected uploaded content %q", content)
	}

	want := []backend.Signal{
		backend.SignalStartPreview,
		backend.SignalErrorReport,
		backend.SignalStopPreview,
		backend.SignalStartRecord,
		backend.SignalStopRecord,
		backend.SignalRequestFile,
	}
	if diff := cmp.Diff(want, h.sim.Handled()); diff != "" {
		t.Fatalf("unexpected backend commands (-want +got):\n%s", diff)
	}

	h.rt.Close()
	entries, err := h.journal.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("journal List: %v", err)
	}
	var vetoes int
	for _, e := range entries {
		if e.SessionID != "sess-test" {
			t.Fatalf("unexpected session id %q", e.SessionID)
		}
		if e.Outcome == string(reconcile.OutcomeVetoed) {
			vetoes++
			if e.Mode != string(reconcile.ModeRecording) {
				t.Fatalf("unexpected veto mode %q", e.Mode)
			}
		}
	}
	if vetoes != 1 {
		t.Fatalf("expected one journaled veto, got %d in %+v", vetoes, entries)
	}
}

func TestRuntimeWithoutBackend(t *testing.T) {
	h := startHarness(t, false)

	if err := h.rt.Fetch(context.Background(), "/srv/out/x.mp4"); !errors.Is(err, ErrBackendOffline) {
		t.Fatalf("expected ErrBackendOffline, got %v", err)
	}

	resp := h.toggle(t, "broadcasting")
	if !resp.Active {
		t.Fatalf("expected broadcast flag to stay set when the backend is offline, got %+v", resp)
	}
	if resp.Status.BackendConnected {
		t.Fatal("expected backend to be reported offline")
	}

	if _, err := h.rt.Toggle(context.Background(), "video"); err == nil {
		t.Fatal("expected error for unknown mode")
	}

	h.rt.Close()
	entries, err := h.journal.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("journal List: %v", err)
	}
	if len(entries) != 1 || entries[0].Outcome != string(reconcile.OutcomeFailed) {
		t.Fatalf("expected one failed send journaled, got %+v", entries)
	}
}

func TestRuntimeTestNotification(t *testing.T) {
	h := startHarness(t, false)
	sent, message, err := h.rt.TestNotification(context.Background())
	if err != nil || sent {
		t.Fatalf("expected unsent notification without topic, got sent=%v err=%v", sent, err)
	}
	if message != "ntfy topic not configured" {
		t.Fatalf("unexpected message %q", message)
	}
}

func TestVetoPublishesNotification(t *testing.T) {
	bodies := make(chan string, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies <- r.Header.Get("Title") + "|" + string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h := startHarness(t, false, testsupport.WithNtfyTopic(server.URL))
	h.toggle(t, "previewing")
	if resp := h.toggle(t, "broadcasting"); !resp.Vetoed {
		t.Fatalf("expected broadcast veto, got %+v", resp)
	}

	select {
	case got := <-bodies:
		if !strings.HasPrefix(got, "Stitchcast - Blocked|") {
			t.Fatalf("unexpected notification %q", got)
		}
		if !strings.Contains(got, "Please stop the preview before streaming.") {
			t.Fatalf("expected veto message in notification, got %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no veto notification published")
	}
}

func TestInitialStateCopiesPreferences(t *testing.T) {
	cfg := config.Default()
	cfg.Capture.CameraIndex = 3
	cfg.Capture.StreamURL = "rtmp://example/live"
	cfg.Upload.Location = "/srv/out"

	nodes := []string{"/dev/video0"}
	state := InitialState(&cfg, nodes)
	nodes[0] = "mutated"

	if state.Preferences.CameraIndex != 3 || state.Preferences.StreamURL != "rtmp://example/live" {
		t.Fatalf("unexpected preferences: %+v", state.Preferences)
	}
	if state.Preferences.Location != "/srv/out" {
		t.Fatalf("expected upload location as save location, got %q", state.Preferences.Location)
	}
	if diff := cmp.Diff([]string{"/dev/video0"}, state.Devices); diff != "" {
		t.Fatalf("devices aliased caller slice (-want +got):\n%s", diff)
	}
}

func TestRunRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg, Options{LogLevel: "error", DevRoot: t.TempDir()})
	}()

	waitFor(t, "control socket", func() bool {
		_, err := os.Stat(cfg.ControlSocketPath())
		return err == nil
	})

	if err := Run(context.Background(), cfg, Options{LogLevel: "error"}); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	client, err := ipc.Dial(cfg.ControlSocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	status, err := client.Status()
	client.Close()
	if err != nil {
		t.Fatalf("Status RPC: %v", err)
	}
	if status.Status.SessionID == "" {
		t.Fatal("expected session id in status")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}
