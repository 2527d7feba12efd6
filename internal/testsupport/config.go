package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"stitchcast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The base directory is kept short because Unix socket paths are length
// limited.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base, err := os.MkdirTemp("", "sc")
	if err != nil {
		t.Fatalf("create temp base: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(base) })

	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Capture.RecordLocation = filepath.Join(base, "raw")
	cfgVal.Capture.StitcherLocation = filepath.Join(base, "bin", "stitch")
	cfgVal.Capture.StreamURL = "rtmp://127.0.0.1/live/test"
	cfgVal.Upload.Location = filepath.Join(base, "out")
	cfgVal.Upload.Endpoint = ""
	cfgVal.Backend.Socket = filepath.Join(base, "state", "backend.sock")
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.Devices.Watch = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithStubbedStitcher writes an executable stub at the configured stitcher location.
func WithStubbedStitcher() ConfigOption {
	return func(b *configBuilder) {
		target := b.cfg.Capture.StitcherLocation
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		if err := os.WriteFile(target, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			b.t.Fatalf("write stitcher stub: %v", err)
		}
	}
}

// WithUploadEndpoint sets the upload PUT endpoint.
func WithUploadEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Upload.Endpoint = endpoint
	}
}

// WithNtfyTopic enables push notifications to topic for every event type.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
		b.cfg.Notifications.Vetoes = true
		b.cfg.Notifications.Uploads = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
