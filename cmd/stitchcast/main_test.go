package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"stitchcast/internal/app"
	"stitchcast/internal/backend"
	"stitchcast/internal/config"
	"stitchcast/internal/journal"
	"stitchcast/internal/logging"
	"stitchcast/internal/preflight"
	"stitchcast/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	runtime    *app.Runtime
	journal    *journal.Journal
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedStitcher())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	ctx, cancel := context.WithCancel(context.Background())

	ln, err := backend.Listen(cfg.Backend.Socket)
	if err != nil {
		cancel()
		t.Fatalf("backend.Listen: %v", err)
	}
	sim := backend.NewSimulator(ln, backend.SimulatorOptions{
		OutputDir:       filepath.Join(testsupport.BaseDir(cfg), "sim"),
		ConversionDelay: 10 * time.Millisecond,
		Logger:          logging.NewNop(),
	})
	served := make(chan struct{})
	go func() {
		defer close(served)
		_ = sim.Serve(ctx)
	}()

	j := testsupport.MustOpenJournal(t, cfg)
	rt, err := app.Start(ctx, cfg, app.Deps{
		Logger:    logging.NewNop(),
		SessionID: "cli-session",
		Journal:   j,
		DevRoot:   t.TempDir(),
		ServeIPC:  true,
	})
	if err != nil {
		cancel()
		t.Fatalf("app.Start: %v", err)
	}
	t.Cleanup(func() {
		rt.Close()
		cancel()
		<-served
	})

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	if err := rt.WaitForBackend(waitCtx); err != nil {
		t.Fatalf("backend never connected: %v", err)
	}

	return &cliTestEnv{
		cfg:        cfg,
		runtime:    rt,
		journal:    j,
		socketPath: cfg.ControlSocketPath(),
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestToggleCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"preview"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	requireContains(t, out, "Previewing started")

	out, _, err = runCLI(t, []string{"record"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	requireContains(t, out, "Recording blocked")

	out, _, err = runCLI(t, []string{"broadcast", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	var resp struct {
		Mode   string `json:"mode"`
		Vetoed bool   `json:"vetoed"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode toggle json: %v (%q)", err, out)
	}
	if resp.Mode != "broadcasting" || !resp.Vetoed {
		t.Fatalf("unexpected broadcast response: %+v", resp)
	}

	out, _, err = runCLI(t, []string{"preview"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("preview stop: %v", err)
	}
	requireContains(t, out, "Previewing stopped")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Modes ==")
	requireContains(t, out, "Previewing:")
	requireContains(t, out, "[INFO] Idle")
	requireContains(t, out, "[OK] Connected")
	requireContains(t, out, "cli-session")
}

func TestHistoryCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	for _, args := range [][]string{{"preview"}, {"record"}} {
		if _, _, err := runCLI(t, args, env.socketPath, env.configPath); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	waitFor(t, 5*time.Second, func() bool {
		n, err := env.journal.Count(context.Background())
		return err == nil && n >= 3
	})

	out, _, err := runCLI(t, []string{"history", "--limit", "10"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Vetoed")
	requireContains(t, out, "Please stop the preview before recording.")
	requireContains(t, out, "start-preview")

	out, _, err = runCLI(t, []string{"history", "--json", "-n", "2"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history json: %v", err)
	}
	var entries []journal.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode history json: %v", err)
	}
	// The rollback's suppressed stop is journaled after the veto itself.
	if len(entries) != 2 || entries[0].Outcome != "suppressed" || entries[1].Outcome != "vetoed" {
		t.Fatalf("unexpected newest entries: %+v", entries)
	}
}

func TestFetchCommandUploads(t *testing.T) {
	env := setupCLITestEnv(t)

	source := filepath.Join(testsupport.BaseDir(env.cfg), "sim", "manual.mp4")
	testsupport.WriteFile(t, source, 2048)

	out, _, err := runCLI(t, []string{"fetch", source}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	requireContains(t, out, "Requested "+source)

	target := filepath.Join(env.cfg.Upload.Location, "manual.mp4")
	waitFor(t, 5*time.Second, func() bool {
		info, err := os.Stat(target)
		return err == nil && info.Size() == 2048
	})

	if _, _, err := runCLI(t, []string{"fetch"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected error without path argument")
	}
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check", "--json"}, "", env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	var results []preflight.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode check json: %v", err)
	}
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("expected every check to pass, %s failed: %s", r.Name, r.Detail)
		}
	}

	env.cfg.Capture.StitcherLocation = filepath.Join(testsupport.BaseDir(env.cfg), "missing")
	broken := filepath.Join(testsupport.BaseDir(env.cfg), "broken.toml")
	writeTestConfig(t, broken, env.cfg)
	out, _, err = runCLI(t, []string{"check"}, "", broken)
	if err == nil || !strings.Contains(err.Error(), "1 check failed") {
		t.Fatalf("expected one failed check, got %v", err)
	}
	requireContains(t, out, "Stitcher:")
	requireContains(t, out, "[ERROR]")
}

func TestCommandsWithoutRuntime(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	_, _, err := runCLI(t, []string{"status"}, "", configPath)
	if err == nil {
		t.Fatal("expected status to fail without a runtime")
	}
	requireContains(t, err.Error(), "stitchcast run")
}

func TestConfigInit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, "", target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestModeLabel(t *testing.T) {
	tests := map[string]string{
		"recording":    "Recording",
		"vetoed":       "Vetoed",
		"":             "-",
		" previewing ": "Previewing",
	}
	for in, want := range tests {
		if got := modeLabel(in); got != want {
			t.Fatalf("modeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLogsCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	logPath := filepath.Join(cfg.Paths.LogDir, "stitchcast.log")
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	content := "INFO  reconcile (recording): command sent\nWARN  reconcile (previewing): transition vetoed\nINFO  upload: upload finished\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, "", configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "command sent") {
		t.Fatalf("expected only the last two lines, got %q", out)
	}
	requireContains(t, out, "upload finished")

	out, _, err = runCLI(t, []string{"logs", "--grep", "vetoed"}, "", configPath)
	if err != nil {
		t.Fatalf("logs --grep: %v", err)
	}
	if strings.TrimSpace(out) != "WARN  reconcile (previewing): transition vetoed" {
		t.Fatalf("unexpected filtered output %q", out)
	}
}
