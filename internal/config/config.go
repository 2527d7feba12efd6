package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains runtime directories.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Capture contains the preference values bundled into backend start commands.
type Capture struct {
	CameraIndex      int    `toml:"camera_index"`
	PreviewIndex     int    `toml:"preview_index"`
	RecordLocation   string `toml:"record_location"`
	StitcherLocation string `toml:"stitcher_location"`
	StreamURL        string `toml:"stream_url"`
	Width            int    `toml:"width"`
	Height           int    `toml:"height"`
}

// Upload contains the destination for finished recordings.
type Upload struct {
	// Location is the preferred save location handed to the uploader.
	Location string `toml:"location"`
	// Endpoint is the base URL files are PUT to. Empty means copy to Location on disk.
	Endpoint       string `toml:"endpoint"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Backend contains the capture backend channel settings.
type Backend struct {
	Socket      string `toml:"socket"`
	DialTimeout int    `toml:"dial_timeout"`
	SendBuffer  int    `toml:"send_buffer"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Vetoes         bool   `toml:"vetoes"`
	Uploads        bool   `toml:"uploads"`
}

// Devices controls camera hot-plug monitoring.
type Devices struct {
	Watch bool `toml:"watch"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for stitchcast.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Capture: camera/preview indices, stitcher, output and stream targets
//   - Upload: where received recordings are delivered
//   - Backend: capture backend socket and send queue
//   - Notifications: ntfy push notification settings
//   - Devices: udev camera monitoring
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Capture       Capture       `toml:"capture"`
	Upload        Upload        `toml:"upload"`
	Backend       Backend       `toml:"backend"`
	Notifications Notifications `toml:"notifications"`
	Devices       Devices       `toml:"devices"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stitchcast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// resolveConfigPath returns the explicit path when given (whether or not it
// exists); otherwise the first existing file among the user config and
// ./stitchcast.toml, falling back to the user config path.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	localPath, err := filepath.Abs("stitchcast.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, localPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

// EnsureDirectories creates required directories for runtime operation.
// The record and save locations are created on a best-effort basis so the
// runtime can start while removable storage is unmounted.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.Capture.RecordLocation, c.Upload.Location} {
		if strings.TrimSpace(dir) != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

// ControlSocketPath returns the JSON-RPC control socket served by the runtime.
func (c *Config) ControlSocketPath() string {
	return filepath.Join(c.Paths.StateDir, defaultControlSocketFileName)
}

// JournalPath returns the SQLite transition journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// LockPath returns the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "stitchcast.lock")
}

// BackendDialTimeout returns the configured dial timeout as a duration.
func (c *Config) BackendDialTimeout() time.Duration {
	return time.Duration(c.Backend.DialTimeout) * time.Second
}

// UploadTimeout returns the configured upload request timeout as a duration.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.Upload.RequestTimeout) * time.Second
}

// expandPath resolves a leading "~" against the home directory and returns
// a cleaned absolute path. Empty input stays empty.
func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return "", nil
	}
	if pathValue == "~" || strings.HasPrefix(pathValue, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		pathValue = filepath.Join(home, strings.TrimPrefix(pathValue, "~"))
	}
	absolute, err := filepath.Abs(pathValue)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath applies the same "~" and absolute-path rules Load uses.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
