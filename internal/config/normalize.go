package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCapture(); err != nil {
		return err
	}
	if err := c.normalizeUpload(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() error {
	var err error
	if c.Capture.RecordLocation, err = expandPath(strings.TrimSpace(c.Capture.RecordLocation)); err != nil {
		return fmt.Errorf("capture.record_location: %w", err)
	}
	if c.Capture.StitcherLocation, err = expandPath(strings.TrimSpace(c.Capture.StitcherLocation)); err != nil {
		return fmt.Errorf("capture.stitcher_location: %w", err)
	}
	c.Capture.StreamURL = strings.TrimSpace(c.Capture.StreamURL)
	if c.Capture.StreamURL == "" {
		if value, ok := os.LookupEnv("STITCHCAST_STREAM_URL"); ok {
			c.Capture.StreamURL = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeUpload() error {
	var err error
	if strings.TrimSpace(c.Upload.Location) == "" {
		c.Upload.Location = defaultSaveLocation
	}
	if c.Upload.Location, err = expandPath(strings.TrimSpace(c.Upload.Location)); err != nil {
		return fmt.Errorf("upload.location: %w", err)
	}
	c.Upload.Endpoint = strings.TrimRight(strings.TrimSpace(c.Upload.Endpoint), "/")
	if c.Upload.RequestTimeout <= 0 {
		c.Upload.RequestTimeout = defaultUploadRequestTimeout
	}
	return nil
}

func (c *Config) normalizeBackend() {
	c.Backend.Socket = strings.TrimSpace(c.Backend.Socket)
	if c.Backend.Socket == "" {
		c.Backend.Socket = filepath.Join(c.Paths.StateDir, defaultBackendSocketName)
	} else if expanded, err := expandPath(c.Backend.Socket); err == nil {
		c.Backend.Socket = expanded
	}
	if c.Backend.DialTimeout <= 0 {
		c.Backend.DialTimeout = defaultBackendDialTimeout
	}
	if c.Backend.SendBuffer <= 0 {
		c.Backend.SendBuffer = defaultBackendSendBuffer
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("STITCHCAST_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
