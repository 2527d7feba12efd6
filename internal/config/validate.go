package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.CameraIndex < 0 {
		return errors.New("capture.camera_index must be >= 0")
	}
	if c.Capture.PreviewIndex < 0 {
		return errors.New("capture.preview_index must be >= 0")
	}
	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		return fmt.Errorf("capture.width and capture.height must be positive (got %dx%d)", c.Capture.Width, c.Capture.Height)
	}
	if c.Capture.RecordLocation == "" {
		return errors.New("capture.record_location must be set")
	}
	if c.Capture.StitcherLocation == "" {
		return errors.New("capture.stitcher_location must be set")
	}
	if c.Capture.StreamURL != "" {
		if _, err := url.Parse(c.Capture.StreamURL); err != nil {
			return fmt.Errorf("capture.stream_url: %w", err)
		}
	}
	return nil
}

func (c *Config) validateUpload() error {
	if c.Upload.Endpoint == "" {
		return nil
	}
	parsed, err := url.Parse(c.Upload.Endpoint)
	if err != nil {
		return fmt.Errorf("upload.endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("upload.endpoint must be an http(s) URL, got %q", c.Upload.Endpoint)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
