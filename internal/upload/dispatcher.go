package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"stitchcast/internal/config"
	"stitchcast/internal/logging"
	"stitchcast/internal/notifications"
	"stitchcast/internal/store"
)

const userAgent = "Stitchcast-Go/0.1.0"

// Options configures a Dispatcher.
type Options struct {
	// Endpoint is the base URL for PUT uploads. Empty selects the disk copy.
	Endpoint string
	Client   *http.Client
	Notifier notifications.Service
	Logger   *slog.Logger
}

// Dispatcher runs uploads in the background.
type Dispatcher struct {
	endpoint string
	client   *http.Client
	notifier notifications.Service
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Dispatcher. Close it to cancel and wait for in-flight uploads.
func New(opts Options) *Dispatcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		endpoint: strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/"),
		client:   client,
		notifier: notifier,
		logger:   logging.NewComponentLogger(opts.Logger, "upload"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// NewFromConfig builds a Dispatcher from the [upload] section.
func NewFromConfig(cfg *config.Config, notifier notifications.Service, logger *slog.Logger) *Dispatcher {
	return New(Options{
		Endpoint: cfg.Upload.Endpoint,
		Client:   &http.Client{Timeout: cfg.UploadTimeout()},
		Notifier: notifier,
		Logger:   logger,
	})
}

// Upload starts delivering data as name under location. Progress is reported
// through d, which must be safe to call from another goroutine.
func (u *Dispatcher) Upload(d store.Dispatcher, name string, data []byte, location string) {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		u.run(d, name, data, location)
	}()
}

// Wait blocks until every started upload has reported.
func (u *Dispatcher) Wait() {
	u.wg.Wait()
}

// Close cancels in-flight uploads and waits for them.
func (u *Dispatcher) Close() {
	u.cancel()
	u.wg.Wait()
}

func (u *Dispatcher) run(d store.Dispatcher, name string, data []byte, location string) {
	logger := u.logger.With(logging.String("name", name))
	u.dispatch(d, store.UploadStarted{Name: name}, logger)

	started := time.Now()
	var (
		target string
		err    error
	)
	if u.endpoint != "" {
		target, err = u.put(name, data, location)
	} else {
		target, err = writeFile(name, data, location)
	}

	if err != nil {
		logging.WarnWithContext(logger, "upload failed", "upload_failed",
			logging.String("location", location),
			logging.Error(err),
			logging.String(logging.FieldImpact, "recording was not delivered"),
			logging.String(logging.FieldErrorHint, "check upload.endpoint and upload.location"),
		)
		u.dispatch(d, store.UploadFailed{Err: err.Error()}, logger)
		u.notify(notifications.EventUploadFailed, notifications.Payload{"name": name, "error": err.Error()}, logger)
		return
	}

	logger.Info("upload finished",
		logging.String("url", target),
		logging.Int("bytes", len(data)),
		logging.Duration("elapsed", time.Since(started)),
	)
	u.dispatch(d, store.UploadFinished{URL: target}, logger)
	u.notify(notifications.EventUploadCompleted, notifications.Payload{"name": name, "url": target}, logger)
}

// TargetURL returns where name under location is PUT.
func (u *Dispatcher) TargetURL(name, location string) string {
	segments := []string{u.endpoint}
	for _, part := range strings.Split(filepath.ToSlash(location), "/") {
		if part == "" {
			continue
		}
		segments = append(segments, url.PathEscape(part))
	}
	segments = append(segments, url.PathEscape(name))
	return strings.Join(segments, "/")
}

func (u *Dispatcher) put(name string, data []byte, location string) (string, error) {
	target := u.TargetURL(name, location)
	req, err := http.NewRequestWithContext(u.ctx, http.MethodPut, target, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", contentType(name))

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("upload returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	if loc := strings.TrimSpace(resp.Header.Get("Location")); loc != "" {
		return loc, nil
	}
	return target, nil
}

func writeFile(name string, data []byte, location string) (string, error) {
	if strings.TrimSpace(location) == "" {
		return "", errors.New("no upload location configured")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(location, 0o755); err != nil {
		return "", fmt.Errorf("create upload location: %w", err)
	}
	tmp, err := os.CreateTemp(location, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	dest := filepath.Join(location, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("move %s into place: %w", name, err)
	}
	return (&url.URL{Scheme: "file", Path: dest}).String(), nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	case ".mov":
		return "video/quicktime"
	default:
		return "application/octet-stream"
	}
}

func (u *Dispatcher) dispatch(d store.Dispatcher, action store.Action, logger *slog.Logger) {
	if d == nil {
		return
	}
	if err := d.Dispatch(action); err != nil {
		logger.Debug("upload progress not recorded", logging.String("action", action.Type()), logging.Error(err))
	}
}

func (u *Dispatcher) notify(event notifications.Event, payload notifications.Payload, logger *slog.Logger) {
	if err := u.notifier.Publish(u.ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "upload notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no push notification for this upload"),
		)
	}
}
