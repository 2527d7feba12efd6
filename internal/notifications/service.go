package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stitchcast/internal/config"
)

const userAgent = "Stitchcast-Go/0.1.0"

// Event identifies a notification type.
type Event string

const (
	EventTransitionVetoed    Event = "transition_vetoed"
	EventVideoReceived       Event = "video_received"
	EventUploadCompleted     Event = "upload_completed"
	EventUploadFailed        Event = "upload_failed"
	EventBackendDisconnected Event = "backend_disconnected"
	EventTest                Event = "test"
)

// Payload carries event-specific fields.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		vetoes:   cfg.Notifications.Vetoes,
		uploads:  cfg.Notifications.Uploads,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	vetoes   bool
	uploads  bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if n == nil {
		return nil
	}
	switch event {
	case EventTransitionVetoed:
		if !n.vetoes {
			return nil
		}
		mode := payloadString(data, "mode")
		return n.send(ctx, payload{
			title:   "Stitchcast - Blocked",
			message: fmt.Sprintf("⛔ %s blocked: %s", modeLabel(mode), payloadString(data, "message")),
			tags:    []string{"stitchcast", "veto", mode},
		})
	case EventVideoReceived:
		if !n.uploads {
			return nil
		}
		return n.send(ctx, payload{
			title:   "Stitchcast - Video Ready",
			message: fmt.Sprintf("🎥 Received %s (%s)", payloadString(data, "name"), formatBytes(payloadInt(data, "bytes"))),
			tags:    []string{"stitchcast", "video", "received"},
		})
	case EventUploadCompleted:
		if !n.uploads {
			return nil
		}
		message := fmt.Sprintf("✅ Uploaded %s", payloadString(data, "name"))
		if url := payloadString(data, "url"); url != "" {
			message = fmt.Sprintf("%s\nURL: %s", message, url)
		}
		return n.send(ctx, payload{
			title:   "Stitchcast - Uploaded",
			message: message,
			tags:    []string{"stitchcast", "upload", "completed"},
		})
	case EventUploadFailed:
		if !n.uploads {
			return nil
		}
		return n.send(ctx, payload{
			title:    "Stitchcast - Upload Failed",
			message:  fmt.Sprintf("❌ Upload of %s failed: %s", payloadString(data, "name"), payloadString(data, "error")),
			tags:     []string{"stitchcast", "upload", "error"},
			priority: "high",
		})
	case EventBackendDisconnected:
		return n.send(ctx, payload{
			title:    "Stitchcast - Backend Disconnected",
			message:  fmt.Sprintf("⚠️ Lost connection to capture backend at %s", payloadString(data, "socket")),
			tags:     []string{"stitchcast", "backend", "alert"},
			priority: "high",
		})
	case EventTest:
		return n.send(ctx, payload{
			title:    "Stitchcast - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"stitchcast", "test"},
			priority: "low",
		})
	default:
		return nil
	}
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	tags := make([]string, 0, len(data.tags))
	for _, tag := range data.tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

func payloadString(data Payload, key string) string {
	if data == nil {
		return ""
	}
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case error:
		return strings.TrimSpace(v.Error())
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func payloadInt(data Payload, key string) int64 {
	if data == nil {
		return 0
	}
	switch v := data[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return 0
	}
}

func modeLabel(mode string) string {
	switch mode {
	case "recording":
		return "Recording"
	case "previewing":
		return "Preview"
	case "broadcasting":
		return "Broadcast"
	case "":
		return "Transition"
	default:
		return mode
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
