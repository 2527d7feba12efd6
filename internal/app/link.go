package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"stitchcast/internal/backend"
	"stitchcast/internal/logging"
	"stitchcast/internal/notifications"
)

// ErrBackendOffline is returned by Send while no backend connection is up.
var ErrBackendOffline = errors.New("backend not connected")

const (
	initialRedialDelay = 250 * time.Millisecond
	maxRedialDelay     = 10 * time.Second
)

// backendLink keeps one connection to the capture backend alive and
// implements reconcile.CommandSender on top of whichever Conn is current.
type backendLink struct {
	socket   string
	opts     backend.Options
	notifier notifications.Service
	logger   *slog.Logger

	mu   sync.Mutex
	conn *backend.Conn

	connected chan struct{}
	once      sync.Once
}

func newBackendLink(socket string, opts backend.Options, notifier notifications.Service, logger *slog.Logger) *backendLink {
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	logger = logging.NewComponentLogger(logger, "backend-link")
	opts.Logger = logger
	return &backendLink{
		socket:    socket,
		opts:      opts,
		notifier:  notifier,
		logger:    logger,
		connected: make(chan struct{}),
	}
}

// Send forwards p to the current connection.
func (l *backendLink) Send(p backend.Packet) error {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return ErrBackendOffline
	}
	return conn.Send(p)
}

// Connected reports whether a backend connection is up.
func (l *backendLink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

// firstConnect is closed the first time a connection is established.
func (l *backendLink) firstConnect() <-chan struct{} {
	return l.connected
}

// supervise dials the backend, waits for the connection to drop and redials
// with exponential backoff until ctx is cancelled.
func (l *backendLink) supervise(ctx context.Context) {
	delay := initialRedialDelay
	for {
		conn, err := backend.Dial(ctx, l.socket, l.opts)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Debug("backend dial failed",
				logging.String("socket", l.socket),
				logging.Duration("retry_in", delay),
				logging.Error(err))
			if !sleepCtx(ctx, delay) {
				return
			}
			delay = min(delay*2, maxRedialDelay)
			continue
		}

		delay = initialRedialDelay
		l.setConn(conn)
		l.once.Do(func() { close(l.connected) })
		l.logger.Info("backend connected", logging.String("socket", l.socket))

		select {
		case <-ctx.Done():
			l.setConn(nil)
			_ = conn.Close()
			return
		case <-conn.Done():
		}

		l.setConn(nil)
		_ = conn.Close()
		logging.WarnWithContext(l.logger, "backend disconnected", "backend_disconnected",
			logging.String("socket", l.socket),
			logging.String(logging.FieldImpact, "mode changes are not delivered until the backend reconnects"),
			logging.String(logging.FieldErrorHint, "check that the capture backend is running"),
		)
		l.notifyDisconnected(ctx)
	}
}

func (l *backendLink) setConn(conn *backend.Conn) {
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
}

func (l *backendLink) notifyDisconnected(ctx context.Context) {
	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := l.notifier.Publish(publishCtx, notifications.EventBackendDisconnected, notifications.Payload{"socket": l.socket}); err != nil {
		l.logger.Debug("disconnect notification failed", logging.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
