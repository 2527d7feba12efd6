package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"stitchcast/internal/logging"
)

// DefaultSendBuffer is the outbound queue depth used when Options.SendBuffer is unset.
const DefaultSendBuffer = 64

var (
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("backend connection closed")
	// ErrSendQueueFull is returned when the outbound queue cannot take another message.
	ErrSendQueueFull = errors.New("backend send queue full")
)

// Handler receives every inbound envelope in arrival order on the reader goroutine.
type Handler func(Message)

// Options configures a Conn.
type Options struct {
	SendBuffer  int
	DialTimeout time.Duration
	Handler     Handler
	Logger      *slog.Logger
}

// Conn is one end of the message channel.
type Conn struct {
	conn    net.Conn
	logger  *slog.Logger
	handler Handler

	mu     sync.Mutex
	closed bool
	out    chan Message

	readDone chan struct{}
	wg       sync.WaitGroup
}

// Dial connects to a listening peer at the Unix socket path.
func Dial(ctx context.Context, path string, opts Options) (*Conn, error) {
	dialer := net.Dialer{Timeout: opts.DialTimeout}
	raw, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial backend %s: %w", path, err)
	}
	return newConn(raw, opts), nil
}

func newConn(raw net.Conn, opts Options) *Conn {
	buffer := opts.SendBuffer
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	c := &Conn{
		conn:     raw,
		logger:   logging.NewComponentLogger(opts.Logger, "backend"),
		handler:  opts.Handler,
		out:      make(chan Message, buffer),
		readDone: make(chan struct{}),
	}
	c.wg.Add(2)
	go c.writeLoop()
	go c.readLoop()
	return c
}

// Send queues p for delivery. It never blocks.
func (c *Conn) Send(p Packet) error {
	msg, err := Encode(p)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.out <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Done is closed once the peer stops sending (EOF, read error, or Close).
func (c *Conn) Done() <-chan struct{} {
	return c.readDone
}

// Close flushes queued messages, closes the socket and waits for both
// goroutines to exit. It is safe to call more than once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.wg.Wait()
		return nil
	}
	c.closed = true
	close(c.out)
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Conn) writeLoop() {
	defer c.wg.Done()
	defer c.conn.Close()

	encoder := json.NewEncoder(c.conn)
	broken := false
	for msg := range c.out {
		if broken {
			continue
		}
		if err := encoder.Encode(msg); err != nil {
			broken = true
			logging.WarnWithContext(c.logger, "backend write failed", "backend_write_failed",
				logging.Signal(string(msg.Signal)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "remaining queued commands were dropped"),
				logging.String(logging.FieldErrorHint, "check that the backend process is running"),
			)
			continue
		}
		c.logger.Debug("message sent", logging.Signal(string(msg.Signal)))
	}
}

func (c *Conn) readLoop() {
	defer c.wg.Done()
	defer close(c.readDone)

	decoder := json.NewDecoder(c.conn)
	for {
		var msg Message
		if err := decoder.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				c.logger.Debug("backend channel closed")
				return
			}
			logging.WarnWithContext(c.logger, "backend read failed", "backend_read_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "no further backend events will be processed on this connection"),
			)
			return
		}
		c.logger.Debug("message received", logging.Signal(string(msg.Signal)))
		if c.handler != nil {
			c.handler(msg)
		}
	}
}
