package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// Listener accepts Conns on a Unix socket. The backend side of the channel
// (and the simulator) listens; the UI runtime dials.
type Listener struct {
	path     string
	listener net.Listener
}

// Listen binds path, replacing a stale socket file if one exists.
func Listen(path string) (*Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure socket directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	return &Listener{path: path, listener: ln}, nil
}

// Path returns the socket path.
func (l *Listener) Path() string {
	return l.path
}

// Accept waits for the next peer. Cancelling ctx closes the listener.
func (l *Listener) Accept(ctx context.Context, opts Options) (*Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := l.listener.Accept()
		ch <- result{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		_ = l.Close()
		res := <-ch
		if res.conn != nil {
			_ = res.conn.Close()
		}
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("accept: %w", res.err)
		}
		return newConn(res.conn, opts), nil
	}
}

// Close stops listening and removes the socket file.
func (l *Listener) Close() error {
	err := l.listener.Close()
	if removeErr := os.Remove(l.path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) && err == nil {
		err = removeErr
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
