package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"stitchcast/internal/journal"
	"stitchcast/internal/logging"
	"stitchcast/internal/preflight"
)

// Controller is the runtime surface served over the control socket.
type Controller interface {
	Toggle(ctx context.Context, mode string) (ToggleResponse, error)
	Fetch(ctx context.Context, path string) error
	Status(ctx context.Context) (Status, error)
	History(ctx context.Context, limit int) ([]journal.Entry, error)
	Check(ctx context.Context) []preflight.Result
	TestNotification(ctx context.Context) (bool, string, error)
}

// Server exposes runtime control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, ctrl Controller, logger *slog.Logger) (*Server, error) {
	if ctrl == nil {
		return nil, errors.New("ipc server requires controller")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{ctrl: ctrl, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Serve starts accepting RPC connections until Close is called.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "CLI commands may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart stitchcast run"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

const serviceName = "Stitchcast"

type service struct {
	ctrl   Controller
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Toggle(req ToggleRequest, resp *ToggleResponse) error {
	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	switch mode {
	case "recording", "previewing", "broadcasting":
	default:
		return fmt.Errorf("unknown mode %q", req.Mode)
	}
	s.logger.Debug("toggle requested", logging.Mode(mode))
	result, err := s.ctrl.Toggle(s.ctx, mode)
	if err != nil {
		return err
	}
	*resp = result
	return nil
}

func (s *service) Fetch(req FetchRequest, resp *FetchResponse) error {
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return errors.New("fetch requires a path")
	}
	s.logger.Debug("fetch requested", logging.String("path", path))
	if err := s.ctrl.Fetch(s.ctx, path); err != nil {
		return err
	}
	resp.Requested = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status, err := s.ctrl.Status(s.ctx)
	if err != nil {
		return err
	}
	resp.Status = status
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	if req.Limit < 0 {
		return fmt.Errorf("invalid limit %d", req.Limit)
	}
	entries, err := s.ctrl.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Entries = entries
	return nil
}

func (s *service) Check(_ CheckRequest, resp *CheckResponse) error {
	resp.Results = s.ctrl.Check(s.ctx)
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.ctrl.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
