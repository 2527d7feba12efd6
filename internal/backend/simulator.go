package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stitchcast/internal/logging"
)

// SimulatorOptions configures a Simulator.
type SimulatorOptions struct {
	// OutputDir receives the fake processed files written after stop-record.
	OutputDir string
	// ConversionDelay is the gap between conversion-started and conversion-finished.
	ConversionDelay time.Duration
	Logger          *slog.Logger
}

// Simulator answers the UI side of the channel the way the capture backend
// does: stop-record triggers a conversion that ends with a file on disk, and
// request-file sends that file back.
type Simulator struct {
	ln     *Listener
	opts   SimulatorOptions
	logger *slog.Logger

	mu       sync.Mutex
	handled  []Signal
	captures int

	wg sync.WaitGroup
}

// NewSimulator serves on ln.
func NewSimulator(ln *Listener, opts SimulatorOptions) *Simulator {
	if opts.OutputDir == "" {
		opts.OutputDir = os.TempDir()
	}
	return &Simulator{
		ln:     ln,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "backend-sim"),
	}
}

// Handled returns the signals processed so far, in order.
func (s *Simulator) Handled() []Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Signal(nil), s.handled...)
}

// Serve accepts one peer at a time until ctx is cancelled.
func (s *Simulator) Serve(ctx context.Context) error {
	defer s.wg.Wait()
	defer s.ln.Close()
	for {
		var conn *Conn
		ready := make(chan struct{})
		handler := func(msg Message) {
			<-ready
			s.handle(ctx, conn, msg)
		}

		accepted, err := s.ln.Accept(ctx, Options{Handler: handler, Logger: s.opts.Logger})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		conn = accepted
		close(ready)
		s.logger.Info("ui connected", logging.String("socket", s.ln.Path()))

		select {
		case <-ctx.Done():
			_ = conn.Close()
			return nil
		case <-conn.Done():
			_ = conn.Close()
			s.logger.Info("ui disconnected")
		}
	}
}

func (s *Simulator) handle(ctx context.Context, conn *Conn, msg Message) {
	cmd, err := DecodeCommand(msg)
	if err != nil {
		logging.WarnWithContext(s.logger, "ignoring message", "backend_message_invalid",
			logging.Signal(string(msg.Signal)),
			logging.Error(err),
		)
		return
	}

	s.mu.Lock()
	s.handled = append(s.handled, cmd.Signal())
	s.mu.Unlock()

	attrs := []logging.Attr{logging.Signal(string(cmd.Signal()))}
	switch c := cmd.(type) {
	case StartRecord:
		s.logger.Info("recording started", logging.Args(append(attrs,
			logging.Int("camera_index", c.CameraIndex),
			logging.String("record_location", c.RecordLocation),
		)...)...)
	case StopRecord:
		s.logger.Info("recording stopped", logging.Args(attrs...)...)
		s.convert(ctx, conn)
	case RequestFile:
		s.sendFile(conn, c.Path)
	case ErrorReport:
		s.logger.Info("ui reported error", logging.Args(append(attrs, logging.String("msg", c.Message))...)...)
	default:
		s.logger.Info("command acknowledged", logging.Args(attrs...)...)
	}
}

func (s *Simulator) convert(ctx context.Context, conn *Conn) {
	if err := conn.Send(ConversionStarted{}); err != nil {
		s.logger.Debug("conversion-started not sent", logging.Error(err))
		return
	}

	s.mu.Lock()
	s.captures++
	name := fmt.Sprintf("stitched-%03d.mp4", s.captures)
	s.mu.Unlock()
	outPath := filepath.Join(s.opts.OutputDir, name)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.opts.ConversionDelay):
		}
		if err := os.MkdirAll(s.opts.OutputDir, 0o755); err != nil {
			s.logger.Error("create output directory", logging.Error(err))
			return
		}
		content := fmt.Sprintf("simulated capture %s\n", name)
		if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
			s.logger.Error("write converted file", logging.Error(err))
			return
		}
		if err := conn.Send(ConversionFinished{OutPath: outPath}); err != nil {
			s.logger.Debug("conversion-finished not sent", logging.Error(err))
			return
		}
		s.logger.Info("conversion finished", logging.String("out_path", outPath))
	}()
}

func (s *Simulator) sendFile(conn *Conn, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.WarnWithContext(s.logger, "requested file unavailable", "backend_file_missing",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no file-received event will follow"),
		)
		return
	}
	if err := conn.Send(FileReceived{Path: path, Data: data}); err != nil {
		s.logger.Debug("file-received not sent", logging.Error(err))
	}
}
