package line

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spendgate/internal/domain/command"
	logpkg "github.com/kailas-cloud/spendgate/internal/logger"
	"github.com/kailas-cloud/spendgate/internal/metrics"
)

const (
	defaultMaxLineBytes = 1024
	acceptRetryDelay    = 50 * time.Millisecond
)

// ErrNotServing is returned by Ping while the accept loop is not running.
var ErrNotServing = errors.New("breaker listener not serving")

// Config holds listener settings. Zero timeouts disable the corresponding deadline.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxLineBytes int
}

// Server accepts breaker connections one at a time. A connection is read up to its first
// newline (or EOF), answered with exactly one reply line, then closed.
type Server struct {
	cfg     Config
	handler *Handler
	logger  *zap.Logger
	serving atomic.Bool
}

// NewServer creates a Server.
func NewServer(cfg Config, handler *Handler, logger *zap.Logger) *Server {
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = defaultMaxLineBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, handler: handler, logger: logger}
}

// ListenAndServe binds cfg.Addr and serves until ctx is cancelled.
// A bind failure is returned before any connection is accepted.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on ln. Connections are handled sequentially on the calling
// goroutine. Cancelling ctx closes ln; a connection already being handled is finished first.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer func() { _ = ln.Close() }()
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	s.serving.Store(true)
	defer s.serving.Store(false)

	s.logger.Info("Breaker listening", zap.String("addr", ln.Addr().String()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Breaker listener stopped")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			s.logger.Warn("accept failed", zap.Error(err))
			time.Sleep(acceptRetryDelay)
			continue
		}
		s.serveConn(ctx, conn)
	}
}

// Ping reports whether the accept loop is running.
func (s *Server) Ping(_ context.Context) error {
	if !s.serving.Load() {
		return ErrNotServing
	}
	return nil
}

// serveConn drives one connection: read, dispatch, reply, close.
// Errors and panics abandon the connection only.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	start := time.Now()
	connLogger := s.logger.With(zap.String("remote_addr", conn.RemoteAddr().String()))

	var (
		cmd     command.Command
		reply   string
		result  = "replied"
		connErr error
	)

	defer func() {
		if rvr := recover(); rvr != nil {
			result = "panic"
			connLogger.Error("panic recovered",
				zap.Any("panic", rvr),
				zap.Stack("stacktrace"),
			)
		}
		_ = conn.Close()

		latency := time.Since(start)
		metrics.ConnectionsTotal.WithLabelValues(result).Inc()
		metrics.ConnectionDuration.Observe(latency.Seconds())

		// Canonical log line, one per connection.
		fields := []zap.Field{
			zap.Stringer("command", cmd),
			zap.String("reply", strings.TrimSuffix(reply, "\n")),
			zap.String("result", result),
			zap.Duration("latency", latency),
		}
		if connErr != nil {
			connLogger.Warn("breaker_connection", append(fields, zap.Error(connErr))...)
			return
		}
		connLogger.Info("breaker_connection", fields...)
	}()

	line, err := s.readLine(conn)
	if err != nil {
		result, connErr = "read_error", err
		return
	}

	cmd, reply = s.handler.dispatch(logpkg.ContextWithLogger(ctx, connLogger), line)

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := io.WriteString(conn, reply); err != nil {
		result, connErr = "write_error", fmt.Errorf("write reply: %w", err)
	}
}

// readLine accumulates bytes until the first '\n', EOF, or MaxLineBytes.
// EOF is not an error: whatever arrived before it is the command.
func (s *Server) readLine(conn net.Conn) ([]byte, error) {
	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}

	r := bufio.NewReader(io.LimitReader(conn, int64(s.cfg.MaxLineBytes)))
	line, err := r.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read command: %w", err)
	}
	return line, nil
}
