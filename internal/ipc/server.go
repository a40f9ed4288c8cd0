package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"matuwall/internal/logging"
)

// ErrSocketInUse reports that another process is accepting on the socket path.
var ErrSocketInUse = errors.New("control socket already in use")

const readTimeout = time.Second

// Server accepts one command per connection on a Unix domain socket and
// delivers decoded commands, in accept order, on Commands.
type Server struct {
	path     string
	logger   *slog.Logger
	listener net.Listener
	commands chan Command

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer binds the control socket at path. A leftover socket file with no
// listener behind it is removed first; a live one yields ErrSocketInUse and
// is left untouched.
func NewServer(ctx context.Context, path string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	if _, err := os.Lstat(path); err == nil {
		if Probe(path) {
			return nil, fmt.Errorf("%s: %w", path, ErrSocketInUse)
		}
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:     path,
		logger:   logger,
		listener: listener,
		commands: make(chan Command),
		ctx:      serverCtx,
		cancel:   cancel,
	}, nil
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Commands yields decoded commands. The channel is unbuffered so the next
// connection is not read until the previous command has been taken.
func (s *Server) Commands() <-chan Command {
	return s.commands
}

// Serve starts accepting connections until the context is canceled or Close
// is called.
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
					logging.String(logging.FieldImpact, "control commands may be dropped"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			cmd, ok := s.readCommand(conn)
			if !ok {
				continue
			}
			select {
			case s.commands <- cmd:
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

func (s *Server) readCommand(conn net.Conn) (Command, bool) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	data, err := io.ReadAll(io.LimitReader(conn, MaxPayload))
	if err != nil && len(data) == 0 {
		s.logger.Debug("control connection read failed", logging.Error(err))
		return "", false
	}
	cmd, ok := ParseCommand(string(data))
	if !ok {
		s.logger.Debug("ignoring unknown control token", logging.Int("bytes", len(data)))
		return "", false
	}
	return cmd, true
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
			logging.String(logging.FieldImpact, "stale control socket left behind"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}
