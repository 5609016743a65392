package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/nirimap/internal/daemon"
	"github.com/1broseidon/nirimap/internal/runtimepath"
	"github.com/1broseidon/nirimap/internal/state"
)

// Backend is the daemon side of the control socket. Calls may block until the
// owning loop serves them.
type Backend interface {
	Status(ctx context.Context) (daemon.Status, error)
	Snapshot(ctx context.Context) (state.Snapshot, error)
	SetVisible(ctx context.Context, visible bool) error
	Reload(ctx context.Context) error
}

const (
	// requestTimeout bounds how long a request waits on the backend.
	requestTimeout = 5 * time.Second
	// liveCheckTimeout bounds the liveness check on an existing socket.
	liveCheckTimeout = 200 * time.Millisecond
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	backend      Backend
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server on the default socket path.
func NewServer(backend Backend, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, backend, logger), nil
}

// NewServerAt creates a server that will listen on path.
func NewServerAt(path string, backend Backend, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		socketPath: path,
		backend:    backend,
		logger:     logger,
	}
}

func (s *Server) SocketPath() string {
	return s.socketPath
}

// ErrAlreadyRunning is returned by Start when another daemon answers on the
// socket path.
var ErrAlreadyRunning = errors.New("another nirimap instance is listening")

// Start begins listening for IPC connections. A stale socket file from a
// previous run is replaced; a live one is left alone.
func (s *Server) Start() error {
	if conn, err := net.DialTimeout("unix", s.socketPath, liveCheckTimeout); err == nil {
		conn.Close()
		return fmt.Errorf("%w on %s", ErrAlreadyRunning, s.socketPath)
	}
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()
	return nil
}

// Serve runs the server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			done := s.shuttingDown
			s.shutdownMu.Unlock()
			if done {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	resp := s.handleCommand(ctx, req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC command", "command", req.Command)

	switch req.Command {
	case CommandReload:
		if err := s.backend.Reload(ctx); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
		}
		return okResponse(nil)
	case CommandGetStatus:
		return s.handleGetStatus(ctx)
	case CommandGetState:
		snap, err := s.backend.Snapshot(ctx)
		if err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to get state: %v", err))
		}
		return okResponse(snap)
	case CommandShow, CommandHide:
		if err := s.backend.SetVisible(ctx, req.Command == CommandShow); err != nil {
			return NewErrorResponse(fmt.Sprintf("Failed to change visibility: %v", err))
		}
		return okResponse(nil)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus(ctx context.Context) *Response {
	st, err := s.backend.Status(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get status: %v", err))
	}

	return okResponse(StatusData{
		Visible:         st.Visible,
		AlwaysVisible:   st.AlwaysVisible,
		HidePending:     st.HidePending,
		ActiveWorkspace: st.ActiveWorkspace,
		FocusedWindow:   st.FocusedWindow,
		WorkspaceCount:  st.Workspaces,
		WindowCount:     st.Windows,
		Width:           st.Width,
		Height:          st.Height,
		Output:          st.Output,
		UptimeSeconds:   st.UptimeSeconds,
		DaemonRunning:   true,
	})
}

func okResponse(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
