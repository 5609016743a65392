package niri

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// SocketEnv names the environment variable niri exports with its IPC socket.
const SocketEnv = "NIRI_SOCKET"

// ErrNoSocket is returned when NIRI_SOCKET is unset.
var ErrNoSocket = errors.New("NIRI_SOCKET is not set (is niri running?)")

// ReplyError is an {"Err": "..."} reply from niri.
type ReplyError struct {
	Request string
	Message string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("niri rejected %s: %s", e.Request, e.Message)
}

// Client talks to the niri IPC socket. Each request uses its own connection.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the socket named by $NIRI_SOCKET.
func NewClient() (*Client, error) {
	path := os.Getenv(SocketEnv)
	if path == "" {
		return nil, ErrNoSocket
	}
	return NewClientWithPath(path)
}

// NewClientWithPath creates a client for an explicit socket path.
func NewClientWithPath(path string) (*Client, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("niri socket %s: %w", path, err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return nil, fmt.Errorf("niri socket %s: not a unix socket", path)
	}
	return &Client{
		socketPath: path,
		timeout:    5 * time.Second,
	}, nil
}

// SocketPath returns the socket this client connects to.
func (c *Client) SocketPath() string {
	return c.socketPath
}

type reply struct {
	Ok  json.RawMessage `json:"Ok"`
	Err *string         `json:"Err"`
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	d.Timeout = c.timeout
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to niri: %w", err)
	}
	return conn, nil
}

func writeRequest(conn net.Conn, request string) error {
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("failed to send %s request: %w", request, err)
	}
	return nil
}

func readReply(reader *bufio.Reader, request string) (json.RawMessage, error) {
	line, err := reader.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return nil, fmt.Errorf("failed to read %s reply: %w", request, err)
	}

	var r reply
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("failed to parse %s reply: %w", request, err)
	}
	if r.Err != nil {
		return nil, &ReplyError{Request: request, Message: *r.Err}
	}
	if r.Ok == nil {
		return nil, fmt.Errorf("failed to parse %s reply: missing Ok", request)
	}
	return r.Ok, nil
}

// request sends a unit request and decodes the tagged response payload into
// out. Responses look like {"Ok":{"<request>":<payload>}}.
func (c *Client) request(ctx context.Context, request string, out any) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	if err := writeRequest(conn, request); err != nil {
		return err
	}

	ok, err := readReply(bufio.NewReader(conn), request)
	if err != nil {
		return err
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(ok, &tagged); err != nil {
		return fmt.Errorf("failed to parse %s reply: %w", request, err)
	}
	payload, found := tagged[request]
	if !found {
		return fmt.Errorf("failed to parse %s reply: missing %q", request, request)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to parse %s reply: %w", request, err)
	}
	return nil
}

// Workspaces lists all workspaces.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	var out []Workspace
	if err := c.request(ctx, "Workspaces", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Windows lists all open windows.
func (c *Client) Windows(ctx context.Context) ([]Window, error) {
	var out []Window
	if err := c.request(ctx, "Windows", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FocusedOutput returns the focused output, or nil when none is focused.
func (c *Client) FocusedOutput(ctx context.Context) (*Output, error) {
	var out *Output
	if err := c.request(ctx, "FocusedOutput", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EventStream is a subscribed connection delivering one event per line.
type EventStream struct {
	conn   net.Conn
	reader *bufio.Reader
}

// EventStream subscribes to the niri event stream. The returned stream owns
// its connection; callers must Close it.
func (c *Client) EventStream(ctx context.Context) (*EventStream, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	conn.SetDeadline(time.Now().Add(c.timeout))
	if err := writeRequest(conn, "EventStream"); err != nil {
		conn.Close()
		return nil, err
	}
	reader := bufio.NewReader(conn)
	if _, err := readReply(reader, "EventStream"); err != nil {
		conn.Close()
		return nil, err
	}
	// Events arrive at the compositor's pace; no read deadline from here on.
	conn.SetDeadline(time.Time{})

	return &EventStream{conn: conn, reader: reader}, nil
}

// NextLine blocks until the next non-empty event line arrives. It returns
// io.EOF when niri closes the stream.
func (s *EventStream) NextLine() ([]byte, error) {
	for {
		line, err := s.reader.ReadBytes('\n')
		if len(line) > 0 {
			trimmed := bytes.TrimSpace(line)
			if len(trimmed) > 0 {
				return trimmed, nil
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

// Next reads and decodes the next event.
func (s *EventStream) Next() (*Event, error) {
	line, err := s.NextLine()
	if err != nil {
		return nil, err
	}
	return ParseEvent(line)
}

// Close closes the underlying connection, unblocking any pending read.
func (s *EventStream) Close() error {
	return s.conn.Close()
}
